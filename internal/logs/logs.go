// Package logs builds the process logger: a stderr text handler, fanned out
// to an append-only log file when one is configured.
package logs

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"

	"github.com/giladbarnea/ti-sub000/internal/config"
)

// New builds the logger described by cfg. The returned closer releases the
// log file, if one was opened.
func New(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}

	var closer io.Closer
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closer = f
		handlers = append(handlers,
			slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}
