// Package store persists a tracker.Work. The primary representation is a
// single TOML or YAML file (picked by extension); Archive additionally
// flattens closed entries into a sqlite database for ad-hoc querying.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "go.yaml.in/yaml/v3"

	"github.com/giladbarnea/ti-sub000/internal/tracker"
)

// BackupSuffix is appended to the sheet path for the pre-write backup copy.
const BackupSuffix = ".backup"

// DumpError reports a failed write along with the outcome of the backup
// restoration attempted afterwards.
type DumpError struct {
	Err        error
	RestoreErr error
}

func (e *DumpError) Error() string {
	if e.RestoreErr != nil {
		return fmt.Sprintf("dump: %v (backup restore also failed: %v)", e.Err, e.RestoreErr)
	}
	return fmt.Sprintf("dump: %v (previous content restored from backup)", e.Err)
}

func (e *DumpError) Unwrap() error { return e.Err }

// FileStore loads and dumps a Work document from one structured file.
type FileStore struct {
	path string
	log  *slog.Logger

	// write performs the final sheet write. Tests swap it to force failures.
	write func(name string, data []byte, perm os.FileMode) error
}

// NewFile builds a store over path. The codec is picked by extension: .yaml
// and .yml use YAML, everything else TOML.
func NewFile(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, log: logger, write: os.WriteFile}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) yaml() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads the sheet into a Work. A missing file is created empty and
// yields an empty history.
func (s *FileStore) Load() (*tracker.Work, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info("sheet missing, creating", "path", s.path)
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return nil, fmt.Errorf("create sheet dir: %w", err)
		}
		if err := os.WriteFile(s.path, nil, 0o644); err != nil {
			return nil, fmt.Errorf("create sheet: %w", err)
		}
		return tracker.NewWork(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	doc := make(map[string]any)
	if s.yaml() {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = toml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode sheet: %w", err)
	}
	s.log.Debug("sheet loaded", "path", s.path, "days", len(doc))
	return tracker.Decode(normalize(doc)), nil
}

// Dump writes the Work back to the sheet. The previous content is copied to a
// backup first; when the write fails the backup is restored before the error
// propagates.
func (s *FileStore) Dump(w *tracker.Work) error {
	doc, err := w.Encode()
	if err != nil {
		return fmt.Errorf("encode sheet: %w", err)
	}
	var data []byte
	if s.yaml() {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = toml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("marshal sheet: %w", err)
	}

	prev, err := os.ReadFile(s.path)
	hadPrev := err == nil
	if hadPrev {
		if err := os.WriteFile(s.path+BackupSuffix, prev, 0o644); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
	}

	if err := s.write(s.path, data, 0o644); err != nil {
		dumpErr := &DumpError{Err: err}
		if hadPrev {
			dumpErr.RestoreErr = os.WriteFile(s.path, prev, 0o644)
		}
		s.log.Error("sheet write failed", "path", s.path, "error", err)
		return dumpErr
	}
	s.log.Debug("sheet written", "path", s.path, "bytes", len(data))
	return nil
}

// normalize rewrites nested YAML/TOML decode shapes into the map[string]any /
// []any forms the tracker coerces from. YAML in particular can produce
// map[any]any for nested mappings.
func normalize(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = normalizeValue(val)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalize(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
