package store

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/giladbarnea/ti-sub000/internal/timeutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileStore_MissingFileCreatedEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.toml")
	s := NewFile(path, quietLogger())

	w, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Len() != 0 {
		t.Fatalf("expected empty history, got %d days", w.Len())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("load must create the missing file: %v", err)
	}
}

func TestFileStore_TOMLRoundTripIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.toml")
	seed := `["02/11/21"]
"Got to office" = [{start = "02:20", end = "03:05", tags = ["commute"]}]
`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := NewFile(path, quietLogger())

	// load → dump → load → dump: the second output must match the first
	// byte for byte.
	w, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Dump(w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w, err = s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Dump(w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("round trip not stable:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestFileStore_YAMLByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.yaml")
	seed := "02/11/21:\n  Got to office:\n    - start: \"02:20\"\n"
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := NewFile(path, quietLogger())

	w, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	act, err := w.OngoingActivity()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if act.Name() != "Got to office" {
		t.Fatalf("wrong activity: %q", act.Name())
	}

	if err := s.Dump(w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reloaded, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Len() != 1 {
		t.Fatalf("expected 1 day after reload, got %d", reloaded.Len())
	}
}

func TestFileStore_DumpBacksUpPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.toml")
	seed := `["02/11/21"]
"Got to office" = [{start = "02:20"}]
`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := NewFile(path, quietLogger())

	w, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := w.Stop(mustParse(t, "04:00"), "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Dump(w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	backup, err := os.ReadFile(path + BackupSuffix)
	if err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
	if !bytes.Equal(backup, []byte(seed)) {
		t.Fatalf("backup must hold the pre-write content:\n%s", backup)
	}
}

func TestFileStore_FailedDumpRestoresPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.toml")
	seed := `["02/11/21"]
"Got to office" = [{start = "02:20"}]
`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := NewFile(path, quietLogger())

	w, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := w.Stop(mustParse(t, "04:00"), "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Leave a partial write behind and fail, as an interrupted write would.
	s.write = func(name string, data []byte, perm os.FileMode) error {
		_ = os.WriteFile(name, data[:len(data)/2], perm)
		return errors.New("disk full")
	}

	err = s.Dump(w)
	var dumpErr *DumpError
	if !errors.As(err, &dumpErr) {
		t.Fatalf("expected DumpError, got %v", err)
	}
	if dumpErr.RestoreErr != nil {
		t.Fatalf("expected successful restore, got %v", dumpErr.RestoreErr)
	}

	// The sheet must hold the pre-write content again, not the torn write.
	got, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("unexpected error: %v", readErr)
	}
	if !bytes.Equal(got, []byte(seed)) {
		t.Fatalf("sheet not restored after failed write:\n%s", got)
	}
}

func TestFileStore_LoadRejectsMalformedSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewFile(path, quietLogger()).Load(); err == nil {
		t.Fatalf("expected decode error")
	}
}

func mustParse(t *testing.T, s string) timeutil.Time {
	t.Helper()
	ts, err := timeutil.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}
