package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/giladbarnea/ti-sub000/internal/tracker"
)

//go:embed schema.sql
var schema string

// Archive is a sqlite flattening of the sheet's closed entries, for ad-hoc
// SQL reporting. It is derived data; the sheet file stays the source of
// truth.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (creating if needed) the archive database at dbPath.
func OpenArchive(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database connection.
func (a *Archive) Close() error { return a.db.Close() }

// ExportWork upserts every closed entry of the history into the archive and
// returns the number of rows written. Open entries are skipped; they land on
// the next export, once closed.
func (a *Archive) ExportWork(w *tracker.Work) (int, error) {
	tx, err := a.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO entries (id, day_key, activity, start, end, seconds, jira, tags, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (day_key, activity, start) DO UPDATE SET
			end = excluded.end,
			seconds = excluded.seconds,
			jira = excluded.jira,
			tags = excluded.tags,
			notes = excluded.notes`)
	if err != nil {
		return 0, fmt.Errorf("prepare export: %w", err)
	}
	defer stmt.Close()

	rows := 0
	for _, key := range w.DayKeys() {
		day, err := w.Day(key)
		if err != nil {
			return 0, err
		}
		for _, name := range day.Names() {
			act, err := day.Activity(name)
			if err != nil {
				return 0, err
			}
			entries, err := act.Entries()
			if err != nil {
				return 0, fmt.Errorf("activity %q: %w", name, err)
			}
			for _, e := range entries {
				if !e.Closed() {
					continue
				}
				if err := exportEntry(stmt, key, name, e); err != nil {
					return 0, fmt.Errorf("activity %q: %w", name, err)
				}
				rows++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit export: %w", err)
	}
	return rows, nil
}

func exportEntry(stmt *sql.Stmt, dayKey, activity string, e *tracker.Entry) error {
	start, err := e.Start()
	if err != nil {
		return err
	}
	end, _, err := e.End()
	if err != nil {
		return err
	}
	seconds := int64(0)
	if d, ok := e.Duration(); ok {
		seconds = int64(d.Seconds())
	}
	tags, err := e.Tags()
	if err != nil {
		return err
	}
	notes, err := e.Notes()
	if err != nil {
		return err
	}
	noteTexts := make([]string, 0, len(notes))
	for _, n := range notes {
		noteTexts = append(noteTexts, n.Content)
	}
	var jira any
	if ref, ok := e.Jira(); ok {
		jira = ref
	}
	_, err = stmt.Exec(
		uuid.New().String(), dayKey, activity,
		start.String(), end.String(), seconds,
		jira, strings.Join(tags, ","), strings.Join(noteTexts, "\n"),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}
