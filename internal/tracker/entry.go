// Package tracker holds the activity-tracking domain model: Entry, Activity,
// Day and Work, and the start/stop state machine over them. All of it is built
// on the lazy cells in internal/container, so a Work decoded from plain file
// primitives becomes a graph of live objects only as it is touched.
package tracker

import (
	"fmt"
	"time"

	"github.com/giladbarnea/ti-sub000/internal/container"
	"github.com/giladbarnea/ti-sub000/internal/timeutil"
)

// Note is one free-text annotation on an entry, optionally timestamped.
type Note struct {
	Content string
	Time    *timeutil.Time
}

// Entry is a single timespan of work: a required start, an optional end, and
// optional tags, notes and ticket reference. Entries never start or stop
// themselves; Activity assigns into them.
type Entry struct {
	fields *container.Fields

	start *container.Field[timeutil.Time]
	end   *container.Field[timeutil.Time]
	tags  *container.Field[[]string]
	notes *container.Field[[]Note]
	jira  *container.Field[string]
}

func castTime(raw any) (timeutil.Time, error) {
	switch v := raw.(type) {
	case timeutil.Time:
		return v, nil
	case string:
		return timeutil.Parse(v)
	default:
		return timeutil.Time{}, fmt.Errorf("want timestamp string, got %T", raw)
	}
}

func castNote(raw any) (Note, error) {
	switch v := raw.(type) {
	case string:
		return Note{Content: v}, nil
	case map[string]any:
		n := Note{}
		content, ok := v["content"].(string)
		if !ok {
			return Note{}, fmt.Errorf("note object missing content: %v", v)
		}
		n.Content = content
		if ts, ok := v["time"]; ok {
			t, err := castTime(ts)
			if err != nil {
				return Note{}, err
			}
			n.Time = &t
		}
		return n, nil
	default:
		return Note{}, fmt.Errorf("want note string or object, got %T", raw)
	}
}

// validTime rejects assignments that would not survive castTime, so malformed
// timestamps fail when set (including at construction), not on first read.
func validTime(raw any) error {
	_, err := castTime(raw)
	return err
}

// castTags coerces each element to a string and drops duplicates, comparing
// by normalized form while keeping the first-seen display form.
func castTags(raw any) ([]string, error) {
	tags, err := container.CastSlice(container.CastString)(raw)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(tags))
	out := tags[:0]
	for _, tag := range tags {
		key := NormalizeName(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out, nil
}

// NewEntry builds an empty entry with its field table declared.
func NewEntry() *Entry {
	e := &Entry{
		start: container.NewField[timeutil.Time]("Entry", "start",
			container.WithCast[timeutil.Time](castTime),
			container.WithValidate[timeutil.Time](validTime)),
		end: container.NewField[timeutil.Time]("Entry", "end",
			container.WithCast[timeutil.Time](castTime),
			container.WithValidate[timeutil.Time](validTime),
			container.Optional[timeutil.Time]()),
		tags: container.NewField[[]string]("Entry", "tags",
			container.WithCast[[]string](castTags),
			container.WithFactory[[]string](func() []string { return nil })),
		notes: container.NewField[[]Note]("Entry", "notes",
			container.WithCast[[]Note](container.CastSlice(castNote)),
			container.WithFactory[[]Note](func() []Note { return nil })),
		jira: container.NewField[string]("Entry", "jira",
			container.WithCast[string](container.CastString),
			container.Optional[string]()),
	}
	fs := container.NewFields("Entry")
	fs.Declare("start", e.start)
	fs.Declare("end", e.end)
	fs.Declare("tags", e.tags)
	fs.Declare("notes", e.notes)
	fs.Declare("jira", e.jira)
	e.fields = fs
	return e
}

// DecodeEntry builds an entry from a raw mapping as read from the file.
// Declared keys go through their casts and validators, so malformed
// timestamps fail here, at construction time.
func DecodeEntry(raw map[string]any) (*Entry, error) {
	e := NewEntry()
	if err := e.fields.Fill(raw); err != nil {
		return nil, err
	}
	return e, nil
}

// Set writes a value by key, mirroring the typed accessors.
func (e *Entry) Set(key string, v any) error { return e.fields.Set(key, v) }

// Get reads a resolved value by key, mirroring the typed accessors.
func (e *Entry) Get(key string) (any, error) { return e.fields.Get(key) }

// Start returns the entry's start timestamp.
func (e *Entry) Start() (timeutil.Time, error) { return e.start.Get() }

// SetStart assigns the start timestamp; raw strings are accepted and parsed
// on the next read.
func (e *Entry) SetStart(v any) error { return e.start.Set(v) }

// End returns the end timestamp; ok is false while the entry is open.
func (e *Entry) End() (timeutil.Time, bool, error) { return e.end.Lookup() }

// SetEnd closes the entry at the given timestamp.
func (e *Entry) SetEnd(v any) error { return e.end.Set(v) }

// Closed reports whether the entry has an end timestamp.
func (e *Entry) Closed() bool {
	_, ok, err := e.end.Lookup()
	return err == nil && ok
}

// Tags returns the deduplicated tag list.
func (e *Entry) Tags() ([]string, error) { return e.tags.Get() }

// AddTag appends a tag unless an equivalent one (by normalized form) is
// already present.
func (e *Entry) AddTag(tag string) error {
	tags, err := e.tags.Get()
	if err != nil {
		return err
	}
	key := NormalizeName(tag)
	for _, have := range tags {
		if NormalizeName(have) == key {
			return nil
		}
	}
	return e.tags.Set(append(tags, tag))
}

// Notes returns the ordered note list.
func (e *Entry) Notes() ([]Note, error) { return e.notes.Get() }

// AddNote appends a note.
func (e *Entry) AddNote(n Note) error {
	notes, err := e.notes.Get()
	if err != nil {
		return err
	}
	return e.notes.Set(append(notes, n))
}

// Jira returns the external ticket reference, if any.
func (e *Entry) Jira() (string, bool) {
	v, ok, err := e.jira.Lookup()
	if err != nil || !ok {
		return "", false
	}
	return v, true
}

// Duration returns end minus start; ok is false while the entry is open or its
// timestamps do not resolve.
func (e *Entry) Duration() (time.Duration, bool) {
	start, err := e.start.Get()
	if err != nil {
		return 0, false
	}
	end, ok, err := e.end.Lookup()
	if err != nil || !ok {
		return 0, false
	}
	return end.Sub(start), true
}

// Before orders entries by start timestamp. Entries with an unresolvable
// start sort first.
func (e *Entry) Before(other *Entry) bool {
	a, errA := e.start.Get()
	b, errB := other.start.Get()
	if errA != nil {
		return errB == nil
	}
	if errB != nil {
		return false
	}
	return a.Before(b)
}

// Encode renders the entry back to file primitives. Notes without a timestamp
// collapse to plain strings. Undeclared keys read from the file are carried
// through untouched.
func (e *Entry) Encode() (map[string]any, error) {
	doc := make(map[string]any)
	start, err := e.start.Get()
	if err != nil {
		return nil, err
	}
	doc["start"] = start.String()
	if end, ok, err := e.end.Lookup(); err != nil {
		return nil, err
	} else if ok {
		doc["end"] = end.String()
	}
	if tags, err := e.tags.Get(); err != nil {
		return nil, err
	} else if len(tags) > 0 {
		doc["tags"] = tags
	}
	notes, err := e.notes.Get()
	if err != nil {
		return nil, err
	}
	if len(notes) > 0 {
		encoded := make([]any, 0, len(notes))
		for _, n := range notes {
			if n.Time == nil {
				encoded = append(encoded, n.Content)
				continue
			}
			encoded = append(encoded, map[string]any{"content": n.Content, "time": n.Time.String()})
		}
		doc["notes"] = encoded
	}
	if jira, ok := e.Jira(); ok {
		doc["jira"] = jira
	}
	for _, key := range e.fields.ExtraKeys() {
		if v, ok := e.fields.Extra(key); ok {
			doc[key] = v
		}
	}
	return doc, nil
}
