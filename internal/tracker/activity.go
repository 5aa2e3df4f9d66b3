package tracker

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/giladbarnea/ti-sub000/internal/container"
	"github.com/giladbarnea/ti-sub000/internal/timeutil"
)

var nonWord = regexp.MustCompile(`[\W_]+`)

// NormalizeName case-folds a name and strips non-word characters. Two names
// with equal normalized forms are treated as probably-the-same task.
func NormalizeName(name string) string {
	return nonWord.ReplaceAllString(strings.ToLower(name), "")
}

// Activity is a named, ordered sequence of entries. At most the last entry may
// be open; the activity is ongoing exactly when it is.
//
// The entry list is a lazy cell: raw entry mappings from the file are coerced
// to live *Entry objects on first access and memoized, so repeated reads see
// the same instances.
type Activity struct {
	name    string
	entries *container.Field[[]*Entry]
}

func castEntry(raw any) (*Entry, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("want entry mapping, got %T", raw)
	}
	return DecodeEntry(m)
}

// NewActivity builds an empty activity with the given display name.
func NewActivity(name string) *Activity {
	return &Activity{
		name: name,
		entries: container.NewField[[]*Entry]("Activity", "entries",
			container.WithCast[[]*Entry](container.CastSlice(castEntry)),
			container.WithFactory[[]*Entry](func() []*Entry { return nil })),
	}
}

// DecodeActivity builds an activity from the raw entry list stored under its
// name in a day document. The list itself stays raw until first read.
//
// Decoding does not verify that only the last entry is open. The state
// machine never produces an earlier open entry, but a hand-edited sheet can;
// such a stray entry is treated like any other manual-edit inconsistency:
// Ongoing still inspects only the last entry, and Duration counts only closed
// ones.
func DecodeActivity(name string, raw any) (*Activity, error) {
	a := NewActivity(name)
	if err := a.entries.Set(raw); err != nil {
		return nil, err
	}
	return a, nil
}

// Name returns the display name. Color applied at render time is a
// presentation concern, never identity.
func (a *Activity) Name() string { return a.name }

// Entries resolves and returns the entry list.
func (a *Activity) Entries() ([]*Entry, error) { return a.entries.Get() }

// SafeLastEntry returns the last entry, or false for an empty activity. It
// never errors; an unresolvable entry list reads as empty.
func (a *Activity) SafeLastEntry() (*Entry, bool) {
	entries, err := a.entries.Get()
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries[len(entries)-1], true
}

// Ongoing reports whether the last entry exists and is still open.
func (a *Activity) Ongoing() bool {
	last, ok := a.SafeLastEntry()
	return ok && !last.Closed()
}

// HasSimilarName reports whether other normalizes to the same form as the
// activity's own name.
func (a *Activity) HasSimilarName(other string) bool {
	return NormalizeName(a.name) == NormalizeName(other)
}

// Start opens a new entry at t. Legal from the empty and closed states;
// starting an ongoing activity fails.
func (a *Activity) Start(t timeutil.Time, tag, note string) (*Entry, error) {
	if a.Ongoing() {
		return nil, fmt.Errorf("%q: %w", a.name, ErrAlreadyOngoing)
	}
	entries, err := a.entries.Get()
	if err != nil {
		return nil, err
	}
	e := NewEntry()
	if err := e.SetStart(t); err != nil {
		return nil, err
	}
	if tag != "" {
		if err := e.AddTag(tag); err != nil {
			return nil, err
		}
	}
	if note != "" {
		if err := e.AddNote(Note{Content: note, Time: &t}); err != nil {
			return nil, err
		}
	}
	if err := a.entries.Set(append(entries, e)); err != nil {
		return nil, err
	}
	return e, nil
}

// Stop closes the open entry at t and returns it. Fails when the activity is
// not ongoing, and when t precedes the open entry's start; the failure paths
// leave the entry untouched.
func (a *Activity) Stop(t timeutil.Time, tag, note string) (*Entry, error) {
	last, ok := a.SafeLastEntry()
	if !ok || last.Closed() {
		return nil, fmt.Errorf("%q: %w", a.name, ErrNotOngoing)
	}
	start, err := last.Start()
	if err != nil {
		return nil, err
	}
	if t.Before(start) {
		return nil, fmt.Errorf("%q: %w (start %s, stop %s)", a.name, ErrStopBeforeStart, start, t)
	}
	if err := last.SetEnd(t); err != nil {
		return nil, err
	}
	if tag != "" {
		if err := last.AddTag(tag); err != nil {
			return nil, err
		}
	}
	if note != "" {
		if err := last.AddNote(Note{Content: note, Time: &t}); err != nil {
			return nil, err
		}
	}
	return last, nil
}

// Duration sums the durations of closed entries. Open entries contribute
// nothing to stored totals.
func (a *Activity) Duration() time.Duration {
	entries, err := a.entries.Get()
	if err != nil {
		return 0
	}
	var total time.Duration
	for _, e := range entries {
		if d, ok := e.Duration(); ok {
			total += d
		}
	}
	return total
}

// Seconds returns the closed-entry total in whole seconds.
func (a *Activity) Seconds() int64 { return int64(a.Duration().Seconds()) }

// HumanDuration renders the closed-entry total, e.g. "2h 35m".
func (a *Activity) HumanDuration() string { return timeutil.HumanDuration(a.Duration()) }

// Encode renders the entry list back to file primitives.
func (a *Activity) Encode() ([]any, error) {
	entries, err := a.entries.Get()
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		doc, err := e.Encode()
		if err != nil {
			return nil, fmt.Errorf("%q: %w", a.name, err)
		}
		out = append(out, doc)
	}
	return out, nil
}
