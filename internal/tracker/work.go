package tracker

import (
	"errors"
	"fmt"
	"sort"

	"github.com/giladbarnea/ti-sub000/internal/container"
	"github.com/giladbarnea/ti-sub000/internal/timeutil"
)

// Work is the whole tracked history, a map from day-key to Day. It owns the
// one global invariant: at most one activity anywhere in the structure is
// ongoing.
type Work struct {
	days *container.Map[*Day]
}

// NewWork builds an empty history.
func NewWork() *Work {
	return &Work{
		days: container.NewMap(
			func(key string, raw any) (*Day, error) {
				m, ok := raw.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("want day mapping, got %T", raw)
				}
				return DecodeDay(m), nil
			},
			func(string) *Day { return NewDay() },
		),
	}
}

// Decode builds a Work from the top-level document read from the file. Day
// values are seeded raw and only coerced when first touched.
func Decode(doc map[string]any) *Work {
	w := NewWork()
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sortDayKeys(keys)
	for _, key := range keys {
		w.days.SetRaw(key, doc[key])
	}
	return w
}

// sortDayKeys orders day keys chronologically. Keys that do not parse as day
// keys sort after all valid ones, keeping their relative lexicographic order.
func sortDayKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		ti, errI := timeutil.ParseDayKey(keys[i])
		tj, errJ := timeutil.ParseDayKey(keys[j])
		if errI != nil || errJ != nil {
			if errI == nil {
				return true
			}
			if errJ == nil {
				return false
			}
			return keys[i] < keys[j]
		}
		return ti.Before(tj)
	})
}

// Day returns the day under key, vivifying it when missing.
func (w *Work) Day(key string) (*Day, error) { return w.days.Get(key) }

// DayKeys returns the day keys in insertion order.
func (w *Work) DayKeys() []string { return w.days.Keys() }

// Len returns the number of days.
func (w *Work) Len() int { return w.days.Len() }

// OngoingActivity scans days in reverse date order and activities within each
// day in reverse insertion order, returning the first ongoing activity. The
// reverse scan bets that the ongoing activity is the most recently touched
// one. Fails with ErrNoOngoing when nothing is ongoing anywhere.
func (w *Work) OngoingActivity() (*Activity, error) {
	keys := w.days.Keys()
	sortDayKeys(keys)
	for i := len(keys) - 1; i >= 0; i-- {
		day, err := w.days.Get(keys[i])
		if err != nil {
			return nil, fmt.Errorf("day %q: %w", keys[i], err)
		}
		names := day.Names()
		for j := len(names) - 1; j >= 0; j-- {
			act, err := day.Activity(names[j])
			if err != nil {
				return nil, fmt.Errorf("day %q: %w", keys[i], err)
			}
			if act.Ongoing() {
				return act, nil
			}
		}
	}
	return nil, ErrNoOngoing
}

// On switches the tracked activity to name at time t:
//
//   - nothing ongoing: start name under t's day.
//   - name itself ongoing: fail with ErrAlreadyOngoing.
//   - a near-duplicate of name ongoing: fail with ErrSimilarOngoing rather
//     than silently starting a twin.
//   - anything else ongoing: stop it at t, then start name at t. One logical
//     transition; the stop must succeed before the start is attempted.
func (w *Work) On(name string, t timeutil.Time, tag, note string) (*Activity, error) {
	ongoing, err := w.OngoingActivity()
	switch {
	case errors.Is(err, ErrNoOngoing):
		// Nothing to hand off from.
	case err != nil:
		return nil, err
	case ongoing.Name() == name:
		return nil, fmt.Errorf("%q: %w", name, ErrAlreadyOngoing)
	case ongoing.HasSimilarName(name):
		return nil, fmt.Errorf("%q vs %q: %w", ongoing.Name(), name, ErrSimilarOngoing)
	default:
		if _, err := ongoing.Stop(t, "", ""); err != nil {
			return nil, err
		}
	}
	day, err := w.Day(t.DayKey())
	if err != nil {
		return nil, err
	}
	act, err := day.Activity(name)
	if err != nil {
		return nil, err
	}
	if _, err := act.Start(t, tag, note); err != nil {
		return nil, err
	}
	return act, nil
}

// Stop closes the ongoing activity at t and returns it with its now-closed
// entry. Fails like OngoingActivity when nothing is ongoing.
func (w *Work) Stop(t timeutil.Time, tag, note string) (*Activity, *Entry, error) {
	act, err := w.OngoingActivity()
	if err != nil {
		return nil, nil, err
	}
	entry, err := act.Stop(t, tag, note)
	if err != nil {
		return nil, nil, err
	}
	return act, entry, nil
}

// AddTag attaches a tag to the ongoing activity's open entry.
func (w *Work) AddTag(tag string) (*Activity, error) {
	act, err := w.OngoingActivity()
	if err != nil {
		return nil, err
	}
	last, ok := act.SafeLastEntry()
	if !ok {
		return nil, fmt.Errorf("%q: %w", act.Name(), ErrNotOngoing)
	}
	if err := last.AddTag(tag); err != nil {
		return nil, err
	}
	return act, nil
}

// AddNote attaches a timestamped note to the ongoing activity's open entry.
func (w *Work) AddNote(content string, t timeutil.Time) (*Activity, error) {
	act, err := w.OngoingActivity()
	if err != nil {
		return nil, err
	}
	last, ok := act.SafeLastEntry()
	if !ok {
		return nil, fmt.Errorf("%q: %w", act.Name(), ErrNotOngoing)
	}
	if err := last.AddNote(Note{Content: content, Time: &t}); err != nil {
		return nil, err
	}
	return act, nil
}

// Encode renders the whole history back to file primitives, dropping days
// that end up empty.
func (w *Work) Encode() (map[string]any, error) {
	doc := make(map[string]any)
	for _, key := range w.days.Keys() {
		day, err := w.days.Get(key)
		if err != nil {
			return nil, fmt.Errorf("day %q: %w", key, err)
		}
		encoded, err := day.Encode()
		if err != nil {
			return nil, fmt.Errorf("day %q: %w", key, err)
		}
		if len(encoded) == 0 {
			continue
		}
		doc[key] = encoded
	}
	return doc, nil
}
