package tracker

import (
	"fmt"
	"sort"

	"github.com/giladbarnea/ti-sub000/internal/container"
)

// Day maps activity names to activities for one calendar date. A missing name
// auto-vivifies into an empty Activity carrying that name, so callers never
// check for existence before touching one.
type Day struct {
	acts *container.Map[*Activity]
}

// NewDay builds an empty day.
func NewDay() *Day {
	return &Day{
		acts: container.NewMap(
			func(name string, raw any) (*Activity, error) {
				return DecodeActivity(name, raw)
			},
			NewActivity,
		),
	}
}

// DecodeDay builds a day from a raw name→entry-list mapping. Activities are
// seeded raw, in sorted name order for determinism, and only coerced when
// first read.
func DecodeDay(raw map[string]any) *Day {
	d := NewDay()
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.acts.SetRaw(name, raw[name])
	}
	return d
}

// Activity returns the activity under name, vivifying it when missing. It
// only errors when a stored raw value is malformed.
func (d *Day) Activity(name string) (*Activity, error) {
	return d.acts.Get(name)
}

// Names returns activity names in insertion order.
func (d *Day) Names() []string { return d.acts.Keys() }

// Len returns the number of activities.
func (d *Day) Len() int { return d.acts.Len() }

// Encode renders the day back to file primitives, dropping activities that
// never accrued an entry.
func (d *Day) Encode() (map[string]any, error) {
	doc := make(map[string]any)
	for _, name := range d.acts.Keys() {
		act, err := d.acts.Get(name)
		if err != nil {
			return nil, fmt.Errorf("activity %q: %w", name, err)
		}
		entries, err := act.Encode()
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			continue
		}
		doc[name] = entries
	}
	return doc, nil
}
