package container

import "sort"

// Cell is the untyped face of a Field, letting a Fields table hold fields of
// different value types behind one key-style interface.
type Cell interface {
	Set(v any) error
	Value() (any, error)
	LookupValue() (any, bool, error)
	Unset()
	IsSet() bool
	Raw() (any, bool)
}

// Fields is a named-field table over a raw key→value mapping. Declared keys
// route every read and write through their Field's cast/validate/cache rules;
// undeclared keys behave like plain map entries. Typed accessors on the owning
// struct and key-style access through this table share the same cells, which
// is what keeps the two views in sync.
type Fields struct {
	owner string
	cells map[string]Cell
	order []string

	extra      map[string]any
	extraOrder []string
}

// NewFields creates an empty table for the named owner type.
func NewFields(owner string) *Fields {
	return &Fields{
		owner: owner,
		cells: make(map[string]Cell),
		extra: make(map[string]any),
	}
}

// Declare registers a field cell under the given key. Declaration order is
// preserved for serialization.
func (fs *Fields) Declare(key string, c Cell) {
	if _, dup := fs.cells[key]; dup {
		panic(fs.owner + ": duplicate field " + key)
	}
	fs.cells[key] = c
	fs.order = append(fs.order, key)
}

// Fill assigns initial values from a raw mapping, invoking Set for every
// declared key so validation and casting rules apply at construction time.
// Undeclared keys pass through as plain entries.
func (fs *Fields) Fill(raw map[string]any) error {
	for _, key := range fs.order {
		if v, ok := raw[key]; ok {
			if err := fs.Set(key, v); err != nil {
				return err
			}
		}
	}
	// A Go map carries no document order, so undeclared keys are stored
	// sorted to keep Fill deterministic.
	extras := make([]string, 0)
	for key := range raw {
		if _, declared := fs.cells[key]; !declared {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		fs.extra[key] = raw[key]
		fs.extraOrder = append(fs.extraOrder, key)
	}
	return nil
}

// Set writes a value under key: through the declared cell when one exists,
// else into the plain entry map.
func (fs *Fields) Set(key string, v any) error {
	if c, ok := fs.cells[key]; ok {
		return c.Set(v)
	}
	if _, seen := fs.extra[key]; !seen {
		fs.extraOrder = append(fs.extraOrder, key)
	}
	fs.extra[key] = v
	return nil
}

// Get reads the resolved value under key. Declared fields resolve lazily per
// their rules; a missing undeclared key yields an UnsetFieldError.
func (fs *Fields) Get(key string) (any, error) {
	if c, ok := fs.cells[key]; ok {
		return c.Value()
	}
	if v, ok := fs.extra[key]; ok {
		return v, nil
	}
	return nil, &UnsetFieldError{Owner: fs.owner, Field: key}
}

// Lookup reads the value under key, reporting absence instead of erroring.
func (fs *Fields) Lookup(key string) (any, bool, error) {
	if c, ok := fs.cells[key]; ok {
		return c.LookupValue()
	}
	v, ok := fs.extra[key]
	return v, ok, nil
}

// Unset clears the value under key.
func (fs *Fields) Unset(key string) {
	if c, ok := fs.cells[key]; ok {
		c.Unset()
		return
	}
	delete(fs.extra, key)
	for i, k := range fs.extraOrder {
		if k == key {
			fs.extraOrder = append(fs.extraOrder[:i], fs.extraOrder[i+1:]...)
			break
		}
	}
}

// DeclaredKeys returns the declared field keys in declaration order.
func (fs *Fields) DeclaredKeys() []string {
	return append([]string(nil), fs.order...)
}

// ExtraKeys returns the undeclared keys in first-set order.
func (fs *Fields) ExtraKeys() []string {
	return append([]string(nil), fs.extraOrder...)
}

// Extra returns the undeclared entry under key.
func (fs *Fields) Extra(key string) (any, bool) {
	v, ok := fs.extra[key]
	return v, ok
}
