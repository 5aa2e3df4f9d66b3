package container

import "fmt"

// Map is an insertion-ordered string-keyed map with lazy element coercion and
// auto-vivification. Values start out as raw primitives (as read from the
// persisted file) and are coerced into V in place on first access, so repeated
// reads of the same key return the same instance and in-place mutation of the
// returned object sticks.
type Map[V any] struct {
	keys   []string
	vals   map[string]any
	coerce func(key string, raw any) (V, error)
	fresh  func(key string) V
}

// NewMap builds a Map whose raw values coerce through coerce and whose
// missing keys vivify through fresh. fresh receives the key as a construction
// hint (an entity's name or date).
func NewMap[V any](coerce func(string, any) (V, error), fresh func(string) V) *Map[V] {
	return &Map[V]{
		vals:   make(map[string]any),
		coerce: coerce,
		fresh:  fresh,
	}
}

// Len returns the number of keys.
func (m *Map[V]) Len() int { return len(m.keys) }

// Has reports whether key is present, without vivifying it.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.vals[key]
	return ok
}

// Keys returns all keys in insertion order.
func (m *Map[V]) Keys() []string {
	return append([]string(nil), m.keys...)
}

// SetRaw stores an uncoerced value under key, appending the key if new. The
// load path uses this to seed the map with primitives from the file.
func (m *Map[V]) SetRaw(key string, raw any) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = raw
}

// Get returns the value under key, coercing a stored raw value in place and
// auto-vivifying a missing key. A value that is already a V is returned
// unchanged. Coercion failures propagate; they are never swallowed.
func (m *Map[V]) Get(key string) (V, error) {
	if raw, ok := m.vals[key]; ok {
		if v, ok := raw.(V); ok {
			return v, nil
		}
		v, err := m.coerce(key, raw)
		if err != nil {
			var zero V
			return zero, fmt.Errorf("key %q: %w", key, err)
		}
		m.vals[key] = v
		return v, nil
	}
	v := m.fresh(key)
	m.SetRaw(key, v)
	return v, nil
}

// Peek returns the value under key without vivifying a missing key. A stored
// raw value is still coerced and memoized in place.
func (m *Map[V]) Peek(key string) (V, bool, error) {
	var zero V
	if _, ok := m.vals[key]; !ok {
		return zero, false, nil
	}
	v, err := m.Get(key)
	if err != nil {
		return zero, true, err
	}
	return v, true, nil
}
