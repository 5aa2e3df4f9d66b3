// Package container implements the lazy typed cells and auto-vivifying maps
// the tracker model is built on. A Field resolves its value on first read,
// caches the result per instance, and re-resolves after every write. A Map
// turns the plain nested documents read from disk into live domain objects the
// first time each key is touched, keeping object identity stable across reads.
package container

import "fmt"

// Field is a lazily resolved attribute cell. The raw value is whatever was
// last assigned (often a primitive straight from the persisted file); Get
// coerces it through the declared cast and memoizes the result. Caches live on
// the Field instance itself, never on shared state.
type Field[T any] struct {
	owner string
	name  string

	raw    any
	rawSet bool
	cached *T

	def      *T
	factory  func() T
	cast     func(any) (T, error)
	validate func(any) error
	optional bool
}

// FieldOption configures a Field at declaration time.
type FieldOption[T any] func(*Field[T])

// WithDefault sets the value resolved when the field was never assigned.
func WithDefault[T any](v T) FieldOption[T] {
	return func(f *Field[T]) { f.def = &v }
}

// WithFactory sets a producer invoked when the field was never assigned.
// Mutually exclusive with WithDefault.
func WithFactory[T any](fn func() T) FieldOption[T] {
	return func(f *Field[T]) { f.factory = fn }
}

// WithCast sets the coercion applied to the raw value before caching.
func WithCast[T any](fn func(any) (T, error)) FieldOption[T] {
	return func(f *Field[T]) { f.cast = fn }
}

// WithValidate sets a predicate checked on every assignment.
func WithValidate[T any](fn func(any) error) FieldOption[T] {
	return func(f *Field[T]) { f.validate = fn }
}

// Optional marks the field as resolving to absent, rather than erroring, when
// unset with no default.
func Optional[T any]() FieldOption[T] {
	return func(f *Field[T]) { f.optional = true }
}

// NewField declares a field named name on the given owner type. The owner is
// only used to label errors.
func NewField[T any](owner, name string, opts ...FieldOption[T]) *Field[T] {
	f := &Field[T]{owner: owner, name: name}
	for _, opt := range opts {
		opt(f)
	}
	if f.def != nil && f.factory != nil {
		panic(fmt.Sprintf("%s.%s: default and factory are mutually exclusive", owner, name))
	}
	return f
}

// Get resolves the field's value: cached if present, else computed from the
// raw value (or default, or factory) through the cast, then memoized. An unset
// required field yields an UnsetFieldError.
func (f *Field[T]) Get() (T, error) {
	v, ok, err := f.Lookup()
	if err != nil {
		return v, err
	}
	if !ok {
		return v, &UnsetFieldError{Owner: f.owner, Field: f.name}
	}
	return v, nil
}

// Lookup is Get for fields that may be absent: ok is false when the field is
// optional and resolves to nothing.
func (f *Field[T]) Lookup() (T, bool, error) {
	var zero T
	if f.cached != nil {
		return *f.cached, true, nil
	}
	switch {
	case f.rawSet:
		v := f.raw
		if f.cast != nil {
			cast, err := f.cast(v)
			if err != nil {
				return zero, false, &ValidationError{Owner: f.owner, Field: f.name, Value: v, Err: err}
			}
			f.cached = &cast
			return cast, true, nil
		}
		typed, ok := v.(T)
		if !ok {
			return zero, false, &ValidationError{
				Owner: f.owner, Field: f.name, Value: v,
				Err: fmt.Errorf("cannot use %T as field value", v),
			}
		}
		f.cached = &typed
		return typed, true, nil
	case f.def != nil:
		v := *f.def
		f.cached = &v
		return v, true, nil
	case f.factory != nil:
		v := f.factory()
		f.cached = &v
		return v, true, nil
	case f.optional:
		return zero, false, nil
	default:
		return zero, false, &UnsetFieldError{Owner: f.owner, Field: f.name}
	}
}

// Set validates and stores a new raw value, invalidating the cache.
func (f *Field[T]) Set(v any) error {
	if f.validate != nil {
		if err := f.validate(v); err != nil {
			return &ValidationError{Owner: f.owner, Field: f.name, Value: v, Err: err}
		}
	}
	f.raw = v
	f.rawSet = true
	f.cached = nil
	return nil
}

// Unset clears both the raw value and the cache.
func (f *Field[T]) Unset() {
	f.raw = nil
	f.rawSet = false
	f.cached = nil
}

// IsSet reports whether the field was explicitly assigned.
func (f *Field[T]) IsSet() bool { return f.rawSet }

// Raw returns the last assigned raw value, if any.
func (f *Field[T]) Raw() (any, bool) { return f.raw, f.rawSet }

// Value implements Cell.
func (f *Field[T]) Value() (any, error) { return f.Get() }

// LookupValue implements Cell.
func (f *Field[T]) LookupValue() (any, bool, error) {
	v, ok, err := f.Lookup()
	return v, ok, err
}
