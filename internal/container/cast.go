package container

import "fmt"

// CastSlice lifts an element caster to a slice caster. A raw []any or []E is
// coerced element by element; a scalar raw value is wrapped in a singleton
// slice first. Elements already of type E pass through unchanged, which keeps
// previously coerced objects identity-stable across re-casts.
func CastSlice[E any](elem func(any) (E, error)) func(any) ([]E, error) {
	return func(raw any) ([]E, error) {
		switch v := raw.(type) {
		case nil:
			return nil, nil
		case []E:
			return v, nil
		case []any:
			out := make([]E, 0, len(v))
			for i, item := range v {
				e, err := castElem(elem, item)
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				out = append(out, e)
			}
			return out, nil
		default:
			e, err := castElem(elem, raw)
			if err != nil {
				return nil, err
			}
			return []E{e}, nil
		}
	}
}

func castElem[E any](elem func(any) (E, error), raw any) (E, error) {
	if typed, ok := raw.(E); ok {
		return typed, nil
	}
	return elem(raw)
}

// CastString coerces a raw value that must already be a string.
func CastString(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("want string, got %T", raw)
	}
	return s, nil
}
