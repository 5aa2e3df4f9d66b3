package container

import (
	"errors"
	"fmt"
	"strconv"
	"testing"
)

func castInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("want int, got %T", raw)
	}
}

func TestField_UnsetRequired_ErrorsWithOwnerAndName(t *testing.T) {
	f := NewField[int]("Widget", "size")
	_, err := f.Get()
	if err == nil {
		t.Fatalf("expected error")
	}
	var unset *UnsetFieldError
	if !errors.As(err, &unset) {
		t.Fatalf("expected UnsetFieldError, got %T (%v)", err, err)
	}
	if unset.Owner != "Widget" || unset.Field != "size" {
		t.Fatalf("error does not name owner and field: %+v", unset)
	}
	if !errors.Is(err, ErrUnset) {
		t.Fatalf("expected ErrUnset match")
	}
}

func TestField_DefaultAndFactory(t *testing.T) {
	withDefault := NewField[int]("Widget", "size", WithDefault[int](7))
	if v, err := withDefault.Get(); err != nil || v != 7 {
		t.Fatalf("expected 7, got %d (%v)", v, err)
	}

	calls := 0
	withFactory := NewField[int]("Widget", "size", WithFactory[int](func() int {
		calls++
		return 42
	}))
	if v, err := withFactory.Get(); err != nil || v != 42 {
		t.Fatalf("expected 42, got %d (%v)", v, err)
	}
	if _, err := withFactory.Get(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("factory result not cached: %d calls", calls)
	}
}

func TestField_CastCachesUntilSet(t *testing.T) {
	casts := 0
	f := NewField[int]("Widget", "size", WithCast[int](func(raw any) (int, error) {
		casts++
		return castInt(raw)
	}))

	if err := f.Set("5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := f.Get(); v != 5 {
		t.Fatalf("expected 5, got %d", v)
	}
	if v, _ := f.Get(); v != 5 {
		t.Fatalf("expected 5, got %d", v)
	}
	if casts != 1 {
		t.Fatalf("expected a single cast, got %d", casts)
	}

	// A write invalidates the cache; the next read recomputes.
	if err := f.Set("6"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := f.Get(); v != 6 {
		t.Fatalf("expected recomputed 6, got %d", v)
	}
	if casts != 2 {
		t.Fatalf("expected recompute after set, got %d casts", casts)
	}
}

func TestField_ValidateRejectsOnSet(t *testing.T) {
	f := NewField[int]("Widget", "size",
		WithCast[int](castInt),
		WithValidate[int](func(raw any) error {
			_, err := castInt(raw)
			return err
		}))
	err := f.Set("not a number")
	if err == nil {
		t.Fatalf("expected error")
	}
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid match")
	}
	if f.IsSet() {
		t.Fatalf("rejected value must not be stored")
	}
}

func TestField_CastFailurePropagates(t *testing.T) {
	f := NewField[int]("Widget", "size", WithCast[int](castInt))
	if err := f.Set("bogus"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.Get(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected validation error from cast, got %v", err)
	}
}

func TestField_OptionalAbsent(t *testing.T) {
	f := NewField[int]("Widget", "size", Optional[int]())
	if _, ok, err := f.Lookup(); ok || err != nil {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
	if err := f.Set(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok, err := f.Lookup(); !ok || err != nil || v != 3 {
		t.Fatalf("expected 3, got %d ok=%v err=%v", v, ok, err)
	}
	f.Unset()
	if _, ok, _ := f.Lookup(); ok {
		t.Fatalf("expected absent after unset")
	}
}

func TestCastSlice_LiftsScalarAndCoercesElements(t *testing.T) {
	cast := CastSlice(castInt)

	got, err := cast([]any{"1", 2, "3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("wrong result: %v", got)
	}

	// A scalar raw value wraps into a singleton collection.
	got, err = cast("9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != 9 {
		t.Fatalf("expected singleton [9], got %v", got)
	}

	// An already-typed slice passes through unchanged.
	typed := []int{4, 5}
	got, err = cast(typed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if &got[0] != &typed[0] {
		t.Fatalf("expected pass-through of typed slice")
	}

	if _, err := cast([]any{"1", "bogus"}); err == nil {
		t.Fatalf("expected element cast error")
	}
}
