package container

import (
	"errors"
	"fmt"
	"testing"
)

type widget struct {
	name string
	size int
}

func newWidgetMap() *Map[*widget] {
	return NewMap(
		func(name string, raw any) (*widget, error) {
			size, ok := raw.(int)
			if !ok {
				return nil, fmt.Errorf("want int, got %T", raw)
			}
			return &widget{name: name, size: size}, nil
		},
		func(name string) *widget { return &widget{name: name} },
	)
}

func TestMap_AutoVivifyRetainsInstance(t *testing.T) {
	m := newWidgetMap()

	first, err := m.Get("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.name != "a" {
		t.Fatalf("key hint not passed to factory: %q", first.name)
	}
	second, err := m.Get("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected identity-stable reads")
	}

	// In-place mutation of the returned object sticks.
	first.size = 10
	again, _ := m.Get("a")
	if again.size != 10 {
		t.Fatalf("mutation lost: %d", again.size)
	}
}

func TestMap_CoercesRawInPlace(t *testing.T) {
	m := newWidgetMap()
	m.SetRaw("a", 3)

	first, err := m.Get("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.size != 3 {
		t.Fatalf("raw value not coerced: %+v", first)
	}
	second, _ := m.Get("a")
	if first != second {
		t.Fatalf("coerced value must replace the raw one")
	}
}

func TestMap_CoercionFailurePropagates(t *testing.T) {
	m := newWidgetMap()
	m.SetRaw("a", "bogus")
	if _, err := m.Get("a"); err == nil {
		t.Fatalf("expected coercion error")
	}
}

func TestMap_KeysInsertionOrder(t *testing.T) {
	m := newWidgetMap()
	m.SetRaw("c", 1)
	m.SetRaw("a", 2)
	if _, err := m.Get("b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	keys := m.Keys()
	if len(keys) != 3 || keys[0] != "c" || keys[1] != "a" || keys[2] != "b" {
		t.Fatalf("wrong order: %v", keys)
	}
	if m.Has("missing") {
		t.Fatalf("Has must not vivify")
	}
	if _, ok, _ := m.Peek("missing"); ok {
		t.Fatalf("Peek must not vivify")
	}
}

func TestFields_TwoWaySync(t *testing.T) {
	size := NewField[int]("Widget", "size", WithCast[int](castInt))
	fs := NewFields("Widget")
	fs.Declare("size", size)

	// Key-style write observed by the typed cell.
	if err := fs.Set("size", "5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, err := size.Get(); err != nil || v != 5 {
		t.Fatalf("expected 5 via typed read, got %d (%v)", v, err)
	}

	// Typed write observed by key-style read.
	if err := size.Set(8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, err := fs.Get("size"); err != nil || v != 8 {
		t.Fatalf("expected 8 via key read, got %v (%v)", v, err)
	}
}

func TestFields_FillAppliesRulesAndKeepsExtras(t *testing.T) {
	size := NewField[int]("Widget", "size",
		WithCast[int](castInt),
		WithValidate[int](func(raw any) error {
			_, err := castInt(raw)
			return err
		}))
	fs := NewFields("Widget")
	fs.Declare("size", size)

	if err := fs.Fill(map[string]any{"size": "nope"}); err == nil {
		t.Fatalf("expected construction-time validation error")
	}

	fs = NewFields("Widget")
	fs.Declare("size", NewField[int]("Widget", "size", WithCast[int](castInt)))
	if err := fs.Fill(map[string]any{"size": "5", "color": "red", "brand": "acme"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := fs.Extra("color"); !ok || v != "red" {
		t.Fatalf("undeclared key must pass through, got %v ok=%v", v, ok)
	}
	if v, err := fs.Get("color"); err != nil || v != "red" {
		t.Fatalf("expected plain entry read, got %v (%v)", v, err)
	}

	// Extras from a raw map land in sorted order, every time.
	keys := fs.ExtraKeys()
	if len(keys) != 2 || keys[0] != "brand" || keys[1] != "color" {
		t.Fatalf("expected deterministic sorted extras, got %v", keys)
	}
}

func TestFields_MissingUndeclaredKey(t *testing.T) {
	fs := NewFields("Widget")
	_, err := fs.Get("nothing")
	if !errors.Is(err, ErrUnset) {
		t.Fatalf("expected ErrUnset, got %v", err)
	}
	if _, ok, err := fs.Lookup("nothing"); ok || err != nil {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
}
