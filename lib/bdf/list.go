// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bdf

import (
	"iter"
	"slices"
	"strconv"
)

// List is an ordered sequence of heterogeneous values.
//
// Every accessor checks the index first: an index outside [0, Len())
// is a *FormatError for all three accessor flavors. Past the index
// check, GetT requires a present value of kind T, GetOptionalT reports
// ok=false for null, and GetTOr falls back to the default for null or a
// mismatched kind.
//
// List is not safe for concurrent mutation.
type List struct {
	items []Value
}

// NewList returns a list holding values in order.
func NewList(values ...Value) *List {
	return &List{items: slices.Clone(values)}
}

// ListOf converts each item with Of and returns the resulting list.
func ListOf(items ...any) (*List, error) {
	list := &List{items: make([]Value, 0, len(items))}
	for _, item := range items {
		if err := list.Add(item); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Len returns the number of elements. A nil list is empty.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Append adds values to the end of the list.
func (l *List) Append(values ...Value) {
	l.items = append(l.items, values...)
}

// Add converts item with Of and appends it.
func (l *List) Add(item any) error {
	value, err := Of(item)
	if err != nil {
		return err
	}
	l.items = append(l.items, value)
	return nil
}

// Get returns the value at index.
func (l *List) Get(index int) (Value, error) {
	if index < 0 || index >= l.Len() {
		return Value{}, formatErrorf("index %d out of range [0, %d)", index, l.Len())
	}
	return l.items[index], nil
}

// Set replaces the value at index.
func (l *List) Set(index int, value Value) error {
	if index < 0 || index >= l.Len() {
		return formatErrorf("index %d out of range [0, %d)", index, l.Len())
	}
	l.items[index] = value
	return nil
}

// Values returns a copy of the list's elements.
func (l *List) Values() []Value {
	if l == nil {
		return nil
	}
	return slices.Clone(l.items)
}

// All iterates over (index, value) pairs in order.
func (l *List) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		if l == nil {
			return
		}
		for index, value := range l.items {
			if !yield(index, value) {
				return
			}
		}
	}
}

// Equal reports whether two lists hold equal values in the same order.
func (l *List) Equal(other *List) bool {
	if l.Len() != other.Len() {
		return false
	}
	for index := range l.Len() {
		if !l.items[index].Equal(other.items[index]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the list.
func (l *List) Clone() *List {
	if l == nil {
		return nil
	}
	clone := &List{items: make([]Value, len(l.items))}
	for index, value := range l.items {
		clone.items[index] = value.Clone()
	}
	return clone
}

// String renders the list in diagnostic notation.
func (l *List) String() string {
	return ListValue(l).String()
}

// lookup applies the index check shared by every typed accessor.
func (l *List) lookup(index int) (Value, string, error) {
	where := "list index " + strconv.Itoa(index)
	value, err := l.Get(index)
	return value, where, err
}

func (l *List) GetBool(index int) (bool, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return false, err
	}
	return required[bool](value, true, where, BoolKind, Value.AsBool)
}

func (l *List) GetOptionalBool(index int) (bool, bool, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return false, false, err
	}
	return optional[bool](value, true, where, BoolKind, Value.AsBool)
}

func (l *List) GetBoolOr(index int, fallback bool) (bool, error) {
	value, _, err := l.lookup(index)
	if err != nil {
		return fallback, err
	}
	return withDefault[bool](value, true, fallback, Value.AsBool), nil
}

// GetInt returns the integer at index. Every integer width on the wire
// decodes to int64, so there is a single integer accessor.
func (l *List) GetInt(index int) (int64, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return 0, err
	}
	return required[int64](value, true, where, IntKind, Value.AsInt)
}

func (l *List) GetOptionalInt(index int) (int64, bool, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return 0, false, err
	}
	return optional[int64](value, true, where, IntKind, Value.AsInt)
}

func (l *List) GetIntOr(index int, fallback int64) (int64, error) {
	value, _, err := l.lookup(index)
	if err != nil {
		return fallback, err
	}
	return withDefault[int64](value, true, fallback, Value.AsInt), nil
}

func (l *List) GetFloat(index int) (float64, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return 0, err
	}
	return required[float64](value, true, where, FloatKind, Value.AsFloat)
}

func (l *List) GetOptionalFloat(index int) (float64, bool, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return 0, false, err
	}
	return optional[float64](value, true, where, FloatKind, Value.AsFloat)
}

func (l *List) GetFloatOr(index int, fallback float64) (float64, error) {
	value, _, err := l.lookup(index)
	if err != nil {
		return fallback, err
	}
	return withDefault[float64](value, true, fallback, Value.AsFloat), nil
}

func (l *List) GetString(index int) (string, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return "", err
	}
	return required[string](value, true, where, StringKind, Value.AsString)
}

func (l *List) GetOptionalString(index int) (string, bool, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return "", false, err
	}
	return optional[string](value, true, where, StringKind, Value.AsString)
}

func (l *List) GetStringOr(index int, fallback string) (string, error) {
	value, _, err := l.lookup(index)
	if err != nil {
		return fallback, err
	}
	return withDefault[string](value, true, fallback, Value.AsString), nil
}

func (l *List) GetRaw(index int) ([]byte, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return nil, err
	}
	return required[[]byte](value, true, where, RawKind, Value.AsRaw)
}

func (l *List) GetOptionalRaw(index int) ([]byte, bool, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return nil, false, err
	}
	return optional[[]byte](value, true, where, RawKind, Value.AsRaw)
}

func (l *List) GetRawOr(index int, fallback []byte) ([]byte, error) {
	value, _, err := l.lookup(index)
	if err != nil {
		return fallback, err
	}
	return withDefault[[]byte](value, true, fallback, Value.AsRaw), nil
}

func (l *List) GetList(index int) (*List, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return nil, err
	}
	return required[*List](value, true, where, ListKind, Value.AsList)
}

func (l *List) GetOptionalList(index int) (*List, bool, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return nil, false, err
	}
	return optional[*List](value, true, where, ListKind, Value.AsList)
}

func (l *List) GetListOr(index int, fallback *List) (*List, error) {
	value, _, err := l.lookup(index)
	if err != nil {
		return fallback, err
	}
	return withDefault[*List](value, true, fallback, Value.AsList), nil
}

func (l *List) GetDict(index int) (*Dict, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return nil, err
	}
	return required[*Dict](value, true, where, DictKind, Value.AsDict)
}

func (l *List) GetOptionalDict(index int) (*Dict, bool, error) {
	value, where, err := l.lookup(index)
	if err != nil {
		return nil, false, err
	}
	return optional[*Dict](value, true, where, DictKind, Value.AsDict)
}

func (l *List) GetDictOr(index int, fallback *Dict) (*Dict, error) {
	value, _, err := l.lookup(index)
	if err != nil {
		return fallback, err
	}
	return withDefault[*Dict](value, true, fallback, Value.AsDict), nil
}
