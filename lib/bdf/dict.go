// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bdf

import (
	"iter"
	"slices"
	"strconv"
)

// Dict maps unique string keys to values. Keys are kept in ascending
// byte order at all times; iteration, String and the wire encoding all
// use that order, regardless of insertion order.
//
// Accessors never fail on a missing key in the GetTOr flavor. GetT
// reports absent, null and mismatched values as *FormatError;
// GetOptionalT reports absent and null as ok=false.
//
// Dict is not safe for concurrent mutation.
type Dict struct {
	keys   []string
	values map[string]Value
}

// NewDict returns an empty dictionary.
func NewDict() *Dict {
	return &Dict{values: make(map[string]Value)}
}

// DictOf converts each entry with Of and returns the resulting
// dictionary.
func DictOf(entries map[string]any) (*Dict, error) {
	dict := NewDict()
	for key, entry := range entries {
		if err := dict.Put(key, entry); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

// Len returns the number of entries. A nil dictionary is empty.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Set maps key to value, replacing any existing entry.
func (d *Dict) Set(key string, value Value) {
	if d.values == nil {
		d.values = make(map[string]Value)
	}
	if _, exists := d.values[key]; !exists {
		position, _ := slices.BinarySearch(d.keys, key)
		d.keys = slices.Insert(d.keys, position, key)
	}
	d.values[key] = value
}

// Put converts value with Of and maps key to it.
func (d *Dict) Put(key string, value any) error {
	converted, err := Of(value)
	if err != nil {
		return formatErrorf("key %q: %s", key, err.(*FormatError).Reason)
	}
	d.Set(key, converted)
	return nil
}

// Get returns the value for key and whether the key is present. A key
// explicitly mapped to null is present.
func (d *Dict) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	value, ok := d.values[key]
	return value, ok
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Delete removes key if present.
func (d *Dict) Delete(key string) {
	if d == nil {
		return
	}
	if _, exists := d.values[key]; !exists {
		return
	}
	delete(d.values, key)
	position, _ := slices.BinarySearch(d.keys, key)
	d.keys = slices.Delete(d.keys, position, position+1)
}

// Keys returns the keys in ascending order.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	return slices.Clone(d.keys)
}

// All iterates over entries in ascending key order.
func (d *Dict) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if d == nil {
			return
		}
		for _, key := range d.keys {
			if !yield(key, d.values[key]) {
				return
			}
		}
	}
}

// Merge copies every entry of other into d, overwriting existing keys.
func (d *Dict) Merge(other *Dict) {
	for key, value := range other.All() {
		d.Set(key, value)
	}
}

// Equal reports whether both dictionaries hold the same keys mapped to
// equal values.
func (d *Dict) Equal(other *Dict) bool {
	if d.Len() != other.Len() {
		return false
	}
	for key, value := range d.All() {
		otherValue, ok := other.Get(key)
		if !ok || !value.Equal(otherValue) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the dictionary.
func (d *Dict) Clone() *Dict {
	if d == nil {
		return nil
	}
	clone := &Dict{
		keys:   slices.Clone(d.keys),
		values: make(map[string]Value, len(d.values)),
	}
	for key, value := range d.values {
		clone.values[key] = value.Clone()
	}
	return clone
}

// String renders the dictionary in diagnostic notation.
func (d *Dict) String() string {
	return DictValue(d).String()
}

func (d *Dict) lookup(key string) (Value, bool, string) {
	value, ok := d.Get(key)
	return value, ok, "key " + strconv.Quote(key)
}

func (d *Dict) GetBool(key string) (bool, error) {
	value, present, where := d.lookup(key)
	return required[bool](value, present, where, BoolKind, Value.AsBool)
}

func (d *Dict) GetOptionalBool(key string) (bool, bool, error) {
	value, present, where := d.lookup(key)
	return optional[bool](value, present, where, BoolKind, Value.AsBool)
}

func (d *Dict) GetBoolOr(key string, fallback bool) bool {
	value, present, _ := d.lookup(key)
	return withDefault[bool](value, present, fallback, Value.AsBool)
}

// GetInt returns the integer for key. Every integer width on the wire
// decodes to int64, so there is a single integer accessor.
func (d *Dict) GetInt(key string) (int64, error) {
	value, present, where := d.lookup(key)
	return required[int64](value, present, where, IntKind, Value.AsInt)
}

func (d *Dict) GetOptionalInt(key string) (int64, bool, error) {
	value, present, where := d.lookup(key)
	return optional[int64](value, present, where, IntKind, Value.AsInt)
}

func (d *Dict) GetIntOr(key string, fallback int64) int64 {
	value, present, _ := d.lookup(key)
	return withDefault[int64](value, present, fallback, Value.AsInt)
}

func (d *Dict) GetFloat(key string) (float64, error) {
	value, present, where := d.lookup(key)
	return required[float64](value, present, where, FloatKind, Value.AsFloat)
}

func (d *Dict) GetOptionalFloat(key string) (float64, bool, error) {
	value, present, where := d.lookup(key)
	return optional[float64](value, present, where, FloatKind, Value.AsFloat)
}

func (d *Dict) GetFloatOr(key string, fallback float64) float64 {
	value, present, _ := d.lookup(key)
	return withDefault[float64](value, present, fallback, Value.AsFloat)
}

func (d *Dict) GetString(key string) (string, error) {
	value, present, where := d.lookup(key)
	return required[string](value, present, where, StringKind, Value.AsString)
}

func (d *Dict) GetOptionalString(key string) (string, bool, error) {
	value, present, where := d.lookup(key)
	return optional[string](value, present, where, StringKind, Value.AsString)
}

func (d *Dict) GetStringOr(key string, fallback string) string {
	value, present, _ := d.lookup(key)
	return withDefault[string](value, present, fallback, Value.AsString)
}

func (d *Dict) GetRaw(key string) ([]byte, error) {
	value, present, where := d.lookup(key)
	return required[[]byte](value, present, where, RawKind, Value.AsRaw)
}

func (d *Dict) GetOptionalRaw(key string) ([]byte, bool, error) {
	value, present, where := d.lookup(key)
	return optional[[]byte](value, present, where, RawKind, Value.AsRaw)
}

func (d *Dict) GetRawOr(key string, fallback []byte) []byte {
	value, present, _ := d.lookup(key)
	return withDefault[[]byte](value, present, fallback, Value.AsRaw)
}

func (d *Dict) GetList(key string) (*List, error) {
	value, present, where := d.lookup(key)
	return required[*List](value, present, where, ListKind, Value.AsList)
}

func (d *Dict) GetOptionalList(key string) (*List, bool, error) {
	value, present, where := d.lookup(key)
	return optional[*List](value, present, where, ListKind, Value.AsList)
}

func (d *Dict) GetListOr(key string, fallback *List) *List {
	value, present, _ := d.lookup(key)
	return withDefault[*List](value, present, fallback, Value.AsList)
}

func (d *Dict) GetDict(key string) (*Dict, error) {
	value, present, where := d.lookup(key)
	return required[*Dict](value, present, where, DictKind, Value.AsDict)
}

func (d *Dict) GetOptionalDict(key string) (*Dict, bool, error) {
	value, present, where := d.lookup(key)
	return optional[*Dict](value, present, where, DictKind, Value.AsDict)
}

func (d *Dict) GetDictOr(key string, fallback *Dict) *Dict {
	value, present, _ := d.lookup(key)
	return withDefault[*Dict](value, present, fallback, Value.AsDict)
}
