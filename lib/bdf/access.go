// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bdf

// extractor pulls a typed payload out of a Value, reporting ok=false on
// a kind mismatch. The Value.AsX methods all have this shape.
type extractor[T any] func(Value) (T, bool)

// required implements the GetT contract: absent, null, and mismatched
// values are all format errors.
func required[T any](v Value, present bool, where string, want Kind, extract extractor[T]) (T, error) {
	value, ok, err := optional(v, present, where, want, extract)
	if err != nil {
		return value, err
	}
	if !ok {
		if !present {
			return value, formatErrorf("%s: missing, want %s", where, want)
		}
		return value, formatErrorf("%s: null, want %s", where, want)
	}
	return value, nil
}

// optional implements the GetOptionalT contract: absent and null report
// ok=false, a mismatched kind is a format error.
func optional[T any](v Value, present bool, where string, want Kind, extract extractor[T]) (T, bool, error) {
	var zero T
	if !present || v.IsNull() {
		return zero, false, nil
	}
	value, ok := extract(v)
	if !ok {
		return zero, false, formatErrorf("%s: got %s, want %s", where, v.kind, want)
	}
	return value, true, nil
}

// withDefault implements the GetTOr contract: anything other than a
// present value of the right kind yields the fallback.
func withDefault[T any](v Value, present bool, fallback T, extract extractor[T]) T {
	if !present || v.IsNull() {
		return fallback
	}
	value, ok := extract(v)
	if !ok {
		return fallback
	}
	return value
}
