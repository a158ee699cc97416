// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bounds provides the length and size assertions message
// validators apply to decoded BDF fields.
//
// String lengths are UTF-8 byte lengths, never character counts: the
// limits exist to bound wire size. Every check is a no-op on an absent
// value: for containers that is a nil *bdf.List or *bdf.Dict, for
// strings and raw bytes it is present == false in CheckOptionalLength.
// CheckLength itself treats a nil []byte as an empty value, since a
// decoded zero-length raw field may be nil. Whether a field is required
// is the caller's concern, checked through the bdf accessors before the
// bounds are applied.
//
// All failures are *bdf.FormatError.
package bounds

import (
	"fmt"

	"github.com/bureau-foundation/bdf/lib/bdf"
)

// Sized is implemented by *bdf.List and *bdf.Dict.
type Sized interface {
	comparable
	Len() int
}

// CheckLength fails unless min <= len(value) <= max. A nil []byte has
// length zero; use CheckOptionalLength for fields that may be absent.
func CheckLength[T ~string | ~[]byte](value T, min, max int) error {
	if length := len(value); length < min || length > max {
		return &bdf.FormatError{Reason: lengthReason(length, min, max)}
	}
	return nil
}

// CheckExactLength fails unless len(value) == length.
func CheckExactLength[T ~string | ~[]byte](value T, length int) error {
	return CheckLength(value, length, length)
}

// CheckOptionalLength applies CheckLength when present is true, which
// is how the bdf GetOptionalT accessors report a value.
func CheckOptionalLength[T ~string | ~[]byte](value T, present bool, min, max int) error {
	if !present {
		return nil
	}
	return CheckLength(value, min, max)
}

// CheckSize fails unless min <= container.Len() <= max. A nil container
// passes.
func CheckSize[C Sized](container C, min, max int) error {
	var zero C
	if container == zero {
		return nil
	}
	if size := container.Len(); size < min || size > max {
		return &bdf.FormatError{Reason: sizeReason(size, min, max)}
	}
	return nil
}

// CheckExactSize fails unless container.Len() == size. A nil container
// passes.
func CheckExactSize[C Sized](container C, size int) error {
	return CheckSize(container, size, size)
}

func lengthReason(length, min, max int) string {
	if min == max {
		return fmt.Sprintf("length %d, want %d", length, min)
	}
	return fmt.Sprintf("length %d outside [%d, %d]", length, min, max)
}

func sizeReason(size, min, max int) string {
	if min == max {
		return fmt.Sprintf("size %d, want %d", size, min)
	}
	return fmt.Sprintf("size %d outside [%d, %d]", size, min, max)
}
