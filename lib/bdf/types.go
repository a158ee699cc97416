// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bdf

// Wire tags. These are protocol constants: changing any of them makes
// every stored message and every signature unverifiable.
const (
	tagNull       byte = 0x00
	tagFalse      byte = 0x10
	tagTrue       byte = 0x11
	tagInt8       byte = 0x21
	tagInt16      byte = 0x22
	tagInt32      byte = 0x24
	tagInt64      byte = 0x28
	tagFloat64    byte = 0x38
	tagString8    byte = 0x41
	tagString16   byte = 0x42
	tagString32   byte = 0x44
	tagRaw8       byte = 0x51
	tagRaw16      byte = 0x52
	tagRaw32      byte = 0x54
	tagList       byte = 0x60
	tagDictionary byte = 0x70
	tagEnd        byte = 0x80
)

const (
	// DefaultNestedLimit is the maximum container depth a Reader
	// accepts unless configured otherwise. A top-level list or
	// dictionary is at depth 1.
	DefaultNestedLimit = 5

	// DefaultMaxBufferSize is the maximum number of string, raw, and
	// key payload bytes a Reader will take on for a single top-level
	// value unless configured otherwise.
	DefaultMaxBufferSize = 64 * 1024
)

// Length fields are signed on the wire, so a 32-bit length tops out
// at this value.
const maxLength = 1<<31 - 1

// intWidth returns the narrowest wire width in bytes (1, 2, 4 or 8)
// that represents value as a signed two's complement integer.
func intWidth(value int64) int {
	switch {
	case value >= -1<<7 && value < 1<<7:
		return 1
	case value >= -1<<15 && value < 1<<15:
		return 2
	case value >= -1<<31 && value < 1<<31:
		return 4
	default:
		return 8
	}
}
