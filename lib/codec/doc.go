// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec bridges BDF documents and CBOR.
//
// The two formats share a data model: null, booleans, integers,
// floats, text strings, byte strings, arrays and string-keyed maps.
// ToCBOR writes a BDF value using Core Deterministic Encoding (RFC 8949
// §4.2), so the same document always produces the same CBOR bytes, and
// FromCBOR reads CBOR back into a BDF value:
//
//	data, err := codec.ToCBOR(value)
//	value, err = codec.FromCBOR(data)
//
// CBOR items with no BDF counterpart are rejected with a
// *bdf.FormatError: tags, simple values other than null and booleans,
// maps with non-string keys, duplicate map keys, and unsigned integers
// above the int64 range. Floats may be written at half or single
// precision when that loses nothing; they read back as float64.
package codec
