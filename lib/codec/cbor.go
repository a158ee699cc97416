// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/bureau-foundation/bdf/lib/bdf"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items.
var encMode cbor.EncMode

// decMode decodes into the generic shapes bdf.Of understands.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// BDF dictionaries only have string keys; any other key fails
		// to decode into this map type.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		DupMapKey:      cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// ToCBOR encodes value as deterministic CBOR.
func ToCBOR(value bdf.Value) ([]byte, error) {
	return encMode.Marshal(native(value))
}

// native converts a value into the Go types the CBOR encoder maps
// one-to-one onto CBOR major types.
func native(value bdf.Value) any {
	switch value.Kind() {
	case bdf.BoolKind:
		b, _ := value.AsBool()
		return b
	case bdf.IntKind:
		i, _ := value.AsInt()
		return i
	case bdf.FloatKind:
		f, _ := value.AsFloat()
		return f
	case bdf.StringKind:
		s, _ := value.AsString()
		return s
	case bdf.RawKind:
		raw, _ := value.AsRaw()
		if raw == nil {
			raw = []byte{}
		}
		return raw
	case bdf.ListKind:
		list, _ := value.AsList()
		elements := make([]any, 0, list.Len())
		for _, element := range list.All() {
			elements = append(elements, native(element))
		}
		return elements
	case bdf.DictKind:
		dict, _ := value.AsDict()
		entries := make(map[string]any, dict.Len())
		for key, element := range dict.All() {
			entries[key] = native(element)
		}
		return entries
	default:
		return nil
	}
}

// FromCBOR decodes exactly one CBOR item into a BDF value.
func FromCBOR(data []byte) (bdf.Value, error) {
	var decoded any
	if err := decMode.Unmarshal(data, &decoded); err != nil {
		return bdf.Value{}, &bdf.FormatError{Reason: "cbor: " + err.Error()}
	}
	return bdf.Of(decoded)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for the
// entire contents of data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
