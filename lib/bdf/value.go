// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bdf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind identifies which case of the Value union is populated.
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	IntKind
	FloatKind
	StringKind
	RawKind
	ListKind
	DictKind
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case StringKind:
		return "string"
	case RawKind:
		return "raw"
	case ListKind:
		return "list"
	case DictKind:
		return "dict"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single BDF value. The zero Value is null.
//
// Values are small and passed by value. Raw, List and Dict values share
// their backing storage with whoever constructed them; use Clone for
// an independent copy.
type Value struct {
	kind    Kind
	boolean bool
	integer int64
	float   float64
	text    string
	raw     []byte
	list    *List
	dict    *Dict
}

// Byter is implemented by identifier types that own a byte sequence
// (message ids, group ids, author ids). Such values are stored as raw
// bytes.
type Byter interface {
	Bytes() []byte
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: BoolKind, boolean: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: IntKind, integer: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: FloatKind, float: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: StringKind, text: s} }

// Raw returns a raw byte value. A nil slice is stored as an empty raw
// value, not as null.
func Raw(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{kind: RawKind, raw: b}
}

// ListValue wraps a list. A nil list becomes null.
func ListValue(l *List) Value {
	if l == nil {
		return Null()
	}
	return Value{kind: ListKind, list: l}
}

// DictValue wraps a dictionary. A nil dictionary becomes null.
func DictValue(d *Dict) Value {
	if d == nil {
		return Null()
	}
	return Value{kind: DictKind, dict: d}
}

// Of converts a native Go value to a Value. Every signed integer width
// and uint8/16/32 widen to a 64-bit integer; float32 widens to float64;
// []byte and Byter become raw; []any, map[string]any and
// map[string]string become containers. A uint or uint64 above
// math.MaxInt64 and any other type fail with *FormatError.
func Of(v any) (Value, error) {
	switch value := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return value, nil
	case bool:
		return Bool(value), nil
	case int:
		return Int(int64(value)), nil
	case int8:
		return Int(int64(value)), nil
	case int16:
		return Int(int64(value)), nil
	case int32:
		return Int(int64(value)), nil
	case int64:
		return Int(value), nil
	case uint8:
		return Int(int64(value)), nil
	case uint16:
		return Int(int64(value)), nil
	case uint32:
		return Int(int64(value)), nil
	case uint:
		if uint64(value) > math.MaxInt64 {
			return Value{}, formatErrorf("unsigned integer %d overflows int64", value)
		}
		return Int(int64(value)), nil
	case uint64:
		if value > math.MaxInt64 {
			return Value{}, formatErrorf("unsigned integer %d overflows int64", value)
		}
		return Int(int64(value)), nil
	case float32:
		return Float(float64(value)), nil
	case float64:
		return Float(value), nil
	case string:
		return String(value), nil
	case []byte:
		return Raw(value), nil
	case *List:
		return ListValue(value), nil
	case *Dict:
		return DictValue(value), nil
	case Byter:
		return Raw(value.Bytes()), nil
	case []any:
		list, err := ListOf(value...)
		if err != nil {
			return Value{}, err
		}
		return ListValue(list), nil
	case map[string]any:
		dict, err := DictOf(value)
		if err != nil {
			return Value{}, err
		}
		return DictValue(dict), nil
	case map[string]string:
		dict := NewDict()
		for key, element := range value {
			dict.Set(key, String(element))
		}
		return DictValue(dict), nil
	default:
		return Value{}, formatErrorf("cannot represent %T as a BDF value", v)
	}
}

// Kind returns which case of the union v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == NullKind }

// AsBool returns the boolean held by v, or ok=false if v is not a
// boolean.
func (v Value) AsBool() (value bool, ok bool) {
	return v.boolean, v.kind == BoolKind
}

// AsInt returns the integer held by v, or ok=false if v is not an
// integer.
func (v Value) AsInt() (value int64, ok bool) {
	return v.integer, v.kind == IntKind
}

// AsFloat returns the float held by v, or ok=false if v is not a float.
func (v Value) AsFloat() (value float64, ok bool) {
	return v.float, v.kind == FloatKind
}

// AsString returns the string held by v, or ok=false if v is not a
// string.
func (v Value) AsString() (value string, ok bool) {
	return v.text, v.kind == StringKind
}

// AsRaw returns the bytes held by v, or ok=false if v is not raw.
func (v Value) AsRaw() (value []byte, ok bool) {
	return v.raw, v.kind == RawKind
}

// AsList returns the list held by v, or ok=false if v is not a list.
func (v Value) AsList() (value *List, ok bool) {
	return v.list, v.kind == ListKind
}

// AsDict returns the dictionary held by v, or ok=false if v is not a
// dictionary.
func (v Value) AsDict() (value *Dict, ok bool) {
	return v.dict, v.kind == DictKind
}

// Equal reports whether v and other are the same abstract document.
// Floats compare by bit pattern, so NaN equals an identical NaN and
// 0.0 differs from -0.0, matching their encodings.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case NullKind:
		return true
	case BoolKind:
		return v.boolean == other.boolean
	case IntKind:
		return v.integer == other.integer
	case FloatKind:
		return math.Float64bits(v.float) == math.Float64bits(other.float)
	case StringKind:
		return v.text == other.text
	case RawKind:
		return bytes.Equal(v.raw, other.raw)
	case ListKind:
		return v.list.Equal(other.list)
	case DictKind:
		return v.dict.Equal(other.dict)
	default:
		return false
	}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case RawKind:
		return Raw(bytes.Clone(v.raw))
	case ListKind:
		return ListValue(v.list.Clone())
	case DictKind:
		return DictValue(v.dict.Clone())
	default:
		return v
	}
}

// String renders v in diagnostic notation: null, true, 42, 1.5,
// "text", h'0a0b', [1, 2], {"key": value}.
func (v Value) String() string {
	var builder strings.Builder
	v.writeDiagnostic(&builder)
	return builder.String()
}

func (v Value) writeDiagnostic(builder *strings.Builder) {
	switch v.kind {
	case NullKind:
		builder.WriteString("null")
	case BoolKind:
		builder.WriteString(strconv.FormatBool(v.boolean))
	case IntKind:
		builder.WriteString(strconv.FormatInt(v.integer, 10))
	case FloatKind:
		formatted := strconv.FormatFloat(v.float, 'g', -1, 64)
		// Keep floats visually distinct from integers.
		if !strings.ContainsAny(formatted, ".eEnN") {
			formatted += ".0"
		}
		builder.WriteString(formatted)
	case StringKind:
		builder.WriteString(strconv.Quote(v.text))
	case RawKind:
		builder.WriteString("h'")
		builder.WriteString(hex.EncodeToString(v.raw))
		builder.WriteString("'")
	case ListKind:
		builder.WriteByte('[')
		for index, element := range v.list.items {
			if index > 0 {
				builder.WriteString(", ")
			}
			element.writeDiagnostic(builder)
		}
		builder.WriteByte(']')
	case DictKind:
		builder.WriteByte('{')
		for index, key := range v.dict.keys {
			if index > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(strconv.Quote(key))
			builder.WriteString(": ")
			v.dict.values[key].writeDiagnostic(builder)
		}
		builder.WriteByte('}')
	}
}

// checkText rejects strings that are not valid UTF-8.
func checkText(s string) error {
	if !utf8.ValidString(s) {
		return formatErrorf("string is not valid UTF-8")
	}
	return nil
}
