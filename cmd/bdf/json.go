// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/bdf/lib/bdf"
)

// JSON has no byte strings and cannot distinguish 1 from 1.0, so raw
// values and non-finite floats are wrapped in single-key objects.
const (
	rawKey   = "$raw"
	floatKey = "$float"
)

// toJSON converts value into the generic shapes encoding/json
// marshals. Floats become json.Number literals that always carry a
// fraction or exponent, so they decode back as floats.
func toJSON(value bdf.Value) any {
	switch value.Kind() {
	case bdf.BoolKind:
		b, _ := value.AsBool()
		return b
	case bdf.IntKind:
		i, _ := value.AsInt()
		return i
	case bdf.FloatKind:
		f, _ := value.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return map[string]any{floatKey: strconv.FormatFloat(f, 'g', -1, 64)}
		}
		literal := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(literal, ".e") {
			literal += ".0"
		}
		return json.Number(literal)
	case bdf.StringKind:
		s, _ := value.AsString()
		return s
	case bdf.RawKind:
		raw, _ := value.AsRaw()
		return map[string]any{rawKey: hex.EncodeToString(raw)}
	case bdf.ListKind:
		list, _ := value.AsList()
		elements := make([]any, 0, list.Len())
		for _, element := range list.All() {
			elements = append(elements, toJSON(element))
		}
		return elements
	case bdf.DictKind:
		dict, _ := value.AsDict()
		entries := make(map[string]any, dict.Len())
		for key, element := range dict.All() {
			entries[key] = toJSON(element)
		}
		return entries
	default:
		return nil
	}
}

// parseJSON parses one JSON document, with comments and trailing
// commas allowed, into a BDF value.
func parseJSON(data []byte) (bdf.Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()

	var document any
	if err := decoder.Decode(&document); err != nil {
		return bdf.Value{}, fmt.Errorf("decode JSON: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return bdf.Value{}, errors.New("decode JSON: trailing data after document")
	}
	return fromJSON(document)
}

// fromJSON converts a decoded JSON document into a BDF value. Integers
// that fit int64 become Int; every other number becomes Float.
func fromJSON(document any) (bdf.Value, error) {
	switch value := document.(type) {
	case nil:
		return bdf.Null(), nil
	case bool:
		return bdf.Bool(value), nil
	case json.Number:
		if integer, err := value.Int64(); err == nil {
			return bdf.Int(integer), nil
		}
		float, err := value.Float64()
		if err != nil {
			return bdf.Value{}, fmt.Errorf("number %s: %w", value, err)
		}
		return bdf.Float(float), nil
	case string:
		return bdf.String(value), nil
	case []any:
		list := bdf.NewList()
		for index, element := range value {
			converted, err := fromJSON(element)
			if err != nil {
				return bdf.Value{}, fmt.Errorf("[%d]: %w", index, err)
			}
			list.Append(converted)
		}
		return bdf.ListValue(list), nil
	case map[string]any:
		if wrapped, ok, err := fromWrapper(value); ok || err != nil {
			return wrapped, err
		}
		dict := bdf.NewDict()
		for key, element := range value {
			converted, err := fromJSON(element)
			if err != nil {
				return bdf.Value{}, fmt.Errorf("%q: %w", key, err)
			}
			dict.Set(key, converted)
		}
		return bdf.DictValue(dict), nil
	default:
		return bdf.Value{}, fmt.Errorf("unsupported JSON value %T", document)
	}
}

// fromWrapper recognizes the {"$raw": hex} and {"$float": literal}
// objects written by toJSON.
func fromWrapper(object map[string]any) (bdf.Value, bool, error) {
	if len(object) != 1 {
		return bdf.Value{}, false, nil
	}
	if text, ok := object[rawKey].(string); ok {
		raw, err := hex.DecodeString(text)
		if err != nil {
			return bdf.Value{}, true, fmt.Errorf("%s: %w", rawKey, err)
		}
		return bdf.Raw(raw), true, nil
	}
	if text, ok := object[floatKey].(string); ok {
		float, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return bdf.Value{}, true, fmt.Errorf("%s: %w", floatKey, err)
		}
		return bdf.Float(float), true, nil
	}
	return bdf.Value{}, false, nil
}

// writeJSON encodes value as JSON and writes it to w with a trailing
// newline, indented unless compact is set.
func writeJSON(w io.Writer, value any, compact bool) error {
	var output []byte
	var err error
	if compact {
		output, err = json.Marshal(value)
	} else {
		output, err = json.MarshalIndent(value, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(output))
	return err
}
