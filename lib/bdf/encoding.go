// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bdf

import (
	"bytes"
)

// Encode returns the canonical encoding of v. Any input accepted by Of
// (including Value, *List, *Dict, []any and map[string]any) is
// accepted.
func Encode(v any) ([]byte, error) {
	var buffer bytes.Buffer
	writer := NewWriter(&buffer)
	if err := writer.WriteAny(v); err != nil {
		return nil, err
	}
	if err := writer.Flush(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// EncodeList returns the canonical encoding of list.
func EncodeList(list *List) ([]byte, error) {
	return Encode(ListValue(orEmptyList(list)))
}

// EncodeDict returns the canonical encoding of dict.
func EncodeDict(dict *Dict) ([]byte, error) {
	return Encode(DictValue(orEmptyDict(dict)))
}

func orEmptyList(list *List) *List {
	if list == nil {
		return &List{}
	}
	return list
}

func orEmptyDict(dict *Dict) *Dict {
	if dict == nil {
		return NewDict()
	}
	return dict
}

// Decode decodes exactly one value from data using default limits.
// Trailing bytes after the value are a *FormatError.
func Decode(data []byte) (Value, error) {
	return DecodeWith(data, ReaderConfig{})
}

// DecodeWith decodes exactly one value from data under config.
func DecodeWith(data []byte, config ReaderConfig) (Value, error) {
	reader := NewReader(bytes.NewReader(data), config)
	value, err := reader.ReadValue()
	if err != nil {
		return Value{}, err
	}
	if err := expectEnd(reader); err != nil {
		return Value{}, err
	}
	return value, nil
}

// DecodeList decodes data, which must hold exactly one list.
func DecodeList(data []byte) (*List, error) {
	return DecodeListWith(data, ReaderConfig{})
}

// DecodeListWith decodes data, which must hold exactly one list, under
// config.
func DecodeListWith(data []byte, config ReaderConfig) (*List, error) {
	reader := NewReader(bytes.NewReader(data), config)
	list, err := reader.ReadList()
	if err != nil {
		return nil, err
	}
	if err := expectEnd(reader); err != nil {
		return nil, err
	}
	return list, nil
}

// DecodeDict decodes data, which must hold exactly one dictionary.
func DecodeDict(data []byte) (*Dict, error) {
	reader := NewReader(bytes.NewReader(data), ReaderConfig{})
	dict, err := reader.ReadDictionary()
	if err != nil {
		return nil, err
	}
	if err := expectEnd(reader); err != nil {
		return nil, err
	}
	return dict, nil
}

func expectEnd(reader *Reader) error {
	eof, err := reader.Eof()
	if err != nil {
		return err
	}
	if !eof {
		return formatErrorf("trailing data after value")
	}
	return nil
}

// CheckCanonical reports whether data is the canonical encoding of a
// single value, returning the decoding error when it is not.
func CheckCanonical(data []byte, config ReaderConfig) error {
	config.Canonical = true
	_, err := DecodeWith(data, config)
	return err
}
