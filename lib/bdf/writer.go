// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bdf

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"slices"
)

// Writer encodes values in canonical form. Output is buffered; call
// Flush or Close when done.
//
// Integers and length fields always take their minimal width and
// dictionary entries are always written in ascending key order, so two
// logically equal documents produce identical bytes no matter how they
// were built.
type Writer struct {
	out    *bufio.Writer
	closer io.Closer
	err    error
}

// NewWriter returns a Writer encoding to out.
func NewWriter(out io.Writer) *Writer {
	writer := &Writer{out: bufio.NewWriter(out)}
	if closer, ok := out.(io.Closer); ok {
		writer.closer = closer
	}
	return writer
}

// Flush writes any buffered bytes to the underlying stream.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.out.Flush(); err != nil {
		w.err = &StreamError{Op: "flush", Err: err}
	}
	return w.err
}

// Close flushes and closes the underlying stream if it implements
// io.Closer. The close is attempted even when the flush fails; the
// first error is returned.
func (w *Writer) Close() error {
	flushErr := w.Flush()
	if w.closer != nil {
		if err := w.closer.Close(); err != nil && flushErr == nil {
			return &StreamError{Op: "close", Err: err}
		}
	}
	return flushErr
}

func (w *Writer) write(data ...byte) error {
	if w.err != nil {
		return w.err
	}
	if _, err := w.out.Write(data); err != nil {
		w.err = &StreamError{Op: "write", Err: err}
	}
	return w.err
}

func (w *Writer) WriteNull() error { return w.write(tagNull) }

func (w *Writer) WriteBoolean(b bool) error {
	if b {
		return w.write(tagTrue)
	}
	return w.write(tagFalse)
}

// WriteInt writes i using the narrowest width that holds it.
func (w *Writer) WriteInt(i int64) error {
	return w.writeSized(tagInt8&0xf0, i)
}

// writeSized writes base|width followed by value in that many bytes.
func (w *Writer) writeSized(base byte, value int64) error {
	width := intWidth(value)
	var buf [9]byte
	buf[0] = base | byte(width)
	switch width {
	case 1:
		buf[1] = byte(value)
	case 2:
		binary.BigEndian.PutUint16(buf[1:], uint16(value))
	case 4:
		binary.BigEndian.PutUint32(buf[1:], uint32(value))
	default:
		binary.BigEndian.PutUint64(buf[1:], uint64(value))
	}
	return w.write(buf[:1+width]...)
}

func (w *Writer) WriteFloat(f float64) error {
	var buf [9]byte
	buf[0] = tagFloat64
	binary.BigEndian.PutUint64(buf[1:], math.Float64bits(f))
	return w.write(buf[:]...)
}

// WriteString writes s, which must be valid UTF-8.
func (w *Writer) WriteString(s string) error {
	if err := checkText(s); err != nil {
		return err
	}
	if len(s) > maxLength {
		return formatErrorf("string of %d bytes is too long to encode", len(s))
	}
	if err := w.writeSized(tagString8&0xf0, int64(len(s))); err != nil {
		return err
	}
	if w.err != nil {
		return w.err
	}
	if _, err := w.out.WriteString(s); err != nil {
		w.err = &StreamError{Op: "write", Err: err}
	}
	return w.err
}

func (w *Writer) WriteRaw(b []byte) error {
	if len(b) > maxLength {
		return formatErrorf("raw value of %d bytes is too long to encode", len(b))
	}
	if err := w.writeSized(tagRaw8&0xf0, int64(len(b))); err != nil {
		return err
	}
	return w.write(b...)
}

func (w *Writer) WriteListStart() error { return w.write(tagList) }

func (w *Writer) WriteListEnd() error { return w.write(tagEnd) }

func (w *Writer) WriteDictionaryStart() error { return w.write(tagDictionary) }

func (w *Writer) WriteDictionaryEnd() error { return w.write(tagEnd) }

// WriteList writes every element of list. A nil list is written as an
// empty list.
func (w *Writer) WriteList(list *List) error {
	if err := w.WriteListStart(); err != nil {
		return err
	}
	for _, value := range list.All() {
		if err := w.WriteValue(value); err != nil {
			return err
		}
	}
	return w.WriteListEnd()
}

// WriteDictionary writes every entry of dict in ascending key order. A
// nil dictionary is written as an empty dictionary.
func (w *Writer) WriteDictionary(dict *Dict) error {
	if err := w.WriteDictionaryStart(); err != nil {
		return err
	}
	for key, value := range dict.All() {
		if err := w.WriteString(key); err != nil {
			return err
		}
		if err := w.WriteValue(value); err != nil {
			return err
		}
	}
	return w.WriteDictionaryEnd()
}

// WriteValue writes any Value.
func (w *Writer) WriteValue(v Value) error {
	switch v.kind {
	case NullKind:
		return w.WriteNull()
	case BoolKind:
		return w.WriteBoolean(v.boolean)
	case IntKind:
		return w.WriteInt(v.integer)
	case FloatKind:
		return w.WriteFloat(v.float)
	case StringKind:
		return w.WriteString(v.text)
	case RawKind:
		return w.WriteRaw(v.raw)
	case ListKind:
		return w.WriteList(v.list)
	case DictKind:
		return w.WriteDictionary(v.dict)
	default:
		return formatErrorf("cannot encode %s", v.kind)
	}
}

// WriteAny converts v with Of and writes it. Slices of any and maps
// keyed by string are accepted directly; maps are written in ascending
// key order.
func (w *Writer) WriteAny(v any) error {
	switch collection := v.(type) {
	case []any:
		if err := w.WriteListStart(); err != nil {
			return err
		}
		for _, element := range collection {
			if err := w.WriteAny(element); err != nil {
				return err
			}
		}
		return w.WriteListEnd()
	case map[string]any:
		if err := w.WriteDictionaryStart(); err != nil {
			return err
		}
		keys := make([]string, 0, len(collection))
		for key := range collection {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			if err := w.WriteString(key); err != nil {
				return err
			}
			if err := w.WriteAny(collection[key]); err != nil {
				return err
			}
		}
		return w.WriteDictionaryEnd()
	}
	value, err := Of(v)
	if err != nil {
		return err
	}
	return w.WriteValue(value)
}

// Reset discards any buffered output and sticky error and directs
// future writes to out.
func (w *Writer) Reset(out io.Writer) {
	w.out.Reset(out)
	w.err = nil
	w.closer = nil
	if closer, ok := out.(io.Closer); ok {
		w.closer = closer
	}
}
