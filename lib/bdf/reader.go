// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bdf

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ReaderConfig controls the limits a Reader enforces. Zero fields take
// their defaults.
type ReaderConfig struct {
	// NestedLimit is the maximum container depth. A top-level list or
	// dictionary is at depth 1. Default DefaultNestedLimit.
	NestedLimit int

	// MaxBufferSize bounds the string, raw and dictionary key payload
	// bytes consumed (read or skipped) while decoding one top-level
	// value. Default DefaultMaxBufferSize.
	MaxBufferSize int

	// Canonical rejects any encoding other than the canonical one:
	// non-minimal integer widths, non-minimal length fields, and
	// dictionary keys out of ascending order.
	Canonical bool
}

func (c ReaderConfig) withDefaults() ReaderConfig {
	if c.NestedLimit <= 0 {
		c.NestedLimit = DefaultNestedLimit
	}
	if c.MaxBufferSize <= 0 {
		c.MaxBufferSize = DefaultMaxBufferSize
	}
	return c
}

// frame tracks one open container.
type frame struct {
	dict bool

	// Dictionary state: whether the next value is a key, the last key
	// read, and (outside canonical mode) every key seen so far.
	expectKey bool
	lastKey   string
	haveKey   bool
	seen      map[string]struct{}
}

// Reader decodes BDF values from a byte stream.
//
// Each kind has a Has/Read/Skip triple: HasX peeks at the next tag
// without consuming it, ReadX consumes and decodes a value of kind X
// (failing if HasX would have returned false), and SkipX consumes the
// value without materializing it. Skipping enforces the same limits as
// reading.
//
// The Reader consumes exactly the bytes of the values it decodes plus
// at most one peeked tag byte. If the underlying reader implements
// io.ByteReader the tag is peeked through it; otherwise bytes are read
// one at a time. Wrap a slow source in a bufio.Reader only if nothing
// else reads from it afterwards.
type Reader struct {
	in     io.Reader
	bytes  io.ByteReader
	config ReaderConfig

	stack []frame
	used  int

	peeked  bool
	tag     byte
	atEOF   bool
	scratch [8]byte
}

// NewReader returns a Reader decoding from in.
func NewReader(in io.Reader, config ReaderConfig) *Reader {
	reader := &Reader{in: in, config: config.withDefaults()}
	if byteReader, ok := in.(io.ByteReader); ok {
		reader.bytes = byteReader
	} else {
		reader.bytes = &singleByteReader{in: in}
	}
	return reader
}

type singleByteReader struct {
	in  io.Reader
	buf [1]byte
}

func (s *singleByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(s.in, s.buf[:]); err != nil {
		return 0, err
	}
	return s.buf[0], nil
}

// Close closes the underlying stream if it implements io.Closer.
func (r *Reader) Close() error {
	if closer, ok := r.in.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return &StreamError{Op: "close", Err: err}
		}
	}
	return nil
}

// Depth returns the number of containers currently open.
func (r *Reader) Depth() int { return len(r.stack) }

// Eof reports whether the stream is exhausted at a value boundary.
func (r *Reader) Eof() (bool, error) {
	if err := r.peek(); err != nil {
		return false, err
	}
	return r.atEOF, nil
}

// peek loads the next tag byte if it is not already loaded. Reaching
// the end of the stream is not an error here; it sets atEOF.
func (r *Reader) peek() error {
	if r.peeked || r.atEOF {
		return nil
	}
	tag, err := r.bytes.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			r.atEOF = true
			return nil
		}
		return &StreamError{Op: "read", Err: err}
	}
	r.tag = tag
	r.peeked = true
	return nil
}

// has peeks and reports whether the next tag satisfies match.
func (r *Reader) has(match func(byte) bool) (bool, error) {
	if err := r.peek(); err != nil {
		return false, err
	}
	return r.peeked && match(r.tag), nil
}

// begin consumes the peeked tag of a value of the given kind. It fails
// if the next value is not of that kind or if it appears where a
// dictionary key is required.
func (r *Reader) begin(want Kind, match func(byte) bool) (byte, error) {
	if err := r.peek(); err != nil {
		return 0, err
	}
	if r.atEOF {
		return 0, formatErrorf("unexpected end of input, want %s", want)
	}
	if !match(r.tag) {
		return 0, formatErrorf("unexpected tag 0x%02x, want %s", r.tag, want)
	}
	if top := r.top(); top != nil && top.dict && top.expectKey && want != StringKind {
		return 0, formatErrorf("dictionary key must be a string, got %s", want)
	}
	if len(r.stack) == 0 {
		r.used = 0
	}
	r.peeked = false
	return r.tag, nil
}

// finish records that a complete value (or a container start) has been
// consumed in the current frame.
func (r *Reader) finish() {
	if top := r.top(); top != nil && top.dict {
		top.expectKey = !top.expectKey
	}
}

func (r *Reader) top() *frame {
	if len(r.stack) == 0 {
		return nil
	}
	return &r.stack[len(r.stack)-1]
}

// checkKey applies duplicate and ordering rules to a string that was
// just read in a dictionary key position.
func (r *Reader) checkKey(key string) error {
	top := r.top()
	if top == nil || !top.dict || !top.expectKey {
		return nil
	}
	if r.config.Canonical {
		if top.haveKey && key <= top.lastKey {
			if key == top.lastKey {
				return formatErrorf("duplicate dictionary key %q", key)
			}
			return formatErrorf("dictionary key %q not in canonical order after %q", key, top.lastKey)
		}
	} else {
		if top.seen == nil {
			top.seen = make(map[string]struct{})
		}
		if _, duplicate := top.seen[key]; duplicate {
			return formatErrorf("duplicate dictionary key %q", key)
		}
		top.seen[key] = struct{}{}
	}
	top.lastKey = key
	top.haveKey = true
	return nil
}

// readFixed reads n (at most 8) bytes that do not count against the
// buffer limit: integer payloads and length fields.
func (r *Reader) readFixed(n int) ([]byte, error) {
	buf := r.scratch[:n]
	if err := r.fill(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// readPayload reads n bytes of string, raw, or key payload, charging
// them against the buffer limit before allocating.
func (r *Reader) readPayload(n int) ([]byte, error) {
	if err := r.charge(n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := r.fill(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// discardPayload skips n bytes of payload, charging them like a read.
func (r *Reader) discardPayload(n int) error {
	if err := r.charge(n); err != nil {
		return err
	}
	copied, err := io.CopyN(io.Discard, r.in, int64(n))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return formatErrorf("truncated payload: %d of %d bytes", copied, n)
		}
		return &StreamError{Op: "read", Err: err}
	}
	return nil
}

func (r *Reader) charge(n int) error {
	if n > r.config.MaxBufferSize-r.used {
		return formatErrorf("payload of %d bytes exceeds buffer limit (%d of %d used)",
			n, r.used, r.config.MaxBufferSize)
	}
	r.used += n
	return nil
}

func (r *Reader) fill(buf []byte) error {
	if _, err := io.ReadFull(r.in, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return formatErrorf("truncated input: want %d bytes", len(buf))
		}
		return &StreamError{Op: "read", Err: err}
	}
	return nil
}

// readSigned reads a big-endian two's complement integer of width
// bytes.
func (r *Reader) readSigned(width int) (int64, error) {
	buf, err := r.readFixed(width)
	if err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return int64(int8(buf[0])), nil
	case 2:
		return int64(int16(binary.BigEndian.Uint16(buf))), nil
	case 4:
		return int64(int32(binary.BigEndian.Uint32(buf))), nil
	default:
		return int64(binary.BigEndian.Uint64(buf)), nil
	}
}

// readLength reads a length field whose width is the low nibble of tag.
func (r *Reader) readLength(tag byte) (int, error) {
	width := int(tag & 0x0f)
	length, err := r.readSigned(width)
	if err != nil {
		return 0, err
	}
	if length < 0 {
		return 0, formatErrorf("negative length %d", length)
	}
	if r.config.Canonical && intWidth(length) != width {
		return 0, formatErrorf("length %d encoded in %d bytes, canonical is %d", length, width, intWidth(length))
	}
	return int(length), nil
}

func isNull(tag byte) bool    { return tag == tagNull }
func isBoolean(tag byte) bool { return tag == tagFalse || tag == tagTrue }
func isInt(tag byte) bool {
	return tag == tagInt8 || tag == tagInt16 || tag == tagInt32 || tag == tagInt64
}
func isFloat(tag byte) bool { return tag == tagFloat64 }
func isString(tag byte) bool {
	return tag == tagString8 || tag == tagString16 || tag == tagString32
}
func isRaw(tag byte) bool        { return tag == tagRaw8 || tag == tagRaw16 || tag == tagRaw32 }
func isList(tag byte) bool       { return tag == tagList }
func isDictionary(tag byte) bool { return tag == tagDictionary }
func isEnd(tag byte) bool        { return tag == tagEnd }

func (r *Reader) HasNull() (bool, error) { return r.has(isNull) }

func (r *Reader) ReadNull() error {
	if _, err := r.begin(NullKind, isNull); err != nil {
		return err
	}
	r.finish()
	return nil
}

func (r *Reader) SkipNull() error { return r.ReadNull() }

func (r *Reader) HasBoolean() (bool, error) { return r.has(isBoolean) }

func (r *Reader) ReadBoolean() (bool, error) {
	tag, err := r.begin(BoolKind, isBoolean)
	if err != nil {
		return false, err
	}
	r.finish()
	return tag == tagTrue, nil
}

func (r *Reader) SkipBoolean() error {
	_, err := r.ReadBoolean()
	return err
}

func (r *Reader) HasInt() (bool, error) { return r.has(isInt) }

// ReadInt reads an integer of any wire width, widened to int64.
func (r *Reader) ReadInt() (int64, error) {
	tag, err := r.begin(IntKind, isInt)
	if err != nil {
		return 0, err
	}
	width := int(tag & 0x0f)
	value, err := r.readSigned(width)
	if err != nil {
		return 0, err
	}
	if r.config.Canonical && intWidth(value) != width {
		return 0, formatErrorf("integer %d encoded in %d bytes, canonical is %d", value, width, intWidth(value))
	}
	r.finish()
	return value, nil
}

func (r *Reader) SkipInt() error {
	_, err := r.ReadInt()
	return err
}

func (r *Reader) HasFloat() (bool, error) { return r.has(isFloat) }

func (r *Reader) ReadFloat() (float64, error) {
	if _, err := r.begin(FloatKind, isFloat); err != nil {
		return 0, err
	}
	buf, err := r.readFixed(8)
	if err != nil {
		return 0, err
	}
	r.finish()
	return math.Float64frombits(binary.BigEndian.Uint64(buf)), nil
}

func (r *Reader) SkipFloat() error {
	_, err := r.ReadFloat()
	return err
}

func (r *Reader) HasString() (bool, error) { return r.has(isString) }

// ReadString reads a string of any length the buffer limit allows.
func (r *Reader) ReadString() (string, error) {
	return r.ReadStringMax(math.MaxInt32)
}

// ReadStringMax reads a string, failing if its UTF-8 byte length
// exceeds limit.
func (r *Reader) ReadStringMax(limit int) (string, error) {
	tag, err := r.begin(StringKind, isString)
	if err != nil {
		return "", err
	}
	length, err := r.readLength(tag)
	if err != nil {
		return "", err
	}
	if length > limit {
		return "", formatErrorf("string of %d bytes exceeds limit %d", length, limit)
	}
	buf, err := r.readPayload(length)
	if err != nil {
		return "", err
	}
	text := string(buf)
	if err := checkText(text); err != nil {
		return "", err
	}
	if err := r.checkKey(text); err != nil {
		return "", err
	}
	r.finish()
	return text, nil
}

// SkipString skips a string value. The payload is still read and
// checked for valid UTF-8, and a string in key position is checked for
// ordering, so skipping accepts exactly what reading does.
func (r *Reader) SkipString() error {
	_, err := r.ReadString()
	return err
}

func (r *Reader) HasRaw() (bool, error) { return r.has(isRaw) }

// ReadRaw reads a raw byte value of any length the buffer limit allows.
func (r *Reader) ReadRaw() ([]byte, error) {
	return r.ReadRawMax(math.MaxInt32)
}

// ReadRawMax reads a raw byte value, failing if it is longer than
// limit.
func (r *Reader) ReadRawMax(limit int) ([]byte, error) {
	tag, err := r.begin(RawKind, isRaw)
	if err != nil {
		return nil, err
	}
	length, err := r.readLength(tag)
	if err != nil {
		return nil, err
	}
	if length > limit {
		return nil, formatErrorf("raw value of %d bytes exceeds limit %d", length, limit)
	}
	buf, err := r.readPayload(length)
	if err != nil {
		return nil, err
	}
	r.finish()
	return buf, nil
}

func (r *Reader) SkipRaw() error {
	tag, err := r.begin(RawKind, isRaw)
	if err != nil {
		return err
	}
	length, err := r.readLength(tag)
	if err != nil {
		return err
	}
	if err := r.discardPayload(length); err != nil {
		return err
	}
	r.finish()
	return nil
}

// open consumes a container start tag and pushes a frame, enforcing the
// nesting limit before anything inside the container is read.
func (r *Reader) open(want Kind, match func(byte) bool) error {
	if _, err := r.begin(want, match); err != nil {
		return err
	}
	if len(r.stack)+1 > r.config.NestedLimit {
		return formatErrorf("nesting depth %d exceeds limit %d", len(r.stack)+1, r.config.NestedLimit)
	}
	r.finish()
	dict := want == DictKind
	r.stack = append(r.stack, frame{dict: dict, expectKey: dict})
	return nil
}

// close consumes an END tag for the innermost container.
func (r *Reader) close(want Kind) error {
	top := r.top()
	if top == nil || top.dict != (want == DictKind) {
		return formatErrorf("no open %s to end", want)
	}
	if top.dict && !top.expectKey {
		return formatErrorf("dictionary key %q has no value", top.lastKey)
	}
	if err := r.peek(); err != nil {
		return err
	}
	if r.atEOF {
		return formatErrorf("unexpected end of input, want end of %s", want)
	}
	if !isEnd(r.tag) {
		return formatErrorf("unexpected tag 0x%02x, want end of %s", r.tag, want)
	}
	r.peeked = false
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

func (r *Reader) HasList() (bool, error) { return r.has(isList) }

// ReadListStart consumes the start of a list for manual streaming. Read
// elements until HasListEnd reports true, then call ReadListEnd.
func (r *Reader) ReadListStart() error { return r.open(ListKind, isList) }

func (r *Reader) HasListEnd() (bool, error) { return r.has(isEnd) }

func (r *Reader) ReadListEnd() error { return r.close(ListKind) }

// ReadList reads a complete list.
func (r *Reader) ReadList() (*List, error) {
	if err := r.ReadListStart(); err != nil {
		return nil, err
	}
	list := &List{}
	for {
		end, err := r.HasListEnd()
		if err != nil {
			return nil, err
		}
		if end {
			break
		}
		value, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		list.items = append(list.items, value)
	}
	if err := r.ReadListEnd(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Reader) SkipList() error {
	if err := r.ReadListStart(); err != nil {
		return err
	}
	for {
		end, err := r.HasListEnd()
		if err != nil {
			return err
		}
		if end {
			return r.ReadListEnd()
		}
		if err := r.SkipValue(); err != nil {
			return err
		}
	}
}

func (r *Reader) HasDictionary() (bool, error) { return r.has(isDictionary) }

// ReadDictionaryStart consumes the start of a dictionary for manual
// streaming. Read alternating keys (ReadString) and values until
// HasDictionaryEnd reports true, then call ReadDictionaryEnd.
func (r *Reader) ReadDictionaryStart() error { return r.open(DictKind, isDictionary) }

func (r *Reader) HasDictionaryEnd() (bool, error) { return r.has(isEnd) }

func (r *Reader) ReadDictionaryEnd() error { return r.close(DictKind) }

// ReadDictionary reads a complete dictionary.
func (r *Reader) ReadDictionary() (*Dict, error) {
	if err := r.ReadDictionaryStart(); err != nil {
		return nil, err
	}
	dict := NewDict()
	for {
		end, err := r.HasDictionaryEnd()
		if err != nil {
			return nil, err
		}
		if end {
			break
		}
		key, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		value, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		dict.Set(key, value)
	}
	if err := r.ReadDictionaryEnd(); err != nil {
		return nil, err
	}
	return dict, nil
}

func (r *Reader) SkipDictionary() error {
	if err := r.ReadDictionaryStart(); err != nil {
		return err
	}
	for {
		end, err := r.HasDictionaryEnd()
		if err != nil {
			return err
		}
		if end {
			return r.ReadDictionaryEnd()
		}
		if _, err := r.ReadString(); err != nil {
			return err
		}
		if err := r.SkipValue(); err != nil {
			return err
		}
	}
}

// ReadValue reads the next value whatever its kind.
func (r *Reader) ReadValue() (Value, error) {
	if err := r.peek(); err != nil {
		return Value{}, err
	}
	if r.atEOF {
		return Value{}, formatErrorf("unexpected end of input, want a value")
	}
	switch tag := r.tag; {
	case isNull(tag):
		return Null(), r.ReadNull()
	case isBoolean(tag):
		b, err := r.ReadBoolean()
		return Bool(b), err
	case isInt(tag):
		i, err := r.ReadInt()
		return Int(i), err
	case isFloat(tag):
		f, err := r.ReadFloat()
		return Float(f), err
	case isString(tag):
		s, err := r.ReadString()
		return String(s), err
	case isRaw(tag):
		b, err := r.ReadRaw()
		return Raw(b), err
	case isList(tag):
		l, err := r.ReadList()
		if err != nil {
			return Value{}, err
		}
		return ListValue(l), nil
	case isDictionary(tag):
		d, err := r.ReadDictionary()
		if err != nil {
			return Value{}, err
		}
		return DictValue(d), nil
	default:
		return Value{}, formatErrorf("unexpected tag 0x%02x", tag)
	}
}

// SkipValue skips the next value whatever its kind.
func (r *Reader) SkipValue() error {
	if err := r.peek(); err != nil {
		return err
	}
	if r.atEOF {
		return formatErrorf("unexpected end of input, want a value")
	}
	switch tag := r.tag; {
	case isNull(tag):
		return r.SkipNull()
	case isBoolean(tag):
		return r.SkipBoolean()
	case isInt(tag):
		return r.SkipInt()
	case isFloat(tag):
		return r.SkipFloat()
	case isString(tag):
		return r.SkipString()
	case isRaw(tag):
		return r.SkipRaw()
	case isList(tag):
		return r.SkipList()
	case isDictionary(tag):
		return r.SkipDictionary()
	default:
		return formatErrorf("unexpected tag 0x%02x", tag)
	}
}
