// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a stored message body is compressed. The
// values are persisted with each body; changing them breaks existing
// databases.
type Compression uint8

const (
	// CompressionNone stores bodies as-is.
	CompressionNone Compression = 0

	// CompressionLZ4 stores bodies as LZ4 blocks. Fast, modest ratio.
	CompressionLZ4 Compression = 1

	// CompressionZstd stores bodies zstd-compressed at the default
	// level. Better ratio for text-heavy bodies such as posts.
	CompressionZstd Compression = 2
)

// String returns the configuration name of the algorithm.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a configuration name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// errIncompressible means compression would not shrink the body. The
// body is then stored uncompressed.
var errIncompressible = errors.New("body is incompressible")

// compressBody returns the stored form of body and the algorithm
// actually used, which is CompressionNone when compression does not
// help.
func compressBody(body []byte, algorithm Compression) ([]byte, Compression, error) {
	var (
		compressed []byte
		err        error
	)
	switch algorithm {
	case CompressionNone:
		return body, CompressionNone, nil
	case CompressionLZ4:
		compressed, err = compressLZ4(body)
	case CompressionZstd:
		compressed, err = compressZstd(body)
	default:
		return nil, 0, fmt.Errorf("unsupported compression: %s", algorithm)
	}
	if errors.Is(err, errIncompressible) {
		return body, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return compressed, algorithm, nil
}

// decompressBody reverses compressBody. The result must be exactly
// rawLength bytes.
func decompressBody(stored []byte, algorithm Compression, rawLength int) ([]byte, error) {
	switch algorithm {
	case CompressionNone:
		if len(stored) != rawLength {
			return nil, fmt.Errorf("stored body is %d bytes, want %d", len(stored), rawLength)
		}
		return stored, nil
	case CompressionLZ4:
		return decompressLZ4(stored, rawLength)
	case CompressionZstd:
		return decompressZstd(stored, rawLength)
	default:
		return nil, fmt.Errorf("unsupported compression: %s", algorithm)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, rawLength int) ([]byte, error) {
	destination := make([]byte, rawLength)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != rawLength {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, want %d", read, rawLength)
	}
	return destination, nil
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use through
// EncodeAll and DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, rawLength int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, rawLength))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != rawLength {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, want %d", len(result), rawLength)
	}
	return result, nil
}
