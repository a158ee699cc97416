// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"encoding/binary"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueBytes returns size bytes (at least 8) that differ from every
// other UniqueBytes result in the test binary. Useful as author ids and
// image payloads.
func UniqueBytes(size int) []byte {
	if size < 8 {
		size = 8
	}
	data := make([]byte, size)
	binary.BigEndian.PutUint64(data, uniqueCounter.Add(1))
	return data
}
