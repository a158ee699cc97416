// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bounds

import (
	"testing"

	"github.com/bureau-foundation/bdf/lib/bdf"
)

func TestCheckLengthCountsBytes(t *testing.T) {
	// Four characters, eight bytes.
	text := "äöüß"
	if err := CheckLength(text, 1, 4); !bdf.IsFormatError(err) {
		t.Errorf("CheckLength(%q, 1, 4) = %v, want FormatError", text, err)
	}
	if err := CheckLength(text, 1, 8); err != nil {
		t.Errorf("CheckLength(%q, 1, 8) = %v, want nil", text, err)
	}
}

func TestCheckLength(t *testing.T) {
	tests := []struct {
		name    string
		value   []byte
		min     int
		max     int
		wantErr bool
	}{
		{"below", []byte{}, 1, 3, true},
		{"at min", []byte{1}, 1, 3, false},
		{"at max", []byte{1, 2, 3}, 1, 3, false},
		{"above", []byte{1, 2, 3, 4}, 1, 3, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := CheckLength(test.value, test.min, test.max)
			if (err != nil) != test.wantErr {
				t.Errorf("CheckLength = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestCheckExactLength(t *testing.T) {
	if err := CheckExactLength(make([]byte, 32), 32); err != nil {
		t.Errorf("CheckExactLength(32, 32) = %v", err)
	}
	if err := CheckExactLength(make([]byte, 31), 32); !bdf.IsFormatError(err) {
		t.Errorf("CheckExactLength(31, 32) = %v, want FormatError", err)
	}
}

func TestCheckOptionalLengthSkipsAbsent(t *testing.T) {
	list := bdf.NewList(bdf.Null())
	value, present, err := list.GetOptionalString(0)
	if err != nil {
		t.Fatalf("GetOptionalString: %v", err)
	}
	if err := CheckOptionalLength(value, present, 1, 10); err != nil {
		t.Errorf("absent value failed the check: %v", err)
	}
	if err := CheckOptionalLength("", true, 1, 10); !bdf.IsFormatError(err) {
		t.Errorf("present empty value = %v, want FormatError", err)
	}

	raw, present, err := bdf.NewList(bdf.Null()).GetOptionalRaw(0)
	if err != nil {
		t.Fatalf("GetOptionalRaw: %v", err)
	}
	if err := CheckOptionalLength(raw, present, 1, 10); err != nil {
		t.Errorf("absent raw value failed the check: %v", err)
	}
	// Without the presence flag a nil slice is an empty value.
	if err := CheckLength([]byte(nil), 1, 10); !bdf.IsFormatError(err) {
		t.Errorf("CheckLength(nil, 1, 10) = %v, want FormatError", err)
	}
	if err := CheckLength([]byte(nil), 0, 10); err != nil {
		t.Errorf("CheckLength(nil, 0, 10) = %v, want nil", err)
	}
}

func TestCheckSize(t *testing.T) {
	list := bdf.NewList(bdf.Int(1), bdf.Int(2))
	if err := CheckSize(list, 1, 2); err != nil {
		t.Errorf("CheckSize(2, 1..2) = %v", err)
	}
	if err := CheckExactSize(list, 3); !bdf.IsFormatError(err) {
		t.Errorf("CheckExactSize(2, 3) = %v, want FormatError", err)
	}

	dict := bdf.NewDict()
	dict.Set("a", bdf.Null())
	if err := CheckSize(dict, 0, 0); !bdf.IsFormatError(err) {
		t.Errorf("CheckSize(dict of 1, 0..0) = %v, want FormatError", err)
	}

	var absent *bdf.Dict
	if err := CheckSize(absent, 1, 1); err != nil {
		t.Errorf("nil dict failed the check: %v", err)
	}
}
