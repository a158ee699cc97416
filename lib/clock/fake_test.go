// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	want := epoch.Add(5 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockSetMovesBackwards(t *testing.T) {
	clock := Fake(epoch)
	earlier := epoch.Add(-time.Hour)
	clock.Set(earlier)
	if got := clock.Now(); !got.Equal(earlier) {
		t.Fatalf("Now() after Set = %v, want %v", got, earlier)
	}
}

func TestFakeClockAdvanceNegativePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Advance(-1s) did not panic")
		}
	}()
	Fake(epoch).Advance(-time.Second)
}

func TestFakeClockConcurrentAdvance(t *testing.T) {
	clock := Fake(epoch)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Millisecond)
			clock.Now()
		}()
	}
	wg.Wait()
	want := epoch.Add(50 * time.Millisecond)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestRealClockNow(t *testing.T) {
	before := time.Now()
	got := Real().Now()
	if got.Before(before) {
		t.Errorf("Real().Now() = %v, earlier than %v", got, before)
	}
}
