// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// RequireReceive reads one value from ch within timeout, or fails the
// test.
//
//	event := testutil.RequireReceive(t, subscription.C, time.Second, "waiting for avatar event")
func RequireReceive[T any](t interface {
	Helper()
	Fatalf(format string, args ...any)
}, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a value: %s", formatMessage(msgAndArgs))
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v: %s", timeout, formatMessage(msgAndArgs))
	}
	panic("unreachable")
}

// RequireClosed waits for ch to be closed within timeout, or fails the
// test. A value arriving instead of the close also fails.
func RequireClosed[T any](t interface {
	Helper()
	Fatalf(format string, args ...any)
}, ch <-chan T, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("received %v instead of channel close: %s", v, formatMessage(msgAndArgs))
		}
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for channel close: %s", timeout, formatMessage(msgAndArgs))
	}
}

// Drain returns every value already buffered in ch without blocking.
func Drain[T any](ch <-chan T) []T {
	var values []T
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return values
			}
			values = append(values, v)
		default:
			return values
		}
	}
}

// formatMessage formats optional message arguments: either a single
// value or a format string followed by args.
func formatMessage(msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return "(no message)"
	}
	if len(msgAndArgs) == 1 {
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprintf("%v", msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprintf("%v", msgAndArgs)
}
