// Package testutil provides small helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/dshills/Vectra/internal/sql/types"
)

// Int64Values wraps a slice of int64 into engine values.
func Int64Values(vals ...int64) []types.Value {
	out := make([]types.Value, len(vals))
	for i, v := range vals {
		out[i] = types.NewValue(v)
	}
	return out
}

// TextValues wraps a slice of strings into engine values.
func TextValues(vals ...string) []types.Value {
	out := make([]types.Value, len(vals))
	for i, v := range vals {
		out[i] = types.NewValue(v)
	}
	return out
}

// AssertValuesEqual fails the test unless the two value slices are equal.
func AssertValuesEqual(t *testing.T, expected, actual []types.Value) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("value count mismatch: expected %d, got %d", len(expected), len(actual))
	}
	for i := range expected {
		if !expected[i].Equal(actual[i]) {
			t.Errorf("value %d: expected %v, got %v", i, expected[i], actual[i])
		}
	}
}
