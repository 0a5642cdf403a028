package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{
			name:     "zero value",
			input:    0.0,
			expected: "0",
		},
		{
			name:     "whole center line",
			input:    3.0,
			expected: "3",
		},
		{
			name:     "negative integer",
			input:    -456.0,
			expected: "-456",
		},
		{
			name:     "rounded control limit",
			input:    13.687,
			expected: "13.687",
		},
		{
			name:     "capability index",
			input:    1.2345,
			expected: "1.2345",
		},
		{
			name:     "trailing zeros dropped",
			input:    11.500,
			expected: "11.5",
		},
		{
			name:     "negative lower limit",
			input:    -0.125,
			expected: "-0.125",
		},
		{
			name:     "no exponent for small values",
			input:    0.0001,
			expected: "0.0001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatFloat(tt.input)
			assert.Equal(t, tt.expected, result, "formatFloat(%f) = %s, want %s", tt.input, result, tt.expected)
		})
	}
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected string
	}{
		{"zero value", 0, "0"},
		{"first subgroup", 1, "1"},
		{"largest subgroup size", 25, "25"},
		{"negative", -7, "-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatInt(tt.input))
		})
	}
}

func TestFormatBool(t *testing.T) {
	assert.Equal(t, "true", formatBool(true))
	assert.Equal(t, "false", formatBool(false))
}

func TestFlagAt(t *testing.T) {
	flags := []bool{false, true}

	assert.False(t, flagAt(flags, 0))
	assert.True(t, flagAt(flags, 1))
	assert.False(t, flagAt(flags, 2), "index past the end reads as false")
	assert.False(t, flagAt(nil, 0))
}

func BenchmarkFormatFloat(b *testing.B) {
	testValues := []float64{0, 13.687, 9.313, 11.5, 1.2345, -0.125}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, val := range testValues {
			_ = formatFloat(val)
		}
	}
}
