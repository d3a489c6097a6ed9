// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package textutils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLowerAsciiFolding(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello world"},
		{"  Spaces  ", "spaces"},
		{"Crème Brûlée", "creme brulee"},
		{"RentCast", "rentcast"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, LowerASCIIFolding(tc.input))
		})
	}
}

func TestDisplayCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"WEST   43 STREET", "West 43 Street"},
		{"manhattan", "Manhattan"},
		{"  ", ""},
		{"ST. NICHOLAS AVENUE", "St. Nicholas Avenue"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, DisplayCase(tc.input))
		})
	}
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{2500, "2,500"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatInt(tc.input))
		})
	}
}

func TestFormatMoneyAndNumber(t *testing.T) {
	assert.Equal(t, "$2,500", FormatMoney(2500))
	assert.Equal(t, "$1,000", FormatMoney(999.6))
	assert.Equal(t, "1", FormatNumber(1))
	assert.Equal(t, "1.5", FormatNumber(1.5))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab…", Truncate("abcd", 3))
	assert.Equal(t, "Crè…", Truncate("Crème", 4))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestAnyToFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    float64
		ok      bool
		wantErr bool
	}{
		{name: "nil", input: nil},
		{name: "blank string", input: "  "},
		{name: "float", input: 2500.0, want: 2500, ok: true},
		{name: "numeric string", input: " 40.758 ", want: 40.758, ok: true},
		{name: "json number", input: json.Number("3"), want: 3, ok: true},
		{name: "garbage string", input: "twenty", wantErr: true},
		{name: "nan string", input: "NaN", wantErr: true},
		{name: "bool", input: true, wantErr: true},
		{name: "object", input: map[string]any{"a": 1.0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := AnyToFloat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, ok)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAnyToString(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
		ok       bool
	}{
		{"nil", nil, "", true},
		{"string", "  abc ", "abc", true},
		{"integer float", 12345.0, "12345", true},
		{"json number", json.Number("77"), "77", true},
		{"object", map[string]any{}, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, ok := AnyToString(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, res)
		})
	}
}
