// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package textutils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AnyToString converts a decoded JSON scalar to a trimmed string. Numbers are
// formatted without exponent; objects and arrays are rejected.
func AnyToString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// AnyToFloat converts a decoded JSON scalar to a float64.
//
// It returns ok=false with a nil error when the value is absent (nil or a
// blank string), and a non-nil error when a value is present but cannot be
// interpreted as a number.
func AnyToFloat(v any) (float64, bool, error) {
	switch t := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return t, true, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("invalid number %q: %w", t, err)
		}

		return f, true, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false, nil
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("invalid number %q: %w", s, err)
		}

		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false, fmt.Errorf("invalid number %q: not finite", s)
		}

		return f, true, nil
	default:
		return 0, false, fmt.Errorf("unexpected %T where a number was expected", v)
	}
}
