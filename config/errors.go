// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"math"
)

// Error is a configuration problem detected before any network call:
// an unknown provider, geocoder or output format, or a missing credential.
type Error struct {
	// Setting names the offending flag or environment variable.
	Setting string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Setting != "" {
		msg = fmt.Sprintf("invalid configuration for %s: %s", e.Setting, e.Message)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CheckAmount rejects a numeric setting that is negative, NaN or infinite.
// A nil value means the setting was not given.
func CheckAmount(setting string, v *float64) error {
	switch {
	case v == nil:
		return nil
	case math.IsNaN(*v) || math.IsInf(*v, 0):
		return &Error{Setting: setting, Message: fmt.Sprintf("must be a finite number (got %g)", *v)}
	case *v < 0:
		return &Error{Setting: setting, Message: fmt.Sprintf("must not be negative (got %g)", *v)}
	}

	return nil
}
