// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// GeocodeError reports that an address could not be resolved to coordinates.
type GeocodeError struct {
	Type    ErrorType
	Address string
	Message string
	Err     error
}

// ErrorType classifies geocoding failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit the service throttled the request.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded the account quota is exhausted or access was denied.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout the request did not complete in time.
	ErrorTypeTimeout
	// ErrorTypeNotFound the address matched nothing.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest the service rejected the request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError the service could not be reached.
	ErrorTypeNetworkError
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:        "unknown",
	ErrorTypeRateLimit:      "rate limit",
	ErrorTypeQuotaExceeded:  "quota exceeded",
	ErrorTypeTimeout:        "timeout",
	ErrorTypeNotFound:       "not found",
	ErrorTypeInvalidRequest: "invalid request",
	ErrorTypeNetworkError:   "network error",
}

func (t ErrorType) String() string {
	if s, ok := errorTypeNames[t]; ok {
		return s
	}

	return fmt.Sprintf("ErrorType(%d)", int(t))
}

func (e *GeocodeError) Error() string {
	msg := e.Message
	if e.Address != "" {
		msg = fmt.Sprintf("geocoding %q: %s", e.Address, msg)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *GeocodeError) Unwrap() error {
	return e.Err
}

// IsRateLimitError reports whether err is a throttling failure.
func IsRateLimitError(err error) bool {
	return hasType(err, ErrorTypeRateLimit)
}

// IsQuotaExceededError reports whether err is a quota or access failure.
func IsQuotaExceededError(err error) bool {
	return hasType(err, ErrorTypeQuotaExceeded)
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	return hasType(err, ErrorTypeTimeout)
}

// IsNotFoundError reports whether err means the address matched nothing.
func IsNotFoundError(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsInvalidRequestError reports whether the geocoder rejected the address itself.
func IsInvalidRequestError(err error) bool {
	return hasType(err, ErrorTypeInvalidRequest)
}

func hasType(err error, t ErrorType) bool {
	var geoErr *GeocodeError

	return errors.As(err, &geoErr) && geoErr.Type == t
}

// ClassifyHTTPError maps an unexpected HTTP status to a geocoding error.
func ClassifyHTTPError(statusCode int) *GeocodeError {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &GeocodeError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusForbidden, http.StatusUnauthorized:
		return &GeocodeError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest:
		return &GeocodeError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusNotFound:
		return &GeocodeError{
			Type:    ErrorTypeNotFound,
			Message: "address not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &GeocodeError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &GeocodeError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}

// classifyTransportError wraps a failure of http.Client.Do.
func classifyTransportError(address string, err error) *GeocodeError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &GeocodeError{
			Type:    ErrorTypeTimeout,
			Address: address,
			Message: "request timed out",
			Err:     err,
		}
	}

	return &GeocodeError{
		Type:    ErrorTypeNetworkError,
		Address: address,
		Message: "geocoding request failed",
		Err:     err,
	}
}
