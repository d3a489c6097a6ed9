// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 64 << 20
)

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}

	return &http.Client{Timeout: defaultTimeout}
}

// getJSONArray performs one GET and splits the top-level JSON array into its
// elements, leaving each one undecoded so a bad element can be skipped alone.
func getJSONArray(
	ctx context.Context,
	client *http.Client,
	name, endpoint string,
	params url.Values,
	headers map[string]string,
) ([]json.RawMessage, error) {
	reqURL := endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &ProviderError{Provider: name, Message: "building request", Err: err}
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	req.Header.Set("Accept", "application/json")

	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		msg := "request failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "request timed out"
		}

		return nil, &ProviderError{Provider: name, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &ProviderError{Provider: name, StatusCode: resp.StatusCode, Message: "reading response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{
			Provider:   name,
			StatusCode: resp.StatusCode,
			Message:    "upstream returned an error: " + upstreamMessage(body),
		}
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &ProviderError{
			Provider:   name,
			StatusCode: resp.StatusCode,
			Message:    "malformed response, expected a JSON array",
			Err:        err,
		}
	}

	log.Printf("%s: received %d records in %v", name, len(rows), time.Since(start).Round(time.Millisecond))

	return rows, nil
}

// upstreamMessage extracts a human readable message from an error body.
func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}

		if s, ok := payload.Error.(string); ok && s != "" {
			return s
		}
	}

	body = bytes.TrimSpace(body)
	if len(body) > 200 {
		body = append(body[:200:200], "…"...)
	}

	if len(body) == 0 {
		return "empty body"
	}

	return string(body)
}

// decodeObject decodes one array element as a JSON object, keeping numbers
// as json.Number.
func decodeObject(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}

	if obj == nil {
		return nil, errors.New("null record")
	}

	return obj, nil
}

// skipLog accumulates per-record failures, which never abort a fetch.
type skipLog struct {
	provider string
	verbose  bool
	skipped  int
}

func (s *skipLog) skip(index int, err error) {
	s.skipped++
	if s.verbose {
		log.Printf("%s: skipping record %d: %v", s.provider, index, err)
	}
}

func (s *skipLog) summary(kept int) {
	if s.skipped > 0 {
		log.Printf("⚠️  %s: skipped %d malformed records, kept %d", s.provider, s.skipped, kept)
	}
}
