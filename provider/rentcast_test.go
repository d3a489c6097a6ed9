// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/nycapts/aptsearch/config"
	"github.com/nycapts/aptsearch/listing"
	"github.com/nycapts/aptsearch/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rentcastFixture = `[
  {"id":"a1","formattedAddress":"250 W 43rd St, New York, NY 10036","latitude":40.7577,"longitude":-73.9881,
   "price":3200,"bedrooms":1,"bathrooms":1,"propertyType":"Apartment","status":"Active","zipCode":"10036"},
  {"id":"a2","addressLine1":"1 Times Sq","city":"New York","state":"NY","zipCode":"10036",
   "price":"4100","bedrooms":2,"bathrooms":1.5},
  {"id":"a3","formattedAddress":"Somewhere","latitude":40.75,"longitude":-73.98,"price":"call us"},
  {"id":"a4","formattedAddress":"No Coordinates Ave","price":2500,"bedrooms":0},
  "not an object"
]`

func newRentcast(t *testing.T, handler http.HandlerFunc) *RentcastProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewRentcastProvider(Settings{RentcastAPIKey: "secret", HTTPClient: srv.Client()})
	require.NoError(t, err)

	p.URL = srv.URL + "/v1/listings/rental/long-term"

	return p
}

func TestRentcastRequiresKey(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	for _, key := range []string{"", "   "} {
		_, err := New(RentcastName, Settings{RentcastAPIKey: key, HTTPClient: srv.Client()})

		var cfgErr *config.Error
		require.True(t, errors.As(err, &cfgErr), "got %v", err)
		assert.Equal(t, "RENTCAST_API_KEY", cfgErr.Setting)
	}

	assert.Zero(t, calls.Load(), "no request may be sent without a key")
}

func TestRentcastFetch(t *testing.T) {
	p := newRentcast(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/listings/rental/long-term", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		_, _ = w.Write([]byte(rentcastFixture))
	})

	got, err := p.Fetch(context.Background(), Query{Center: timesSquare})
	require.NoError(t, err)
	require.Len(t, got, 3, "malformed price and non-object rows are skipped")

	first := got[0]
	assert.Equal(t, "a1", first.ID)
	assert.Equal(t, RentcastName, first.Source)
	assert.Equal(t, "1 BR Apartment (Active)", first.Title)
	assert.Equal(t, &spatial.Point{Lat: 40.7577, Lng: -73.9881}, first.Location)
	assert.Equal(t, listing.Float(3200), first.Price)
	assert.Equal(t, "https://app.rentcast.io/property-reports?address=250+W+43rd+St%2C+New+York%2C+NY+10036", first.URL)

	second := got[1]
	assert.Equal(t, "1 Times Sq, New York, NY, 10036", second.Address)
	assert.Equal(t, listing.Float(4100), second.Price)
	assert.Equal(t, listing.Float(1.5), second.Bathrooms)
	assert.Equal(t, "2 BR", second.Title)
	assert.Empty(t, second.URL)
	assert.Nil(t, second.Location)

	third := got[2]
	assert.Equal(t, "a4", third.ID)
	assert.Equal(t, "0 BR", third.Title)
	assert.Nil(t, third.Location)

	assert.True(t, ReportsPrice(p))
}

func TestRentcastQueryParameters(t *testing.T) {
	radius := 2.0

	tests := []struct {
		name  string
		query Query
		want  map[string]string
	}{
		{
			name:  "defaults",
			query: Query{Center: timesSquare},
			want: map[string]string{
				"latitude": "40.758", "longitude": "-73.9855", "status": "Active", "limit": "100",
				"radius": "", "price": "", "bedrooms": "",
			},
		},
		{
			name: "ranges and limit",
			query: Query{
				Center:      timesSquare,
				RadiusKm:    &radius,
				MinPrice:    listing.Float(1500),
				MaxBedrooms: listing.Float(2),
				Limit:       900,
			},
			want: map[string]string{
				"radius": strconv.FormatFloat(2*0.621371, 'f', -1, 64), "limit": "500",
				"price": "1500:*", "bedrooms": "*:2",
			},
		},
		{
			name:  "tiny radius is clamped",
			query: Query{Center: timesSquare, RadiusKm: listing.Float(0), Limit: 5},
			want: map[string]string{
				"radius": strconv.FormatFloat(0.1*0.621371, 'f', -1, 64), "limit": "5",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newRentcast(t, func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				for k, v := range tt.want {
					assert.Equal(t, v, q.Get(k), k)
				}

				_, _ = w.Write([]byte(`[]`))
			})

			_, err := p.Fetch(context.Background(), tt.query)
			require.NoError(t, err)
		})
	}
}

func TestRentcastErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"bad key"}`, "invalid API key: upstream returned an error: bad key"},
		{"forbidden", http.StatusForbidden, ``, "invalid API key: upstream returned an error: empty body"},
		{"server error", http.StatusBadGateway, `upstream exploded`, "upstream returned an error: upstream exploded"},
		{"not an array", http.StatusOK, `{"listings":[]}`, "malformed response, expected a JSON array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newRentcast(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := p.Fetch(context.Background(), Query{Center: timesSquare})

			var perr *ProviderError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, RentcastName, perr.Provider)
			assert.Equal(t, tt.wantMessage, perr.Message)
		})
	}
}

func TestRangeParam(t *testing.T) {
	_, ok := rangeParam(nil, nil)
	assert.False(t, ok)

	r, ok := rangeParam(listing.Float(1.5), listing.Float(3))
	assert.True(t, ok)
	assert.Equal(t, "1.5:3", r)
}
