package geo

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dozendreams/dozendreams-server/internal/config"
)

func newTestService(t *testing.T, geocoder, ipLookup http.HandlerFunc) *Service {
	t.Helper()
	var geocoderURL, ipURL string
	if geocoder != nil {
		server := httptest.NewServer(geocoder)
		t.Cleanup(server.Close)
		geocoderURL = server.URL
	}
	if ipLookup != nil {
		server := httptest.NewServer(ipLookup)
		t.Cleanup(server.Close)
		ipURL = server.URL
	}
	svc := NewService(config.GeoConfig{NominatimURL: geocoderURL, IPLookupURL: ipURL},
		slog.New(slog.DiscardHandler))
	t.Cleanup(svc.Close)
	return svc
}

func TestReverseFormatsLabel(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("lat"))
		w.Write([]byte(`{"address":{"city":"Nice","state":"Provence-Alpes-Côte d'Azur","country":"France"}}`))
	}, nil)

	label, err := svc.Reverse(context.Background(), 43.7, 7.26)
	require.NoError(t, err)
	assert.Equal(t, "Nice, Provence-Alpes-Côte d'Azur", label)
}

func TestReverseFallsBackThroughAddressParts(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{"village":"Eze","country":"France"}}`))
	}, nil)

	label, err := svc.Reverse(context.Background(), 43.7, 7.36)
	require.NoError(t, err)
	assert.Equal(t, "Eze, France", label)
}

func TestSuggestMinimumLength(t *testing.T) {
	called := false
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, nil)

	assert.Nil(t, svc.Suggest(context.Background(), "mo"))
	assert.Nil(t, svc.Suggest(context.Background(), "  m  "))
	assert.False(t, called, "short input never hits the geocoder")
}

func TestSuggestParsesResults(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "monaco", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"display_name":"Monaco","lat":"43.73","lon":"7.42"}]`))
	}, nil)

	places := svc.Suggest(context.Background(), "monaco")
	require.Len(t, places, 1)
	assert.Equal(t, "Monaco", places[0].Name)
	assert.InDelta(t, 43.73, places[0].Lat, 0.001)
}

func TestSuggestFailureReturnsEmpty(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	assert.Empty(t, svc.Suggest(context.Background(), "monaco"))
}

func TestLocatePrefersCoordinates(t *testing.T) {
	svc := newTestService(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"address":{"city":"Mumbai","state":"Maharashtra"}}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("ip lookup must not run when coordinates resolve")
		})

	lat, lon := 19.07, 72.87
	assert.Equal(t, "Mumbai, Maharashtra", svc.Locate(context.Background(), &lat, &lon))
}

func TestLocateFallsBackToIP(t *testing.T) {
	svc := newTestService(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"city":"Delhi","region":"Delhi","country_name":"India"}`))
		})

	lat, lon := 28.6, 77.2
	assert.Equal(t, "Delhi, Delhi", svc.Locate(context.Background(), &lat, &lon))

	// No coordinates at all goes straight to the ip lookup.
	assert.Equal(t, "Delhi, Delhi", svc.Locate(context.Background(), nil, nil))
}

func TestLocateAllSourcesFail(t *testing.T) {
	svc := newTestService(t,
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })

	lat, lon := 1.0, 2.0
	assert.Equal(t, "", svc.Locate(context.Background(), &lat, &lon))
}
