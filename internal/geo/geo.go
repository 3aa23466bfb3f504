// Package geo resolves human-readable locations: reverse geocoding of
// device coordinates, free-text place autocomplete, and an IP-based
// fallback when coordinates are unavailable.
//
// The public geocoder enforces an absolute one-request-per-second policy,
// so every call flows through a keyed rate limiter. Autocomplete and
// location resolution are cosmetic features; their failure modes are empty
// results, never user-facing errors.
package geo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"encoding/json/v2"

	"github.com/dozendreams/dozendreams-server/internal/config"
	"github.com/dozendreams/dozendreams-server/internal/errors"
	"github.com/dozendreams/dozendreams-server/internal/ratelimit"
)

const (
	// Public geocoder usage policy: 1 request per second.
	geocoderRPS   = 1.0
	geocoderBurst = 2

	defaultTimeout = 10 * time.Second

	// MinQueryLength gates autocomplete; shorter input returns nothing.
	MinQueryLength = 3

	maxSuggestions = 5

	userAgent = "DozenDreams/1.0"
)

// Place is one autocomplete suggestion.
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Service is a rate-limited geolocation client.
type Service struct {
	geocoderURL string
	ipLookupURL string
	http        *http.Client
	limiter     *ratelimit.KeyedRateLimiter
	logger      *slog.Logger
}

// NewService creates the geolocation service.
func NewService(cfg config.GeoConfig, logger *slog.Logger) *Service {
	return &Service{
		geocoderURL: strings.TrimRight(cfg.NominatimURL, "/"),
		ipLookupURL: cfg.IPLookupURL,
		http:        &http.Client{Timeout: defaultTimeout},
		limiter:     ratelimit.New(geocoderRPS, geocoderBurst),
		logger:      logger,
	}
}

// Close releases resources held by the service.
func (s *Service) Close() {
	s.limiter.Stop()
}

// Reverse resolves coordinates to a short display label.
func (s *Service) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	query := url.Values{
		"format": {"json"},
		"lat":    {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', 6, 64)},
	}
	body, err := s.doGeocoder(ctx, "/reverse", query)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Address struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
			State   string `json:"state"`
			Country string `json:"country"`
		} `json:"address"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.Upstream("decoding geocoder response").WithCause(err)
	}

	locality := parsed.Address.City
	if locality == "" {
		locality = parsed.Address.Town
	}
	if locality == "" {
		locality = parsed.Address.Village
	}
	region := parsed.Address.State
	if region == "" {
		region = parsed.Address.Country
	}

	switch {
	case locality != "" && region != "":
		return locality + ", " + region, nil
	case locality != "":
		return locality, nil
	case region != "":
		return region, nil
	case parsed.DisplayName != "":
		return parsed.DisplayName, nil
	default:
		return "", errors.Upstream("geocoder returned no address")
	}
}

// Suggest returns up to five place completions for free-text input.
// Queries shorter than MinQueryLength and every failure mode return an
// empty slice; the autocomplete dropdown simply stays closed.
func (s *Service) Suggest(ctx context.Context, text string) []Place {
	text = strings.TrimSpace(text)
	if len(text) < MinQueryLength {
		return nil
	}

	query := url.Values{
		"format": {"json"},
		"q":      {text},
		"limit":  {fmt.Sprint(maxSuggestions)},
	}
	body, err := s.doGeocoder(ctx, "/search", query)
	if err != nil {
		s.logger.Debug("place search failed", "error", err)
		return nil
	}

	var rows []struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		s.logger.Debug("place search decode failed", "error", err)
		return nil
	}

	places := make([]Place, 0, len(rows))
	for _, row := range rows {
		lat, _ := strconv.ParseFloat(row.Lat, 64)
		lon, _ := strconv.ParseFloat(row.Lon, 64)
		places = append(places, Place{Name: row.DisplayName, Lat: lat, Lon: lon})
	}
	return places
}

// LocateByIP resolves the caller's approximate location from their public
// IP address.
func (s *Service) LocateByIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ipLookupURL, nil)
	if err != nil {
		return "", errors.Internal("creating ip lookup request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", errors.Upstream("ip lookup unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Upstream("reading ip lookup response").WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Upstreamf("ip lookup returned %d", resp.StatusCode)
	}

	var parsed struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country_name"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.Upstream("decoding ip lookup response").WithCause(err)
	}

	region := parsed.Region
	if region == "" {
		region = parsed.Country
	}
	switch {
	case parsed.City != "" && region != "":
		return parsed.City + ", " + region, nil
	case parsed.City != "":
		return parsed.City, nil
	case region != "":
		return region, nil
	default:
		return "", errors.Upstream("ip lookup returned no location")
	}
}

// Locate resolves a display location, preferring device coordinates and
// falling back to the IP lookup. Returns "" when every source fails;
// callers treat that as "location unavailable", not an error.
func (s *Service) Locate(ctx context.Context, lat, lon *float64) string {
	if lat != nil && lon != nil {
		label, err := s.Reverse(ctx, *lat, *lon)
		if err == nil {
			return label
		}
		s.logger.Debug("reverse geocode failed, falling back to ip", "error", err)
	}

	label, err := s.LocateByIP(ctx)
	if err != nil {
		s.logger.Debug("ip lookup failed", "error", err)
		return ""
	}
	return label
}

func (s *Service) doGeocoder(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := s.limiter.Wait(ctx, "geocoder"); err != nil {
		return nil, errors.Upstream("rate limit wait").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.geocoderURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.Internal("creating geocoder request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, errors.Upstream("geocoder unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Upstream("reading geocoder response").WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Upstreamf("geocoder returned %d", resp.StatusCode)
	}
	return body, nil
}
