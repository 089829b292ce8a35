package location

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"

	"github.com/nkoval/weatherbar/internal/transport"
)

// ProviderChoice selects which fix provider resolves the here sentinel.
type ProviderChoice int

const (
	ProviderIPInfo ProviderChoice = iota + 1
	ProviderIPAPI
	ProviderSystem
	ProviderDisabled
)

// ParseProviderChoice maps a configured provider name to its choice;
// unrecognized names fall back to ipinfo.
func ParseProviderChoice(s string) ProviderChoice {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ipapi":
		return ProviderIPAPI
	case "system":
		return ProviderSystem
	case "disabled":
		return ProviderDisabled
	default:
		return ProviderIPInfo
	}
}

// ProviderOptions carries the provider-specific settings the factory needs.
type ProviderOptions struct {
	// SystemLat/SystemLon are the OS-supplied coordinates for the system
	// provider; both nil means the service was denied a position.
	SystemLat *float64
	SystemLon *float64

	// GoogleAPIKey enables reverse geocoding for the system provider.
	GoogleAPIKey string
}

// NewFixProvider builds the provider variant for a configuration choice.
func NewFixProvider(choice ProviderChoice, client *transport.Client, opts ProviderOptions, logger *zap.Logger) FixProvider {
	switch choice {
	case ProviderIPAPI:
		return &ipAPIProvider{client: client}
	case ProviderSystem:
		return &systemProvider{opts: opts, logger: logger}
	case ProviderDisabled:
		return disabledProvider{}
	default:
		return &ipinfoProvider{client: client}
	}
}

// ipinfoProvider resolves via the ipinfo.io IP-geolocation service, which
// reports coordinates as a single "lat,lon" string.
type ipinfoProvider struct {
	client  *transport.Client
	baseURL string
}

func (p *ipinfoProvider) Name() string { return "ipinfo" }

func (p *ipinfoProvider) Resolve(ctx context.Context) (Fix, error) {
	url := p.baseURL
	if url == "" {
		url = "https://ipinfo.io/json"
	}

	var payload struct {
		Loc     string `json:"loc"`
		City    string `json:"city"`
		Country string `json:"country"`
	}
	resp, err := p.client.GetJSON(ctx, url, nil, &payload)
	if err != nil {
		return Fix{}, err
	}
	if !resp.Is2xx {
		return Fix{}, fmt.Errorf("ipinfo gave status %d", resp.Status)
	}

	latStr, lonStr, ok := strings.Cut(payload.Loc, ",")
	if !ok {
		return Fix{}, fmt.Errorf("ipinfo returned malformed loc %q", payload.Loc)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Fix{}, fmt.Errorf("ipinfo returned malformed latitude %q", latStr)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return Fix{}, fmt.Errorf("ipinfo returned malformed longitude %q", lonStr)
	}

	return Fix{Lat: lat, Lon: lon, City: payload.City, Country: payload.Country}, nil
}

// ipAPIProvider resolves via the ipapi.co service, which reports numeric
// coordinates and a country code.
type ipAPIProvider struct {
	client  *transport.Client
	baseURL string
}

func (p *ipAPIProvider) Name() string { return "ipapi" }

func (p *ipAPIProvider) Resolve(ctx context.Context) (Fix, error) {
	url := p.baseURL
	if url == "" {
		url = "https://ipapi.co/json/"
	}

	var payload struct {
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		City        string  `json:"city"`
		CountryCode string  `json:"country_code"`
	}
	resp, err := p.client.GetJSON(ctx, url, nil, &payload)
	if err != nil {
		return Fix{}, err
	}
	if !resp.Is2xx {
		return Fix{}, fmt.Errorf("ipapi gave status %d", resp.Status)
	}

	return Fix{
		Lat:     payload.Latitude,
		Lon:     payload.Longitude,
		City:    payload.City,
		Country: payload.CountryCode,
	}, nil
}

// systemProvider uses the position handed to the service by the host system.
// When a Google API key is configured it reverse-geocodes the coordinates to
// a city and country; a reverse-geocode failure still yields the bare fix.
type systemProvider struct {
	opts   ProviderOptions
	logger *zap.Logger
}

func (p *systemProvider) Name() string { return "system" }

func (p *systemProvider) Resolve(_ context.Context) (Fix, error) {
	if p.opts.SystemLat == nil || p.opts.SystemLon == nil {
		return Fix{}, ErrNoLocationService
	}
	fix := Fix{Lat: *p.opts.SystemLat, Lon: *p.opts.SystemLon}

	if p.opts.GoogleAPIKey == "" {
		return fix, nil
	}

	geocoder.ApiKey = p.opts.GoogleAPIKey
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{
		Latitude:  fix.Lat,
		Longitude: fix.Lon,
	})
	if err != nil || len(addresses) == 0 {
		p.logger.Warn("reverse geocoding failed; returning bare coordinates", zap.Error(err))
		return fix, nil
	}

	fix.City = addresses[0].City
	fix.Country = addresses[0].Country
	return fix, nil
}

// disabledProvider fails every request immediately.
type disabledProvider struct{}

func (disabledProvider) Name() string { return "disabled" }

func (disabledProvider) Resolve(_ context.Context) (Fix, error) {
	return Fix{}, fmt.Errorf("current-location resolution is disabled")
}
