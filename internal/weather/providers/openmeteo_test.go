package providers

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nkoval/weatherbar/internal/location"
	"github.com/nkoval/weatherbar/internal/transport"
	"github.com/nkoval/weatherbar/internal/units"
	"github.com/nkoval/weatherbar/internal/weather"
)

type fixedFixProvider struct {
	fix location.Fix
}

func (p fixedFixProvider) Name() string { return "fake" }

func (p fixedFixProvider) Resolve(_ context.Context) (location.Fix, error) {
	return p.fix, nil
}

func testClient(t *testing.T) *transport.Client {
	t.Helper()
	return transport.NewClient(transport.Config{
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, zap.NewNop())
}

func newTestProvider(t *testing.T, serverURL string, loc location.Location, fix location.Fix) *OpenMeteo {
	t.Helper()
	resolver := location.NewResolver(fixedFixProvider{fix: fix}, 10*time.Minute, zap.NewNop())
	p := NewOpenMeteo(testClient(t), resolver, func() location.Location { return loc }, "", zap.NewNop())
	p.baseURL = serverURL
	return p
}

const samplePayload = `{
	"current": {
		"temperature_2m": 71,
		"weather_code": 1,
		"is_day": 1,
		"relative_humidity_2m": 55,
		"apparent_temperature": 69,
		"surface_pressure": 1013.25,
		"wind_speed_10m": 10,
		"wind_gusts_10m": 22,
		"wind_direction_10m": 90,
		"precipitation": 0,
		"cloud_cover": 15
	},
	"daily": {
		"time": ["2026-08-30", "2026-08-31"],
		"sunrise": ["2026-08-30T06:23", "2026-08-31T06:24"],
		"sunset": ["2026-08-30T19:41", "2026-08-31T19:39"],
		"weather_code": [95, 3],
		"temperature_2m_min": [60, 58],
		"temperature_2m_max": [75, 72],
		"precipitation_probability_max": [10, 40],
		"uv_index_max": [6.5, 5],
		"cloud_cover_mean": [10, 80],
		"precipitation_sum": [0, 0.5]
	},
	"hourly": {
		"time": ["2026-08-30T13:00", "2026-08-30T14:00"],
		"temperature_2m": [71, 72],
		"weather_code": [1, 95],
		"precipitation_probability": [5, 30],
		"is_day": [1, 0],
		"cloud_cover": [15, 25],
		"precipitation": [0, 0]
	}
}`

func TestFetchWeatherEndToEnd(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{}
		for k := range q {
			gotQuery[k] = q.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	fix := location.Fix{Lat: 40.7, Lon: -74.0, City: "New York", Country: "US"}
	p := newTestProvider(t, srv.URL, location.NewHere(""), fix)
	p.now = func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	}

	snap, err := p.FetchWeather(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery["latitude"] != "40.7" || gotQuery["longitude"] != "-74" {
		t.Fatalf("unexpected coordinates in request: %v", gotQuery)
	}
	if gotQuery["forecast_hours"] != "28" {
		t.Fatalf("expected forecast_hours=28, got %q", gotQuery["forecast_hours"])
	}
	if gotQuery["temperature_unit"] != "fahrenheit" || gotQuery["wind_speed_unit"] != "mph" || gotQuery["precipitation_unit"] != "inch" {
		t.Fatalf("unexpected unit hints: %v", gotQuery)
	}
	if gotQuery["timezone"] != "auto" {
		t.Fatalf("expected default timezone auto, got %q", gotQuery["timezone"])
	}
	if !strings.Contains(gotQuery["current"], "surface_pressure") {
		t.Fatalf("current field list missing surface_pressure: %q", gotQuery["current"])
	}

	if got, err := snap.Temp.Get(units.Fahrenheit); err != nil || got != 71 {
		t.Fatalf("expected 71F, got %v (err %v)", got, err)
	}
	if snap.Condition != weather.ConditionClear {
		t.Fatalf("expected clear condition, got %q", snap.Condition)
	}
	// Code 1 is not the thunderstorm special case, so no correction applies.
	if snap.IconName != "weather-clear" {
		t.Fatalf("expected day clear icon, got %q", snap.IconName)
	}
	if snap.IsNight {
		t.Fatal("expected daytime snapshot")
	}
	if snap.UVIndex != 6.5 {
		t.Fatalf("expected UV 6.5, got %v", snap.UVIndex)
	}
	if !snap.Location.IsHere() {
		t.Fatal("expected snapshot tagged with the here location")
	}

	// 1013.25 hPa is the standard atmosphere, 29.92 inHg.
	if got, _ := snap.Pressure.Get(units.InHg); math.Abs(got-29.92) > 0.01 {
		t.Fatalf("expected ~29.92 inHg, got %v", got)
	}
}

func TestFetchWeatherSunriseRollsOver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, location.NewCoords("NYC", 40.7, -74.0), location.Fix{})
	// 8 PM: today's sunrise and sunset have both elapsed.
	p.now = func() time.Time {
		return time.Date(2026, 8, 30, 20, 0, 0, 0, time.Local)
	}

	snap, err := p.FetchWeather(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSunrise := time.Date(2026, 8, 31, 6, 24, 0, 0, time.Local)
	wantSunset := time.Date(2026, 8, 31, 19, 39, 0, 0, time.Local)
	if !snap.Sunrise.Equal(wantSunrise) {
		t.Fatalf("expected next-day sunrise %v, got %v", wantSunrise, snap.Sunrise)
	}
	if !snap.Sunset.Equal(wantSunset) {
		t.Fatalf("expected next-day sunset %v, got %v", wantSunset, snap.Sunset)
	}
}

func TestFetchWeatherForecastEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, location.NewCoords("NYC", 40.7, -74.0), location.Fix{})
	p.now = func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	}

	snap, err := p.FetchWeather(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(snap.Daily) != 2 {
		t.Fatalf("expected 2 daily entries, got %d", len(snap.Daily))
	}
	// Daily code 95 with 10% cloud and no precipitation corrects to clear,
	// and daily entries always use the day icon.
	if snap.Daily[0].IconName != "weather-clear" {
		t.Fatalf("expected corrected daily icon, got %q", snap.Daily[0].IconName)
	}
	wantMidnight := time.Date(2026, 8, 30, 0, 0, 0, 0, time.Local)
	if !snap.Daily[0].Time.Equal(wantMidnight) {
		t.Fatalf("expected local midnight %v, got %v", wantMidnight, snap.Daily[0].Time)
	}
	if min, _ := snap.Daily[0].TempMin.Get(units.Fahrenheit); min != 60 {
		t.Fatalf("expected daily min 60, got %v", min)
	}

	if len(snap.Hourly) != 2 {
		t.Fatalf("expected 2 hourly entries, got %d", len(snap.Hourly))
	}
	// Hour 2 is code 95 with 25% cloud: corrects to few-clouds, and its own
	// is_day flag makes it the night variant.
	if snap.Hourly[1].IconName != "weather-few-clouds-night" {
		t.Fatalf("expected corrected night icon, got %q", snap.Hourly[1].IconName)
	}
	if snap.Hourly[0].IconName != "weather-clear" {
		t.Fatalf("expected clear day icon, got %q", snap.Hourly[0].IconName)
	}
	if snap.Hourly[1].PrecipChance.Value() != 30 {
		t.Fatalf("expected 30%% precip chance, got %v", snap.Hourly[1].PrecipChance.Value())
	}
}

func TestFetchWeatherNon2xxIncludesReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"reason": "Latitude must be in range"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, location.NewCoords("NYC", 91, 0), location.Fix{})

	_, err := p.FetchWeather(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "Latitude must be in range") {
		t.Fatalf("expected status and reason in error, got %q", err.Error())
	}
}

func TestCorrectWeatherCode(t *testing.T) {
	cases := []struct {
		code   int
		cloud  float64
		precip float64
		want   int
	}{
		{95, 10, 0, 0},    // clear skies, no rain: downgrade to clear
		{95, 25, 0, 1},    // some cloud: downgrade to mostly clear
		{95, 50, 0, 95},   // enough cloud to believe the storm
		{95, 10, 0.2, 95}, // actual precipitation: believe the storm
		{95, 39.9, 0.09, 1},
		{61, 10, 0, 61}, // only the thunderstorm code is corrected
		{0, 10, 0, 0},
	}
	for _, c := range cases {
		if got := correctWeatherCode(c.code, c.cloud, c.precip); got != c.want {
			t.Fatalf("correctWeatherCode(%d, %v, %v) = %d, want %d", c.code, c.cloud, c.precip, got, c.want)
		}
	}
}

func TestCodeToCondition(t *testing.T) {
	cases := []struct {
		code     int
		wantCond weather.Condition
		wantIcon string
	}{
		{0, weather.ConditionClear, weather.IconClear},
		{2, weather.ConditionCloudy, weather.IconFewClouds},
		{3, weather.ConditionCloudy, weather.IconOvercast},
		{45, weather.ConditionCloudy, weather.IconFog},
		{51, weather.ConditionRainy, weather.IconShowersScattered},
		{65, weather.ConditionRainy, weather.IconShowers},
		{66, weather.ConditionRainy, weather.IconFreezingRain},
		{75, weather.ConditionSnowy, weather.IconSnow},
		{95, weather.ConditionStormy, weather.IconStorm},
		{99, weather.ConditionSnowy, weather.IconSnow},
		{42, weather.ConditionUnknown, weather.IconOvercast},
	}
	for _, c := range cases {
		cond, icon := codeToCondition(c.code)
		if cond != c.wantCond || icon != c.wantIcon {
			t.Fatalf("codeToCondition(%d) = (%q, %q), want (%q, %q)", c.code, cond, icon, c.wantCond, c.wantIcon)
		}
	}
}
