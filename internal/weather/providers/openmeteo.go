// Package providers contains the upstream weather service adapters.
package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nkoval/weatherbar/internal/location"
	"github.com/nkoval/weatherbar/internal/transport"
	"github.com/nkoval/weatherbar/internal/units"
	"github.com/nkoval/weatherbar/internal/weather"
)

const openMeteoURL = "https://api.open-meteo.com/v1/forecast"

// Upstream timestamps arrive in the requested timezone without an offset.
const (
	openMeteoTimeLayout = "2006-01-02T15:04"
	openMeteoDateLayout = "2006-01-02"
)

// OpenMeteo fetches weather from the Open-Meteo forecast API. Requests ask
// for Fahrenheit, mph and inches so the response drops straight into the
// canonical measurement types.
type OpenMeteo struct {
	client       *transport.Client
	resolver     *location.Resolver
	mainLocation func() location.Location
	timezone     string
	logger       *zap.Logger

	baseURL string
	now     func() time.Time
}

func NewOpenMeteo(client *transport.Client, resolver *location.Resolver, mainLocation func() location.Location, timezone string, logger *zap.Logger) *OpenMeteo {
	if timezone == "" {
		timezone = "auto"
	}
	return &OpenMeteo{
		client:       client,
		resolver:     resolver,
		mainLocation: mainLocation,
		timezone:     timezone,
		logger:       logger,
		baseURL:      openMeteoURL,
		now:          time.Now,
	}
}

func (p *OpenMeteo) Name() string { return "openmeteo" }

type openMeteoPayload struct {
	Current struct {
		Temperature         float64 `json:"temperature_2m"`
		WeatherCode         int     `json:"weather_code"`
		IsDay               int     `json:"is_day"`
		RelativeHumidity    float64 `json:"relative_humidity_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		SurfacePressure     float64 `json:"surface_pressure"`
		WindSpeed           float64 `json:"wind_speed_10m"`
		WindGusts           float64 `json:"wind_gusts_10m"`
		WindDirection       float64 `json:"wind_direction_10m"`
		Precipitation       float64 `json:"precipitation"`
		CloudCover          float64 `json:"cloud_cover"`
	} `json:"current"`
	Daily struct {
		Time                     []string  `json:"time"`
		Sunrise                  []string  `json:"sunrise"`
		Sunset                   []string  `json:"sunset"`
		WeatherCode              []int     `json:"weather_code"`
		TemperatureMin           []float64 `json:"temperature_2m_min"`
		TemperatureMax           []float64 `json:"temperature_2m_max"`
		PrecipitationProbability []float64 `json:"precipitation_probability_max"`
		UVIndexMax               []float64 `json:"uv_index_max"`
		CloudCoverMean           []float64 `json:"cloud_cover_mean"`
		PrecipitationSum         []float64 `json:"precipitation_sum"`
	} `json:"daily"`
	Hourly struct {
		Time                     []string  `json:"time"`
		Temperature              []float64 `json:"temperature_2m"`
		WeatherCode              []int     `json:"weather_code"`
		PrecipitationProbability []float64 `json:"precipitation_probability"`
		IsDay                    []int     `json:"is_day"`
		CloudCover               []float64 `json:"cloud_cover"`
		Precipitation            []float64 `json:"precipitation"`
	} `json:"hourly"`
}

// FetchWeather resolves the main location and issues one forecast request.
// Retries belong to the scheduler, not here.
func (p *OpenMeteo) FetchWeather(ctx context.Context) (*weather.Snapshot, error) {
	loc := p.mainLocation()
	lat, lon, err := loc.LatLon(ctx, p.resolver)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("current", "temperature_2m,weather_code,is_day,relative_humidity_2m,apparent_temperature,surface_pressure,wind_speed_10m,wind_gusts_10m,wind_direction_10m,precipitation,cloud_cover")
	params.Set("daily", "sunrise,sunset,weather_code,temperature_2m_min,temperature_2m_max,precipitation_probability_max,uv_index_max,cloud_cover_mean,precipitation_sum")
	params.Set("hourly", "temperature_2m,weather_code,precipitation_probability,is_day,cloud_cover,precipitation")
	params.Set("forecast_hours", "28")
	params.Set("temperature_unit", "fahrenheit")
	params.Set("wind_speed_unit", "mph")
	params.Set("precipitation_unit", "inch")
	params.Set("timezone", p.timezone)

	var payload openMeteoPayload
	resp, err := p.client.GetJSON(ctx, p.baseURL, params, &payload)
	if err != nil {
		return nil, err
	}
	if !resp.Is2xx {
		reason := resp.Reason
		if reason == "" {
			reason = "none given"
		}
		return nil, fmt.Errorf("open-meteo gave status %d: %s", resp.Status, reason)
	}

	return p.buildSnapshot(loc, &payload), nil
}

func (p *OpenMeteo) buildSnapshot(loc location.Location, payload *openMeteoPayload) *weather.Snapshot {
	cur := payload.Current
	code := correctWeatherCode(cur.WeatherCode, cur.CloudCover, cur.Precipitation)
	condition, icon := codeToCondition(code)
	isNight := cur.IsDay == 0

	snap := &weather.Snapshot{
		Temp:          units.NewTemp(cur.Temperature),
		FeelsLike:     units.NewTemp(cur.ApparentTemperature),
		Wind:          units.NewSpeed(cur.WindSpeed),
		Gusts:         units.NewSpeed(cur.WindGusts),
		WindDir:       units.NewDirection(cur.WindDirection),
		Humidity:      units.NewPercentage(cur.RelativeHumidity),
		CloudCover:    units.NewPercentage(cur.CloudCover),
		Pressure:      units.NewPressure(cur.SurfacePressure * 0.02953),
		Precipitation: units.NewRain(cur.Precipitation),
		Condition:     condition,
		IconName:      weather.IconName(icon, isNight),
		IsNight:       isNight,
		ProviderName:  p.Name(),
		Location:      loc,
		FetchedAt:     p.now(),
	}

	daily := payload.Daily
	if len(daily.UVIndexMax) > 0 {
		snap.UVIndex = daily.UVIndexMax[0]
	}
	snap.Sunrise, snap.Sunset = p.pickSunTimes(daily.Sunrise, daily.Sunset)
	snap.Daily = p.buildDaily(payload)
	snap.Hourly = p.buildHourly(payload)
	return snap
}

// pickSunTimes rolls over to the next day's times once today's have elapsed,
// so the display always shows the next sunrise and sunset.
func (p *OpenMeteo) pickSunTimes(sunrises, sunsets []string) (sunrise, sunset time.Time) {
	now := p.now()
	sunrise = p.sunTimeAt(sunrises, 0, now)
	if !sunrise.IsZero() && sunrise.Before(now) {
		if next := p.sunTimeAt(sunrises, 1, now); !next.IsZero() {
			sunrise = next
		}
	}
	sunset = p.sunTimeAt(sunsets, 0, now)
	if !sunset.IsZero() && sunset.Before(now) {
		if next := p.sunTimeAt(sunsets, 1, now); !next.IsZero() {
			sunset = next
		}
	}
	return sunrise, sunset
}

func (p *OpenMeteo) sunTimeAt(times []string, i int, now time.Time) time.Time {
	if i >= len(times) {
		return time.Time{}
	}
	t, err := time.ParseInLocation(openMeteoTimeLayout, times[i], time.Local)
	if err != nil {
		p.logger.Warn("unparseable sun time from open-meteo", zap.String("value", times[i]))
		return time.Time{}
	}
	return t
}

func (p *OpenMeteo) buildDaily(payload *openMeteoPayload) []weather.ForecastEntry {
	d := payload.Daily
	entries := make([]weather.ForecastEntry, 0, len(d.Time))
	for i, dateStr := range d.Time {
		if i >= len(d.WeatherCode) || i >= len(d.TemperatureMin) || i >= len(d.TemperatureMax) {
			break
		}
		// Date-only strings must parse as local midnight, not UTC.
		t, err := time.ParseInLocation(openMeteoDateLayout, dateStr, time.Local)
		if err != nil {
			p.logger.Warn("unparseable daily date from open-meteo", zap.String("value", dateStr))
			continue
		}

		cloud, precip := at(d.CloudCoverMean, i), at(d.PrecipitationSum, i)
		code := correctWeatherCode(d.WeatherCode[i], cloud, precip)
		_, icon := codeToCondition(code)

		tmin := units.NewTemp(d.TemperatureMin[i])
		tmax := units.NewTemp(d.TemperatureMax[i])
		entries = append(entries, weather.ForecastEntry{
			Time: t,
			// Daily forecasts always use the day icon.
			IconName:     weather.IconName(icon, false),
			TempMin:      &tmin,
			TempMax:      &tmax,
			PrecipChance: units.NewPercentage(at(d.PrecipitationProbability, i)),
		})
	}
	return entries
}

func (p *OpenMeteo) buildHourly(payload *openMeteoPayload) []weather.ForecastEntry {
	h := payload.Hourly
	entries := make([]weather.ForecastEntry, 0, len(h.Time))
	for i, timeStr := range h.Time {
		if i >= len(h.WeatherCode) || i >= len(h.Temperature) {
			break
		}
		t, err := time.ParseInLocation(openMeteoTimeLayout, timeStr, time.Local)
		if err != nil {
			p.logger.Warn("unparseable hourly time from open-meteo", zap.String("value", timeStr))
			continue
		}

		cloud, precip := at(h.CloudCover, i), at(h.Precipitation, i)
		code := correctWeatherCode(h.WeatherCode[i], cloud, precip)
		_, icon := codeToCondition(code)
		isNight := i < len(h.IsDay) && h.IsDay[i] == 0

		temp := units.NewTemp(h.Temperature[i])
		entries = append(entries, weather.ForecastEntry{
			Time:         t,
			IconName:     weather.IconName(icon, isNight),
			Temp:         &temp,
			PrecipChance: units.NewPercentage(at(h.PrecipitationProbability, i)),
		})
	}
	return entries
}

// at is a bounds-tolerant index into the parallel arrays; missing values read
// as zero.
func at(vs []float64, i int) float64 {
	if i >= len(vs) {
		return 0
	}
	return vs[i]
}

// correctWeatherCode downgrades a thunderstorm report when the sky does not
// support one. Open-Meteo emits code 95 on high convective energy even with
// clear skies and no precipitation, so below 40% cloud cover and 0.1in
// precipitation the code drops to partly cloudy or clear.
func correctWeatherCode(code int, cloudCoverPct, precipitationIn float64) int {
	if code != 95 {
		return code
	}
	if cloudCoverPct >= 40 || precipitationIn >= 0.1 {
		return code
	}
	if cloudCoverPct >= 20 {
		return 1
	}
	return 0
}

// codeToCondition maps a WMO weather code to the internal condition and base
// icon name. Unknown codes read as overcast rather than failing the fetch.
func codeToCondition(code int) (weather.Condition, string) {
	switch code {
	case 0, 1:
		return weather.ConditionClear, weather.IconClear
	case 2:
		return weather.ConditionCloudy, weather.IconFewClouds
	case 3:
		return weather.ConditionCloudy, weather.IconOvercast
	case 45, 48:
		return weather.ConditionCloudy, weather.IconFog
	case 51, 61, 80:
		return weather.ConditionRainy, weather.IconShowersScattered
	case 53, 55, 63, 65, 81, 82:
		return weather.ConditionRainy, weather.IconShowers
	case 56, 57, 66, 67:
		return weather.ConditionRainy, weather.IconFreezingRain
	case 71, 73, 75, 77, 85, 86:
		return weather.ConditionSnowy, weather.IconSnow
	case 95:
		return weather.ConditionStormy, weather.IconStorm
	case 96, 99:
		return weather.ConditionSnowy, weather.IconSnow
	default:
		return weather.ConditionUnknown, weather.IconOvercast
	}
}

