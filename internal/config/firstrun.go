package config

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nkoval/weatherbar/internal/location"
	"github.com/nkoval/weatherbar/internal/settings"
	"github.com/nkoval/weatherbar/internal/units"
)

// Seed writes the configured defaults into the settings store. Unit prefs are
// only written when a preset is configured; otherwise FirstRun decides them.
func (cfg *AppConfig) Seed(st *settings.Store) {
	if len(cfg.Locations) > 0 {
		locs := make([]location.Location, 0, len(cfg.Locations))
		for _, raw := range cfg.Locations {
			if loc, ok := location.Parse(raw); ok {
				locs = append(locs, loc)
			}
		}
		if len(locs) > 0 {
			st.SetLocations(locs)
		}
	}
	st.Set(settings.KeyMainLocationIndex, cfg.MainLocationIndex)
	st.Set(settings.KeyMyLocProvider, cfg.MyLocProvider)
	st.Set(settings.KeyWeatherProvider, "openmeteo")

	if preset := presetPrefs(cfg.UnitPreset); preset != nil {
		st.SetUnitPrefs(*preset)
	}
}

func presetPrefs(name string) *units.Prefs {
	var p units.Prefs
	switch name {
	case "us":
		p = units.USPrefs()
	case "uk":
		p = units.UKPrefs()
	case "metric":
		p = units.MetricPrefs()
	default:
		return nil
	}
	return &p
}

// FirstRun picks unit preferences from the resolved country when no preset
// was configured: Fahrenheit and mph for the US, Celsius with mph for the UK,
// metric everywhere else. Resolution failure is tolerated and falls back to
// metric; it is never fatal.
func FirstRun(st *settings.Store, resolver *location.Resolver, cfg *AppConfig, logger *zap.Logger) {
	if cfg.UnitPreset != "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fix, err := resolver.Resolve(ctx)
	if err != nil {
		logger.Warn("first-run location probe failed; defaulting to metric units", zap.Error(err))
		st.SetUnitPrefs(units.MetricPrefs())
		return
	}

	switch fix.Country {
	case "US":
		st.SetUnitPrefs(units.USPrefs())
	case "UK", "GB":
		st.SetUnitPrefs(units.UKPrefs())
	default:
		st.SetUnitPrefs(units.MetricPrefs())
	}
	logger.Info("picked unit preferences from resolved country",
		zap.String("country", fix.Country))
}
