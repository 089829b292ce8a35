// Package weather defines the normalized weather snapshot the rest of the
// service consumes, independent of which upstream provider produced it.
package weather

import (
	"time"

	"github.com/nkoval/weatherbar/internal/location"
	"github.com/nkoval/weatherbar/internal/units"
)

// Condition is the coarse sky state used for grouping and theming. Icon names
// carry the finer-grained distinctions.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRainy   Condition = "rainy"
	ConditionSnowy   Condition = "snowy"
	ConditionStormy  Condition = "stormy"
)

// ForecastEntry is one slot of a daily or hourly forecast. Daily entries carry
// min/max temperatures; hourly entries carry a single temperature.
type ForecastEntry struct {
	Time         time.Time
	IconName     string
	Temp         *units.Temp
	TempMin      *units.Temp
	TempMax      *units.Temp
	PrecipChance units.Percentage
}

// Snapshot is the full current-conditions reading plus forecasts, already
// converted into canonical measurement types.
type Snapshot struct {
	Temp          units.Temp
	FeelsLike     units.Temp
	Wind          units.Speed
	Gusts         units.Speed
	WindDir       units.Direction
	Humidity      units.Percentage
	CloudCover    units.Percentage
	Pressure      units.Pressure
	UVIndex       float64
	Precipitation units.Rain

	Condition Condition
	IconName  string
	IsNight   bool

	Sunrise time.Time
	Sunset  time.Time

	Daily  []ForecastEntry
	Hourly []ForecastEntry

	ProviderName string
	Location     location.Location
	FetchedAt    time.Time
}
