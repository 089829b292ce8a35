package weather

import (
	"fmt"

	"github.com/nkoval/weatherbar/internal/units"
)

// DetailID identifies one labeled reading pulled out of a snapshot.
type DetailID string

const (
	DetailTemp            DetailID = "temp"
	DetailFeelsLike       DetailID = "feelsLike"
	DetailWindSpeedAndDir DetailID = "windSpeedAndDir"
	DetailHumidity        DetailID = "humidity"
	DetailGusts           DetailID = "gusts"
	DetailUVIndex         DetailID = "uvIndex"
	DetailPressure        DetailID = "pressure"
	DetailPrecipitation   DetailID = "precipitation"
	DetailSunrise         DetailID = "sunrise"
	DetailSunset          DetailID = "sunset"
)

const clockFormat = "3:04 PM"

type detailSpec struct {
	label string
	value func(*Snapshot, units.Prefs) string
}

var detailSpecs = map[DetailID]detailSpec{
	DetailTemp: {"Temp: %s", func(s *Snapshot, p units.Prefs) string {
		return s.Temp.Display(p)
	}},
	DetailFeelsLike: {"Feels Like: %s", func(s *Snapshot, p units.Prefs) string {
		return s.FeelsLike.Display(p)
	}},
	DetailWindSpeedAndDir: {"Wind: %s", func(s *Snapshot, p units.Prefs) string {
		return units.SpeedAndDir{Speed: s.Wind, Dir: s.WindDir}.Display(p)
	}},
	DetailHumidity: {"Humidity: %s", func(s *Snapshot, p units.Prefs) string {
		return s.Humidity.Display(p)
	}},
	DetailGusts: {"Gusts: %s", func(s *Snapshot, p units.Prefs) string {
		return s.Gusts.Display(p)
	}},
	DetailUVIndex: {"UV High: %s", func(s *Snapshot, _ units.Prefs) string {
		return fmt.Sprintf("%g", s.UVIndex)
	}},
	DetailPressure: {"Pressure: %s", func(s *Snapshot, p units.Prefs) string {
		return s.Pressure.Display(p)
	}},
	DetailPrecipitation: {"Precipitation: %s", func(s *Snapshot, p units.Prefs) string {
		return s.Precipitation.Display(p)
	}},
	DetailSunrise: {"Sunrise: %s", func(s *Snapshot, _ units.Prefs) string {
		return s.Sunrise.Format(clockFormat)
	}},
	DetailSunset: {"Sunset: %s", func(s *Snapshot, _ units.Prefs) string {
		return s.Sunset.Format(clockFormat)
	}},
}

// detailOrder is the stable display order of the details.
var detailOrder = []DetailID{
	DetailTemp,
	DetailFeelsLike,
	DetailWindSpeedAndDir,
	DetailHumidity,
	DetailGusts,
	DetailUVIndex,
	DetailPressure,
	DetailPrecipitation,
	DetailSunrise,
	DetailSunset,
}

// DetailIDs lists every detail in display order.
func DetailIDs() []DetailID {
	out := make([]DetailID, len(detailOrder))
	copy(out, detailOrder)
	return out
}

// DisplayDetail renders one detail from the snapshot using the given unit
// preferences, optionally wrapped in its label. Unknown IDs report ok=false.
func DisplayDetail(s *Snapshot, id DetailID, prefs units.Prefs, withLabel bool) (string, bool) {
	spec, ok := detailSpecs[id]
	if !ok {
		return "", false
	}
	v := spec.value(s, prefs)
	if withLabel {
		return fmt.Sprintf(spec.label, v), true
	}
	return v, true
}
