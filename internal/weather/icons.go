package weather

// Base icon names, following the freedesktop weather icon naming scheme minus
// the "weather-" prefix.
const (
	IconClear            = "clear"
	IconFewClouds        = "few-clouds"
	IconFog              = "fog"
	IconFreezingRain     = "freezing-rain"
	IconOvercast         = "overcast"
	IconShowers          = "showers"
	IconShowersScattered = "showers-scattered"
	IconSnow             = "snow"
	IconStorm            = "storm"
)

// IconName builds the themed icon name for a base. Only the clear and
// few-clouds icons have night variants in the icon set; everything else uses
// the day icon around the clock.
func IconName(base string, isNight bool) string {
	name := "weather-" + base
	if isNight && (base == IconClear || base == IconFewClouds) {
		name += "-night"
	}
	return name
}
