package units

// Prefs selects the display unit for each measured quantity. A Prefs value is
// built from the settings store and normalized there, so every field holds a
// member of its enum.
type Prefs struct {
	Temp      TempUnit
	Speed     SpeedUnit
	Direction DirectionUnit
	Pressure  PressureUnit
	Rain      RainUnit
	Distance  DistanceUnit
}

// USPrefs returns the customary-unit defaults used in the United States.
func USPrefs() Prefs {
	return Prefs{
		Temp:      Fahrenheit,
		Speed:     Mph,
		Direction: Degrees,
		Pressure:  InHg,
		Rain:      Inches,
		Distance:  Miles,
	}
}

// UKPrefs returns Celsius with mph wind speeds.
func UKPrefs() Prefs {
	p := MetricPrefs()
	p.Speed = Mph
	return p
}

// MetricPrefs returns metric defaults.
func MetricPrefs() Prefs {
	return Prefs{
		Temp:      Celsius,
		Speed:     Kph,
		Direction: Degrees,
		Pressure:  HPa,
		Rain:      Millimeters,
		Distance:  Kilometers,
	}
}

// Clamp replaces any out-of-range field with its US default so that Display
// calls never see an invalid unit from persisted settings.
func (p Prefs) Clamp() Prefs {
	if p.Temp < Fahrenheit || p.Temp > Celsius {
		p.Temp = Fahrenheit
	}
	if p.Speed < Mph || p.Speed > Beaufort {
		p.Speed = Mph
	}
	if p.Direction < Degrees || p.Direction > EightPoint {
		p.Direction = Degrees
	}
	if p.Pressure < InHg || p.Pressure > MmHg {
		p.Pressure = InHg
	}
	if p.Rain < Inches || p.Rain > Points {
		p.Rain = Inches
	}
	if p.Distance < Miles || p.Distance > Meters {
		p.Distance = Miles
	}
	return p
}
