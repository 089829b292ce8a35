// Package units holds the measurement value types used across the service.
//
// Each type stores a single canonical unit internally and converts on read,
// which makes unit mistakes hard: a Temp is always Fahrenheit inside, a Speed
// always mph, and so on. Conversion factors are fixed constants and Get is a
// pure function of the stored value and the requested unit.
package units

import (
	"fmt"
	"math"
	"strconv"
)

// InvalidUnitError reports a unit value outside the enumerated set for a
// quantity. It is always a programming or configuration error, never expected
// from user input, and must be propagated rather than recovered.
type InvalidUnitError struct {
	Quantity string
	Unit     int
}

func (e *InvalidUnitError) Error() string {
	return fmt.Sprintf("invalid %s unit %d", e.Quantity, e.Unit)
}

// Displayable renders a measurement as a localized, unit-suffixed string
// according to the given display preferences.
type Displayable interface {
	Display(p Prefs) string
}

type TempUnit int

const (
	Fahrenheit TempUnit = iota + 1
	Celsius
)

// Temp is a temperature, stored as Fahrenheit.
type Temp struct {
	fahrenheit float64
}

func NewTemp(fahrenheit float64) Temp {
	return Temp{fahrenheit: fahrenheit}
}

func (t Temp) Get(u TempUnit) (float64, error) {
	switch u {
	case Fahrenheit:
		return t.fahrenheit, nil
	case Celsius:
		return (t.fahrenheit - 32.0) / 1.8, nil
	default:
		return 0, &InvalidUnitError{Quantity: "temperature", Unit: int(u)}
	}
}

func (t Temp) Display(p Prefs) string {
	return fmt.Sprintf("%d°", int(math.Round(mustGet(t.Get(p.Temp)))))
}

type SpeedUnit int

const (
	Mph SpeedUnit = iota + 1
	Mps
	Kph
	Knots
	Fps
	Beaufort
)

// beaufortMaxes holds the upper end of the mph range of each Beaufort number.
var beaufortMaxes = []float64{1, 3, 7, 12, 18, 24, 31, 38, 46, 54, 63, 72}

var speedSuffixes = map[SpeedUnit]string{
	Mph: "mph", Mps: "m/s", Kph: "km/h", Knots: "kts", Fps: "ft/s", Beaufort: "bft",
}

// Speed is a wind or travel speed, stored as mph.
type Speed struct {
	mph float64
}

func NewSpeed(mph float64) Speed {
	return Speed{mph: mph}
}

func (s Speed) Get(u SpeedUnit) (float64, error) {
	switch u {
	case Mph:
		return s.mph, nil
	case Mps:
		return s.mph * 0.44704, nil
	case Kph:
		return s.mph * 1.609344, nil
	case Knots:
		return s.mph * 0.868976, nil
	case Fps:
		return s.mph * 1.466667, nil
	case Beaufort:
		for i, max := range beaufortMaxes {
			if s.mph <= max {
				return float64(i), nil
			}
		}
		// Anything above 72 mph is a 12.
		return 12, nil
	default:
		return 0, &InvalidUnitError{Quantity: "speed", Unit: int(u)}
	}
}

func (s Speed) Display(p Prefs) string {
	v := mustGet(s.Get(p.Speed))
	return fmt.Sprintf("%d %s", int(math.Round(v)), speedSuffixes[p.Speed])
}

type DirectionUnit int

const (
	Degrees DirectionUnit = iota + 1
	EightPoint
)

// compassPoints has nine entries: 337.5 degrees and up rounds to index 8,
// which folds back to N.
var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW", "N"}

// Direction is a compass bearing, stored as degrees normalized to [0, 360).
type Direction struct {
	degrees float64
}

func NewDirection(degrees float64) Direction {
	deg := math.Mod(degrees, 360)
	if deg < 0 {
		deg += 360
	}
	return Direction{degrees: deg}
}

// Get returns the normalized bearing in degrees, or the compass-point index
// for EightPoint (an index into the nine-entry point table).
func (d Direction) Get(u DirectionUnit) (float64, error) {
	switch u {
	case Degrees:
		return d.degrees, nil
	case EightPoint:
		return float64(d.pointIndex()), nil
	default:
		return 0, &InvalidUnitError{Quantity: "direction", Unit: int(u)}
	}
}

// Degrees returns the normalized bearing in degrees.
func (d Direction) Degrees() float64 {
	return d.degrees
}

// Point returns the eight-point compass abbreviation for the bearing.
func (d Direction) Point() string {
	return compassPoints[d.pointIndex()]
}

func (d Direction) pointIndex() int {
	return int(math.Round(d.degrees / 45))
}

func (d Direction) Display(p Prefs) string {
	v := mustGet(d.Get(p.Direction))
	if p.Direction == EightPoint {
		return compassPoints[int(v)]
	}
	return fmt.Sprintf("%d°", int(math.Round(v)))
}

type PressureUnit int

const (
	InHg PressureUnit = iota + 1
	HPa
	MmHg
)

var pressureSuffixes = map[PressureUnit]string{InHg: "inHg", HPa: "hPa", MmHg: "mmHg"}

// Pressure is an atmospheric pressure, stored as inches of mercury.
type Pressure struct {
	inHg float64
}

func NewPressure(inHg float64) Pressure {
	return Pressure{inHg: inHg}
}

func (p Pressure) Get(u PressureUnit) (float64, error) {
	switch u {
	case InHg:
		return p.inHg, nil
	case HPa:
		return p.inHg * 33.86389, nil
	case MmHg:
		return p.inHg * 25.4, nil
	default:
		return 0, &InvalidUnitError{Quantity: "pressure", Unit: int(u)}
	}
}

func (p Pressure) Display(prefs Prefs) string {
	v := mustGet(p.Get(prefs.Pressure))
	return fmt.Sprintf("%d %s", int(math.Round(v)), pressureSuffixes[prefs.Pressure])
}

type RainUnit int

const (
	Inches RainUnit = iota + 1
	Millimeters
	Centimeters
	Points
)

var rainSuffixes = map[RainUnit]string{Inches: "\"", Millimeters: " mm", Centimeters: " cm", Points: " pts"}

// Rain is a rainfall amount, stored as inches.
type Rain struct {
	inches float64
}

func NewRain(inches float64) Rain {
	return Rain{inches: inches}
}

func (r Rain) Get(u RainUnit) (float64, error) {
	switch u {
	case Inches:
		return r.inches, nil
	case Millimeters:
		return r.inches * 25.4, nil
	case Centimeters:
		return r.inches * 2.54, nil
	case Points:
		return r.inches * 0.01, nil
	default:
		return 0, &InvalidUnitError{Quantity: "rain measurement", Unit: int(u)}
	}
}

// Display keeps one decimal place for inches and points when the value is
// fractional; other units round to the nearest integer.
func (r Rain) Display(p Prefs) string {
	v := mustGet(r.Get(p.Rain))

	var rounded string
	if p.Rain == Inches || p.Rain == Points {
		if v == math.Trunc(v) {
			rounded = strconv.FormatFloat(v, 'f', -1, 64)
		} else {
			rounded = strconv.FormatFloat(v, 'f', 1, 64)
		}
	} else {
		rounded = strconv.Itoa(int(math.Round(v)))
	}
	return rounded + rainSuffixes[p.Rain]
}

type DistanceUnit int

const (
	Miles DistanceUnit = iota + 1
	Kilometers
	Feet
	Meters
)

var distanceSuffixes = map[DistanceUnit]string{Miles: "mi", Kilometers: "km", Feet: "ft", Meters: "m"}

// Distance is a length, stored as miles.
type Distance struct {
	miles float64
}

func NewDistance(miles float64) Distance {
	return Distance{miles: miles}
}

func (d Distance) Get(u DistanceUnit) (float64, error) {
	switch u {
	case Miles:
		return d.miles, nil
	case Kilometers:
		return d.miles * 1.609344, nil
	case Feet:
		return d.miles * 5280, nil
	case Meters:
		return d.miles * 1609.344, nil
	default:
		return 0, &InvalidUnitError{Quantity: "distance", Unit: int(u)}
	}
}

func (d Distance) Display(p Prefs) string {
	v := mustGet(d.Get(p.Distance))
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + distanceSuffixes[p.Distance]
}

// Percentage is a value on a 0-100 scale (humidity, cloud cover, precipitation
// chance). It has no alternate units.
type Percentage struct {
	value float64
}

func NewPercentage(zeroToOneHundred float64) Percentage {
	return Percentage{value: zeroToOneHundred}
}

func (p Percentage) Value() float64 {
	return p.value
}

func (p Percentage) Display(_ Prefs) string {
	return fmt.Sprintf("%d%%", int(math.Round(p.value)))
}

// SpeedAndDir couples a wind speed with its direction for combined display.
type SpeedAndDir struct {
	Speed Speed
	Dir   Direction
}

func (sd SpeedAndDir) Display(p Prefs) string {
	return sd.Dir.Display(p) + ", " + sd.Speed.Display(p)
}

// mustGet panics on an invalid unit. Display methods only pass units taken
// from normalized Prefs, so reaching the panic means a programming error,
// which must propagate (recover middleware logs it at the boundary).
func mustGet(v float64, err error) float64 {
	if err != nil {
		panic(err)
	}
	return v
}
