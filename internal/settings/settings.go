// Package settings is the in-process settings store: typed keyed values with
// change subscriptions, plus helpers that interpret the raw values as unit
// preferences and saved locations.
package settings

import (
	"sync"

	"go.uber.org/zap"

	"github.com/nkoval/weatherbar/internal/location"
	"github.com/nkoval/weatherbar/internal/units"
)

// Setting keys. Values are stored loosely typed; the accessors below coerce
// and sanitize on read.
const (
	KeyLocations         = "locations"
	KeyMainLocationIndex = "main-location-index"
	KeyMyLocProvider     = "my-location-provider"
	KeyWeatherProvider   = "weather-provider"
	KeyTempUnit          = "temp-unit"
	KeySpeedUnit         = "speed-unit"
	KeyDirectionUnit     = "direction-unit"
	KeyPressureUnit      = "pressure-unit"
	KeyRainUnit          = "rain-unit"
	KeyDistanceUnit      = "distance-unit"
)

// Store holds the mutable configuration the running service reacts to.
// Writers notify subscribers synchronously, so subscription callbacks must be
// cheap or hand off to their own goroutine.
type Store struct {
	logger *zap.Logger

	mu     sync.RWMutex
	values map[string]any
	subs   map[string][]func()
}

func NewStore(logger *zap.Logger) *Store {
	return &Store{
		logger: logger,
		values: make(map[string]any),
		subs:   make(map[string][]func()),
	}
}

// Subscribe registers fn to run after every Set of key.
func (s *Store) Subscribe(key string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[key] = append(s.subs[key], fn)
}

// Set stores a value and notifies the key's subscribers.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	subs := append([]func(){}, s.subs[key]...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

func (s *Store) get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// String returns the value as a string, or fallback when unset or mistyped.
func (s *Store) String(key, fallback string) string {
	if v, ok := s.get(key); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return fallback
}

// Int returns the value as an int, or fallback when unset or mistyped.
// JSON-decoded numbers arrive as float64 and are accepted too.
func (s *Store) Int(key string, fallback int) int {
	if v, ok := s.get(key); ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return fallback
}

// Strings returns the value as a string slice, or fallback.
func (s *Store) Strings(key string, fallback []string) []string {
	if v, ok := s.get(key); ok {
		if ss, ok := v.([]string); ok {
			return ss
		}
	}
	return fallback
}

// UnitPrefs assembles the display preferences from the unit keys, replacing
// any out-of-range value with the US default.
func (s *Store) UnitPrefs() units.Prefs {
	us := units.USPrefs()
	p := units.Prefs{
		Temp:      units.TempUnit(s.Int(KeyTempUnit, int(us.Temp))),
		Speed:     units.SpeedUnit(s.Int(KeySpeedUnit, int(us.Speed))),
		Direction: units.DirectionUnit(s.Int(KeyDirectionUnit, int(us.Direction))),
		Pressure:  units.PressureUnit(s.Int(KeyPressureUnit, int(us.Pressure))),
		Rain:      units.RainUnit(s.Int(KeyRainUnit, int(us.Rain))),
		Distance:  units.DistanceUnit(s.Int(KeyDistanceUnit, int(us.Distance))),
	}
	return p.Clamp()
}

// SetUnitPrefs writes every unit key from p. Each key notifies separately.
func (s *Store) SetUnitPrefs(p units.Prefs) {
	p = p.Clamp()
	s.Set(KeyTempUnit, int(p.Temp))
	s.Set(KeySpeedUnit, int(p.Speed))
	s.Set(KeyDirectionUnit, int(p.Direction))
	s.Set(KeyPressureUnit, int(p.Pressure))
	s.Set(KeyRainUnit, int(p.Rain))
	s.Set(KeyDistanceUnit, int(p.Distance))
}

// Locations returns the saved location list. Entries that fail to parse are
// dropped with a warning; an empty or fully corrupt list yields the bare here
// sentinel so there is always something to fetch weather for.
func (s *Store) Locations() []location.Location {
	raw := s.Strings(KeyLocations, nil)
	locs := make([]location.Location, 0, len(raw))
	for _, entry := range raw {
		loc, ok := location.Parse(entry)
		if !ok {
			s.logger.Warn("dropping unparseable saved location", zap.String("entry", entry))
			continue
		}
		locs = append(locs, loc)
	}
	if len(locs) == 0 {
		locs = append(locs, location.NewHere(""))
	}
	return locs
}

// SetLocations persists the list in serialized form.
func (s *Store) SetLocations(locs []location.Location) {
	raw := make([]string, len(locs))
	for i, loc := range locs {
		raw[i] = loc.String()
	}
	s.Set(KeyLocations, raw)
}

// MainLocation returns the location weather is currently shown for. An
// out-of-range main index is clamped to the list.
func (s *Store) MainLocation() location.Location {
	locs := s.Locations()
	idx := s.Int(KeyMainLocationIndex, 0)
	if idx < 0 || idx >= len(locs) {
		idx = 0
	}
	return locs[idx]
}
