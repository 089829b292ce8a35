// Package location models the places weather is fetched for: either a named
// fixed coordinate pair or the special "here" sentinel that resolves to the
// device's current position, plus the resolver that produces that position.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
)

// Location is an immutable place. A non-here location always has a name and
// both coordinates; the "here" sentinel may omit both.
type Location struct {
	name      string
	isHere    bool
	lat       float64
	lon       float64
	hasCoords bool
}

// NewCoords creates a named fixed-coordinate location.
func NewCoords(name string, lat, lon float64) Location {
	return Location{name: name, lat: lat, lon: lon, hasCoords: true}
}

// NewHere creates the "here" sentinel. The name is optional; Name falls back
// to a placeholder.
func NewHere(name string) Location {
	return Location{name: name, isHere: true}
}

func (l Location) IsHere() bool {
	return l.isHere
}

// Name returns the display name, falling back to "My Location" for an unnamed
// here sentinel.
func (l Location) Name() string {
	if l.name == "" {
		return "My Location"
	}
	return l.name
}

// RawName reports the stored name and whether one was set.
func (l Location) RawName() (string, bool) {
	return l.name, l.name != ""
}

// Coords reports the fixed coordinates, if any. The here sentinel has none
// until resolved.
func (l Location) Coords() (lat, lon float64, ok bool) {
	return l.lat, l.lon, l.hasCoords
}

// Description is a short human summary: "My Location" for here, otherwise a
// hemisphere-annotated coordinate string.
func (l Location) Description() string {
	if l.isHere {
		return "My Location"
	}
	ns := "N"
	if l.lat < 0 {
		ns = "S"
	}
	ew := "E"
	if l.lon < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%g %s %g %s", math.Abs(l.lat), ns, math.Abs(l.lon), ew)
}

// LatLon resolves the location to coordinates. Fixed locations resolve
// immediately; the here sentinel delegates to the resolver, which may hit the
// network.
func (l Location) LatLon(ctx context.Context, r *Resolver) (lat, lon float64, err error) {
	if !l.isHere {
		return l.lat, l.lon, nil
	}
	fix, err := r.Resolve(ctx)
	if err != nil {
		return 0, 0, err
	}
	return fix.Lat, fix.Lon, nil
}

type locationJSON struct {
	Name   *string  `json:"name,omitempty"`
	IsHere *bool    `json:"isHere,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
}

// String serializes the location to its compact persisted form. Parse is its
// inverse for every constructible value.
func (l Location) String() string {
	var obj locationJSON
	if l.name != "" {
		obj.Name = &l.name
	}
	if l.isHere {
		t := true
		obj.IsHere = &t
	}
	if l.hasCoords {
		lat, lon := l.lat, l.lon
		obj.Lat = &lat
		obj.Lon = &lon
	}
	b, err := json.Marshal(obj)
	if err != nil {
		// Marshaling a struct of scalars cannot fail.
		return "{}"
	}
	return string(b)
}

// Parse reads the persisted form. Malformed or semantically inconsistent
// input yields ok=false rather than an error: corrupt persisted locations
// degrade, they do not crash.
func Parse(s string) (Location, bool) {
	var obj locationJSON
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return Location{}, false
	}

	isHere := obj.IsHere != nil && *obj.IsHere
	name := ""
	if obj.Name != nil {
		name = *obj.Name
	}

	// Only the here sentinel can omit the name.
	if !isHere && name == "" {
		return Location{}, false
	}
	// Coordinates come in pairs or not at all.
	if (obj.Lat == nil) != (obj.Lon == nil) {
		return Location{}, false
	}
	// A fixed location must actually have coordinates.
	if !isHere && obj.Lat == nil {
		return Location{}, false
	}

	if isHere {
		return NewHere(name), true
	}
	return NewCoords(name, *obj.Lat, *obj.Lon), true
}
