package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nkoval/weatherbar/internal/location"
	"github.com/nkoval/weatherbar/internal/settings"
	"github.com/nkoval/weatherbar/internal/store"
	"github.com/nkoval/weatherbar/internal/weather"
)

var validate = validator.New()

// Deps holds the collaborators the HTTP handlers talk to.
type Deps struct {
	Store    *store.SnapshotStore
	Settings *settings.Store
	Refresh  func()
	Logger   *zap.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		snap, err := deps.Store.Latest()
		if err != nil {
			if errors.Is(err, store.ErrNoSnapshot) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather data")
		}
		return c.JSON(renderSnapshot(snap, deps.Settings.UnitPrefs()))
	})

	v1.Get("/weather/details/:id", func(c *fiber.Ctx) error {
		snap, err := deps.Store.Latest()
		if err != nil {
			if errors.Is(err, store.ErrNoSnapshot) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather data")
		}

		id := weather.DetailID(c.Params("id"))
		text, ok := weather.DisplayDetail(snap, id, deps.Settings.UnitPrefs(), true)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown weather detail")
		}
		return c.JSON(fiber.Map{"id": id, "text": text})
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		deps.Refresh()
		return c.SendStatus(fiber.StatusAccepted)
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		locs := deps.Settings.Locations()
		out := make([]locationBody, len(locs))
		for i, loc := range locs {
			out[i] = toLocationBody(loc)
		}
		return c.JSON(fiber.Map{
			"locations": out,
			"mainIndex": deps.Settings.Int(settings.KeyMainLocationIndex, 0),
		})
	})

	v1.Put("/locations", func(c *fiber.Ctx) error {
		var req locationsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		locs := make([]location.Location, len(req.Locations))
		for i, lb := range req.Locations {
			locs[i] = lb.toLocation()
		}
		if req.MainIndex < 0 || req.MainIndex >= len(locs) {
			return fiber.NewError(fiber.StatusBadRequest, "main index out of range")
		}

		deps.Settings.SetLocations(locs)
		deps.Settings.Set(settings.KeyMainLocationIndex, req.MainIndex)
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Put("/settings/:key", func(c *fiber.Ctx) error {
		key := c.Params("key")
		if !settableKeys[key] {
			return fiber.NewError(fiber.StatusNotFound, "unknown setting")
		}

		var req struct {
			Value any `json:"value"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
		}

		deps.Settings.Set(key, req.Value)
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// settableKeys whitelists the settings the API may write; everything else is
// wired at startup.
var settableKeys = map[string]bool{
	settings.KeyMyLocProvider:     true,
	settings.KeyWeatherProvider:   true,
	settings.KeyTempUnit:          true,
	settings.KeySpeedUnit:         true,
	settings.KeyDirectionUnit:     true,
	settings.KeyPressureUnit:      true,
	settings.KeyRainUnit:          true,
	settings.KeyDistanceUnit:      true,
	settings.KeyMainLocationIndex: true,
}

// locationBody is the wire form of a saved location.
type locationBody struct {
	Name   string   `json:"name,omitempty" validate:"required_unless=IsHere true"`
	IsHere bool     `json:"isHere,omitempty"`
	Lat    *float64 `json:"lat,omitempty" validate:"required_if=IsHere false,omitempty,min=-90,max=90"`
	Lon    *float64 `json:"lon,omitempty" validate:"required_if=IsHere false,omitempty,min=-180,max=180"`
}

type locationsRequest struct {
	Locations []locationBody `json:"locations" validate:"required,min=1,dive"`
	MainIndex int            `json:"mainIndex"`
}

func (lb locationBody) toLocation() location.Location {
	if lb.IsHere {
		return location.NewHere(lb.Name)
	}
	return location.NewCoords(lb.Name, *lb.Lat, *lb.Lon)
}

func toLocationBody(loc location.Location) locationBody {
	lb := locationBody{IsHere: loc.IsHere()}
	if name, ok := loc.RawName(); ok {
		lb.Name = name
	}
	if lat, lon, ok := loc.Coords(); ok {
		lb.Lat = &lat
		lb.Lon = &lon
	}
	return lb
}
