package weather

import "context"

// Provider fetches a normalized snapshot from an upstream weather service.
type Provider interface {
	Name() string
	FetchWeather(ctx context.Context) (*Snapshot, error)
}
