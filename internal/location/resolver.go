package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNoLocationService means the system geolocation provider denied
	// access; callers can point the user at permissions instead of showing
	// a generic failure.
	ErrNoLocationService = errors.New("system location service denied access")

	// ErrResolveFailed is the generic wrapper for any other resolution
	// failure.
	ErrResolveFailed = errors.New("failed to get location")
)

// Fix is a resolved geographic position, optionally annotated with place
// names.
type Fix struct {
	Lat     float64
	Lon     float64
	City    string
	Country string
}

// FixProvider obtains the device's approximate position.
type FixProvider interface {
	Name() string
	Resolve(ctx context.Context) (Fix, error)
}

// minRefreshFloor is the lowest allowed cache refresh interval.
const minRefreshFloor = 10 * time.Minute

type resolveCall struct {
	done chan struct{}
	fix  Fix
	err  error
}

// Resolver caches the current-location fix and coalesces concurrent
// resolution requests into a single provider call. One Resolver is
// constructed per process and handed to every consumer.
type Resolver struct {
	provider     FixProvider
	refreshFloor time.Duration
	logger       *zap.Logger

	mu        sync.Mutex
	cached    *Fix
	fetchedAt time.Time
	inflight  *resolveCall

	now func() time.Time // injectable for tests
}

func NewResolver(provider FixProvider, refreshFloor time.Duration, logger *zap.Logger) *Resolver {
	if refreshFloor < minRefreshFloor {
		refreshFloor = minRefreshFloor
	}
	return &Resolver{
		provider:     provider,
		refreshFloor: refreshFloor,
		logger:       logger,
		now:          time.Now,
	}
}

// SetProvider swaps the active fix provider. The cache is dropped so the next
// request goes through the new provider.
func (r *Resolver) SetProvider(provider FixProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provider = provider
	r.cached = nil
	r.fetchedAt = time.Time{}
}

// Resolve returns the current-location fix. A fresh cached fix is returned as
// a copy without a network call; if a resolution is already in flight the
// caller awaits its result instead of starting a second one. On provider
// failure the previous fix (if any) is kept and served, and the timestamp
// still advances so failures do not hot-loop.
func (r *Resolver) Resolve(ctx context.Context) (Fix, error) {
	r.mu.Lock()

	if r.cached != nil && r.now().Sub(r.fetchedAt) < r.refreshFloor {
		fix := *r.cached
		r.mu.Unlock()
		return fix, nil
	}

	if c := r.inflight; c != nil {
		r.mu.Unlock()
		select {
		case <-ctx.Done():
			return Fix{}, ctx.Err()
		case <-c.done:
			return c.fix, c.err
		}
	}

	c := &resolveCall{done: make(chan struct{})}
	r.inflight = c
	provider := r.provider
	r.mu.Unlock()

	fix, err := provider.Resolve(ctx)

	r.mu.Lock()
	r.fetchedAt = r.now()
	r.inflight = nil
	if err != nil {
		r.logger.Error("location resolution failed",
			zap.String("provider", provider.Name()),
			zap.Error(err))
		if r.cached != nil {
			// A stale fix beats no fix.
			c.fix = *r.cached
		} else {
			c.err = fmt.Errorf("%w: %w", ErrResolveFailed, err)
		}
	} else {
		r.cached = &fix
		c.fix = fix
	}
	close(c.done)
	out, outErr := c.fix, c.err
	r.mu.Unlock()

	return out, outErr
}
