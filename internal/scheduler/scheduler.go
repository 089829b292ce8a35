// Package scheduler drives periodic weather fetches and the DNS-failure retry
// policy around them.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/nkoval/weatherbar/internal/store"
	"github.com/nkoval/weatherbar/internal/transport"
	"github.com/nkoval/weatherbar/internal/weather"
)

// Config tunes the fetch cadence and retry policy.
type Config struct {
	Interval     time.Duration // periodic fetch interval
	RetryDelay   time.Duration // delay before a DNS-failure retry
	MaxRetries   int           // retry cap between successes
	FetchTimeout time.Duration // per-attempt deadline
}

// Scheduler runs the fetch loop: a periodic tick plus out-of-band refreshes
// from settings changes. At most one fetch is in flight; a refresh requested
// during a fetch is dropped and the in-flight result becomes current. Only
// DNS failures are retried, with a fixed delay up to a cap; the counter
// resets on every successful fetch.
type Scheduler struct {
	cfg    Config
	store  *store.SnapshotStore
	logger *zap.Logger
	cron   *gocron.Scheduler

	mu          sync.Mutex
	provider    weather.Provider
	fetching    bool
	failCount   int
	subscribers []func(*weather.Snapshot)
}

func New(provider weather.Provider, snapStore *store.SnapshotStore, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 7500 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &Scheduler{
		cfg:      cfg,
		store:    snapStore,
		logger:   logger,
		provider: provider,
	}
}

// Start begins the periodic fetch loop with an immediate first fetch.
func (s *Scheduler) Start() error {
	s.cron = gocron.NewScheduler(time.UTC)
	if _, err := s.cron.Every(s.cfg.Interval).Do(s.Refresh); err != nil {
		return err
	}
	s.cron.StartAsync()
	s.Refresh()
	return nil
}

// Stop halts the periodic loop. An in-flight fetch finishes on its own.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// OnUpdate registers fn to run after every successful fetch.
func (s *Scheduler) OnUpdate(fn func(*weather.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// SetProvider swaps the upstream weather provider for subsequent fetches.
func (s *Scheduler) SetProvider(p weather.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = p
}

// Refresh requests a fetch. If one is already in flight the request is
// absorbed; the in-flight result becomes current.
func (s *Scheduler) Refresh() {
	s.mu.Lock()
	if s.fetching {
		s.mu.Unlock()
		return
	}
	s.fetching = true
	provider := s.provider
	s.mu.Unlock()

	go s.fetch(provider)
}

func (s *Scheduler) fetch(provider weather.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout)
	defer cancel()

	snap, err := provider.FetchWeather(ctx)

	s.mu.Lock()
	s.fetching = false
	if err != nil {
		retry := s.handleFailureLocked(provider, err)
		s.mu.Unlock()
		if retry {
			time.AfterFunc(s.cfg.RetryDelay, s.Refresh)
		}
		return
	}
	s.failCount = 0
	subs := append([]func(*weather.Snapshot){}, s.subscribers...)
	s.mu.Unlock()

	s.store.Set(snap)
	s.logger.Info("weather updated",
		zap.String("provider", provider.Name()),
		zap.String("condition", string(snap.Condition)))
	for _, fn := range subs {
		fn(snap)
	}
}

// handleFailureLocked decides whether to schedule a retry. Only DNS failures
// qualify; anything else waits for the next periodic tick.
func (s *Scheduler) handleFailureLocked(provider weather.Provider, err error) bool {
	var terr *transport.Error
	if !errors.As(err, &terr) || terr.Kind != transport.KindDNS {
		s.logger.Error("weather fetch failed",
			zap.String("provider", provider.Name()),
			zap.Error(err))
		return false
	}

	s.failCount++
	if s.failCount > s.cfg.MaxRetries {
		s.logger.Error("name resolution keeps failing; waiting for next tick",
			zap.String("provider", provider.Name()),
			zap.Int("failures", s.failCount),
			zap.Error(err))
		return false
	}
	s.logger.Warn("name resolution failed; will retry",
		zap.String("provider", provider.Name()),
		zap.Int("attempt", s.failCount),
		zap.Duration("delay", s.cfg.RetryDelay),
		zap.Error(err))
	return true
}
