package scheduler

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nkoval/weatherbar/internal/store"
	"github.com/nkoval/weatherbar/internal/transport"
	"github.com/nkoval/weatherbar/internal/units"
	"github.com/nkoval/weatherbar/internal/weather"
)

// scriptedProvider returns canned results in sequence, then repeats the last.
type scriptedProvider struct {
	calls   atomic.Int32
	results []fetchResult
}

type fetchResult struct {
	snap *weather.Snapshot
	err  error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) FetchWeather(_ context.Context) (*weather.Snapshot, error) {
	n := int(p.calls.Add(1)) - 1
	if n >= len(p.results) {
		n = len(p.results) - 1
	}
	r := p.results[n]
	return r.snap, r.err
}

func dnsFailure() error {
	return &transport.Error{
		Kind: transport.KindDNS,
		URL:  "https://api.open-meteo.com/v1/forecast",
		Err:  &net.DNSError{Err: "no such host", Name: "api.open-meteo.com"},
	}
}

func goodSnapshot() *weather.Snapshot {
	return &weather.Snapshot{Temp: units.NewTemp(71), Condition: weather.ConditionClear}
}

func testConfig() Config {
	return Config{
		Interval:     time.Hour, // keep the periodic tick out of the way
		RetryDelay:   5 * time.Millisecond,
		MaxRetries:   3,
		FetchTimeout: time.Second,
	}
}

func waitForCalls(t *testing.T, p *scriptedProvider, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d calls, have %d", want, p.calls.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRefreshStoresSnapshotAndNotifies(t *testing.T) {
	p := &scriptedProvider{results: []fetchResult{{snap: goodSnapshot()}}}
	st := store.NewSnapshotStore()
	s := New(p, st, testConfig(), zap.NewNop())

	notified := make(chan *weather.Snapshot, 1)
	s.OnUpdate(func(snap *weather.Snapshot) { notified <- snap })

	s.Refresh()

	select {
	case snap := <-notified:
		if snap.Condition != weather.ConditionClear {
			t.Fatalf("unexpected snapshot %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update notification")
	}

	if _, err := st.Latest(); err != nil {
		t.Fatalf("expected stored snapshot, got %v", err)
	}
}

func TestDNSFailureRetriesUpToCap(t *testing.T) {
	p := &scriptedProvider{results: []fetchResult{{err: dnsFailure()}}}
	s := New(p, store.NewSnapshotStore(), testConfig(), zap.NewNop())

	s.Refresh()

	// Initial attempt plus MaxRetries retries, then nothing more.
	waitForCalls(t, p, 4)
	time.Sleep(50 * time.Millisecond)
	if n := p.calls.Load(); n != 4 {
		t.Fatalf("expected retries to stop at the cap, got %d calls", n)
	}
}

func TestOtherFailureDoesNotRetry(t *testing.T) {
	p := &scriptedProvider{results: []fetchResult{{err: errors.New("boom")}}}
	s := New(p, store.NewSnapshotStore(), testConfig(), zap.NewNop())

	s.Refresh()

	waitForCalls(t, p, 1)
	time.Sleep(50 * time.Millisecond)
	if n := p.calls.Load(); n != 1 {
		t.Fatalf("expected no retry for a non-DNS failure, got %d calls", n)
	}
}

func TestSuccessResetsFailureCounter(t *testing.T) {
	p := &scriptedProvider{results: []fetchResult{
		{err: dnsFailure()},
		{snap: goodSnapshot()},
	}}
	s := New(p, store.NewSnapshotStore(), testConfig(), zap.NewNop())

	s.Refresh()
	waitForCalls(t, p, 2)
	time.Sleep(50 * time.Millisecond)

	s.mu.Lock()
	failCount := s.failCount
	s.mu.Unlock()
	if failCount != 0 {
		t.Fatalf("expected counter reset after success, got %d", failCount)
	}
}

func TestRefreshCoalescesWhileFetching(t *testing.T) {
	release := make(chan struct{})
	p := &blockingSchedulerProvider{release: release}
	s := New(p, store.NewSnapshotStore(), testConfig(), zap.NewNop())

	s.Refresh()
	waitForBlockingCall(t, p)
	s.Refresh() // absorbed: a fetch is already in flight
	close(release)

	time.Sleep(50 * time.Millisecond)
	if n := p.calls.Load(); n != 1 {
		t.Fatalf("expected one fetch, got %d", n)
	}
}

type blockingSchedulerProvider struct {
	calls   atomic.Int32
	release chan struct{}
}

func (p *blockingSchedulerProvider) Name() string { return "blocking" }

func (p *blockingSchedulerProvider) FetchWeather(ctx context.Context) (*weather.Snapshot, error) {
	p.calls.Add(1)
	select {
	case <-p.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return goodSnapshot(), nil
}

func waitForBlockingCall(t *testing.T, p *blockingSchedulerProvider) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for fetch to start")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSetProviderTakesEffectOnNextFetch(t *testing.T) {
	first := &scriptedProvider{results: []fetchResult{{snap: goodSnapshot()}}}
	second := &scriptedProvider{results: []fetchResult{{snap: goodSnapshot()}}}
	s := New(first, store.NewSnapshotStore(), testConfig(), zap.NewNop())

	s.Refresh()
	waitForCalls(t, first, 1)
	time.Sleep(20 * time.Millisecond)

	s.SetProvider(second)
	s.Refresh()
	waitForCalls(t, second, 1)
}
