package tests

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"bookingwatch/internal/poll"
)

// ──────────────────────────────────────────────
// POLLER LIFECYCLE
// ──────────────────────────────────────────────

func TestPollerFirstFetchIsImmediate(t *testing.T) {
	var fetches, results int32

	p := poll.New[int](time.Hour, 0)
	err := p.Start(
		func(ctx context.Context) (int, error) {
			atomic.AddInt32(&fetches, 1)
			return 42, nil
		},
		func(v int) {
			if v != 42 {
				t.Errorf("expected 42, got %d", v)
			}
			atomic.AddInt32(&results, 1)
		},
		func(err error) { t.Errorf("unexpected error: %v", err) },
	)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop()

	// The interval is an hour; the only way a result lands is the
	// immediate first fetch.
	waitUntil(t, time.Second, func() bool {
		return atomic.LoadInt32(&results) == 1
	}, "first fetch did not fire immediately")
}

func TestPollerRepeatsOnCadence(t *testing.T) {
	var results int32

	p := poll.New[int](15*time.Millisecond, 0)
	if err := p.Start(
		func(ctx context.Context) (int, error) { return 0, nil },
		func(int) { atomic.AddInt32(&results, 1) },
		func(err error) { t.Errorf("unexpected error: %v", err) },
	); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop()

	waitUntil(t, time.Second, func() bool {
		return atomic.LoadInt32(&results) >= 3
	}, "poller did not repeat on cadence")
}

func TestPollerStartWhileRunning(t *testing.T) {
	p := poll.New[int](time.Hour, 0)
	noop := func(ctx context.Context) (int, error) { return 0, nil }
	if err := p.Start(noop, func(int) {}, func(error) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop()

	if err := p.Start(noop, func(int) {}, func(error) {}); !errors.Is(err, poll.ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestPollerErrorsDoNotStopTheCycle(t *testing.T) {
	var fetches, failures, successes int32
	boom := errors.New("backend down")

	p := poll.New[int](10*time.Millisecond, 0)
	if err := p.Start(
		func(ctx context.Context) (int, error) {
			n := atomic.AddInt32(&fetches, 1)
			if n <= 2 {
				return 0, boom
			}
			return int(n), nil
		},
		func(int) { atomic.AddInt32(&successes, 1) },
		func(err error) {
			if !errors.Is(err, boom) {
				t.Errorf("unexpected error: %v", err)
			}
			atomic.AddInt32(&failures, 1)
		},
	); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop()

	waitUntil(t, time.Second, func() bool {
		return atomic.LoadInt32(&successes) >= 1
	}, "poller never recovered from fetch errors")

	if got := atomic.LoadInt32(&failures); got != 2 {
		t.Errorf("expected 2 error callbacks, got %d", got)
	}
}

func TestPollerStopIsIdempotentAndSilencesCallbacks(t *testing.T) {
	var results int32

	p := poll.New[int](10*time.Millisecond, 0)
	if err := p.Start(
		func(ctx context.Context) (int, error) { return 0, nil },
		func(int) { atomic.AddInt32(&results, 1) },
		func(error) {},
	); err != nil {
		t.Fatalf("start: %v", err)
	}

	waitUntil(t, time.Second, func() bool {
		return atomic.LoadInt32(&results) >= 1
	}, "no result before stop")

	p.Stop()
	p.Stop() // second stop must be a no-op

	after := atomic.LoadInt32(&results)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&results); got != after {
		t.Errorf("callback fired after Stop returned: %d -> %d", after, got)
	}
}

func TestPollerInFlightResultDiscardedOnStop(t *testing.T) {
	var results int32

	p := poll.New[int](time.Hour, 0)
	if err := p.Start(
		func(ctx context.Context) (int, error) {
			// Outlive the Stop call below.
			time.Sleep(60 * time.Millisecond)
			return 1, nil
		},
		func(int) { atomic.AddInt32(&results, 1) },
		func(error) {},
	); err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	p.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&results); got != 0 {
		t.Errorf("in-flight result was delivered after Stop, results=%d", got)
	}
}

func TestPollerRestartsAfterStop(t *testing.T) {
	var results int32
	fetch := func(ctx context.Context) (int, error) { return 0, nil }
	onResult := func(int) { atomic.AddInt32(&results, 1) }
	onError := func(error) {}

	p := poll.New[int](10*time.Millisecond, 0)
	if err := p.Start(fetch, onResult, onError); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitUntil(t, time.Second, func() bool {
		return atomic.LoadInt32(&results) >= 1
	}, "no result on first run")
	p.Stop()

	before := atomic.LoadInt32(&results)
	if err := p.Start(fetch, onResult, onError); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer p.Stop()

	waitUntil(t, time.Second, func() bool {
		return atomic.LoadInt32(&results) > before
	}, "poller did not resume after restart")
}

func TestPollerSkipsTicksWhileFetchInFlight(t *testing.T) {
	var fetches int32

	p := poll.New[int](10*time.Millisecond, 0)
	if err := p.Start(
		func(ctx context.Context) (int, error) {
			atomic.AddInt32(&fetches, 1)
			time.Sleep(45 * time.Millisecond)
			return 0, nil
		},
		func(int) {},
		func(error) {},
	); err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	p.Stop()

	// With a 10ms cadence and 45ms round trips, stacking fetches would
	// yield ~15 calls; skipping keeps it near one per round trip.
	if got := atomic.LoadInt32(&fetches); got > 6 {
		t.Errorf("expected overlapping ticks to be skipped, got %d fetches", got)
	}
}

func TestPollerBacksOffOnFailuresAndRecovers(t *testing.T) {
	var fetches, successes int32
	var failing int32 = 1
	boom := errors.New("backend down")

	p := poll.New[int](10*time.Millisecond, 100*time.Millisecond)
	if err := p.Start(
		func(ctx context.Context) (int, error) {
			atomic.AddInt32(&fetches, 1)
			if atomic.LoadInt32(&failing) == 1 {
				return 0, boom
			}
			return 0, nil
		},
		func(int) { atomic.AddInt32(&successes, 1) },
		func(error) {},
	); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop()

	// Under constant failure the delay doubles (10, 20, 40, 80, 100ms);
	// the plain cadence would land ~15 fetches in this window.
	time.Sleep(150 * time.Millisecond)
	if got := atomic.LoadInt32(&fetches); got > 8 {
		t.Errorf("expected backoff to slow the cadence, got %d fetches", got)
	}

	// Once the backend recovers, results flow again and the base cadence
	// is restored.
	atomic.StoreInt32(&failing, 0)
	waitUntil(t, time.Second, func() bool {
		return atomic.LoadInt32(&successes) >= 3
	}, "poller did not recover from backoff")
}
