package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"bookingwatch/internal/observability"
)

// ErrAlreadyRunning is returned when Start is called on a running poller.
var ErrAlreadyRunning = errors.New("poller already running")

// FetchFunc fetches one observation of remote state.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Poller repeatedly invokes a fetch function on a fixed cadence and hands
// every outcome to the supplied callbacks. It owns nothing but its timer:
// navigation, toasts and state live with the caller.
//
// Guarantees:
//   - the first fetch fires immediately on Start, then every interval;
//   - a fetch error never stops the cycle;
//   - Stop is idempotent and, once it returns, no callback fires again,
//     even if a fetch was in flight at stop time (its result is discarded);
//   - a stopped poller can be started again and resumes normal cadence;
//   - a tick that arrives while the previous fetch is still in flight is
//     skipped rather than stacking concurrent fetches;
//   - a response that lost the race against a newer one is discarded.
type Poller[T any] struct {
	interval   time.Duration
	maxBackoff time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a poller with the given cadence. maxBackoff bounds the
// failure backoff; zero disables backoff so every cycle keeps the base
// cadence regardless of errors.
func New[T any](interval, maxBackoff time.Duration) *Poller[T] {
	return &Poller[T]{interval: interval, maxBackoff: maxBackoff}
}

// Interval returns the base cadence.
func (p *Poller[T]) Interval() time.Duration {
	return p.interval
}

// Start begins polling. onResult receives every successful fetch, onError
// every failure; both are invoked from the poller's own goroutine, never
// concurrently with each other.
func (p *Poller[T]) Start(fetch FetchFunc[T], onResult func(T), onError func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.running = true

	go p.run(ctx, done, fetch, onResult, onError)
	return nil
}

// Stop cancels polling and waits until the poll goroutine has exited, so
// callers observe no callback after Stop returns. Safe to call on an
// already-stopped poller.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.running = false
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	cancel()
	<-done
}

type fetchResult[T any] struct {
	seq int64
	val T
	err error
}

func (p *Poller[T]) run(ctx context.Context, done chan struct{}, fetch FetchFunc[T], onResult func(T), onError func(error)) {
	defer close(done)

	results := make(chan fetchResult[T], 1)
	var seq, applied int64
	inFlight := false

	launch := func() {
		seq++
		s := seq
		inFlight = true
		go func() {
			start := time.Now()
			val, err := fetch(ctx)
			observability.PollLatency.Observe(time.Since(start).Seconds())
			select {
			case results <- fetchResult[T]{seq: s, val: val, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	// Immediate first fetch, then cadence.
	launch()

	delay := p.interval
	failures := 0
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case r := <-results:
			inFlight = false
			if r.seq <= applied {
				observability.PollStaleDiscarded.Inc()
				continue
			}
			applied = r.seq

			if r.err != nil {
				failures++
				delay = p.backoffDelay(failures)
				observability.PollCycles.WithLabelValues("error").Inc()
				if ctx.Err() == nil {
					onError(r.err)
				}
				continue
			}

			failures = 0
			delay = p.interval
			observability.PollCycles.WithLabelValues("success").Inc()
			if ctx.Err() == nil {
				onResult(r.val)
			}

		case <-timer.C:
			if inFlight {
				// Previous round trip outlived the interval; skip this
				// cycle instead of stacking fetches.
				observability.PollCyclesSkipped.Inc()
				timer.Reset(p.interval)
				continue
			}
			launch()
			timer.Reset(delay)
		}
	}
}

// backoffDelay doubles the base interval per consecutive failure, bounded
// by maxBackoff. With backoff disabled the cadence never changes.
func (p *Poller[T]) backoffDelay(failures int) time.Duration {
	if p.maxBackoff <= 0 {
		return p.interval
	}
	d := p.interval
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= p.maxBackoff {
			return p.maxBackoff
		}
	}
	if d > p.maxBackoff {
		return p.maxBackoff
	}
	return d
}
