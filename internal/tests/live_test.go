package tests

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"bookingwatch/internal/domain"
	"bookingwatch/internal/poll"
	"bookingwatch/internal/service"
)

func newLiveFixture(interval time.Duration) (*service.LiveSession, *MockBookingAPI, *MockSink) {
	api := NewMockBookingAPI()
	sink := NewMockSink()
	sess := service.NewLiveSession("live-1", service.LiveDeps{
		API:    api,
		Poller: poll.New[*service.LiveObservation](interval, 0),
		Sink:   sink,
	})
	return sess, api, sink
}

// ──────────────────────────────────────────────
// LIVE BOOKINGS VIEW
// ──────────────────────────────────────────────

func TestLivePublishesAvailableBookings(t *testing.T) {
	sess, api, sink := newLiveFixture(10 * time.Millisecond)
	api.SetPage(&domain.BookingPage{
		Content: []*domain.Booking{
			{ID: "b1", BookingStatus: domain.BookingStatusPending},
			{ID: "b2", BookingStatus: domain.BookingStatusPending},
		},
	})
	if err := sess.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer sess.Stop()

	waitUntil(t, time.Second, func() bool {
		return sink.CountByType(service.EventState) >= 2
	}, "expected repeated live states")

	ev, _ := sink.FirstByType(service.EventState)
	if len(ev.Available) != 2 {
		t.Errorf("expected 2 available bookings, got %d", len(ev.Available))
	}
	if got := sink.CountByType(service.EventNavigate); got != 0 {
		t.Errorf("no active booking exists, got %d navigate events", got)
	}
}

func TestLiveRedirectsOnceWhenDriverGetsActiveBooking(t *testing.T) {
	sess, api, sink := newLiveFixture(10 * time.Millisecond)
	if err := sess.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer sess.Stop()

	waitUntil(t, time.Second, func() bool {
		return sink.CountByType(service.EventState) >= 1
	}, "initial observation never landed")

	// The driver accepted a booking through another device; the active
	// lookup starts returning it.
	api.SetActive(&domain.Booking{ID: "b9", BookingStatus: domain.BookingStatusAccepted})

	waitUntil(t, time.Second, func() bool {
		return sink.CountByType(service.EventNavigate) == 1
	}, "redirect never fired")

	nav, _ := sink.FirstByType(service.EventNavigate)
	if nav.Path != service.PathDriverTracking || nav.BookingID != "b9" {
		t.Errorf("unexpected redirect: %+v", nav)
	}

	states := sink.CountByType(service.EventState)
	waitUntil(t, time.Second, func() bool {
		return sink.CountByType(service.EventState) >= states+3
	}, "poller stalled")

	if got := sink.CountByType(service.EventNavigate); got != 1 {
		t.Errorf("expected exactly one redirect, got %d", got)
	}
}

func TestLiveInitialFailureToastsThenGoesSilent(t *testing.T) {
	sess, api, sink := newLiveFixture(10 * time.Millisecond)
	api.SetListError(errors.New("connection refused"))
	if err := sess.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer sess.Stop()

	waitUntil(t, time.Second, func() bool {
		return atomic.LoadInt32(&api.ListCallCount) >= 3
	}, "poller stalled on errors")

	if got := sink.CountByType(service.EventToast); got != 1 {
		t.Errorf("expected a single failure toast, got %d", got)
	}

	api.SetListError(nil)
	waitUntil(t, time.Second, func() bool {
		return sink.CountByType(service.EventState) >= 1
	}, "live view never recovered")
}
