package service

import (
	"context"
	"log"
	"sync"
	"time"

	"bookingwatch/internal/domain"
	"bookingwatch/internal/poll"
)

// LiveObservation is one poll of the driver's live view: the bookings
// open for acceptance plus the driver's own active booking, if any.
type LiveObservation struct {
	Available []*domain.Booking
	Active    *domain.Booking
}

// LiveDeps bundles what a live session needs.
type LiveDeps struct {
	API    BookingAPI
	Poller *poll.Poller[*LiveObservation]
	Sink   Sink
}

// LiveSession drives the driver's live-bookings view: available bookings
// are re-rendered every cycle, and the moment the driver's own booking
// turns active the frontend is redirected into tracking. The active
// lookup treats 404 as "no active booking", not an error.
type LiveSession struct {
	id   string
	deps LiveDeps

	mu           sync.Mutex
	available    []*domain.Booking
	initialDone  bool
	redirectedTo string
	stopped      bool
}

// NewLiveSession creates a live session for a driver.
func NewLiveSession(id string, deps LiveDeps) *LiveSession {
	return &LiveSession{id: id, deps: deps}
}

func (s *LiveSession) ID() string   { return s.id }
func (s *LiveSession) Kind() string { return KindLive }

// Start begins polling the available-bookings and active-booking endpoints.
func (s *LiveSession) Start() error {
	return s.deps.Poller.Start(s.fetch, s.onObservation, s.onError)
}

// Stop unmounts the live view.
func (s *LiveSession) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.deps.Poller.Stop()
}

func (s *LiveSession) fetch(ctx context.Context) (*LiveObservation, error) {
	available, err := s.deps.API.Available(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.deps.API.DriverActive(ctx)
	if err != nil {
		return nil, err
	}
	return &LiveObservation{Available: available, Active: active}, nil
}

func (s *LiveSession) onObservation(obs *LiveObservation) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	s.available = obs.Available
	s.initialDone = true
	s.publish(ctx, Event{Type: EventState, Available: obs.Available})

	if obs.Active == nil || s.redirectedTo != "" {
		return
	}
	s.redirectedTo = obs.Active.ID
	s.publish(ctx, Event{
		Type:      EventNavigate,
		Path:      PathDriverTracking,
		BookingID: obs.Active.ID,
	})
}

func (s *LiveSession) onError(err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if !s.initialDone {
		s.initialDone = true
		s.publish(ctx, Event{Type: EventToast, Level: ToastError, Message: "Failed to load live bookings: " + err.Error()})
		return
	}

	log.Printf("live %s: poll failed: %v", s.id, err)
}

func (s *LiveSession) publish(ctx context.Context, event Event) {
	event.SessionID = s.id
	event.CreatedAt = time.Now()
	s.deps.Sink.Publish(ctx, event)
}

// LiveState is a synchronous snapshot of the session for the state endpoint.
type LiveState struct {
	SessionID    string            `json:"session_id"`
	Available    []*domain.Booking `json:"available,omitempty"`
	RedirectedTo string            `json:"redirected_to,omitempty"`
}

// State returns the current live-view state.
func (s *LiveSession) State() LiveState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return LiveState{
		SessionID:    s.id,
		Available:    s.available,
		RedirectedTo: s.redirectedTo,
	}
}
