package service

import (
	"context"
	"log"
	"sync"
	"time"

	"bookingwatch/internal/domain"
	"bookingwatch/internal/poll"
)

// ListDeps bundles what a list session needs.
type ListDeps struct {
	API    BookingAPI
	Poller *poll.Poller[*domain.BookingPage]
	Sink   Sink
}

// ListSession drives the booking list view: it polls one filtered page of
// the caller's bookings and, when an active booking shows up, hands the
// frontend off to the tracking view. A failed initial load is surfaced to
// the user; failed background polls are only logged so transient network
// noise never interrupts the list.
type ListSession struct {
	id     string
	role   domain.Role
	filter domain.ListFilter
	deps   ListDeps

	mu           sync.Mutex
	page         *domain.BookingPage
	initialDone  bool
	redirectedTo string
	stopped      bool
}

// NewListSession creates a list session for one filter/page combination.
func NewListSession(id string, role domain.Role, filter domain.ListFilter, deps ListDeps) *ListSession {
	if filter.Size <= 0 {
		filter.Size = domain.DefaultPageSize
	}
	return &ListSession{id: id, role: role, filter: filter, deps: deps}
}

func (s *ListSession) ID() string   { return s.id }
func (s *ListSession) Kind() string { return KindList }

// Start begins polling the collection endpoint.
func (s *ListSession) Start() error {
	return s.deps.Poller.Start(s.fetch, s.onPage, s.onError)
}

// Stop unmounts the list view.
func (s *ListSession) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.deps.Poller.Stop()
}

func (s *ListSession) fetch(ctx context.Context) (*domain.BookingPage, error) {
	return s.deps.API.ListMine(ctx, s.filter)
}

func (s *ListSession) onPage(page *domain.BookingPage) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	s.page = page
	s.initialDone = true
	s.publish(ctx, Event{Type: EventState, Page: page})

	active := FindActive(page.Content)
	if active == nil {
		return
	}

	// First match in server order wins. Repeated detection of the same
	// booking must not navigate twice; once a redirect has fired the
	// frontend is already on (or heading to) the tracking view.
	if s.redirectedTo != "" {
		return
	}
	s.redirectedTo = active.ID
	s.publish(ctx, Event{
		Type:      EventNavigate,
		Path:      TrackingPath(s.role),
		BookingID: active.ID,
	})
}

func (s *ListSession) onError(err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if !s.initialDone {
		s.initialDone = true
		s.publish(ctx, Event{Type: EventToast, Level: ToastError, Message: "Failed to load bookings: " + err.Error()})
		return
	}

	log.Printf("list %s: poll failed: %v", s.id, err)
}

func (s *ListSession) publish(ctx context.Context, event Event) {
	event.SessionID = s.id
	event.CreatedAt = time.Now()
	s.deps.Sink.Publish(ctx, event)
}

// ListState is a synchronous snapshot of the session for the state endpoint.
type ListState struct {
	SessionID    string              `json:"session_id"`
	Role         domain.Role         `json:"role"`
	Filter       domain.ListFilter   `json:"filter"`
	Page         *domain.BookingPage `json:"page,omitempty"`
	RedirectedTo string              `json:"redirected_to,omitempty"`
}

// State returns the current list state.
func (s *ListSession) State() ListState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ListState{
		SessionID:    s.id,
		Role:         s.role,
		Filter:       s.filter,
		Page:         s.page,
		RedirectedTo: s.redirectedTo,
	}
}
