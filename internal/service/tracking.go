package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"bookingwatch/internal/backend"
	"bookingwatch/internal/domain"
	"bookingwatch/internal/observability"
	"bookingwatch/internal/poll"
)

// Session kinds.
const (
	KindTracking = "tracking"
	KindList     = "list"
	KindLive     = "live"
)

// Session is one mounted view being driven by a poller.
type Session interface {
	ID() string
	Kind() string
	Stop()
}

// TrackingDeps bundles what a tracking session needs.
type TrackingDeps struct {
	API           BookingAPI
	Poller        *poll.Poller[*domain.Booking]
	Sink          Sink
	Observers     []TransitionObserver
	Snapshots     SnapshotStore
	NavigateDelay time.Duration
	OnEnd         func(sessionID string)
}

// TrackingSession drives the single-booking tracking view. The displayed
// state changes only when a poll observes the server's record; user
// actions are proxied to the Booking Store and the session waits for the
// next poll to reflect them, guarding the controls in between.
type TrackingSession struct {
	id        string
	role      domain.Role
	bookingID string
	deps      TrackingDeps

	mu              sync.Mutex
	last            *domain.Booking
	initialObserved bool
	initialNotified bool
	promptedPayment bool
	terminal        bool
	actionInFlight  bool
	stopped         bool
	navTimer        *time.Timer
}

// NewTrackingSession creates a tracking session for one booking.
func NewTrackingSession(id string, role domain.Role, bookingID string, deps TrackingDeps) *TrackingSession {
	return &TrackingSession{id: id, role: role, bookingID: bookingID, deps: deps}
}

func (s *TrackingSession) ID() string   { return s.id }
func (s *TrackingSession) Kind() string { return KindTracking }

// Role returns the perspective the session observes the booking from.
func (s *TrackingSession) Role() domain.Role { return s.role }

// BookingID returns the tracked booking's identifier.
func (s *TrackingSession) BookingID() string { return s.bookingID }

// Start begins polling the booking record.
func (s *TrackingSession) Start() error {
	return s.deps.Poller.Start(s.fetch, s.onBooking, s.onError)
}

// Stop unmounts the view: the poller is cancelled deterministically so no
// further state lands after Stop returns, and any pending navigate timer
// is dropped. Idempotent.
func (s *TrackingSession) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.navTimer != nil {
		s.navTimer.Stop()
	}
	s.mu.Unlock()

	s.deps.Poller.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.deps.Snapshots.DeleteSnapshot(ctx, s.id); err != nil {
		log.Printf("tracking %s: delete snapshot: %v", s.id, err)
	}
}

func (s *TrackingSession) fetch(ctx context.Context) (*domain.Booking, error) {
	if s.role == domain.RoleDriver {
		return s.deps.API.DriverGet(ctx, s.bookingID)
	}
	return s.deps.API.Get(ctx, s.bookingID)
}

// onBooking applies one successful poll. The fetched record fully
// replaces the previous observation.
func (s *TrackingSession) onBooking(booking *domain.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.terminal {
		return
	}

	prev := s.last
	s.last = booking
	s.initialObserved = true
	s.actionInFlight = false

	if err := s.deps.Snapshots.SetSnapshot(ctx, s.id, booking); err != nil {
		log.Printf("tracking %s: cache snapshot: %v", s.id, err)
	}

	changed := prev == nil ||
		prev.BookingStatus != booking.BookingStatus ||
		prev.PaymentStatus != booking.PaymentStatus
	if changed {
		s.recordTransition(ctx, prev, booking)
	}

	s.publish(ctx, Event{Type: EventState, Booking: booking})

	action := Interpret(booking, s.role)
	switch action.Kind {
	case ActionPromptPayment:
		// The modal opens exactly once; re-polling the same state must
		// not reopen it.
		if !s.promptedPayment {
			s.promptedPayment = true
			s.publish(ctx, Event{Type: EventPaymentPrompt, BookingID: booking.ID})
		}

	case ActionTerminate:
		s.enterTerminal(ctx, action.Reason)
	}
}

// onError handles a failed poll. A failure before the first observation is
// user-visible; a miss on the booking itself is fatal for the view; any
// later failure is transient noise and only logged.
func (s *TrackingSession) onError(err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.terminal {
		return
	}

	if !s.initialObserved && errors.Is(err, backend.ErrNotFound) {
		s.publish(ctx, Event{Type: EventToast, Level: ToastError, Message: "Booking not found"})
		s.enterTerminal(ctx, "not_found")
		return
	}

	if !s.initialObserved && !s.initialNotified {
		s.initialNotified = true
		s.publish(ctx, Event{Type: EventToast, Level: ToastError, Message: "Failed to load booking: " + err.Error()})
		return
	}

	log.Printf("tracking %s: poll failed: %v", s.id, err)
}

// enterTerminal fires the single outcome toast, stops polling and
// schedules the navigate-away after the fixed delay so the user can read
// the message. Caller holds the mutex.
func (s *TrackingSession) enterTerminal(ctx context.Context, reason string) {
	s.terminal = true

	switch reason {
	case ReasonDone:
		s.publish(ctx, Event{Type: EventToast, Level: ToastSuccess, Message: "Ride completed. Thanks for riding!"})
	case ReasonCancelled:
		s.publish(ctx, Event{Type: EventToast, Level: ToastInfo, Message: "Booking was cancelled"})
	}

	// Stop must not run on the poll goroutine that is delivering this
	// callback; it would wait on itself.
	go s.deps.Poller.Stop()

	s.navTimer = time.AfterFunc(s.deps.NavigateDelay, func() {
		s.finish(reason)
	})
}

// finish emits the final navigation and tears the session down.
func (s *TrackingSession) finish(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.publish(ctx, Event{Type: EventNavigate, Path: DashboardPath(s.role)})
	s.publish(ctx, Event{Type: EventSessionEnded, Reason: reason})

	if s.deps.OnEnd != nil {
		s.deps.OnEnd(s.id)
	}
}

func (s *TrackingSession) recordTransition(ctx context.Context, prev, curr *domain.Booking) {
	t := &domain.Transition{
		SessionID:     s.id,
		BookingID:     curr.ID,
		To:            curr.BookingStatus,
		PaymentStatus: curr.PaymentStatus,
		ObservedAt:    time.Now(),
	}
	if prev != nil {
		t.From = prev.BookingStatus
	}

	observability.TransitionsObserved.WithLabelValues(string(t.To)).Inc()
	for _, o := range s.deps.Observers {
		o.ObserveTransition(ctx, t)
	}
}

func (s *TrackingSession) publish(ctx context.Context, event Event) {
	event.SessionID = s.id
	event.CreatedAt = time.Now()
	s.deps.Sink.Publish(ctx, event)
}

// ──────────────────────────────────────────────
// USER ACTIONS
// ──────────────────────────────────────────────

// Cancel proxies a rider cancellation. Allowed while the booking is still
// pending or accepted; the UI reflects it only once the next poll does.
func (s *TrackingSession) Cancel(ctx context.Context) error {
	if err := s.guardAction(domain.RoleRider, domain.BookingStatusPending, domain.BookingStatusAccepted); err != nil {
		return err
	}
	return s.proxy(ctx, s.deps.API.Cancel)
}

// StartRide proxies the driver's "start ride" action on an accepted booking.
func (s *TrackingSession) StartRide(ctx context.Context) error {
	if err := s.guardAction(domain.RoleDriver, domain.BookingStatusAccepted); err != nil {
		return err
	}
	return s.proxy(ctx, s.deps.API.Start)
}

// CompleteRide proxies the driver's "complete ride" action on a started booking.
func (s *TrackingSession) CompleteRide(ctx context.Context) error {
	if err := s.guardAction(domain.RoleDriver, domain.BookingStatusStarted); err != nil {
		return err
	}
	return s.proxy(ctx, s.deps.API.Complete)
}

// CompletePayment reports the payment as settled. For a rider this is the
// payment flow succeeding; for a driver it is the explicit "mark payment
// received" affordance.
func (s *TrackingSession) CompletePayment(ctx context.Context) error {
	if err := s.guardPayment(); err != nil {
		return err
	}
	return s.proxy(ctx, s.deps.API.CompletePayment)
}

// FailPayment reports a failed rider payment attempt.
func (s *TrackingSession) FailPayment(ctx context.Context) error {
	if s.role != domain.RoleRider {
		return ErrActionNotAllowed
	}
	if err := s.guardPayment(); err != nil {
		return err
	}
	return s.proxy(ctx, s.deps.API.FailPayment)
}

// guardAction validates role and last observed status, and rejects a
// second action while one is still waiting for the next poll.
func (s *TrackingSession) guardAction(role domain.Role, allowed ...domain.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.role != role {
		return ErrActionNotAllowed
	}
	if err := s.guardCommonLocked(); err != nil {
		return err
	}
	for _, st := range allowed {
		if s.last.BookingStatus == st {
			return nil
		}
	}
	return ErrActionNotAllowed
}

func (s *TrackingSession) guardPayment() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardCommonLocked(); err != nil {
		return err
	}
	if s.last.BookingStatus != domain.BookingStatusCompleted {
		return ErrActionNotAllowed
	}
	if s.last.PaymentStatus == domain.PaymentStatusCompleted {
		return ErrActionNotAllowed
	}
	return nil
}

func (s *TrackingSession) guardCommonLocked() error {
	if s.stopped || s.terminal {
		return ErrSessionEnded
	}
	if s.last == nil {
		return ErrNoObservation
	}
	if s.actionInFlight {
		return ErrActionPending
	}
	return nil
}

// proxy issues the mutation and arms the in-flight guard. The mutation
// response is never applied to local state; the next poll is
// authoritative. Failures surface as a toast with the server's message
// and leave the view in its pre-action state.
func (s *TrackingSession) proxy(ctx context.Context, call func(context.Context, string) error) error {
	if err := call(ctx, s.bookingID); err != nil {
		s.publish(ctx, Event{Type: EventToast, Level: ToastError, Message: err.Error()})
		return err
	}

	s.mu.Lock()
	s.actionInFlight = true
	s.mu.Unlock()
	return nil
}

// TrackingState is a synchronous snapshot of the session for the state
// endpoint.
type TrackingState struct {
	SessionID       string          `json:"session_id"`
	Role            domain.Role     `json:"role"`
	BookingID       string          `json:"booking_id"`
	Booking         *domain.Booking `json:"booking,omitempty"`
	PaymentPrompted bool            `json:"payment_prompted"`
	Terminal        bool            `json:"terminal"`
	ActionInFlight  bool            `json:"action_in_flight"`
}

// State returns the current interpreted state.
func (s *TrackingSession) State() TrackingState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return TrackingState{
		SessionID:       s.id,
		Role:            s.role,
		BookingID:       s.bookingID,
		Booking:         s.last,
		PaymentPrompted: s.promptedPayment,
		Terminal:        s.terminal,
		ActionInFlight:  s.actionInFlight,
	}
}
