package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookingwatch/internal/auth"
	"bookingwatch/internal/domain"
	"bookingwatch/internal/observability"
	"bookingwatch/internal/poll"
)

// ManagerConfig carries the polling cadences and session tunables.
type ManagerConfig struct {
	ListInterval           time.Duration
	RiderTrackingInterval  time.Duration
	DriverTrackingInterval time.Duration
	LiveInterval           time.Duration
	MaxBackoff             time.Duration
	NavigateDelay          time.Duration
	TrackingLockTTL        time.Duration
}

// Manager owns the running view sessions: it creates them with the right
// cadence for their kind, enforces one tracking session per (user,
// booking), and tears them down on unmount or self-termination.
type Manager struct {
	api       BookingAPI
	sink      Sink
	observers []TransitionObserver
	snapshots SnapshotStore
	locks     TrackingLocker
	authStore *auth.Store
	cfg       ManagerConfig

	mu       sync.Mutex
	sessions map[string]Session
}

// NewManager creates a session manager.
func NewManager(
	api BookingAPI,
	sink Sink,
	observers []TransitionObserver,
	snapshots SnapshotStore,
	locks TrackingLocker,
	authStore *auth.Store,
	cfg ManagerConfig,
) *Manager {
	return &Manager{
		api:       api,
		sink:      sink,
		observers: observers,
		snapshots: snapshots,
		locks:     locks,
		authStore: authStore,
		cfg:       cfg,
		sessions:  make(map[string]Session),
	}
}

// CreateTracking mounts a tracking session for one booking.
func (m *Manager) CreateTracking(ctx context.Context, role domain.Role, bookingID string) (*TrackingSession, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if !domain.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	userID := m.authStore.UserID()
	ok, err := m.locks.AcquireTrackingLock(ctx, userID, bookingID, m.cfg.TrackingLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTrackingExists
	}

	interval := m.cfg.RiderTrackingInterval
	if role == domain.RoleDriver {
		interval = m.cfg.DriverTrackingInterval
	}

	id := uuid.New().String()
	sess := NewTrackingSession(id, role, bookingID, TrackingDeps{
		API:           m.api,
		Poller:        poll.New[*domain.Booking](interval, m.cfg.MaxBackoff),
		Sink:          m.sink,
		Observers:     m.observers,
		Snapshots:     m.snapshots,
		NavigateDelay: m.cfg.NavigateDelay,
		OnEnd:         m.onSessionEnd,
	})

	if err := sess.Start(); err != nil {
		m.releaseTrackingLock(userID, bookingID)
		return nil, err
	}

	m.register(sess)
	return sess, nil
}

// CreateList mounts a list session.
func (m *Manager) CreateList(_ context.Context, role domain.Role, filter domain.ListFilter) (*ListSession, error) {
	if !domain.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if filter.Type != "" && !domain.ValidListFilterType(filter.Type) {
		return nil, ErrInvalidFilter
	}

	id := uuid.New().String()
	sess := NewListSession(id, role, filter, ListDeps{
		API:    m.api,
		Poller: poll.New[*domain.BookingPage](m.cfg.ListInterval, m.cfg.MaxBackoff),
		Sink:   m.sink,
	})

	if err := sess.Start(); err != nil {
		return nil, err
	}

	m.register(sess)
	return sess, nil
}

// CreateLive mounts a driver live-bookings session.
func (m *Manager) CreateLive(_ context.Context) (*LiveSession, error) {
	id := uuid.New().String()
	sess := NewLiveSession(id, LiveDeps{
		API:    m.api,
		Poller: poll.New[*LiveObservation](m.cfg.LiveInterval, m.cfg.MaxBackoff),
		Sink:   m.sink,
	})

	if err := sess.Start(); err != nil {
		return nil, err
	}

	m.register(sess)
	return sess, nil
}

// Get returns a running session by ID.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Stop unmounts a session by ID: the poller is cancelled before the call
// returns.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	m.teardown(sess)
	return nil
}

// StopAll unmounts every session; used on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := make([]Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		m.teardown(sess)
	}
}

// onSessionEnd handles a session that terminated itself (terminal booking
// state or fatal initial fetch).
func (m *Manager) onSessionEnd(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	m.teardown(sess)
}

func (m *Manager) register(sess Session) {
	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()
	observability.SessionsActive.WithLabelValues(sess.Kind()).Inc()
}

func (m *Manager) teardown(sess Session) {
	sess.Stop()
	observability.SessionsActive.WithLabelValues(sess.Kind()).Dec()

	if tracking, ok := sess.(*TrackingSession); ok {
		m.releaseTrackingLock(m.authStore.UserID(), tracking.BookingID())
	}
}

func (m *Manager) releaseTrackingLock(userID, bookingID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.locks.ReleaseTrackingLock(ctx, userID, bookingID); err != nil {
		log.Printf("release tracking lock for booking %s: %v", bookingID, err)
	}
}
