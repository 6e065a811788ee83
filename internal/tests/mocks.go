package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bookingwatch/internal/backend"
	"bookingwatch/internal/domain"
	"bookingwatch/internal/service"
)

// ──────────────────────────────────────────────
// MOCK BOOKING STORE
// ──────────────────────────────────────────────

// MockBookingAPI is a mock implementation of service.BookingAPI. Tests
// mutate the stored records between polls to simulate server-side state
// changes; every getter returns a copy.
type MockBookingAPI struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking
	page     *domain.BookingPage
	active   *domain.Booking

	// Counters for verification
	GetCallCount      int32
	ListCallCount     int32
	CancelCallCount   int32
	StartCallCount    int32
	CompleteCallCount int32
	PayCallCount      int32
	FailPayCallCount  int32

	// Error injection
	GetError      error
	ListError     error
	CancelError   error
	StartError    error
	CompleteError error
	PayError      error
}

// NewMockBookingAPI creates a new mock Booking Store.
func NewMockBookingAPI() *MockBookingAPI {
	return &MockBookingAPI{bookings: make(map[string]*domain.Booking)}
}

// SetBooking installs or replaces a booking record.
func (m *MockBookingAPI) SetBooking(b *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
}

// SetPage installs the page returned by ListMine.
func (m *MockBookingAPI) SetPage(p *domain.BookingPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.page = p
}

// SetActive installs the driver's active booking.
func (m *MockBookingAPI) SetActive(b *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = b
}

// SetGetError injects (or clears) an error for Get/DriverGet.
func (m *MockBookingAPI) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetError = err
}

// SetListError injects (or clears) an error for ListMine.
func (m *MockBookingAPI) SetListError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListError = err
}

func (m *MockBookingAPI) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	b, ok := m.bookings[bookingID]
	if !ok {
		return nil, backend.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *b
	return &copy, nil
}

func (m *MockBookingAPI) DriverGet(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return m.Get(ctx, bookingID)
}

func (m *MockBookingAPI) ListMine(ctx context.Context, filter domain.ListFilter) (*domain.BookingPage, error) {
	atomic.AddInt32(&m.ListCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	if m.page == nil {
		return &domain.BookingPage{Size: filter.Size}, nil
	}
	copy := *m.page
	return &copy, nil
}

func (m *MockBookingAPI) DriverActive(ctx context.Context) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil, nil
	}
	copy := *m.active
	return &copy, nil
}

func (m *MockBookingAPI) Available(ctx context.Context) ([]*domain.Booking, error) {
	atomic.AddInt32(&m.ListCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	var out []*domain.Booking
	if m.page != nil {
		out = append(out, m.page.Content...)
	}
	return out, nil
}

func (m *MockBookingAPI) Cancel(ctx context.Context, bookingID string) error {
	atomic.AddInt32(&m.CancelCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.CancelError
}

func (m *MockBookingAPI) Start(ctx context.Context, bookingID string) error {
	atomic.AddInt32(&m.StartCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.StartError
}

func (m *MockBookingAPI) Complete(ctx context.Context, bookingID string) error {
	atomic.AddInt32(&m.CompleteCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.CompleteError
}

func (m *MockBookingAPI) CompletePayment(ctx context.Context, bookingID string) error {
	atomic.AddInt32(&m.PayCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PayError
}

func (m *MockBookingAPI) FailPayment(ctx context.Context, bookingID string) error {
	atomic.AddInt32(&m.FailPayCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PayError
}

// ──────────────────────────────────────────────
// MOCK EVENT SINK
// ──────────────────────────────────────────────

// MockSink records every published event.
type MockSink struct {
	mu     sync.Mutex
	events []service.Event
}

// NewMockSink creates a new mock sink.
func NewMockSink() *MockSink {
	return &MockSink{}
}

func (m *MockSink) Publish(_ context.Context, event service.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of everything published so far.
func (m *MockSink) Events() []service.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]service.Event, len(m.events))
	copy(out, m.events)
	return out
}

// CountByType returns how many events of a type were published.
func (m *MockSink) CountByType(t service.EventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// FirstByType returns the first event of a type, if any.
func (m *MockSink) FirstByType(t service.EventType) (service.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.Type == t {
			return e, true
		}
	}
	return service.Event{}, false
}

// ──────────────────────────────────────────────
// MOCK SNAPSHOT STORE
// ──────────────────────────────────────────────

// MockSnapshotStore is an in-memory service.SnapshotStore.
type MockSnapshotStore struct {
	mu        sync.Mutex
	snapshots map[string]*domain.Booking

	SetError error
}

// NewMockSnapshotStore creates a new mock snapshot store.
func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{snapshots: make(map[string]*domain.Booking)}
}

func (m *MockSnapshotStore) SetSnapshot(_ context.Context, sessionID string, booking *domain.Booking) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[sessionID] = booking
	return nil
}

func (m *MockSnapshotStore) DeleteSnapshot(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, sessionID)
	return nil
}

// Snapshot returns the stored snapshot for assertions.
func (m *MockSnapshotStore) Snapshot(sessionID string) *domain.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots[sessionID]
}

// ──────────────────────────────────────────────
// MOCK TRACKING LOCKER
// ──────────────────────────────────────────────

// MockLocker is an in-memory service.TrackingLocker.
type MockLocker struct {
	mu   sync.Mutex
	held map[string]bool

	AcquireError error
}

// NewMockLocker creates a new mock locker.
func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]bool)}
}

func (m *MockLocker) AcquireTrackingLock(_ context.Context, userID, bookingID string, _ time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + ":" + bookingID
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *MockLocker) ReleaseTrackingLock(_ context.Context, userID, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, userID+":"+bookingID)
	return nil
}

// Held reports whether the lock for a (user, booking) pair is held.
func (m *MockLocker) Held(userID, bookingID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[userID+":"+bookingID]
}

// ──────────────────────────────────────────────
// MOCK TRANSITION OBSERVER
// ──────────────────────────────────────────────

// MockObserver records observed transitions.
type MockObserver struct {
	mu          sync.Mutex
	transitions []*domain.Transition
}

// NewMockObserver creates a new mock observer.
func NewMockObserver() *MockObserver {
	return &MockObserver{}
}

func (m *MockObserver) ObserveTransition(_ context.Context, t *domain.Transition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, t)
}

// Transitions returns a copy of the recorded transitions.
func (m *MockObserver) Transitions() []*domain.Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Transition, len(m.transitions))
	copy(out, m.transitions)
	return out
}

// ──────────────────────────────────────────────
// HELPERS
// ──────────────────────────────────────────────

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
