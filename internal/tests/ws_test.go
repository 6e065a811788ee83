package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"bookingwatch/internal/auth"
	"bookingwatch/internal/domain"
	"bookingwatch/internal/handler"
	"bookingwatch/internal/service"
)

// ──────────────────────────────────────────────
// EVENT STREAM
// ──────────────────────────────────────────────

func TestWSStreamDeliversSessionEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authStore := auth.NewStore()
	if err := authStore.SetToken(makeToken(t, "user-1", domain.RoleRider), ""); err != nil {
		t.Fatalf("set token: %v", err)
	}

	api := NewMockBookingAPI()
	api.SetBooking(&domain.Booking{ID: "b1", BookingStatus: domain.BookingStatusStarted, PaymentStatus: domain.PaymentStatusPending})

	hub := handler.NewHub()
	manager := service.NewManager(
		api,
		service.MultiSink{hub},
		nil,
		NewMockSnapshotStore(),
		NewMockLocker(),
		authStore,
		service.ManagerConfig{
			RiderTrackingInterval: 10 * time.Millisecond,
			NavigateDelay:         15 * time.Millisecond,
			TrackingLockTTL:       time.Minute,
		},
	)
	t.Cleanup(manager.StopAll)

	router := gin.New()
	router.GET("/v1/sessions/:id/events", handler.NewWSHandler(hub, manager).Stream)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	sess, err := manager.CreateTracking(context.Background(), domain.RoleRider, "b1")
	if err != nil {
		t.Fatalf("create tracking: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/sessions/" + sess.ID() + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	readEvent := func() service.Event {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev service.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read event: %v", err)
		}
		return ev
	}

	// The ride is in progress, so the first frame is a state re-render.
	ev := readEvent()
	if ev.Type != service.EventState || ev.Booking == nil || ev.Booking.ID != "b1" {
		t.Fatalf("expected state frame with the booking, got %+v", ev)
	}

	// The ride finishes and the payment settles server-side; the stream
	// must carry the wind-down sequence through to session end.
	api.SetBooking(&domain.Booking{ID: "b1", BookingStatus: domain.BookingStatusCompleted, PaymentStatus: domain.PaymentStatusCompleted})

	seen := map[service.EventType]bool{}
	for {
		ev := readEvent()
		seen[ev.Type] = true
		if ev.Type == service.EventNavigate && ev.Path != service.PathRiderDashboard {
			t.Errorf("expected navigate to rider dashboard, got %q", ev.Path)
		}
		if ev.Type == service.EventSessionEnded {
			if ev.Reason != service.ReasonDone {
				t.Errorf("expected reason %q, got %q", service.ReasonDone, ev.Reason)
			}
			break
		}
	}

	for _, want := range []service.EventType{service.EventToast, service.EventNavigate} {
		if !seen[want] {
			t.Errorf("stream never carried a %s frame", want)
		}
	}
}

func TestWSStreamRejectsUnknownSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authStore := auth.NewStore()
	manager := service.NewManager(NewMockBookingAPI(), NewMockSink(), nil, NewMockSnapshotStore(), NewMockLocker(), authStore, service.ManagerConfig{})
	t.Cleanup(manager.StopAll)

	router := gin.New()
	router.GET("/v1/sessions/:id/events", handler.NewWSHandler(handler.NewHub(), manager).Stream)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/sessions/missing/events")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
