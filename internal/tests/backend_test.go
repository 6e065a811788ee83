package tests

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"bookingwatch/internal/auth"
	"bookingwatch/internal/backend"
	"bookingwatch/internal/domain"
)

func newBackendClient(t *testing.T, handler http.Handler) (*backend.Client, *auth.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := auth.NewStore()
	if err := store.SetToken(makeToken(t, "user-1", domain.RoleRider), ""); err != nil {
		t.Fatalf("set token: %v", err)
	}
	return backend.NewClient(srv.URL, 5*time.Second, store), store
}

// ──────────────────────────────────────────────
// REQUEST SHAPE
// ──────────────────────────────────────────────

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth, gotAccept string
	client, store := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		json.NewEncoder(w).Encode(domain.Booking{ID: "b1"})
	}))

	if _, err := client.Get(context.Background(), "b1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if want := "Bearer " + store.Token(); gotAuth != want {
		t.Errorf("expected %q, got %q", want, gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("expected json accept header, got %q", gotAccept)
	}
}

func TestClientOmitsAuthorizationWhenLoggedOut(t *testing.T) {
	var gotAuth string
	client, store := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(domain.Booking{ID: "b1"})
	}))

	store.Clear()
	if _, err := client.Get(context.Background(), "b1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no authorization header, got %q", gotAuth)
	}
}

func TestClientListQueryParameters(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	client, _ := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(domain.BookingPage{})
	}))

	filter := domain.ListFilter{Type: domain.FilterStatus, Term: "completed", Page: 2, Size: 25}
	if _, err := client.ListMine(context.Background(), filter); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotPath != "/bookings/me" {
		t.Errorf("unexpected path %q", gotPath)
	}
	want := map[string]string{"filterType": "status", "term": "completed", "page": "2", "size": "25"}
	for key, value := range want {
		if got := gotQuery.Get(key); got != value {
			t.Errorf("query param %s: expected %q, got %q", key, value, got)
		}
	}
}

func TestClientMutationPaths(t *testing.T) {
	cases := []struct {
		name   string
		call   func(c *backend.Client, ctx context.Context) error
		method string
		path   string
	}{
		{"cancel", func(c *backend.Client, ctx context.Context) error { return c.Cancel(ctx, "b1") }, http.MethodPut, "/bookings/b1/cancel"},
		{"start", func(c *backend.Client, ctx context.Context) error { return c.Start(ctx, "b1") }, http.MethodPut, "/driver/bookings/b1/start"},
		{"complete", func(c *backend.Client, ctx context.Context) error { return c.Complete(ctx, "b1") }, http.MethodPut, "/driver/bookings/b1/complete"},
		{"complete payment", func(c *backend.Client, ctx context.Context) error { return c.CompletePayment(ctx, "b1") }, http.MethodPost, "/payments/b1/complete"},
		{"fail payment", func(c *backend.Client, ctx context.Context) error { return c.FailPayment(ctx, "b1") }, http.MethodPost, "/payments/b1/failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotMethod, gotPath string
			client, _ := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				w.WriteHeader(http.StatusOK)
			}))

			if err := tc.call(client, context.Background()); err != nil {
				t.Fatalf("call: %v", err)
			}
			if gotMethod != tc.method || gotPath != tc.path {
				t.Errorf("expected %s %s, got %s %s", tc.method, tc.path, gotMethod, gotPath)
			}
		})
	}
}

// ──────────────────────────────────────────────
// ERROR TAXONOMY
// ──────────────────────────────────────────────

func TestClientMapsNotFound(t *testing.T) {
	client, _ := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := client.Get(context.Background(), "missing"); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClientMapsUnauthorized(t *testing.T) {
	client, _ := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	if _, err := client.Get(context.Background(), "b1"); !errors.Is(err, backend.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClientCarriesServerMessage(t *testing.T) {
	client, _ := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "booking can no longer be cancelled"})
	}))

	err := client.Cancel(context.Background(), "b1")
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", apiErr.StatusCode)
	}
	if apiErr.Error() != "booking can no longer be cancelled" {
		t.Errorf("unexpected message %q", apiErr.Error())
	}
}

func TestClientFallbackMessageForEmptyBody(t *testing.T) {
	client, _ := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := client.Cancel(context.Background(), "b1")
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Error() != "booking store returned status 500" {
		t.Errorf("unexpected fallback message %q", apiErr.Error())
	}
}

// ──────────────────────────────────────────────
// DRIVER ACTIVE LOOKUP
// ──────────────────────────────────────────────

func TestClientDriverActiveTreats404AsNoBooking(t *testing.T) {
	client, _ := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	booking, err := client.DriverActive(context.Background())
	if err != nil {
		t.Fatalf("expected nil error for 404, got %v", err)
	}
	if booking != nil {
		t.Errorf("expected nil booking, got %+v", booking)
	}
}

func TestClientDriverActiveReturnsBooking(t *testing.T) {
	client, _ := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/driver/bookings/active" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(domain.Booking{ID: "b5", BookingStatus: domain.BookingStatusStarted})
	}))

	booking, err := client.DriverActive(context.Background())
	if err != nil {
		t.Fatalf("driver active: %v", err)
	}
	if booking == nil || booking.ID != "b5" {
		t.Errorf("unexpected booking %+v", booking)
	}
}
