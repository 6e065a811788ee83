package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"bookingwatch/internal/auth"
	"bookingwatch/internal/domain"
)

// Client performs REST calls against the remote Booking Store. The store
// owns every booking record; the gateway only reads them and issues
// side-effecting mutations whose results are never trusted as
// authoritative; callers re-poll instead.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authStore  *auth.Store
}

// NewClient creates a Booking Store client. The session token is read
// fresh from the auth store on every call.
func NewClient(baseURL string, timeout time.Duration, authStore *auth.Store) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		authStore:  authStore,
	}
}

// ListMine fetches one page of the caller's bookings.
// GET /bookings/me?filterType=...&term=...&page=...&size=...
func (c *Client) ListMine(ctx context.Context, filter domain.ListFilter) (*domain.BookingPage, error) {
	size := filter.Size
	if size <= 0 {
		size = domain.DefaultPageSize
	}

	q := url.Values{}
	if filter.Type != "" {
		q.Set("filterType", string(filter.Type))
		q.Set("term", filter.Term)
	}
	q.Set("page", strconv.Itoa(filter.Page))
	q.Set("size", strconv.Itoa(size))

	var page domain.BookingPage
	if err := c.get(ctx, "/bookings/me?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get fetches a single booking from the rider endpoint.
func (c *Client) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	var booking domain.Booking
	if err := c.get(ctx, "/bookings/"+url.PathEscape(bookingID), &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// DriverGet fetches a single booking from the driver endpoint.
func (c *Client) DriverGet(ctx context.Context, bookingID string) (*domain.Booking, error) {
	var booking domain.Booking
	if err := c.get(ctx, "/driver/bookings/"+url.PathEscape(bookingID), &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// DriverActive fetches the driver's current active booking. A 404 here
// means "no active booking", not an error, and yields (nil, nil).
func (c *Client) DriverActive(ctx context.Context) (*domain.Booking, error) {
	var booking domain.Booking
	err := c.get(ctx, "/driver/bookings/active", &booking)
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// Available fetches the bookings currently open for drivers to accept.
func (c *Client) Available(ctx context.Context) ([]*domain.Booking, error) {
	var bookings []*domain.Booking
	if err := c.get(ctx, "/driver/bookings/available", &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// Cancel asks the store to cancel a booking on behalf of the rider.
func (c *Client) Cancel(ctx context.Context, bookingID string) error {
	return c.mutate(ctx, http.MethodPut, "/bookings/"+url.PathEscape(bookingID)+"/cancel")
}

// Start asks the store to mark the ride as started on behalf of the driver.
func (c *Client) Start(ctx context.Context, bookingID string) error {
	return c.mutate(ctx, http.MethodPut, "/driver/bookings/"+url.PathEscape(bookingID)+"/start")
}

// Complete asks the store to mark the ride as completed on behalf of the driver.
func (c *Client) Complete(ctx context.Context, bookingID string) error {
	return c.mutate(ctx, http.MethodPut, "/driver/bookings/"+url.PathEscape(bookingID)+"/complete")
}

// CompletePayment reports a successful payment for a completed booking.
func (c *Client) CompletePayment(ctx context.Context, bookingID string) error {
	return c.mutate(ctx, http.MethodPost, "/payments/"+url.PathEscape(bookingID)+"/complete")
}

// FailPayment reports a failed payment attempt for a completed booking.
func (c *Client) FailPayment(ctx context.Context, bookingID string) error {
	return c.mutate(ctx, http.MethodPost, "/payments/"+url.PathEscape(bookingID)+"/failed")
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) mutate(ctx context.Context, method, path string) error {
	resp, err := c.do(ctx, method, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Mutation bodies are ignored even when present; the next poll is the
	// source of truth.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	if token := c.authStore.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	// Trace the external call when a New Relic transaction is in context.
	if txn := newrelic.FromContext(ctx); txn != nil {
		seg := newrelic.StartExternalSegment(txn, req)
		defer seg.End()
	}

	return c.httpClient.Do(req)
}

// decodeError maps a non-2xx response to the error taxonomy: 404 and 401
// become sentinels, everything else an APIError carrying the server's
// message field when one was sent.
func (c *Client) decodeError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
