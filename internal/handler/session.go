package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookingwatch/internal/domain"
	"bookingwatch/internal/service"
)

// SessionHandler handles HTTP requests for view sessions.
type SessionHandler struct {
	manager *service.Manager
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(manager *service.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// CreateTrackingRequest is the HTTP request body for mounting a tracking view.
type CreateTrackingRequest struct {
	BookingID string `json:"booking_id"`
	Role      string `json:"role"`
}

// CreateListRequest is the HTTP request body for mounting a list view.
type CreateListRequest struct {
	Role       string `json:"role"`
	FilterType string `json:"filter_type,omitempty"`
	Term       string `json:"term,omitempty"`
	Page       int    `json:"page"`
	Size       int    `json:"size,omitempty"`
}

// CreateSessionResponse is the HTTP response for mounting any view session.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
}

// CreateTracking handles POST /v1/sessions/tracking
func (h *SessionHandler) CreateTracking(c *gin.Context) {
	var req CreateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	sess, err := h.manager.CreateTracking(c.Request.Context(), domain.Role(req.Role), req.BookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateSessionResponse{SessionID: sess.ID(), Kind: sess.Kind()})
}

// CreateList handles POST /v1/sessions/list
func (h *SessionHandler) CreateList(c *gin.Context) {
	var req CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	filter := domain.ListFilter{
		Type: domain.ListFilterType(req.FilterType),
		Term: req.Term,
		Page: req.Page,
		Size: req.Size,
	}

	sess, err := h.manager.CreateList(c.Request.Context(), domain.Role(req.Role), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateSessionResponse{SessionID: sess.ID(), Kind: sess.Kind()})
}

// CreateLive handles POST /v1/sessions/live
func (h *SessionHandler) CreateLive(c *gin.Context) {
	sess, err := h.manager.CreateLive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateSessionResponse{SessionID: sess.ID(), Kind: sess.Kind()})
}

// GetState handles GET /v1/sessions/:id
func (h *SessionHandler) GetState(c *gin.Context) {
	sess, err := h.manager.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	switch s := sess.(type) {
	case *service.TrackingSession:
		respondJSON(c, http.StatusOK, s.State())
	case *service.ListSession:
		respondJSON(c, http.StatusOK, s.State())
	case *service.LiveSession:
		respondJSON(c, http.StatusOK, s.State())
	default:
		respondError(c, service.ErrSessionNotFound)
	}
}

// Delete handles DELETE /v1/sessions/:id, the view unmount. The poller
// is stopped before the response is written.
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.manager.Stop(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Cancel handles POST /v1/sessions/:id/cancel
func (h *SessionHandler) Cancel(c *gin.Context) {
	h.action(c, func(ctx context.Context, s *service.TrackingSession) error {
		return s.Cancel(ctx)
	})
}

// StartRide handles POST /v1/sessions/:id/start
func (h *SessionHandler) StartRide(c *gin.Context) {
	h.action(c, func(ctx context.Context, s *service.TrackingSession) error {
		return s.StartRide(ctx)
	})
}

// CompleteRide handles POST /v1/sessions/:id/complete
func (h *SessionHandler) CompleteRide(c *gin.Context) {
	h.action(c, func(ctx context.Context, s *service.TrackingSession) error {
		return s.CompleteRide(ctx)
	})
}

// CompletePayment handles POST /v1/sessions/:id/payment/complete
func (h *SessionHandler) CompletePayment(c *gin.Context) {
	h.action(c, func(ctx context.Context, s *service.TrackingSession) error {
		return s.CompletePayment(ctx)
	})
}

// FailPayment handles POST /v1/sessions/:id/payment/failed
func (h *SessionHandler) FailPayment(c *gin.Context) {
	h.action(c, func(ctx context.Context, s *service.TrackingSession) error {
		return s.FailPayment(ctx)
	})
}

// action resolves the tracking session and proxies one user action. The
// 202 signals that the mutation was accepted by the Booking Store but the
// view reflects it only after the next poll.
func (h *SessionHandler) action(c *gin.Context, call func(context.Context, *service.TrackingSession) error) {
	sess, err := h.manager.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	tracking, ok := sess.(*service.TrackingSession)
	if !ok {
		respondError(c, service.ErrActionNotAllowed)
		return
	}

	if err := call(c.Request.Context(), tracking); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}
