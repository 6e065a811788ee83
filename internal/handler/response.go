package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookingwatch/internal/backend"
	"bookingwatch/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/backend errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidFilter):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrTrackingExists),
		errors.Is(err, service.ErrActionPending),
		errors.Is(err, service.ErrActionNotAllowed),
		errors.Is(err, service.ErrSessionEnded),
		errors.Is(err, service.ErrNoObservation):
		return http.StatusConflict

	// Auth errors
	case errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized
	}

	// Non-2xx Booking Store responses surface as bad gateway with the
	// server-supplied message intact.
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}

	// Default to internal server error
	return http.StatusInternalServerError
}
