package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
	"busticket/internal/http/middleware"
	"busticket/internal/utils"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
		Message:   message,
	})
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	var (
		validation domain.ValidationError
		seat       domain.SeatUnavailableError
		exhausted  domain.SeatsExhaustedError
	)
	switch {
	case errors.As(err, &validation):
		var details any
		if validation.Field != "" {
			details = gin.H{"field": validation.Field}
		}
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), details)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.As(err, &seat):
		respondError(c, http.StatusConflict, "seat_unavailable", err.Error(), gin.H{"seatNumber": seat.Seat, "travelDate": seat.TravelDate})
	case errors.As(err, &exhausted):
		respondError(c, http.StatusConflict, "seats_exhausted", err.Error(), gin.H{"routeId": exhausted.RouteID, "travelDate": exhausted.TravelDate})
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsStoreUnavailable(err):
		utils.LogError(middleware.GetRequestID(c), "HTTP", "store_unavailable", c.Request.URL.Path, err)
		c.Header("Retry-After", "1")
		respondError(c, http.StatusServiceUnavailable, "store_unavailable", "storage is temporarily unavailable, retry with the same Idempotency-Key", nil)
	default:
		utils.LogError(middleware.GetRequestID(c), "HTTP", "internal_error", c.Request.URL.Path, err)
		respondError(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
