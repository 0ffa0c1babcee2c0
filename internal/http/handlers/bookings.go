package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
	"busticket/internal/domain/models"
	"busticket/internal/http/middleware"
	"busticket/internal/services"
)

// POST /api/routes/:id/bookings
// With seatNumber the seat is reserved as asked; without it the ledger picks one.
func (h *Handler) CreateBooking(c *gin.Context) {
	h.reserve(c, models.SourceOnline, false)
}

// POST /api/routes/:id/quick-book
func (h *Handler) QuickBook(c *gin.Context) {
	h.reserve(c, models.SourceOnline, true)
}

// POST /api/counter/routes/:id/bookings
func (h *Handler) CounterBooking(c *gin.Context) {
	h.reserve(c, models.SourceWalkIn, false)
}

func (h *Handler) reserve(c *gin.Context, source models.BookingSource, quick bool) {
	routeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req reserveRequest
	if !bindJSON(c, &req, false) {
		return
	}
	key := strings.TrimSpace(c.GetHeader(middleware.IdempotencyKeyHeader))
	if len(key) > 128 {
		respondError(c, http.StatusBadRequest, "validation_error", "Idempotency-Key is too long", gin.H{"field": "Idempotency-Key"})
		return
	}
	in := req.input(routeID, source, key)

	var (
		res services.ReserveResult
		err error
	)
	if quick || req.SeatNumber == nil {
		res, err = h.Ledger.QuickBook(c.Request.Context(), in)
	} else {
		res, err = h.Ledger.ReserveSeat(c.Request.Context(), in)
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	status := http.StatusCreated
	if !res.Created {
		status = http.StatusOK
		c.Header(middleware.IdempotentReplayHeader, "true")
	}
	c.JSON(status, res.Booking)
}

// GET /api/bookings/:ref
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.Ledger.Lookup(c.Request.Context(), c.Param("ref"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// POST /api/bookings/:ref/cancel and DELETE /api/bookings/:ref
// :ref is a reference code or a numeric booking id.
// Vendors may only cancel bookings on their own routes.
func (h *Handler) CancelBooking(c *gin.Context) {
	key := c.Param("ref")
	if middleware.RequestContext(c).Role == domain.RoleVendor {
		b, err := h.Ledger.Find(c.Request.Context(), key)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		if !h.ownsRoute(c, b.RouteID) {
			return
		}
	}
	res, err := h.Ledger.Cancel(c.Request.Context(), key)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelResponse{Booking: res.Booking, Changed: res.Changed})
}

// GET /api/routes/:id/bookings?date=YYYY-MM-DD
// Vendors only see their own routes.
func (h *Handler) RouteBookings(c *gin.Context) {
	routeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if middleware.RequestContext(c).Role == domain.RoleVendor && !h.ownsRoute(c, routeID) {
		return
	}

	date := c.Query("date")
	list, err := h.Ledger.ListBookings(ctx, routeID, date)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingListResponse{
		RouteID:    routeID,
		TravelDate: strings.TrimSpace(date),
		Count:      len(list),
		Bookings:   list,
	})
}

// ownsRoute answers 403 (or the lookup error) unless the calling vendor
// owns routeID.
func (h *Handler) ownsRoute(c *gin.Context, routeID domain.ID) bool {
	route, err := h.Ledger.Route(c.Request.Context(), routeID)
	if err != nil {
		RespondDomainError(c, err)
		return false
	}
	if route.VendorID != middleware.RequestContext(c).VendorID {
		respondError(c, http.StatusForbidden, "forbidden", "route belongs to another vendor", nil)
		return false
	}
	return true
}
