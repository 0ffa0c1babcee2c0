package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
)

// GET /api/routes?vendorId=
func (h *Handler) ListRoutes(c *gin.Context) {
	var vendorID domain.ID
	if raw := strings.TrimSpace(c.Query("vendorId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(c, http.StatusBadRequest, "validation_error", "vendorId must be a positive integer", gin.H{"field": "vendorId"})
			return
		}
		vendorID = domain.ID(id)
	}
	routes, err := h.Ledger.Routes(c.Request.Context(), vendorID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes, "count": len(routes)})
}

// GET /api/routes/:id
func (h *Handler) GetRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, err := h.Ledger.Route(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

// GET /api/routes/:id/seats?date=YYYY-MM-DD
func (h *Handler) SeatMap(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	m, err := h.Ledger.SeatMap(c.Request.Context(), id, c.Query("date"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
