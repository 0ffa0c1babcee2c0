package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/bookings/:ref/receipt returns the PDF receipt inline.
func (h *Handler) Receipt(c *gin.Context) {
	if h.Receipts == nil {
		respondError(c, http.StatusServiceUnavailable, "not_ready", "receipts are not configured", nil)
		return
	}
	pdf, filename, err := h.Receipts.Generate(c.Request.Context(), c.Param("ref"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
