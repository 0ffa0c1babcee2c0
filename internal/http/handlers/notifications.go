package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/notifications?limit=
func (h *Handler) ListNotifications(c *gin.Context) {
	if h.Notifications == nil {
		c.JSON(http.StatusOK, gin.H{"notifications": []any{}, "count": 0})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := h.Notifications.ListRecent(c.Request.Context(), limit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "count": len(items)})
}
