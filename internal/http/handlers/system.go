package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "seat ledger is running"})
}

func (h *Handler) DBCheck(c *gin.Context) {
	if h.Ping == nil {
		respondError(c, http.StatusServiceUnavailable, "store_unavailable", "database is not connected", nil)
		return
	}
	if err := h.Ping(c.Request.Context()); err != nil {
		respondError(c, http.StatusServiceUnavailable, "store_unavailable", "database ping failed", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK"})
}

// Endpoints lists the mounted routes.
func (h *Handler) Endpoints(c *gin.Context) {
	if h.Engine == nil {
		respondError(c, http.StatusServiceUnavailable, "not_ready", "router is not ready", nil)
		return
	}
	routes := h.Engine.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{"method": rt.Method, "path": rt.Path})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
