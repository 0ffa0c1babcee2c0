package api

import (
	"log"
	stdhttp "net/http"
	"strings"

	intconfig "busticket/internal/config"
	"busticket/internal/domain"
	h "busticket/internal/http/handlers"
	"busticket/internal/http/middleware"
	"busticket/internal/utils"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env, handler *h.Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	staff := middleware.PassThrough()
	admin := middleware.PassThrough()
	cancelGuard := middleware.PassThrough()
	if env.AuthEnabled() {
		r.Use(middleware.AuthOptional([]byte(env.JWTSecret)))
		staff = middleware.RequireRoles(domain.RoleVendor, domain.RoleAdmin)
		admin = middleware.RequireRoles(domain.RoleAdmin)
		// Booking ids are sequential; customers cancel with their reference code.
		cancelGuard = middleware.RequireRolesIf(byBookingID, domain.RoleVendor, domain.RoleAdmin)
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"code":   "not_found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/db-check", handler.DBCheck)
		api.GET("/endpoints", handler.Endpoints)

		// Catalog and seat map
		routes := api.Group("/routes")
		routes.GET("", handler.ListRoutes)
		routes.GET("/:id", handler.GetRoute)
		routes.GET("/:id/seats", handler.SeatMap)
		routes.POST("/:id/bookings", handler.CreateBooking)
		routes.POST("/:id/quick-book", handler.QuickBook)
		routes.GET("/:id/bookings", staff, handler.RouteBookings)

		// Walk-in sales at the counter
		counter := api.Group("/counter", staff)
		counter.POST("/routes/:id/bookings", handler.CounterBooking)

		bookings := api.Group("/bookings")
		bookings.GET("/:ref", handler.GetBooking)
		bookings.GET("/:ref/receipt", handler.Receipt)
		bookings.POST("/:ref/cancel", cancelGuard, handler.CancelBooking)
		bookings.DELETE("/:ref", cancelGuard, handler.CancelBooking)

		adminGroup := api.Group("/admin", admin)
		adminGroup.GET("/notifications", handler.ListNotifications)
	}

	handler.Engine = r
	return r
}

func byBookingID(c *gin.Context) bool {
	return utils.IsDigits(strings.TrimSpace(c.Param("ref")))
}
