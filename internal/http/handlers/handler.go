package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
	"busticket/internal/domain/models"
	"busticket/internal/services"
)

// Ledger is the booking surface the handlers call.
type Ledger interface {
	Routes(ctx context.Context, vendorID domain.ID) ([]models.Route, error)
	Route(ctx context.Context, id domain.ID) (models.Route, error)
	SeatMap(ctx context.Context, routeID domain.ID, travelDate string) (models.SeatMap, error)
	ReserveSeat(ctx context.Context, in services.ReserveInput) (services.ReserveResult, error)
	QuickBook(ctx context.Context, in services.ReserveInput) (services.ReserveResult, error)
	Cancel(ctx context.Context, idOrReference string) (services.CancelResult, error)
	Find(ctx context.Context, idOrReference string) (models.Booking, error)
	Lookup(ctx context.Context, reference string) (models.Booking, error)
	ListBookings(ctx context.Context, routeID domain.ID, travelDate string) ([]models.Booking, error)
}

type ReceiptGenerator interface {
	Generate(ctx context.Context, reference string) ([]byte, string, error)
}

type NotificationFeed interface {
	ListRecent(ctx context.Context, limit int) ([]models.Notification, error)
}

// Handler holds the dependencies every endpoint shares.
type Handler struct {
	Ledger        Ledger
	Receipts      ReceiptGenerator
	Notifications NotificationFeed
	// Ping checks the database for /api/db-check.
	Ping func(ctx context.Context) error
	// Engine is inspected by /api/endpoints.
	Engine *gin.Engine
}
