package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"busticket/internal/db"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
	"busticket/internal/utils"
)

// RouteRepository reads the route catalog. The ledger never writes routes.
type RouteRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

const routeColumns = `id, vendor_id, departure, destination, departure_time, capacity, fare, status, operating_days`

func (r RouteRepository) GetByID(ctx context.Context, id domain.ID) (models.Route, error) {
	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`SELECT `+routeColumns+` FROM routes WHERE id=?`), int64(id))
	route, err := scanRoute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Route{}, domain.NotFoundError{Resource: "route", Err: err}
	}
	if err != nil {
		return models.Route{}, domain.StoreError("get route", err)
	}
	return route, nil
}

// List returns the catalog ordered by id. vendorID 0 lists every vendor.
func (r RouteRepository) List(ctx context.Context, vendorID domain.ID) ([]models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes`
	args := []any{}
	if vendorID > 0 {
		query += ` WHERE vendor_id=?`
		args = append(args, int64(vendorID))
	}
	query += ` ORDER BY id ASC`

	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, domain.StoreError("list routes", err)
	}
	defer rows.Close()

	out := []models.Route{}
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, domain.StoreError("list routes", err)
		}
		out = append(out, route)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError("list routes", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(s rowScanner) (models.Route, error) {
	var (
		route    models.Route
		id       int64
		vendorID int64
		status   string
		days     sql.NullString
	)
	if err := s.Scan(&id, &vendorID, &route.Departure, &route.Destination, &route.DepartureTime,
		&route.Capacity, &route.Fare, &status, &days); err != nil {
		return models.Route{}, err
	}
	route.ID = domain.ID(id)
	route.VendorID = domain.ID(vendorID)
	route.Status = models.RouteStatus(strings.ToLower(strings.TrimSpace(status)))
	route.OperatingDays = models.ParseOperatingDays(days.String)
	if clock, err := utils.NormalizeClock(route.DepartureTime); err == nil {
		route.DepartureTime = clock
	}
	return route, nil
}
