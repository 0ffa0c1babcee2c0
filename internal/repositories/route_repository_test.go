package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"busticket/internal/db"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
)

var routeRowColumns = []string{
	"id", "vendor_id", "departure", "destination", "departure_time", "capacity", "fare", "status", "operating_days",
}

func TestRouteGetByID(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM routes WHERE id=$1`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(routeRowColumns).
			AddRow(3, 9, "Pekanbaru", "Padang", "08:00:00", 12, 150000, "Active", "mon,wed,fri"))

	repo := RouteRepository{DB: sqlDB, Dialect: db.Postgres}
	route, err := repo.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("get route: %v", err)
	}
	if route.Capacity != 12 || route.Fare != 150000 || route.VendorID != 9 {
		t.Fatalf("unexpected route %+v", route)
	}
	if route.Status != models.RouteActive {
		t.Fatalf("status not normalized: %q", route.Status)
	}
	if route.DepartureTime != "08:00" {
		t.Fatalf("departure time not normalized: %q", route.DepartureTime)
	}
	if len(route.OperatingDays) != 3 || route.OperatingDays[1] != time.Wednesday {
		t.Fatalf("unexpected operating days %v", route.OperatingDays)
	}
}

func TestRouteGetByID_NotFound(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectQuery(`FROM routes WHERE id=\?`).WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows(routeRowColumns))

	repo := RouteRepository{DB: sqlDB, Dialect: db.MySQL}
	if _, err := repo.GetByID(context.Background(), 99); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRouteList_FiltersByVendor(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM routes WHERE vendor_id=? ORDER BY id ASC`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(routeRowColumns).
			AddRow(3, 9, "Pekanbaru", "Padang", "08:00", 12, 150000, "active", "").
			AddRow(4, 9, "Padang", "Pekanbaru", "14:00", 12, 150000, "inactive", nil))

	repo := RouteRepository{DB: sqlDB, Dialect: db.MySQL}
	routes, err := repo.List(context.Background(), 9)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(routes) != 2 || routes[1].IsActive() {
		t.Fatalf("unexpected routes %+v", routes)
	}
}
