package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestParseDialect(t *testing.T) {
	cases := map[string]Dialect{
		"":           MySQL,
		"MySQL":      MySQL,
		"mariadb":    MySQL,
		"postgres":   Postgres,
		" pgx ":      Postgres,
		"postgresql": Postgres,
	}
	for raw, want := range cases {
		got, err := ParseDialect(raw)
		if err != nil {
			t.Fatalf("ParseDialect(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseDialect(%q) = %q, want %q", raw, got, want)
		}
	}
	if _, err := ParseDialect("sqlite"); err == nil {
		t.Fatalf("expected error for sqlite")
	}
}

func TestRebind(t *testing.T) {
	q := `SELECT id FROM bookings WHERE route_id = ? AND note = 'why?' AND travel_date = ?`
	if got := MySQL.Rebind(q); got != q {
		t.Fatalf("mysql rebind changed query: %q", got)
	}
	want := `SELECT id FROM bookings WHERE route_id = $1 AND note = 'why?' AND travel_date = $2`
	if got := Postgres.Rebind(q); got != want {
		t.Fatalf("postgres rebind = %q, want %q", got, want)
	}
}

func TestUniqueViolation(t *testing.T) {
	myErr := &mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry '1-2026-03-01-4' for key 'bookings.uq_bookings_active_seat'",
	}
	name, ok := MySQL.UniqueViolation(fmt.Errorf("insert booking: %w", myErr))
	if !ok || name != "uq_bookings_active_seat" {
		t.Fatalf("mysql: got (%q, %v)", name, ok)
	}

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_bookings_reference"}
	name, ok = Postgres.UniqueViolation(pgErr)
	if !ok || name != "uq_bookings_reference" {
		t.Fatalf("postgres: got (%q, %v)", name, ok)
	}

	if _, ok := MySQL.UniqueViolation(&mysql.MySQLError{Number: 1452}); ok {
		t.Fatalf("foreign key error must not count as unique violation")
	}
	if _, ok := Postgres.UniqueViolation(errors.New("boom")); ok {
		t.Fatalf("plain error must not count as unique violation")
	}
}

func TestWriteConflict(t *testing.T) {
	if !MySQL.WriteConflict(fmt.Errorf("commit: %w", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"})) {
		t.Fatalf("mysql deadlock not detected")
	}
	if !Postgres.WriteConflict(&pgconn.PgError{Code: "40001"}) || !Postgres.WriteConflict(&pgconn.PgError{Code: "40P01"}) {
		t.Fatalf("postgres serialization/deadlock not detected")
	}
	if MySQL.WriteConflict(&mysql.MySQLError{Number: 1062}) || Postgres.WriteConflict(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("unique violations are not write conflicts")
	}
	if MySQL.WriteConflict(errors.New("connection reset")) {
		t.Fatalf("plain error is not a write conflict")
	}
}

func TestInsertID(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO payments (booking_id) VALUES (?)`)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(42, 1))
	id, err := MySQL.InsertID(ctx, sqlDB, `INSERT INTO payments (booking_id) VALUES (?)`, 7)
	if err != nil || id != 42 {
		t.Fatalf("mysql insert id = %d, %v", id, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO payments (booking_id) VALUES ($1) RETURNING id`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(43))
	id, err = Postgres.InsertID(ctx, sqlDB, `INSERT INTO payments (booking_id) VALUES (?)`, 7)
	if err != nil || id != 43 {
		t.Fatalf("postgres insert id = %d, %v", id, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = WithTx(context.Background(), sqlDB, func(_ *sql.Tx) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHasTable(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectQuery(`FROM information_schema.tables`).
		WithArgs("bookings").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("bookings"))
	ok, err := MySQL.HasTable(context.Background(), sqlDB, "bookings")
	if err != nil || !ok {
		t.Fatalf("HasTable = %v, %v", ok, err)
	}
}
