package migrations

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"busticket/internal/db"
)

func TestSplitStatements(t *testing.T) {
	script := `
-- comment
CREATE TABLE a (id INT);

CREATE INDEX idx_a
	ON a (id);
SELECT 1`
	got := splitStatements(script)
	if len(got) != 3 {
		t.Fatalf("expected 3 statements, got %d: %#v", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id INT)" {
		t.Fatalf("unexpected first statement %q", got[0])
	}
	if !strings.Contains(got[1], "ON a (id)") || strings.HasSuffix(got[1], ";") {
		t.Fatalf("unexpected second statement %q", got[1])
	}
	if got[2] != "SELECT 1" {
		t.Fatalf("unexpected tail %q", got[2])
	}
}

func TestLoad_BothDialectsCarryActiveSeatConstraint(t *testing.T) {
	for _, dialect := range []db.Dialect{db.MySQL, db.Postgres} {
		migs, err := Load(dialect)
		if err != nil {
			t.Fatalf("%s: load: %v", dialect, err)
		}
		if len(migs) < 3 {
			t.Fatalf("%s: expected at least 3 migrations, got %d", dialect, len(migs))
		}
		var found bool
		for _, m := range migs {
			for _, stmt := range m.Statements {
				if strings.Contains(stmt, "uq_bookings_active_seat") {
					found = true
				}
			}
		}
		if !found {
			t.Fatalf("%s: uq_bookings_active_seat missing", dialect)
		}
	}
}

func TestApply_MySQLRunsPendingAndSkipsApplied(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	migs, err := Load(db.MySQL)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT GET_LOCK(?, ?)`)).
		WithArgs(mysqlLockName, mysqlLockTimeout).
		WillReturnRows(sqlmock.NewRows([]string{"lock"}).AddRow(1))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	for i, m := range migs {
		applied := i == 0
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = ?)`)).
			WithArgs(m.Name).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(applied))
		if applied {
			continue
		}
		for range m.Statements {
			mock.ExpectExec(`.+`).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO schema_migrations (name) VALUES (?)`)).
			WithArgs(m.Name).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectExec(regexp.QuoteMeta(`SELECT RELEASE_LOCK(?)`)).
		WithArgs(mysqlLockName).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Apply(context.Background(), sqlDB, db.MySQL); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApply_PostgresUsesAdvisoryLock(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	migs, err := Load(db.Postgres)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_lock($1)`)).
		WithArgs(advisoryLockID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	for _, m := range migs {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`)).
			WithArgs(m.Name).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	}
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_unlock($1)`)).
		WithArgs(advisoryLockID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Apply(context.Background(), sqlDB, db.Postgres); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApply_MySQLLockRefused(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT GET_LOCK(?, ?)`)).
		WillReturnRows(sqlmock.NewRows([]string{"lock"}).AddRow(0))

	if err := Apply(context.Background(), sqlDB, db.MySQL); err == nil {
		t.Fatalf("expected lock error")
	}
}
