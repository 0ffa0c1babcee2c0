package db

import (
	"context"
	"database/sql"
)

// HasTable checks information_schema for table in the connection's current schema.
func (d Dialect) HasTable(ctx context.Context, q Querier, table string) (bool, error) {
	schema := "DATABASE()"
	if d == Postgres {
		schema = "current_schema()"
	}
	var name sql.NullString
	err := q.QueryRowContext(ctx, d.Rebind(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = `+schema+`
		  AND table_name = ?
		LIMIT 1
	`), table).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return name.Valid && name.String != "", nil
}
