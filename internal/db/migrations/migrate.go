package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"busticket/internal/db"
)

//go:embed mysql/*.sql postgres/*.sql
var migrationFiles embed.FS

const (
	advisoryLockID   int64 = 801234567
	mysqlLockName          = "busticket_schema_migrations"
	mysqlLockTimeout       = 30
)

// Migration is one embedded SQL file.
type Migration struct {
	Name       string
	Statements []string
}

// Load returns the dialect's migrations in filename order.
func Load(dialect db.Dialect) ([]Migration, error) {
	dir := "mysql"
	if dialect == db.Postgres {
		dir = "postgres"
	}
	entries, err := fs.ReadDir(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		raw, err := migrationFiles.ReadFile(dir + "/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		stmts := splitStatements(string(raw))
		if len(stmts) == 0 {
			continue
		}
		out = append(out, Migration{Name: name, Statements: stmts})
	}
	return out, nil
}

// Apply runs pending embedded migrations while holding a database-wide lock,
// recording each one in schema_migrations.
func Apply(ctx context.Context, sqlDB *sql.DB, dialect db.Dialect) error {
	migrations, err := Load(dialect)
	if err != nil {
		return err
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Close()

	unlock, err := lock(ctx, conn, dialect)
	if err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer unlock()

	if _, err := conn.ExecContext(ctx, createTableSQL(dialect)); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		if err := conn.QueryRowContext(ctx,
			dialect.Rebind(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = ?)`), m.Name,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", m.Name, err)
		}
		if applied {
			continue
		}

		for _, stmt := range m.Statements {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec migration %s: %w", m.Name, err)
			}
		}
		if _, err := conn.ExecContext(ctx,
			dialect.Rebind(`INSERT INTO schema_migrations (name) VALUES (?)`), m.Name,
		); err != nil {
			return fmt.Errorf("record migration %s: %w", m.Name, err)
		}
	}
	return nil
}

func lock(ctx context.Context, conn *sql.Conn, dialect db.Dialect) (func(), error) {
	if dialect == db.Postgres {
		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockID); err != nil {
			return nil, err
		}
		return func() {
			_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, advisoryLockID)
		}, nil
	}

	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, mysqlLockName, mysqlLockTimeout).Scan(&got); err != nil {
		return nil, err
	}
	if !got.Valid || got.Int64 != 1 {
		return nil, fmt.Errorf("lock %s not granted", mysqlLockName)
	}
	return func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT RELEASE_LOCK(?)`, mysqlLockName)
	}, nil
}

func createTableSQL(dialect db.Dialect) string {
	if dialect == db.Postgres {
		return `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	}
	return `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name VARCHAR(255) PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
}

// splitStatements breaks a file on semicolons that end a line. The MySQL
// driver rejects multi-statement Exec unless the DSN opts in.
func splitStatements(script string) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(cur.String()), ";")
			if stmt != "" {
				out = append(out, stmt)
			}
			cur.Reset()
		}
	}
	if tail := strings.TrimSpace(cur.String()); tail != "" {
		out = append(out, tail)
	}
	return out
}
