package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"

	"mspro-labs/cellar-scout/internal/config"
	"mspro-labs/cellar-scout/internal/models"
)

// Connect opens the configured database and checks that it answers.
// SQLite files get a busy timeout and WAL mode like the rest of our tools.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN
	if cfg.Driver == "sqlite3" && !strings.Contains(dsn, "?") && dsn != ":memory:" {
		dsn = fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", dsn)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Dialect covers the few places the supported drivers disagree.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3":
		return SQLite, nil
	case "pgx", "postgres":
		return Postgres, nil
	}
	return 0, fmt.Errorf("unsupported driver %q", driver)
}

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Schema is the table a deployment writes to and its fixed column order.
type Schema struct {
	Table   string
	Columns []string
}

// NewSchema resolves the column order for a variant.
func NewSchema(table string, variant models.Variant) (Schema, error) {
	cols, err := variant.Columns()
	if err != nil {
		return Schema{}, err
	}
	return Schema{Table: table, Columns: cols}, nil
}

// CreateTableSQL returns the DDL used to create the table locally.
func (s Schema) CreateTableSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", s.Table)
	for i, col := range s.Columns {
		sep := ","
		if i == len(s.Columns)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "  %s %s%s\n", col, models.ColumnType(col), sep)
	}
	b.WriteString(");")
	return b.String()
}

// EnsureSchema creates the table when it does not exist yet. Existing tables
// are left untouched.
func EnsureSchema(ctx context.Context, db *sql.DB, s Schema) error {
	if _, err := db.ExecContext(ctx, s.CreateTableSQL()); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (s Schema) insertSQL(d Dialect) string {
	marks := make([]string, len(s.Columns))
	for i := range s.Columns {
		marks[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (\n  %s\n) VALUES (%s)",
		s.Table,
		strings.Join(s.Columns, ",\n  "),
		strings.Join(marks, ", "),
	)
}

// Recent returns the newest rows, most recent first.
func Recent(ctx context.Context, db *sql.DB, s Schema, limit int) ([]models.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC LIMIT %d",
		strings.Join(s.Columns, ", "), s.Table, models.ScrapeDate, limit)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		values := make([]any, len(s.Columns))
		ptrs := make([]any, len(s.Columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(models.Record, len(s.Columns))
		for i, col := range s.Columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			rec[col] = values[i]
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
