package db

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"mspro-labs/cellar-scout/internal/logger"
	"mspro-labs/cellar-scout/internal/models"
)

// Persister writes one product row per call. It does not own the *sql.DB.
type Persister struct {
	db     *sql.DB
	schema Schema
	query  string
	log    *logger.Logger
}

// Result is the outcome of Save. Err is nil when the row was committed.
type Result struct {
	URL string
	Err error
}

// OK reports whether the row was committed.
func (r Result) OK() bool { return r.Err == nil }

// NewPersister prepares the INSERT statement for schema once.
func NewPersister(db *sql.DB, schema Schema, dialect Dialect, l *logger.Logger) *Persister {
	if l == nil {
		l = logger.Nop()
	}
	return &Persister{
		db:     db,
		schema: schema,
		query:  schema.insertSQL(dialect),
		log:    l,
	}
}

// Args lays rec out in column order; absent fields become NULL.
func (p *Persister) Args(rec models.Record) []any {
	args := make([]any, len(p.schema.Columns))
	for i, col := range p.schema.Columns {
		args[i] = rec.Get(col)
	}
	return args
}

// Insert writes rec in its own transaction and commits. Errors are returned
// to the caller untouched apart from wrapping.
func (p *Persister) Insert(ctx context.Context, rec models.Record) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, p.query, p.Args(rec)...); err != nil {
		return fmt.Errorf("failed to insert %s: %w", rec.URLString(), err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", rec.URLString(), err)
	}
	return nil
}

// Save is Insert for callers that want to keep going on failure: the error is
// logged with the record URL and handed back inside the Result.
func (p *Persister) Save(ctx context.Context, rec models.Record) Result {
	res := Result{URL: rec.URLString()}
	if err := p.Insert(ctx, rec); err != nil {
		p.log.Error("failed to save record", err, zap.String("url", res.URL))
		res.Err = err
		return res
	}
	p.log.Debug("saved record", zap.String("url", res.URL))
	return res
}
