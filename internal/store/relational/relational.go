// Package relational provides the relational collaborator used by sql
// blocks, implemented on database/sql
package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	// default driver
	_ "modernc.org/sqlite"
)

type (
	// Querier runs statements against the store or an open transaction
	Querier interface {
		Query(
			ctx context.Context, query string, params []any,
		) ([]map[string]any, error)
		Exec(ctx context.Context, query string, params []any) (int64, error)
		Procedure(
			ctx context.Context, name string, params []any,
		) (*ProcedureResult, error)
	}

	// Store is the relational collaborator interface
	Store interface {
		Querier
		Begin(ctx context.Context) (Tx, error)
	}

	// Tx is an open transaction
	Tx interface {
		Querier
		Commit() error
		Rollback() error
	}

	// ProcedureResult holds the rows and output values of a procedure call
	ProcedureResult struct {
		Result []map[string]any
		Output map[string]any
	}

	// SQLStore implements Store on a database/sql handle
	SQLStore struct {
		db *sql.DB
	}

	sqlTx struct {
		tx *sql.Tx
	}

	runner interface {
		QueryContext(context.Context, string, ...any) (*sql.Rows, error)
		ExecContext(context.Context, string, ...any) (sql.Result, error)
	}
)

// DefaultDriver is the database/sql driver name used when none is set
const DefaultDriver = "sqlite"

var (
	ErrQuery         = errors.New("query failed")
	ErrExec          = errors.New("statement failed")
	ErrProcedure     = errors.New("procedure call failed")
	ErrProcedureName = errors.New("invalid procedure name")
	ErrOpen          = errors.New("failed to open database")
)

var (
	_ Store = (*SQLStore)(nil)
	_ Tx    = (*sqlTx)(nil)
)

// NewSQL wraps an open database handle
func NewSQL(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Open opens and pings a database with the given driver and DSN
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	return NewSQL(db), nil
}

// Close closes the underlying handle
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Query(
	ctx context.Context, query string, params []any,
) ([]map[string]any, error) {
	return queryRows(ctx, s.db, query, params)
}

func (s *SQLStore) Exec(
	ctx context.Context, query string, params []any,
) (int64, error) {
	return execStatement(ctx, s.db, query, params)
}

func (s *SQLStore) Procedure(
	ctx context.Context, name string, params []any,
) (*ProcedureResult, error) {
	return callProcedure(ctx, s.db, name, params)
}

// Begin opens a transaction
func (s *SQLStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExec, err)
	}
	return &sqlTx{tx: tx}, nil
}

func (t *sqlTx) Query(
	ctx context.Context, query string, params []any,
) ([]map[string]any, error) {
	return queryRows(ctx, t.tx, query, params)
}

func (t *sqlTx) Exec(
	ctx context.Context, query string, params []any,
) (int64, error) {
	return execStatement(ctx, t.tx, query, params)
}

func (t *sqlTx) Procedure(
	ctx context.Context, name string, params []any,
) (*ProcedureResult, error) {
	return callProcedure(ctx, t.tx, name, params)
}

func (t *sqlTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func queryRows(
	ctx context.Context, r runner, query string, params []any,
) ([]map[string]any, error) {
	rows, err := r.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	res := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQuery, err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalizeColumn(vals[i])
		}
		res = append(res, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return res, nil
}

func execStatement(
	ctx context.Context, r runner, query string, params []any,
) (int64, error) {
	res, err := r.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExec, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExec, err)
	}
	return n, nil
}

func callProcedure(
	ctx context.Context, r runner, name string, params []any,
) (*ProcedureResult, error) {
	if !validProcedureName(name) {
		return nil, fmt.Errorf("%w: %q", ErrProcedureName, name)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
	query := fmt.Sprintf("CALL %s(%s)", name, marks)

	rows, err := queryRows(ctx, r, query, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProcedure, err)
	}
	out := map[string]any{}
	if len(rows) > 0 {
		out = rows[len(rows)-1]
	}
	return &ProcedureResult{Result: rows, Output: out}, nil
}

func validProcedureName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

func normalizeColumn(v any) any {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return v
	}
}
