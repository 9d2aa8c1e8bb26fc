package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DBTX is satisfied by *sql.Conn and *sql.DB.  Handlers pass the
// connection they acquired for the request.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Resource implements list/get/insert/update/delete for one Table.  It is
// stateless; every call runs on the connection it is given.
type Resource struct {
	table Table
}

func NewResource(t Table) *Resource { return &Resource{table: t} }

// Table returns the descriptor the resource was built from.
func (r *Resource) Table() Table { return r.table }

// List returns every row ordered by key.  ErrNotFound when the table is empty.
func (r *Resource) List(ctx context.Context, q DBTX) ([]Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		r.table.selectList(), r.table.Name, r.table.Key.Name)
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// Get returns the row with the given key or ErrNotFound.
func (r *Resource) Get(ctx context.Context, q DBTX, id int64) (Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		r.table.selectList(), r.table.Name, r.table.Key.Name)
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	row, err := r.scan(rows)
	if err != nil {
		return nil, err
	}
	return row, rows.Err()
}

// Insert writes a new row from whitelisted fields and returns its key.
// Duplicate keys surface as ErrConflict; any other failure is rolled back
// and reported as ErrInternal.
func (r *Resource) Insert(ctx context.Context, q DBTX, fields map[string]any) (int64, error) {
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: no data provided", ErrValidation)
	}
	for _, f := range r.table.Required {
		if v, ok := fields[f]; !ok || v == nil {
			return 0, fmt.Errorf("%w: %s is required", ErrValidation, f)
		}
	}
	names, args, err := r.table.writeSet(fields)
	if err != nil {
		return 0, err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.table.Name, strings.Join(names, ", "), placeholders)

	var id int64
	err = inTx(ctx, q, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, writeError("insert into "+r.table.Name, err)
	}
	return id, nil
}

// Update sets exactly the whitelisted fields on the row with the given key.
// An empty field set is rejected.  Zero affected rows is ErrNotFound.
func (r *Resource) Update(ctx context.Context, q DBTX, id int64, fields map[string]any) (int64, error) {
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: no data provided", ErrValidation)
	}
	names, args, err := r.table.writeSet(fields)
	if err != nil {
		return 0, err
	}
	sets := make([]string, 0, len(names))
	for _, n := range names {
		sets = append(sets, n+" = ?")
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		r.table.Name, strings.Join(sets, ", "), r.table.Key.Name)
	args = append(args, id)

	var affected int64
	err = inTx(ctx, q, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, writeError("update "+r.table.Name, err)
	}
	if affected == 0 {
		return 0, ErrNotFound
	}
	return affected, nil
}

// Delete removes the row with the given key.  Zero affected rows is
// ErrNotFound.
func (r *Resource) Delete(ctx context.Context, q DBTX, id int64) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", r.table.Name, r.table.Key.Name)
	res, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

func (r *Resource) scan(rows *sql.Rows) (Row, error) {
	cols := r.table.projection()
	holders := make([]any, len(cols))
	for i, c := range cols {
		holders[i] = c.scanTarget()
	}
	if err := rows.Scan(holders...); err != nil {
		return nil, err
	}
	row := make(Row, len(cols))
	for i, c := range cols {
		row[c.Field] = valueOf(holders[i])
	}
	return row, nil
}

// inTx runs fn in a transaction, rolling back on error or panic.
func inTx(ctx context.Context, q DBTX, fn func(tx *sql.Tx) error) (err error) {
	tx, err := q.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func writeError(op string, err error) error {
	if isDuplicate(err) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrInternal, err)
}
