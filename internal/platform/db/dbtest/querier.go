// Package dbtest provides a scripted db.Querier for repository tests. It
// records every statement and replays canned rows and errors.
package dbtest

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Call is one statement sent to the Querier.
type Call struct {
	SQL  string
	Args []any
}

// Querier replays Rows for Query, Row for QueryRow and Tag for Exec. A nil
// Row makes QueryRow report pgx.ErrNoRows. Err, when set, fails Query and
// Exec.
type Querier struct {
	Calls []Call
	Rows  [][]any
	Row   []any
	Tag   string
	Err   error
}

func (q *Querier) record(sql string, args []any) {
	q.Calls = append(q.Calls, Call{SQL: sql, Args: args})
}

// Last returns the most recent call. It panics when nothing was sent.
func (q *Querier) Last() Call {
	return q.Calls[len(q.Calls)-1]
}

func (q *Querier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.record(sql, args)
	if q.Err != nil {
		return nil, q.Err
	}
	return &rows{data: q.Rows, pos: -1}, nil
}

func (q *Querier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.record(sql, args)
	if q.Row == nil {
		return row{err: pgx.ErrNoRows}
	}
	return row{values: q.Row}
}

func (q *Querier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.record(sql, args)
	if q.Err != nil {
		return pgconn.CommandTag{}, q.Err
	}
	return pgconn.NewCommandTag(q.Tag), nil
}

type row struct {
	values []any
	err    error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

// rows implements the parts of pgx.Rows the repositories touch. The embedded
// interface is nil, so any other method panics.
type rows struct {
	pgx.Rows
	data [][]any
	pos  int
}

func (r *rows) Next() bool {
	r.pos++
	return r.pos < len(r.data)
}

func (r *rows) Scan(dest ...any) error { return assign(dest, r.data[r.pos]) }
func (r *rows) Close()                 {}
func (r *rows) Err() error             { return nil }

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("dbtest: %d columns scanned into %d targets", len(values), len(dest))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("dbtest: target %d is not a pointer", i)
		}
		elem := target.Elem()
		if values[i] == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		v := reflect.ValueOf(values[i])
		if !v.Type().ConvertibleTo(elem.Type()) {
			return fmt.Errorf("dbtest: column %d: cannot scan %s into %s", i, v.Type(), elem.Type())
		}
		elem.Set(v.Convert(elem.Type()))
	}
	return nil
}
