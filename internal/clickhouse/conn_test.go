package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// fakeConn answers queries from canned rows. Values must carry the Go type
// clickhouse-go produces for the result column, and scanning into any other
// type fails the way the driver does.
type fakeConn struct {
	driver.Conn
	results map[string][][]any
}

func (c *fakeConn) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	rows, ok := c.results[query]
	if !ok {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	return &fakeRows{rows: rows, pos: -1}, nil
}

func (c *fakeConn) QueryRow(ctx context.Context, query string, args ...any) driver.Row {
	rows, ok := c.results[query]
	if !ok {
		return &fakeRow{err: fmt.Errorf("unexpected query: %s", query)}
	}
	if len(rows) == 0 {
		return &fakeRow{err: sql.ErrNoRows}
	}
	return &fakeRow{values: rows[0]}
}

type fakeRows struct {
	driver.Rows
	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error { return assign(dest, r.rows[r.pos]) }
func (r *fakeRows) Err() error             { return nil }
func (r *fakeRows) Close() error           { return nil }

type fakeRow struct {
	driver.Row
	values []any
	err    error
}

func (r *fakeRow) Err() error { return r.err }

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(values), len(dest))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("scan destination %d is not a pointer", i)
		}
		v := reflect.ValueOf(values[i])
		if !v.IsValid() || v.Type() != dv.Elem().Type() {
			return fmt.Errorf("converting %T to %s is unsupported", values[i], dv.Elem().Type())
		}
		dv.Elem().Set(v)
	}
	return nil
}
