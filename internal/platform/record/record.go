// Package record models the external record store: an opaque table store of
// rows indexed by an auto-increment integer Id, queried with field
// projections, filters and sort orders. Every write reports two independent
// success signals, the outer call flag and a per-row flag; a row counts as
// committed only when both are set.
//
// Two implementations exist: Memory (development fallback and test double)
// and Postgres (a generic JSONB row store).
package record

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Audit field names addressable in filters and sort orders alongside the
// per-table payload fields.
const (
	FieldID         = "Id"
	FieldCreatedOn  = "CreatedOn"
	FieldCreatedBy  = "CreatedBy"
	FieldModifiedOn = "ModifiedOn"
	FieldModifiedBy = "ModifiedBy"
)

// Fields is the payload of one row, keyed by table field name.
type Fields map[string]any

// Row is one stored record. Audit fields are assigned by the store.
type Row struct {
	ID         int64
	Fields     Fields
	CreatedOn  time.Time
	CreatedBy  int64
	ModifiedOn time.Time
	ModifiedBy int64
}

// Int reads a field as an integer id. Postgres JSONB round-trips numbers as
// float64, so both representations are accepted.
func (r Row) Int(field string) int64 {
	switch v := r.Fields[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n
	default:
		return 0
	}
}

// String reads a field as a string; non-string values render via fmt.
func (r Row) String(field string) string {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool reads a field as a boolean.
func (r Row) Bool(field string) bool {
	b, _ := r.Fields[field].(bool)
	return b
}

// Op enumerates the filter operators the store supports.
type Op string

const (
	EqualTo    Op = "EqualTo"
	NotEqualTo Op = "NotEqualTo"
	Contains   Op = "Contains"
	In         Op = "In"
)

// Filter is one where-condition; conditions in a Query are ANDed.
type Filter struct {
	Field  string
	Op     Op
	Values []any
}

// Sort is one order-by term.
type Sort struct {
	Field string
	Desc  bool
}

// Query shapes a Fetch: projection, conditions, ordering, limit.
// An empty Fields slice selects everything.
type Query struct {
	Fields  []string
	Where   []Filter
	OrderBy []Sort
	Limit   int
}

// Eq is shorthand for a single-value equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: EqualTo, Values: []any{value}}
}

// RowResult is the per-row outcome of a bulk write.
type RowResult struct {
	OK      bool
	Row     Row
	Message string
}

// WriteResult carries the dual success signal of a write call.
type WriteResult struct {
	OK      bool
	Results []RowResult
}

// Committed returns the rows for which both the outer flag and the per-row
// flag are set.
func (r WriteResult) Committed() []Row {
	if !r.OK {
		return nil
	}
	var out []Row
	for _, res := range r.Results {
		if res.OK {
			out = append(out, res.Row)
		}
	}
	return out
}

// Failed returns the per-row failures, regardless of the outer flag.
func (r WriteResult) Failed() []RowResult {
	var out []RowResult
	for _, res := range r.Results {
		if !res.OK {
			out = append(out, res)
		}
	}
	return out
}

// Change addresses one row in a bulk update.
type Change struct {
	ID     int64
	Fields Fields
}

// Store is the record store contract. Implementations must treat each call
// independently; there are no cross-call or cross-table transactions.
type Store interface {
	Fetch(ctx context.Context, table string, q Query) ([]Row, error)
	GetByID(ctx context.Context, table string, id int64) (Row, error)
	Create(ctx context.Context, table string, records []Fields) (WriteResult, error)
	Update(ctx context.Context, table string, records []Change) (WriteResult, error)
	Delete(ctx context.Context, table string, ids []int64) (WriteResult, error)
}

// ErrNotFound reports a missing row from GetByID.
var ErrNotFound = errors.New("record not found")

// WriteError reports rows that failed inside an otherwise-accepted write
// call (the PartialWriteFailure case collapsed to an error for single-row
// operations).
type WriteError struct {
	Table    string
	Op       string
	Messages []string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Table, strings.Join(e.Messages, "; "))
}

// One collapses a single-record write to (row, error): transport errors pass
// through, a rejected or failed row becomes a *WriteError.
func One(res WriteResult, err error, table, op string) (Row, error) {
	if err != nil {
		return Row{}, fmt.Errorf("%s %s: %w", op, table, err)
	}
	rows := res.Committed()
	if len(rows) == 1 {
		return rows[0], nil
	}
	we := &WriteError{Table: table, Op: op}
	for _, f := range res.Failed() {
		we.Messages = append(we.Messages, f.Message)
	}
	if len(we.Messages) == 0 {
		we.Messages = []string{"rejected by store"}
	}
	return Row{}, we
}

type ctxKeyActor struct{}

// WithActor records the acting user so stores can stamp CreatedBy/ModifiedBy.
func WithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKeyActor{}, userID)
}

// ActorFromContext returns the acting user id, zero when absent.
func ActorFromContext(ctx context.Context) int64 {
	v, _ := ctx.Value(ctxKeyActor{}).(int64)
	return v
}
