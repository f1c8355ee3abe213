package record

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores every table as rows of one generic JSONB-backed relation.
// The store mirrors the vendor contract: auto-increment integer ids, audit
// columns stamped server-side, no cross-table transactions exposed.
type Postgres struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE SEQUENCE IF NOT EXISTS records_id_seq;
CREATE TABLE IF NOT EXISTS records (
	tbl         text        NOT NULL,
	id          bigint      NOT NULL DEFAULT nextval('records_id_seq'),
	fields      jsonb       NOT NULL DEFAULT '{}'::jsonb,
	created_on  timestamptz NOT NULL DEFAULT now(),
	created_by  bigint      NOT NULL DEFAULT 0,
	modified_on timestamptz NOT NULL DEFAULT now(),
	modified_by bigint      NOT NULL DEFAULT 0,
	PRIMARY KEY (tbl, id)
);
CREATE INDEX IF NOT EXISTS records_fields_idx ON records USING gin (fields);
`

// OpenPostgres connects a pool with safe defaults and verifies it.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the backing relation if it does not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Postgres) Close() {
	s.pool.Close()
}

const rowColumns = "id, fields, created_on, created_by, modified_on, modified_by"

func (s *Postgres) Fetch(ctx context.Context, table string, q Query) ([]Row, error) {
	var sb strings.Builder
	args := []any{table}
	sb.WriteString("SELECT " + rowColumns + " FROM records WHERE tbl = $1")

	for _, f := range q.Where {
		cond, condArgs, err := compileFilter(f, len(args))
		if err != nil {
			return nil, err
		}
		sb.WriteString(" AND " + cond)
		args = append(args, condArgs...)
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(compileOrder(q.OrderBy))

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		if len(q.Fields) > 0 {
			r.Fields = project(r.Fields, q.Fields)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Postgres) GetByID(ctx context.Context, table string, id int64) (Row, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+rowColumns+" FROM records WHERE tbl = $1 AND id = $2", table, id)
	r, err := scanRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrNotFound
	}
	return r, err
}

func (s *Postgres) Create(ctx context.Context, table string, records []Fields) (WriteResult, error) {
	actor := ActorFromContext(ctx)
	res := WriteResult{OK: true}
	for _, f := range records {
		row := s.pool.QueryRow(ctx,
			`INSERT INTO records (tbl, fields, created_by, modified_by)
			 VALUES ($1, $2, $3, $3)
			 RETURNING `+rowColumns, table, f, actor)
		r, err := scanRow(row)
		if err != nil {
			if transportErr(ctx, err) {
				return WriteResult{}, err
			}
			res.Results = append(res.Results, RowResult{Message: err.Error()})
			continue
		}
		res.Results = append(res.Results, RowResult{OK: true, Row: r})
	}
	return res, nil
}

func (s *Postgres) Update(ctx context.Context, table string, records []Change) (WriteResult, error) {
	actor := ActorFromContext(ctx)
	res := WriteResult{OK: true}
	for _, ch := range records {
		row := s.pool.QueryRow(ctx,
			`UPDATE records
			 SET fields = fields || $3, modified_on = now(), modified_by = $4
			 WHERE tbl = $1 AND id = $2
			 RETURNING `+rowColumns, table, ch.ID, ch.Fields, actor)
		r, err := scanRow(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				res.Results = append(res.Results, RowResult{Row: Row{ID: ch.ID}, Message: fmt.Sprintf("record %d does not exist", ch.ID)})
				continue
			}
			if transportErr(ctx, err) {
				return WriteResult{}, err
			}
			res.Results = append(res.Results, RowResult{Row: Row{ID: ch.ID}, Message: err.Error()})
			continue
		}
		res.Results = append(res.Results, RowResult{OK: true, Row: r})
	}
	return res, nil
}

func (s *Postgres) Delete(ctx context.Context, table string, ids []int64) (WriteResult, error) {
	res := WriteResult{OK: true}
	for _, id := range ids {
		tag, err := s.pool.Exec(ctx, "DELETE FROM records WHERE tbl = $1 AND id = $2", table, id)
		if err != nil {
			if transportErr(ctx, err) {
				return WriteResult{}, err
			}
			res.Results = append(res.Results, RowResult{Row: Row{ID: id}, Message: err.Error()})
			continue
		}
		if tag.RowsAffected() == 0 {
			res.Results = append(res.Results, RowResult{Row: Row{ID: id}, Message: fmt.Sprintf("record %d does not exist", id)})
			continue
		}
		res.Results = append(res.Results, RowResult{OK: true, Row: Row{ID: id}})
	}
	return res, nil
}

func scanRow(row pgx.Row) (Row, error) {
	var r Row
	var fields map[string]any
	if err := row.Scan(&r.ID, &fields, &r.CreatedOn, &r.CreatedBy, &r.ModifiedOn, &r.ModifiedBy); err != nil {
		return Row{}, err
	}
	r.Fields = Fields(fields)
	if r.Fields == nil {
		r.Fields = Fields{}
	}
	return r, nil
}

// compileFilter renders one condition. Payload fields live inside the JSONB
// document, so numeric comparisons need an explicit cast; audit fields map
// straight to columns.
func compileFilter(f Filter, argOffset int) (string, []any, error) {
	if len(f.Values) == 0 {
		return "", nil, fmt.Errorf("filter on %q has no values", f.Field)
	}

	expr, numeric := fieldExpr(f.Field, f.Values[0])

	ph := func(i int) string { return fmt.Sprintf("$%d", argOffset+i+1) }

	switch f.Op {
	case EqualTo:
		return fmt.Sprintf("%s = %s", expr, cast(ph(0), numeric)), f.Values[:1], nil
	case NotEqualTo:
		return fmt.Sprintf("%s <> %s", expr, cast(ph(0), numeric)), f.Values[:1], nil
	case Contains:
		return fmt.Sprintf("%s ILIKE '%%' || %s || '%%'", expr, ph(0)), f.Values[:1], nil
	case In:
		terms := make([]string, len(f.Values))
		for i := range f.Values {
			terms[i] = fmt.Sprintf("%s = %s", expr, cast(ph(i), numeric))
		}
		return "(" + strings.Join(terms, " OR ") + ")", f.Values, nil
	default:
		return "", nil, fmt.Errorf("unsupported filter operator %q", f.Op)
	}
}

func cast(placeholder string, numeric bool) string {
	if numeric {
		return placeholder + "::numeric"
	}
	return placeholder + "::text"
}

// fieldExpr maps a field name to a SQL expression and reports whether the
// comparison should be numeric, judged from the probe value.
func fieldExpr(name string, probe any) (string, bool) {
	switch name {
	case FieldID:
		return "id", true
	case FieldCreatedOn:
		return "created_on", false
	case FieldCreatedBy:
		return "created_by", true
	case FieldModifiedOn:
		return "modified_on", false
	case FieldModifiedBy:
		return "modified_by", true
	}
	_, numeric := asNumber(probe)
	if _, isString := probe.(string); isString {
		numeric = false
	}
	if numeric {
		return fmt.Sprintf("(fields->>%s)::numeric", quoteLiteral(name)), true
	}
	return fmt.Sprintf("fields->>%s", quoteLiteral(name)), false
}

func compileOrder(orderBy []Sort) string {
	if len(orderBy) == 0 {
		orderBy = []Sort{{Field: FieldID}}
	}
	terms := make([]string, 0, len(orderBy)+1)
	for _, o := range orderBy {
		expr, _ := fieldExpr(o.Field, nil)
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		terms = append(terms, expr+" "+dir)
	}
	// Deterministic tiebreak in the direction of the first term.
	if orderBy[0].Desc {
		terms = append(terms, "id DESC")
	} else {
		terms = append(terms, "id ASC")
	}
	return strings.Join(terms, ", ")
}

// quoteLiteral embeds a field name as a SQL string literal. Field names come
// from compiled-in table definitions, never from request input, but quoting
// keeps the invariant local.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func transportErr(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
