package record

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Memory is a mutex-guarded in-memory Store. It is the development fallback
// when DATABASE_URL is unset and the test double everywhere else.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*memTable
	clock  func() time.Time
}

type memTable struct {
	nextID int64
	rows   map[int64]Row
}

func NewMemory() *Memory {
	return &Memory{
		tables: make(map[string]*memTable),
		clock:  time.Now,
	}
}

func (m *Memory) table(name string) *memTable {
	t, ok := m.tables[name]
	if !ok {
		t = &memTable{nextID: 1, rows: make(map[int64]Row)}
		m.tables[name] = t
	}
	return t
}

func (m *Memory) Fetch(_ context.Context, table string, q Query) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[table]
	if !ok {
		return []Row{}, nil
	}

	var out []Row
	for _, r := range t.rows {
		if matchAll(r, q.Where) {
			out = append(out, cloneRow(r))
		}
	}

	sortRows(out, q.OrderBy)

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if len(q.Fields) > 0 {
		for i := range out {
			out[i].Fields = project(out[i].Fields, q.Fields)
		}
	}
	if out == nil {
		out = []Row{}
	}
	return out, nil
}

func (m *Memory) GetByID(_ context.Context, table string, id int64) (Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[table]
	if !ok {
		return Row{}, ErrNotFound
	}
	r, ok := t.rows[id]
	if !ok {
		return Row{}, ErrNotFound
	}
	return cloneRow(r), nil
}

func (m *Memory) Create(ctx context.Context, table string, records []Fields) (WriteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	actor := ActorFromContext(ctx)
	res := WriteResult{OK: true}
	for _, f := range records {
		now := m.clock()
		r := Row{
			ID:         t.nextID,
			Fields:     cloneFields(f),
			CreatedOn:  now,
			CreatedBy:  actor,
			ModifiedOn: now,
			ModifiedBy: actor,
		}
		t.nextID++
		t.rows[r.ID] = r
		res.Results = append(res.Results, RowResult{OK: true, Row: cloneRow(r)})
	}
	return res, nil
}

func (m *Memory) Update(ctx context.Context, table string, records []Change) (WriteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	actor := ActorFromContext(ctx)
	res := WriteResult{OK: true}
	for _, ch := range records {
		r, ok := t.rows[ch.ID]
		if !ok {
			res.Results = append(res.Results, RowResult{Row: Row{ID: ch.ID}, Message: fmt.Sprintf("record %d does not exist", ch.ID)})
			continue
		}
		for k, v := range ch.Fields {
			r.Fields[k] = v
		}
		r.ModifiedOn = m.clock()
		r.ModifiedBy = actor
		t.rows[ch.ID] = r
		res.Results = append(res.Results, RowResult{OK: true, Row: cloneRow(r)})
	}
	return res, nil
}

func (m *Memory) Delete(_ context.Context, table string, ids []int64) (WriteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	res := WriteResult{OK: true}
	for _, id := range ids {
		r, ok := t.rows[id]
		if !ok {
			res.Results = append(res.Results, RowResult{Row: Row{ID: id}, Message: fmt.Sprintf("record %d does not exist", id)})
			continue
		}
		delete(t.rows, id)
		res.Results = append(res.Results, RowResult{OK: true, Row: cloneRow(r)})
	}
	return res, nil
}

func cloneFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func cloneRow(r Row) Row {
	r.Fields = cloneFields(r.Fields)
	return r
}

func project(f Fields, names []string) Fields {
	out := make(Fields, len(names))
	for _, n := range names {
		if v, ok := f[n]; ok {
			out[n] = v
		}
	}
	return out
}

func matchAll(r Row, where []Filter) bool {
	for _, f := range where {
		if !match(r, f) {
			return false
		}
	}
	return true
}

func match(r Row, f Filter) bool {
	got := fieldValue(r, f.Field)
	switch f.Op {
	case EqualTo:
		return len(f.Values) > 0 && equalValues(got, f.Values[0])
	case NotEqualTo:
		return len(f.Values) > 0 && !equalValues(got, f.Values[0])
	case In:
		for _, v := range f.Values {
			if equalValues(got, v) {
				return true
			}
		}
		return false
	case Contains:
		if len(f.Values) == 0 {
			return false
		}
		return strings.Contains(strings.ToLower(asString(got)), strings.ToLower(asString(f.Values[0])))
	default:
		return false
	}
}

func fieldValue(r Row, name string) any {
	switch name {
	case FieldID:
		return r.ID
	case FieldCreatedOn:
		return r.CreatedOn
	case FieldCreatedBy:
		return r.CreatedBy
	case FieldModifiedOn:
		return r.ModifiedOn
	case FieldModifiedBy:
		return r.ModifiedBy
	default:
		return r.Fields[name]
	}
}

// equalValues compares loosely: numeric values compare as numbers regardless
// of their Go type, everything else as strings.
func equalValues(a, b any) bool {
	if an, aok := asNumber(a); aok {
		if bn, bok := asNumber(b); bok {
			return an == bn
		}
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			return at.Equal(bt)
		}
	}
	return asString(a) == asString(b)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func sortRows(rows []Row, orderBy []Sort) {
	if len(orderBy) == 0 {
		orderBy = []Sort{{Field: FieldID}}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orderBy {
			c := compareValues(fieldValue(rows[i], o.Field), fieldValue(rows[j], o.Field))
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		// Tiebreak on id in the direction of the first sort term so equal
		// timestamps still order deterministically.
		if orderBy[0].Desc {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].ID < rows[j].ID
	})
}

func compareValues(a, b any) int {
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	if an, aok := asNumber(a); aok {
		if bn, bok := asNumber(b); bok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(asString(a), asString(b))
}
