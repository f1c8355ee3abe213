package store

import (
	"context"
	"fmt"
	"time"

	"github.com/example/crm-platform/internal/platform/record"
)

// DealStage is the pipeline stage of a deal.
type DealStage string

const (
	DealNew         DealStage = "New"
	DealQualified   DealStage = "Qualified"
	DealProposal    DealStage = "Proposal"
	DealNegotiation DealStage = "Negotiation"
	DealWon         DealStage = "Won"
	DealLost        DealStage = "Lost"
)

func ParseDealStage(s string) (DealStage, error) {
	switch DealStage(s) {
	case DealNew, DealQualified, DealProposal, DealNegotiation, DealWon, DealLost:
		return DealStage(s), nil
	default:
		return "", fmt.Errorf("unknown deal stage %q", s)
	}
}

type Deal struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	ContactID  int64     `json:"contact_id,omitempty"`
	Stage      DealStage `json:"stage"`
	Value      int64     `json:"value"`
	CreatedOn  time.Time `json:"created_on"`
	ModifiedOn time.Time `json:"modified_on"`
}

type DealStore struct {
	rs record.Store
}

func NewDealStore(rs record.Store) *DealStore {
	return &DealStore{rs: rs}
}

func dealFromRow(r record.Row) Deal {
	return Deal{
		ID:         r.ID,
		Title:      r.String(fieldTitle),
		ContactID:  r.Int(fieldContactID),
		Stage:      DealStage(r.String(fieldStage)),
		Value:      r.Int(fieldValue),
		CreatedOn:  r.CreatedOn,
		ModifiedOn: r.ModifiedOn,
	}
}

func (d Deal) fields() record.Fields {
	f := record.Fields{
		fieldName:  d.Title,
		fieldTitle: d.Title,
		fieldStage: string(d.Stage),
		fieldValue: d.Value,
	}
	if d.ContactID > 0 {
		f[fieldContactID] = d.ContactID
	}
	return f
}

// List returns deals newest first, optionally filtered by stage.
func (s *DealStore) List(ctx context.Context, stage DealStage) ([]Deal, error) {
	q := record.Query{
		OrderBy: []record.Sort{{Field: record.FieldCreatedOn, Desc: true}},
	}
	if stage != "" {
		q.Where = []record.Filter{record.Eq(fieldStage, string(stage))}
	}
	rows, err := s.rs.Fetch(ctx, TableDeals, q)
	if err != nil {
		return nil, err
	}
	out := make([]Deal, len(rows))
	for i, r := range rows {
		out[i] = dealFromRow(r)
	}
	return out, nil
}

func (s *DealStore) Get(ctx context.Context, id int64) (Deal, error) {
	r, err := s.rs.GetByID(ctx, TableDeals, id)
	if err != nil {
		return Deal{}, err
	}
	return dealFromRow(r), nil
}

func (s *DealStore) Create(ctx context.Context, d Deal) (Deal, error) {
	if d.Stage == "" {
		d.Stage = DealNew
	}
	res, err := s.rs.Create(ctx, TableDeals, []record.Fields{d.fields()})
	row, err := record.One(res, err, TableDeals, "create")
	if err != nil {
		return Deal{}, err
	}
	return dealFromRow(row), nil
}

func (s *DealStore) Update(ctx context.Context, d Deal) (Deal, error) {
	res, err := s.rs.Update(ctx, TableDeals, []record.Change{{ID: d.ID, Fields: d.fields()}})
	row, err := record.One(res, err, TableDeals, "update")
	if err != nil {
		return Deal{}, err
	}
	return dealFromRow(row), nil
}

// UpdateStage moves a deal along the pipeline without touching other fields.
func (s *DealStore) UpdateStage(ctx context.Context, id int64, stage DealStage) (Deal, error) {
	res, err := s.rs.Update(ctx, TableDeals, []record.Change{{
		ID:     id,
		Fields: record.Fields{fieldStage: string(stage)},
	}})
	row, err := record.One(res, err, TableDeals, "update")
	if err != nil {
		return Deal{}, err
	}
	return dealFromRow(row), nil
}

func (s *DealStore) Delete(ctx context.Context, id int64) error {
	res, err := s.rs.Delete(ctx, TableDeals, []int64{id})
	_, err = record.One(res, err, TableDeals, "delete")
	return err
}
