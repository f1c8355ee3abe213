package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/crm-platform/internal/platform/record"
)

// LifecycleStage tracks where a contact sits in the funnel.
type LifecycleStage string

const (
	StageLead       LifecycleStage = "Lead"
	StageProspect   LifecycleStage = "Prospect"
	StageCustomer   LifecycleStage = "Customer"
	StageEvangelist LifecycleStage = "Evangelist"
)

func ParseLifecycleStage(s string) (LifecycleStage, error) {
	switch LifecycleStage(s) {
	case StageLead, StageProspect, StageCustomer, StageEvangelist:
		return LifecycleStage(s), nil
	default:
		return "", fmt.Errorf("unknown lifecycle stage %q", s)
	}
}

type Contact struct {
	ID             int64          `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Email          string         `json:"email,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	CompanyID      int64          `json:"company_id,omitempty"`
	LifecycleStage LifecycleStage `json:"lifecycle_stage,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	CreatedOn      time.Time      `json:"created_on"`
	ModifiedOn     time.Time      `json:"modified_on"`
}

type ContactStore struct {
	rs record.Store
}

func NewContactStore(rs record.Store) *ContactStore {
	return &ContactStore{rs: rs}
}

func contactFromRow(r record.Row) Contact {
	return Contact{
		ID:             r.ID,
		FirstName:      r.String(fieldFirstName),
		LastName:       r.String(fieldLastName),
		Email:          r.String(fieldEmail),
		Phone:          r.String(fieldPhone),
		CompanyID:      r.Int(fieldCompanyID),
		LifecycleStage: LifecycleStage(r.String(fieldLifecycleStage)),
		Notes:          r.String(fieldNotes),
		CreatedOn:      r.CreatedOn,
		ModifiedOn:     r.ModifiedOn,
	}
}

func (c Contact) fields() record.Fields {
	f := record.Fields{
		fieldName:      strings.TrimSpace(c.FirstName + " " + c.LastName),
		fieldFirstName: c.FirstName,
		fieldLastName:  c.LastName,
		fieldEmail:     c.Email,
		fieldPhone:     c.Phone,
		fieldNotes:     c.Notes,
	}
	if c.CompanyID > 0 {
		f[fieldCompanyID] = c.CompanyID
	}
	if c.LifecycleStage != "" {
		f[fieldLifecycleStage] = string(c.LifecycleStage)
	}
	return f
}

// List returns contacts newest first, optionally filtered by company.
func (s *ContactStore) List(ctx context.Context, companyID int64) ([]Contact, error) {
	q := record.Query{
		OrderBy: []record.Sort{{Field: record.FieldCreatedOn, Desc: true}},
	}
	if companyID > 0 {
		q.Where = []record.Filter{record.Eq(fieldCompanyID, companyID)}
	}
	rows, err := s.rs.Fetch(ctx, TableContacts, q)
	if err != nil {
		return nil, err
	}
	out := make([]Contact, len(rows))
	for i, r := range rows {
		out[i] = contactFromRow(r)
	}
	return out, nil
}

func (s *ContactStore) Get(ctx context.Context, id int64) (Contact, error) {
	r, err := s.rs.GetByID(ctx, TableContacts, id)
	if err != nil {
		return Contact{}, err
	}
	return contactFromRow(r), nil
}

func (s *ContactStore) Create(ctx context.Context, c Contact) (Contact, error) {
	res, err := s.rs.Create(ctx, TableContacts, []record.Fields{c.fields()})
	row, err := record.One(res, err, TableContacts, "create")
	if err != nil {
		return Contact{}, err
	}
	return contactFromRow(row), nil
}

func (s *ContactStore) Update(ctx context.Context, c Contact) (Contact, error) {
	res, err := s.rs.Update(ctx, TableContacts, []record.Change{{ID: c.ID, Fields: c.fields()}})
	row, err := record.One(res, err, TableContacts, "update")
	if err != nil {
		return Contact{}, err
	}
	return contactFromRow(row), nil
}

func (s *ContactStore) Delete(ctx context.Context, id int64) error {
	res, err := s.rs.Delete(ctx, TableContacts, []int64{id})
	_, err = record.One(res, err, TableContacts, "delete")
	return err
}

// DeleteBulk removes many contacts in one store call and returns the ids
// that were actually deleted; missing ids are reported, not fatal.
func (s *ContactStore) DeleteBulk(ctx context.Context, ids []int64) (deleted []int64, failed []int64, err error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}
	res, err := s.rs.Delete(ctx, TableContacts, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("delete %s: %w", TableContacts, err)
	}
	for _, rr := range res.Results {
		if rr.OK {
			deleted = append(deleted, rr.Row.ID)
		} else {
			failed = append(failed, rr.Row.ID)
		}
	}
	return deleted, failed, nil
}

// UpdateStageBulk moves many contacts to the same lifecycle stage.
func (s *ContactStore) UpdateStageBulk(ctx context.Context, ids []int64, stage LifecycleStage) (updated []Contact, failed []int64, err error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}
	changes := make([]record.Change, len(ids))
	for i, id := range ids {
		changes[i] = record.Change{ID: id, Fields: record.Fields{fieldLifecycleStage: string(stage)}}
	}
	res, err := s.rs.Update(ctx, TableContacts, changes)
	if err != nil {
		return nil, nil, fmt.Errorf("update %s: %w", TableContacts, err)
	}
	for _, rr := range res.Results {
		if rr.OK {
			updated = append(updated, contactFromRow(rr.Row))
		} else {
			failed = append(failed, rr.Row.ID)
		}
	}
	return updated, failed, nil
}
