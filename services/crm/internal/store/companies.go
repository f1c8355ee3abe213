package store

import (
	"context"
	"time"

	"github.com/example/crm-platform/internal/platform/record"
)

type Company struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Industry      string    `json:"industry,omitempty"`
	Website       string    `json:"website,omitempty"`
	EmployeeCount int64     `json:"employee_count,omitempty"`
	CreatedOn     time.Time `json:"created_on"`
	ModifiedOn    time.Time `json:"modified_on"`
}

type CompanyStore struct {
	rs record.Store
}

func NewCompanyStore(rs record.Store) *CompanyStore {
	return &CompanyStore{rs: rs}
}

func companyFromRow(r record.Row) Company {
	return Company{
		ID:            r.ID,
		Name:          r.String(fieldName),
		Industry:      r.String(fieldIndustry),
		Website:       r.String(fieldWebsite),
		EmployeeCount: r.Int(fieldEmployeeCount),
		CreatedOn:     r.CreatedOn,
		ModifiedOn:    r.ModifiedOn,
	}
}

func (c Company) fields() record.Fields {
	return record.Fields{
		fieldName:          c.Name,
		fieldIndustry:      c.Industry,
		fieldWebsite:       c.Website,
		fieldEmployeeCount: c.EmployeeCount,
	}
}

func (s *CompanyStore) List(ctx context.Context) ([]Company, error) {
	rows, err := s.rs.Fetch(ctx, TableCompanies, record.Query{
		OrderBy: []record.Sort{{Field: fieldName}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]Company, len(rows))
	for i, r := range rows {
		out[i] = companyFromRow(r)
	}
	return out, nil
}

func (s *CompanyStore) Get(ctx context.Context, id int64) (Company, error) {
	r, err := s.rs.GetByID(ctx, TableCompanies, id)
	if err != nil {
		return Company{}, err
	}
	return companyFromRow(r), nil
}

func (s *CompanyStore) Create(ctx context.Context, c Company) (Company, error) {
	res, err := s.rs.Create(ctx, TableCompanies, []record.Fields{c.fields()})
	row, err := record.One(res, err, TableCompanies, "create")
	if err != nil {
		return Company{}, err
	}
	return companyFromRow(row), nil
}

func (s *CompanyStore) Update(ctx context.Context, c Company) (Company, error) {
	res, err := s.rs.Update(ctx, TableCompanies, []record.Change{{ID: c.ID, Fields: c.fields()}})
	row, err := record.One(res, err, TableCompanies, "update")
	if err != nil {
		return Company{}, err
	}
	return companyFromRow(row), nil
}

func (s *CompanyStore) Delete(ctx context.Context, id int64) error {
	res, err := s.rs.Delete(ctx, TableCompanies, []int64{id})
	_, err = record.One(res, err, TableCompanies, "delete")
	return err
}
