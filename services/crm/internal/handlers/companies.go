package handlers

import (
	"net/http"
	"strings"

	"github.com/example/crm-platform/internal/platform/api"
	"github.com/example/crm-platform/internal/platform/record"
	"github.com/example/crm-platform/services/crm/internal/store"
)

type companyRequest struct {
	Name          string `json:"name"`
	Industry      string `json:"industry"`
	Website       string `json:"website"`
	EmployeeCount int64  `json:"employee_count"`
}

// ListCompanies handles GET /v1/companies
func ListCompanies(cs *store.CompanyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companies, err := cs.List(r.Context())
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, companies)
	}
}

// GetCompany handles GET /v1/companies/{company_id}
func GetCompany(cs *store.CompanyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "company_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "company_id is required", "", nil)
			return
		}
		c, err := cs.Get(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}

// CreateCompany handles POST /v1/companies
func CreateCompany(cs *store.CompanyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		var req companyRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			api.BadRequest(w, "MISSING_NAME", "name is required", "", nil)
			return
		}
		created, err := cs.Create(record.WithActor(r.Context(), userID), store.Company{
			Name:          req.Name,
			Industry:      req.Industry,
			Website:       req.Website,
			EmployeeCount: req.EmployeeCount,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// UpdateCompany handles PUT /v1/companies/{company_id}
func UpdateCompany(cs *store.CompanyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(r, "company_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "company_id is required", "", nil)
			return
		}
		var req companyRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			api.BadRequest(w, "MISSING_NAME", "name is required", "", nil)
			return
		}
		updated, err := cs.Update(record.WithActor(r.Context(), userID), store.Company{
			ID:            id,
			Name:          req.Name,
			Industry:      req.Industry,
			Website:       req.Website,
			EmployeeCount: req.EmployeeCount,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteCompany handles DELETE /v1/companies/{company_id}
func DeleteCompany(cs *store.CompanyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(r, "company_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "company_id is required", "", nil)
			return
		}
		if err := cs.Delete(record.WithActor(r.Context(), userID), id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
