package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/example/crm-platform/internal/platform/api"
	"github.com/example/crm-platform/internal/platform/record"
	"github.com/example/crm-platform/services/crm/internal/store"
)

type contactRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	CompanyID      int64  `json:"company_id"`
	LifecycleStage string `json:"lifecycle_stage"`
	Notes          string `json:"notes"`
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

type bulkStageRequest struct {
	IDs   []int64 `json:"ids"`
	Stage string  `json:"stage"`
}

type bulkDeleteResponse struct {
	Deleted []int64 `json:"deleted"`
	Failed  []int64 `json:"failed,omitempty"`
}

type bulkStageResponse struct {
	Updated []store.Contact `json:"updated"`
	Failed  []int64         `json:"failed,omitempty"`
}

func (req contactRequest) toContact(w http.ResponseWriter) (store.Contact, bool) {
	if strings.TrimSpace(req.FirstName) == "" && strings.TrimSpace(req.LastName) == "" {
		api.BadRequest(w, "MISSING_NAME", "first_name or last_name is required", "", nil)
		return store.Contact{}, false
	}
	c := store.Contact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		CompanyID: req.CompanyID,
		Notes:     req.Notes,
	}
	if req.LifecycleStage != "" {
		stage, err := store.ParseLifecycleStage(req.LifecycleStage)
		if err != nil {
			api.BadRequest(w, "INVALID_STAGE", err.Error(), "", nil)
			return store.Contact{}, false
		}
		c.LifecycleStage = stage
	}
	return c, true
}

// ListContacts handles GET /v1/contacts?company_id=N
func ListContacts(cs *store.ContactStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var companyID int64
		if v := r.URL.Query().Get("company_id"); v != "" {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil || parsed <= 0 {
				api.BadRequest(w, "INVALID_ID", "company_id must be a positive integer", "", nil)
				return
			}
			companyID = parsed
		}
		contacts, err := cs.List(r.Context(), companyID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, contacts)
	}
}

// GetContact handles GET /v1/contacts/{contact_id}
func GetContact(cs *store.ContactStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "contact_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "contact_id is required", "", nil)
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

// CreateContact handles POST /v1/contacts
func CreateContact(cs *store.ContactStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		var req contactRequest
		if !decodeBody(w, r, &req) {
			return
		}
		c, ok := req.toContact(w)
		if !ok {
			return
		}
		created, err := cs.Create(record.WithActor(r.Context(), userID), c)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// UpdateContact handles PUT /v1/contacts/{contact_id}
func UpdateContact(cs *store.ContactStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(r, "contact_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "contact_id is required", "", nil)
			return
		}
		var req contactRequest
		if !decodeBody(w, r, &req) {
			return
		}
		c, ok := req.toContact(w)
		if !ok {
			return
		}
		c.ID = id
		updated, err := cs.Update(record.WithActor(r.Context(), userID), c)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteContact handles DELETE /v1/contacts/{contact_id}
func DeleteContact(cs *store.ContactStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(r, "contact_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "contact_id is required", "", nil)
			return
		}
		if err := cs.Delete(record.WithActor(r.Context(), userID), id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// BulkDeleteContacts handles POST /v1/contacts/bulk-delete
func BulkDeleteContacts(cs *store.ContactStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		var req bulkDeleteRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if len(req.IDs) == 0 {
			api.BadRequest(w, "MISSING_IDS", "ids must not be empty", "", nil)
			return
		}
		deleted, failed, err := cs.DeleteBulk(record.WithActor(r.Context(), userID), req.IDs)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, bulkDeleteResponse{Deleted: deleted, Failed: failed})
	}
}

// BulkUpdateContactStage handles POST /v1/contacts/bulk-stage
func BulkUpdateContactStage(cs *store.ContactStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		var req bulkStageRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if len(req.IDs) == 0 {
			api.BadRequest(w, "MISSING_IDS", "ids must not be empty", "", nil)
			return
		}
		stage, err := store.ParseLifecycleStage(req.Stage)
		if err != nil {
			api.BadRequest(w, "INVALID_STAGE", err.Error(), "", nil)
			return
		}
		updated, failed, err := cs.UpdateStageBulk(record.WithActor(r.Context(), userID), req.IDs, stage)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, bulkStageResponse{Updated: updated, Failed: failed})
	}
}
