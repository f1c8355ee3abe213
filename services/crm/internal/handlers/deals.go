package handlers

import (
	"net/http"
	"strings"

	"github.com/example/crm-platform/internal/platform/api"
	"github.com/example/crm-platform/internal/platform/record"
	"github.com/example/crm-platform/services/crm/internal/store"
)

type dealRequest struct {
	Title     string `json:"title"`
	ContactID int64  `json:"contact_id"`
	Stage     string `json:"stage"`
	Value     int64  `json:"value"`
}

type dealStageRequest struct {
	Stage string `json:"stage"`
}

// ListDeals handles GET /v1/deals?stage=Won
func ListDeals(ds *store.DealStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var stage store.DealStage
		if v := r.URL.Query().Get("stage"); v != "" {
			parsed, err := store.ParseDealStage(v)
			if err != nil {
				api.BadRequest(w, "INVALID_STAGE", err.Error(), "", nil)
				return
			}
			stage = parsed
		}
		deals, err := ds.List(r.Context(), stage)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, deals)
	}
}

// GetDeal handles GET /v1/deals/{deal_id}
func GetDeal(ds *store.DealStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "deal_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "deal_id is required", "", nil)
			return
		}
		d, err := ds.Get(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, d)
	}
}

// CreateDeal handles POST /v1/deals
func CreateDeal(ds *store.DealStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		var req dealRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			api.BadRequest(w, "MISSING_TITLE", "title is required", "", nil)
			return
		}
		d := store.Deal{Title: req.Title, ContactID: req.ContactID, Value: req.Value}
		if req.Stage != "" {
			stage, err := store.ParseDealStage(req.Stage)
			if err != nil {
				api.BadRequest(w, "INVALID_STAGE", err.Error(), "", nil)
				return
			}
			d.Stage = stage
		}
		created, err := ds.Create(record.WithActor(r.Context(), userID), d)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// UpdateDealStage handles PUT /v1/deals/{deal_id}/stage
func UpdateDealStage(ds *store.DealStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(r, "deal_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "deal_id is required", "", nil)
			return
		}
		var req dealStageRequest
		if !decodeBody(w, r, &req) {
			return
		}
		stage, err := store.ParseDealStage(req.Stage)
		if err != nil {
			api.BadRequest(w, "INVALID_STAGE", err.Error(), "", nil)
			return
		}
		updated, err := ds.UpdateStage(record.WithActor(r.Context(), userID), id, stage)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteDeal handles DELETE /v1/deals/{deal_id}
func DeleteDeal(ds *store.DealStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(r, "deal_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "deal_id is required", "", nil)
			return
		}
		if err := ds.Delete(record.WithActor(r.Context(), userID), id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
