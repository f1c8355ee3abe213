package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/crm-platform/internal/platform/api"
	"github.com/example/crm-platform/internal/platform/auth"
	"github.com/example/crm-platform/internal/platform/record"
	"github.com/example/crm-platform/services/collab/internal/thread"
)

type createCommentRequest struct {
	Text string `json:"text"`
}

type updateCommentRequest struct {
	Text string `json:"text"`
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, name)), 10, 64)
	return id, err == nil && id > 0
}

func actor(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.ActorID(r.Context())
	if !ok {
		api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
		return false
	}
	return true
}

// writeThreadError maps service errors onto the API envelope.
func writeThreadError(w http.ResponseWriter, err error) {
	var ce *thread.CascadeError
	switch {
	case errors.Is(err, thread.ErrUnauthenticated):
		api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
	case errors.Is(err, thread.ErrEmptyText):
		api.BadRequest(w, "EMPTY_TEXT", "text must not be empty", "", nil)
	case errors.Is(err, record.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "not found", "")
	case errors.As(err, &ce):
		api.Conflict(w, "CASCADE_ABORTED", "delete aborted at "+ce.Step+"; retry", "", nil)
	default:
		api.Internal(w, "")
	}
}

// GetThread handles GET /v1/deals/{deal_id}/comments
func GetThread(svc *thread.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dealID, ok := pathID(r, "deal_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "deal_id is required", "", nil)
			return
		}
		th, err := svc.LoadThread(r.Context(), dealID)
		if err != nil {
			writeThreadError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, th)
	}
}

// CreateComment handles POST /v1/deals/{deal_id}/comments
func CreateComment(svc *thread.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		dealID, ok := pathID(r, "deal_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "deal_id is required", "", nil)
			return
		}
		var req createCommentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ctx := record.WithActor(r.Context(), userID)
		th, err := svc.CreateComment(ctx, dealID, userID, req.Text)
		if err != nil {
			writeThreadError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, th)
	}
}

// UpdateComment handles PUT /v1/comments/{comment_id}
func UpdateComment(svc *thread.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		commentID, ok := pathID(r, "comment_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}
		var req updateCommentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ctx := record.WithActor(r.Context(), userID)
		c, err := svc.UpdateComment(ctx, commentID, userID, req.Text)
		if err != nil {
			writeThreadError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}
func DeleteComment(svc *thread.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		commentID, ok := pathID(r, "comment_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		ctx := record.WithActor(r.Context(), userID)
		th, err := svc.DeleteComment(ctx, commentID, userID)
		if err != nil {
			writeThreadError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, th)
	}
}
