package handlers

import (
	"net/http"

	"github.com/example/crm-platform/internal/platform/api"
	"github.com/example/crm-platform/internal/platform/auth"
	"github.com/example/crm-platform/internal/platform/record"
	"github.com/example/crm-platform/services/collab/internal/store"
	"github.com/example/crm-platform/services/collab/internal/thread"
)

type reactRequest struct {
	Type string `json:"type"`
}

// GetReactions handles GET /v1/comments/{comment_id}/reactions
func GetReactions(svc *thread.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID, ok := pathID(r, "comment_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}
		// Anonymous readers get counts with Mine empty.
		userID, _ := auth.ActorID(r.Context())
		sum, err := svc.Reactions(r.Context(), commentID, userID)
		if err != nil {
			writeThreadError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, sum)
	}
}

// React handles POST /v1/comments/{comment_id}/reactions
func React(svc *thread.Service) http.HandlerFunc {
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
		var req reactRequest
		if !decodeBody(w, r, &req) {
			return
		}
		kind, err := store.ParseReactionType(req.Type)
		if err != nil {
			api.BadRequest(w, "INVALID_TYPE", "type must be Like or Dislike", "", nil)
			return
		}

		ctx := record.WithActor(r.Context(), userID)
		sum, err := svc.React(ctx, commentID, userID, kind)
		if err != nil {
			writeThreadError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, sum)
	}
}
