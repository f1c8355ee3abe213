package handlers

import (
	"net/http"

	"github.com/example/crm-platform/internal/platform/api"
	"github.com/example/crm-platform/internal/platform/record"
	"github.com/example/crm-platform/services/collab/internal/store"
	"github.com/example/crm-platform/services/collab/internal/thread"
)

type replyRequest struct {
	Text string `json:"text"`
}

type repliesResponse struct {
	Replies []store.Reply `json:"replies"`
}

// CreateReply handles POST /v1/comments/{comment_id}/replies
func CreateReply(svc *thread.Service) http.HandlerFunc {
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
		var req replyRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ctx := record.WithActor(r.Context(), userID)
		replies, err := svc.CreateReply(ctx, commentID, userID, req.Text)
		if err != nil {
			writeThreadError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, repliesResponse{Replies: replies})
	}
}

// UpdateReply handles PUT /v1/comments/{comment_id}/replies/{reply_id}
func UpdateReply(svc *thread.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		replyID, ok := pathID(r, "reply_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "reply_id is required", "", nil)
			return
		}
		var req replyRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ctx := record.WithActor(r.Context(), userID)
		rp, err := svc.UpdateReply(ctx, replyID, userID, req.Text)
		if err != nil {
			writeThreadError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, rp)
	}
}

// DeleteReply handles DELETE /v1/comments/{comment_id}/replies/{reply_id}
func DeleteReply(svc *thread.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		replyID, ok := pathID(r, "reply_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "reply_id is required", "", nil)
			return
		}

		ctx := record.WithActor(r.Context(), userID)
		replies, err := svc.DeleteReply(ctx, replyID, userID)
		if err != nil {
			writeThreadError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, repliesResponse{Replies: replies})
	}
}
