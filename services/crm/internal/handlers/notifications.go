package handlers

import (
	"net/http"

	"github.com/example/crm-platform/internal/platform/api"
	"github.com/example/crm-platform/internal/platform/record"
	"github.com/example/crm-platform/services/crm/internal/store"
)

type unreadCountResponse struct {
	Unread int `json:"unread"`
}

type markAllResponse struct {
	Marked int `json:"marked"`
}

// ListNotifications handles GET /v1/notifications
func ListNotifications(ns *store.NotificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		notifications, err := ns.ListByUser(r.Context(), userID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, notifications)
	}
}

// UnreadCount handles GET /v1/notifications/unread-count
func UnreadCount(ns *store.NotificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		count, err := ns.UnreadCount(r.Context(), userID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, unreadCountResponse{Unread: count})
	}
}

// MarkNotificationRead handles POST /v1/notifications/{notification_id}/read
func MarkNotificationRead(ns *store.NotificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		id, ok := pathID(r, "notification_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "notification_id is required", "", nil)
			return
		}
		existing, err := ns.Get(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if existing.UserID != userID {
			// Row belongs to someone else; do not leak its contents.
			api.NotFound(w, "NOT_FOUND", "not found", "")
			return
		}
		n, err := ns.MarkAsRead(record.WithActor(r.Context(), userID), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, n)
	}
}

// MarkAllNotificationsRead handles POST /v1/notifications/read-all
func MarkAllNotificationsRead(ns *store.NotificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actor(w, r)
		if !ok {
			return
		}
		marked, err := ns.MarkAllAsRead(record.WithActor(r.Context(), userID), userID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, markAllResponse{Marked: marked})
	}
}
