// Package handlers exposes the CRM tables over the HTTP API: contacts
// with bulk operations, companies, deals, and per-user notifications.
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
)

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

func writeStoreError(w http.ResponseWriter, err error) {
	var we *record.WriteError
	switch {
	case errors.Is(err, record.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "not found", "")
	case errors.As(err, &we):
		for _, msg := range we.Messages {
			if strings.Contains(msg, "does not exist") {
				api.NotFound(w, "NOT_FOUND", "not found", "")
				return
			}
		}
		api.Conflict(w, "WRITE_REJECTED", we.Error(), "", nil)
	default:
		api.Internal(w, "")
	}
}
