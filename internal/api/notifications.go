package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/store"
)

// NotificationsHandler serves the authenticated user's inbox.
type NotificationsHandler struct {
	DB *db.DB
}

type markReadRequest struct {
	Read *bool `json:"read"`
}

// List handles GET /api/notifications. ?unread=1 hides read entries.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "1"

	notes, err := store.ListNotifications(r.Context(), h.DB, claims.UserID, unreadOnly)
	if err != nil {
		writeStoreError(w, err, "list notifications")
		return
	}
	unread, err := store.UnreadCount(r.Context(), h.DB, claims.UserID)
	if err != nil {
		writeStoreError(w, err, "list notifications")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"notifications": notes,
		"unread":        unread,
	})
}

// MarkRead handles PUT /api/notifications/{id}. A missing read field means
// true. Other users' notifications are reported as not found.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	var req markReadRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	read := true
	if req.Read != nil {
		read = *req.Read
	}

	n, err := store.GetNotification(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, err, "update notification")
		return
	}
	if n == nil || n.UserID != GetClaims(r.Context()).UserID {
		writeStoreError(w, &store.NotFoundError{Entity: "notification", IDs: []string{strconv.FormatInt(id, 10)}}, "update notification")
		return
	}

	if err := store.MarkNotificationRead(r.Context(), h.DB, id, read); err != nil {
		writeStoreError(w, err, "update notification")
		return
	}
	n.Read = read
	jsonResponse(w, http.StatusOK, n)
}
