package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (a *App) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.listNotifications"
	log := a.Log.WithField("operation", op)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := a.Engine.UserNotifications(r.Context(), actorFrom(r), limit)
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) markNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.markNotificationRead"
	log := a.Log.WithField("operation", op)

	if err := a.Engine.MarkNotificationRead(r.Context(), actorFrom(r), chi.URLParam(r, "notificationID")); err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
