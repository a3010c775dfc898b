package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"adflow/internal/engine"
	"adflow/internal/workflow"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondError maps engine and workflow failures onto HTTP statuses.
// Anything unmapped is a 500 and gets logged with its cause; the client
// only ever sees the generic message.
func respondError(w http.ResponseWriter, log *logrus.Entry, err error) {
	var verr *workflow.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	var terr *workflow.TransitionError
	if errors.As(err, &terr) {
		writeError(w, http.StatusConflict, terr.Error())
		return
	}
	switch {
	case errors.Is(err, workflow.ErrNoAvailableReviewer):
		writeError(w, http.StatusConflict, workflow.ErrNoAvailableReviewer.Error())
	case errors.Is(err, engine.ErrConflict):
		writeError(w, http.StatusConflict, "task was modified concurrently, retry")
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, engine.ErrForbidden):
		writeError(w, http.StatusForbidden, "operation not permitted for this role")
	default:
		log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
