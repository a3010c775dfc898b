package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"adflow/internal/models"
)

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// decodeJSON reads one request body. A false return means the 400 was
// already written.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// parseStatuses splits a comma separated ?status= value.
func parseStatuses(raw string) ([]models.Status, bool) {
	if raw == "" {
		return nil, true
	}
	var out []models.Status
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		st := models.Status(p)
		if !st.Valid() {
			return nil, false
		}
		out = append(out, st)
	}
	return out, true
}
