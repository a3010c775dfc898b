package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"adflow/internal/engine"
	"adflow/internal/models"
)

type createAbsenceRequest struct {
	UserID   string `json:"user_id"`
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
	Reason   string `json:"reason"`
}

func (a *App) createAbsenceHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.createAbsence"
	log := a.Log.WithField("operation", op)
	log.Info("create absence")

	var req createAbsenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	abs, err := a.Engine.CreateAbsence(r.Context(), actorFrom(r), engine.CreateAbsenceInput{
		UserID:   req.UserID,
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
		Reason:   req.Reason,
	})
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusCreated, abs)
}

func (a *App) listAbsencesHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.listAbsences"
	log := a.Log.WithField("operation", op)

	f := models.AbsenceFilter{
		UserID:       r.URL.Query().Get("user"),
		CoveringDate: r.URL.Query().Get("on"),
	}
	items, err := a.Engine.ListAbsences(r.Context(), f)
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) deleteAbsenceHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.deleteAbsence"
	log := a.Log.WithField("operation", op)
	log.Info("delete absence")

	if err := a.Engine.DeleteAbsence(r.Context(), actorFrom(r), chi.URLParam(r, "absenceID")); err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
