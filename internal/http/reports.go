package httpapi

import (
	"net/http"

	"adflow/internal/workflow"
)

func (a *App) statusCountsHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.statusCounts"
	log := a.Log.WithField("operation", op)

	counts, err := a.Engine.StatusCounts(r.Context())
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (a *App) reviewerLoadHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.reviewerLoad"
	log := a.Log.WithField("operation", op)

	loads, err := a.Engine.ReviewerLoads(r.Context())
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": loads})
}

// Scan endpoints let operators trigger the scheduler's work on demand.
// Admin only; the scans themselves run as the system actor.

func (a *App) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !workflow.CanAdminister(actorFrom(r).Role) {
		writeError(w, http.StatusForbidden, "admin role required")
		return false
	}
	return true
}

func (a *App) expiryScanHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.expiryScan"
	log := a.Log.WithField("operation", op)
	if !a.requireAdmin(w, r) {
		return
	}
	log.Info("expiry scan requested")

	report, err := a.Engine.ExpiryScan(r.Context())
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *App) reassignmentScanHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.reassignmentScan"
	log := a.Log.WithField("operation", op)
	if !a.requireAdmin(w, r) {
		return
	}
	log.Info("reassignment scan requested")

	report, err := a.Engine.ReassignmentScan(r.Context())
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *App) cleanupScanHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.cleanupScan"
	log := a.Log.WithField("operation", op)
	if !a.requireAdmin(w, r) {
		return
	}
	log.Info("cleanup scan requested")

	report, err := a.Engine.CleanupScan(r.Context(), a.AbsenceRetentionDays)
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
