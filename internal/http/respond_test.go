package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"adflow/internal/engine"
	"adflow/internal/models"
	"adflow/internal/workflow"
)

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"validation", &workflow.ValidationError{Field: "title", Reason: "required"}, http.StatusBadRequest},
		// Overlapping absences are validation failures, not conflicts.
		{"absence overlap", &workflow.ValidationError{Field: "from_date", Reason: "interval overlaps an existing absence (2026-01-01 to 2026-01-05)"}, http.StatusBadRequest},
		{"transition", &workflow.TransitionError{From: models.StatusOpen, To: models.StatusApproved}, http.StatusConflict},
		{"no reviewer", fmt.Errorf("create: %w", workflow.ErrNoAvailableReviewer), http.StatusConflict},
		{"conflict", fmt.Errorf("save: %w", engine.ErrConflict), http.StatusConflict},
		{"not found", fmt.Errorf("%w: task x", engine.ErrNotFound), http.StatusNotFound},
		{"forbidden", fmt.Errorf("%w: role", engine.ErrForbidden), http.StatusForbidden},
		{"unknown", errors.New("dynamo exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, quietLog(), tc.err)
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("content type = %q", ct)
			}
			if !strings.Contains(rec.Body.String(), "error") {
				t.Fatalf("body %q has no error field", rec.Body.String())
			}
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, quietLog(), errors.New("secret table name leaked"))
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("internal error detail leaked to client: %s", rec.Body.String())
	}
}
