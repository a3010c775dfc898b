package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"adflow/internal/engine"
	"adflow/internal/models"
)

type stubUsers struct {
	users map[string]*models.User
}

func (s *stubUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", engine.ErrNotFound, id)
	}
	return u, nil
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestActorMiddleware(t *testing.T) {
	reviewer := "65a000000000000000000001"
	inactive := "65a000000000000000000002"
	users := &stubUsers{users: map[string]*models.User{
		reviewer: {ID: reviewer, Role: models.RoleCompliance, Active: true},
		inactive: {ID: inactive, Role: models.RoleProducer, Active: false},
	}}

	var got models.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = actorFrom(r)
		w.WriteHeader(http.StatusOK)
	})
	handler := actorMiddleware(users, quietLog())(next)

	cases := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed id", "not-hex", http.StatusUnauthorized},
		{"unknown user", "65a0000000000000000000ff", http.StatusUnauthorized},
		{"deactivated user", inactive, http.StatusForbidden},
		{"active user", reviewer, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tc.header != "" {
				req.Header.Set("X-User-ID", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
		})
	}

	if got.ID != reviewer || got.Role != models.RoleCompliance {
		t.Fatalf("actor in context = %+v, want the resolved reviewer", got)
	}
}
