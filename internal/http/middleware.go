package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"adflow/internal/engine"
	"adflow/internal/models"
)

type ctxKey int

const actorKey ctxKey = 0

// userSource is the slice of the engine the middleware needs.
type userSource interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// actorMiddleware resolves the X-User-ID header into the acting user.
// Identity comes from an upstream gateway; the header is trusted here
// but the user must exist and be active.
func actorMiddleware(users userSource, log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-User-ID")
			if id == "" {
				writeError(w, http.StatusUnauthorized, "X-User-ID header required")
				return
			}
			if !models.ValidID(id) {
				writeError(w, http.StatusUnauthorized, "malformed user id")
				return
			}
			u, err := users.GetUser(r.Context(), id)
			if errors.Is(err, engine.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unknown user")
				return
			}
			if err != nil {
				respondError(w, log, err)
				return
			}
			if !u.Active {
				writeError(w, http.StatusForbidden, "user is deactivated")
				return
			}
			actor := models.Actor{ID: u.ID, Role: u.Role}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFrom(r *http.Request) models.Actor {
	actor, _ := r.Context().Value(actorKey).(models.Actor)
	return actor
}
