package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"adflow/internal/engine"
	"adflow/internal/models"
)

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (a *App) createUserHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.createUser"
	log := a.Log.WithField("operation", op)
	log.Info("create user")

	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := a.Engine.CreateUser(r.Context(), actorFrom(r), engine.CreateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  models.Role(req.Role),
	})
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (a *App) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.listUsers"
	log := a.Log.WithField("operation", op)

	f := models.UserFilter{
		Role:       models.Role(r.URL.Query().Get("role")),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	users, err := a.Engine.ListUsers(r.Context(), f)
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users})
}

func (a *App) getUserHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.getUser"
	log := a.Log.WithField("operation", op)

	u, err := a.Engine.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (a *App) setUserActiveHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.setUserActive"
	log := a.Log.WithField("operation", op)
	log.Info("set user active")

	var req setActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := a.Engine.SetUserActive(r.Context(), actorFrom(r), chi.URLParam(r, "userID"), req.Active)
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
