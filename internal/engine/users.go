package engine

import (
	"context"
	"fmt"
	"strings"

	"adflow/internal/effects"
	"adflow/internal/models"
	"adflow/internal/workflow"
)

// CreateUserInput registers one workflow participant.
type CreateUserInput struct {
	Name  string
	Email string
	Role  models.Role
}

func (e *Engine) CreateUser(ctx context.Context, actor models.Actor, in CreateUserInput) (*models.User, error) {
	const op = "engine.Engine.CreateUser"
	log := e.log.WithField("operation", op)

	if !workflow.CanAdminister(actor.Role) {
		return nil, fmt.Errorf("%w: role %s cannot manage users", ErrForbidden, actor.Role)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &workflow.ValidationError{Field: "name", Reason: "required"}
	}
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &workflow.ValidationError{Field: "email", Reason: "a valid address is required"}
	}
	if !in.Role.Valid() {
		return nil, &workflow.ValidationError{Field: "role", Reason: "must be PRODUCER, COMPLIANCE or ADMIN"}
	}

	u := models.User{
		ID:        models.NewID(),
		Name:      name,
		Email:     email,
		Role:      in.Role,
		Active:    true,
		CreatedAt: e.now().UnixMilli(),
	}
	if err := e.users.PutNewUser(ctx, u); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}
	log.WithField("user_id", u.ID).WithField("role", u.Role).Info("user created")

	e.effects.Emit(ctx, effects.Event{
		Kind:  models.ActionUserCreated,
		Actor: actor,
		User:  &u,
	})
	return &u, nil
}

// SetUserActive flips a user between active and deactivated. Deactivation
// of a reviewer does not move their tasks; an absence or the daily scan
// handles the handover explicitly.
func (e *Engine) SetUserActive(ctx context.Context, actor models.Actor, userID string, active bool) (*models.User, error) {
	if !workflow.CanAdminister(actor.Role) {
		return nil, fmt.Errorf("%w: role %s cannot manage users", ErrForbidden, actor.Role)
	}
	u, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if u.Active == active {
		return u, nil
	}
	if err := e.users.UpdateUserActive(ctx, userID, active); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	u.Active = active

	e.effects.Emit(ctx, effects.Event{
		Kind:  models.ActionUserUpdated,
		Actor: actor,
		User:  u,
	})
	return u, nil
}

func (e *Engine) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return u, nil
}

func (e *Engine) ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	return e.users.ListUsers(ctx, f)
}
