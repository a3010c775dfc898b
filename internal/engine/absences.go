package engine

import (
	"context"
	"fmt"

	"adflow/internal/effects"
	"adflow/internal/models"
	"adflow/internal/workflow"
)

// CreateAbsenceInput registers one unavailability interval, inclusive on
// both ends.
type CreateAbsenceInput struct {
	UserID   string
	FromDate string
	ToDate   string
	Reason   string
}

// CreateAbsence records the interval and, when it covers today and the
// user is a reviewer, immediately moves their open work to a replacement.
// The reassignment part is best effort; the daily scan picks up leftovers.
func (e *Engine) CreateAbsence(ctx context.Context, actor models.Actor, in CreateAbsenceInput) (*models.Absence, error) {
	const op = "engine.Engine.CreateAbsence"
	log := e.log.WithField("operation", op).WithField("user_id", in.UserID)

	if !workflow.CanAdminister(actor.Role) {
		return nil, fmt.Errorf("%w: role %s cannot manage absences", ErrForbidden, actor.Role)
	}
	if !models.ValidDate(in.FromDate) {
		return nil, &workflow.ValidationError{Field: "from_date", Reason: "not a valid YYYY-MM-DD date"}
	}
	if !models.ValidDate(in.ToDate) {
		return nil, &workflow.ValidationError{Field: "to_date", Reason: "not a valid YYYY-MM-DD date"}
	}
	if in.ToDate < in.FromDate {
		return nil, &workflow.ValidationError{Field: "to_date", Reason: "must not be before from_date"}
	}
	u, err := e.users.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, in.UserID)
	}

	unlock := e.mu.lock(absenceKey(in.UserID))
	defer unlock()

	existing, err := e.absences.ListAbsences(ctx, models.AbsenceFilter{UserID: in.UserID})
	if err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	for _, a := range existing {
		if a.Overlaps(in.FromDate, in.ToDate) {
			return nil, &workflow.ValidationError{
				Field:  "from_date",
				Reason: fmt.Sprintf("interval overlaps an existing absence (%s to %s)", a.FromDate, a.ToDate),
			}
		}
	}

	a := models.Absence{
		ID:        models.NewID(),
		UserID:    in.UserID,
		FromDate:  in.FromDate,
		ToDate:    in.ToDate,
		Reason:    in.Reason,
		CreatedBy: actor.ID,
		CreatedAt: e.now().UnixMilli(),
	}
	if err := e.absences.PutAbsence(ctx, a); err != nil {
		return nil, fmt.Errorf("store absence: %w", err)
	}
	log.WithField("from", a.FromDate).WithField("to", a.ToDate).Info("absence recorded")

	e.effects.Emit(ctx, effects.Event{
		Kind:    models.ActionAbsenceCreated,
		Actor:   actor,
		Absence: &a,
	})

	if u.Role == models.RoleCompliance && a.Covers(e.today()) {
		if _, err := e.reassignFrom(ctx, actor, u.ID); err != nil {
			log.WithError(err).Warn("immediate reassignment failed; the daily scan will retry")
		}
	}
	return &a, nil
}

func (e *Engine) DeleteAbsence(ctx context.Context, actor models.Actor, absenceID string) error {
	if !workflow.CanAdminister(actor.Role) {
		return fmt.Errorf("%w: role %s cannot manage absences", ErrForbidden, actor.Role)
	}
	a, err := e.absences.GetAbsence(ctx, absenceID)
	if err != nil {
		return fmt.Errorf("load absence: %w", err)
	}
	if a == nil {
		return fmt.Errorf("%w: absence %s", ErrNotFound, absenceID)
	}
	if err := e.absences.DeleteAbsence(ctx, absenceID); err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	e.effects.Emit(ctx, effects.Event{
		Kind:    models.ActionAbsenceDeleted,
		Actor:   actor,
		Absence: a,
	})
	return nil
}

func (e *Engine) ListAbsences(ctx context.Context, f models.AbsenceFilter) ([]models.Absence, error) {
	return e.absences.ListAbsences(ctx, f)
}
