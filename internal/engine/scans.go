package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"adflow/internal/effects"
	"adflow/internal/models"
	"adflow/internal/workflow"
)

// ExpiryReport summarizes one expiry scan pass.
type ExpiryReport struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
}

// ExpiryScan closes every APPROVED or PUBLISHED task whose expiry date is
// strictly before today. Each task is re-checked under its own lock, so
// running the scan twice is harmless.
func (e *Engine) ExpiryScan(ctx context.Context) (ExpiryReport, error) {
	const op = "engine.Engine.ExpiryScan"
	log := e.log.WithField("operation", op)

	today := e.today()
	tasks, err := e.tasks.ListTasks(ctx, models.TaskFilter{
		Statuses: []models.Status{models.StatusApproved, models.StatusPublished},
	})
	if err != nil {
		return ExpiryReport{}, fmt.Errorf("list tasks: %w", err)
	}

	rep := ExpiryReport{Scanned: len(tasks)}
	for i := range tasks {
		expired, err := e.expireOne(ctx, tasks[i].ID, today)
		if err != nil {
			rep.Failed++
			log.WithError(err).WithField("task_id", tasks[i].ID).Error("expiry failed; continuing")
			continue
		}
		if expired {
			rep.Expired++
		}
	}
	log.WithField("scanned", rep.Scanned).WithField("expired", rep.Expired).Info("expiry scan done")
	return rep, nil
}

func (e *Engine) expireOne(ctx context.Context, taskID, today string) (bool, error) {
	unlock := e.mu.lock(taskKey(taskID))
	defer unlock()

	t, err := e.loadTask(ctx, taskID)
	if err != nil {
		return false, err
	}
	// Re-check under the lock; a racing transition may have moved it since
	// the listing.
	if t.Status != models.StatusApproved && t.Status != models.StatusPublished {
		return false, nil
	}
	if t.ExpiryDate == "" || t.ExpiryDate >= today {
		return false, nil
	}
	tr, err := workflow.Apply(t, workflow.Expire{Today: today}, e.now())
	if err != nil {
		return false, err
	}
	if err := e.commit(ctx, t); err != nil {
		return false, err
	}
	e.effects.Emit(ctx, effects.Event{
		Kind:  models.ActionTaskExpired,
		Actor: models.System(),
		Task:  t,
		From:  tr.From,
		To:    tr.To,
	})
	return true, nil
}

// ReassignmentReport summarizes one absence scan pass. Uncovered lists
// absent reviewers whose open tasks could not move anywhere.
type ReassignmentReport struct {
	AbsentReviewers int      `json:"absent_reviewers"`
	Reassigned      int      `json:"reassigned"`
	Failed          int      `json:"failed"`
	Uncovered       []string `json:"uncovered,omitempty"`
}

// ReassignmentScan moves open work off every reviewer absent today.
func (e *Engine) ReassignmentScan(ctx context.Context) (ReassignmentReport, error) {
	const op = "engine.Engine.ReassignmentScan"
	log := e.log.WithField("operation", op)

	absent, err := e.absentOn(ctx, e.today())
	if err != nil {
		return ReassignmentReport{}, err
	}
	ids := make([]string, 0, len(absent))
	for id := range absent {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var rep ReassignmentReport
	for _, userID := range ids {
		u, err := e.users.GetUser(ctx, userID)
		if err != nil {
			rep.Failed++
			log.WithError(err).WithField("user_id", userID).Error("loading absent user failed; continuing")
			continue
		}
		if u == nil || u.Role != models.RoleCompliance {
			continue
		}
		rep.AbsentReviewers++
		res, err := e.reassignFrom(ctx, models.System(), userID)
		if err != nil {
			rep.Failed++
			log.WithError(err).WithField("user_id", userID).Error("reassignment failed; continuing")
			continue
		}
		rep.Reassigned += res.moved
		if res.uncovered {
			rep.Uncovered = append(rep.Uncovered, userID)
		}
	}
	log.WithField("absent", rep.AbsentReviewers).WithField("reassigned", rep.Reassigned).Info("reassignment scan done")
	return rep, nil
}

type reassignResult struct {
	moved     int
	uncovered bool
}

// reassignFrom moves every OPEN or COMPLIANCE_REVIEW task off userID to
// one replacement reviewer. Shared by the daily scan and absence creation.
func (e *Engine) reassignFrom(ctx context.Context, actor models.Actor, userID string) (reassignResult, error) {
	const op = "engine.Engine.reassignFrom"
	log := e.log.WithField("operation", op).WithField("absent_user", userID)

	open, err := e.tasks.ListTasks(ctx, models.TaskFilter{
		ComplianceID: userID,
		Statuses:     workflow.ActiveAssignmentStatuses,
	})
	if err != nil {
		return reassignResult{}, fmt.Errorf("list open tasks: %w", err)
	}
	if len(open) == 0 {
		return reassignResult{}, nil
	}

	replacement, err := e.pickReviewer(ctx, e.today(), map[string]struct{}{userID: {}})
	if errors.Is(err, workflow.ErrNoAvailableReviewer) {
		// Degraded but not fatal: the tasks stay where they are until a
		// replacement shows up.
		log.WithField("open_tasks", len(open)).Warn("no replacement reviewer available")
		return reassignResult{uncovered: true}, nil
	}
	if err != nil {
		return reassignResult{}, err
	}

	var res reassignResult
	for i := range open {
		if err := e.reassignOne(ctx, actor, open[i].ID, userID, replacement); err != nil {
			log.WithError(err).WithField("task_id", open[i].ID).Error("task reassignment failed; continuing")
			continue
		}
		res.moved++
	}
	log.WithField("moved", res.moved).WithField("replacement", replacement).Info("open tasks reassigned")
	return res, nil
}

func (e *Engine) reassignOne(ctx context.Context, actor models.Actor, taskID, fromID, toID string) error {
	unlock := e.mu.lock(taskKey(taskID))
	defer unlock()

	t, err := e.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if t.ComplianceID != fromID || !workflow.CountsTowardWorkload(t.Status) {
		return nil
	}
	t.ComplianceID = toID
	if err := e.commit(ctx, t); err != nil {
		return err
	}
	e.effects.Emit(ctx, effects.Event{
		Kind:           models.ActionReviewerReassigned,
		Actor:          actor,
		Task:           t,
		From:           t.Status,
		To:             t.Status,
		ReassignedFrom: fromID,
	})
	return nil
}

// CleanupReport summarizes one retention pass over ended absences.
type CleanupReport struct {
	Purged int `json:"purged"`
	Failed int `json:"failed"`
}

// CleanupScan drops absences that ended more than retentionDays ago.
func (e *Engine) CleanupScan(ctx context.Context, retentionDays int) (CleanupReport, error) {
	const op = "engine.Engine.CleanupScan"
	log := e.log.WithField("operation", op)

	if retentionDays <= 0 {
		retentionDays = 90
	}
	cutoff := models.Day(e.now().AddDate(0, 0, -retentionDays))
	old, err := e.absences.ListAbsences(ctx, models.AbsenceFilter{EndedBefore: cutoff})
	if err != nil {
		return CleanupReport{}, fmt.Errorf("list absences: %w", err)
	}

	var rep CleanupReport
	for i := range old {
		a := old[i]
		if err := e.absences.DeleteAbsence(ctx, a.ID); err != nil {
			rep.Failed++
			log.WithError(err).WithField("absence_id", a.ID).Error("purge failed; continuing")
			continue
		}
		rep.Purged++
		e.effects.Emit(ctx, effects.Event{
			Kind:    models.ActionAbsencePurged,
			Actor:   models.System(),
			Absence: &a,
		})
	}
	if rep.Purged > 0 {
		log.WithField("purged", rep.Purged).WithField("cutoff", cutoff).Info("old absences purged")
	}
	return rep, nil
}
