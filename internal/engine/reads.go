package engine

import (
	"context"
	"sort"

	"adflow/internal/models"
)

func (e *Engine) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	return e.loadTask(ctx, taskID)
}

func (e *Engine) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	tasks, err := e.tasks.ListTasks(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt > tasks[j].CreatedAt })
	return tasks, nil
}

// TaskAudit returns the task's trail, oldest first.
func (e *Engine) TaskAudit(ctx context.Context, taskID string) ([]models.AuditRecord, error) {
	if _, err := e.loadTask(ctx, taskID); err != nil {
		return nil, err
	}
	recs, err := e.audit.ListTaskAudit(ctx, taskID)
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt < recs[j].CreatedAt })
	return recs, nil
}

// StatusCounts tallies tasks per lifecycle status. Statuses with no tasks
// appear with a zero so dashboards get a stable shape.
func (e *Engine) StatusCounts(ctx context.Context) (map[models.Status]int, error) {
	counts, err := e.tasks.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[models.Status]int, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		out[s] = counts[s]
	}
	return out, nil
}

// ReviewerLoad is one row of the reviewer workload report.
type ReviewerLoad struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	ActiveTasks int    `json:"active_tasks"`
	AbsentToday bool   `json:"absent_today"`
}

// ReviewerLoads reports the current queue of every active compliance
// reviewer, ordered by user id.
func (e *Engine) ReviewerLoads(ctx context.Context) ([]ReviewerLoad, error) {
	reviewers, err := e.users.ListUsers(ctx, models.UserFilter{Role: models.RoleCompliance, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	counts, err := e.tasks.CountActiveByReviewer(ctx)
	if err != nil {
		return nil, err
	}
	absent, err := e.absentOn(ctx, e.today())
	if err != nil {
		return nil, err
	}

	out := make([]ReviewerLoad, 0, len(reviewers))
	for _, u := range reviewers {
		_, away := absent[u.ID]
		out = append(out, ReviewerLoad{
			UserID:      u.ID,
			Name:        u.Name,
			ActiveTasks: counts[u.ID],
			AbsentToday: away,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
