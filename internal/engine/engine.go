package engine

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"adflow/internal/effects"
	"adflow/internal/models"
	"adflow/internal/workflow"
)

// TaskStore is the task persistence the engine needs. SaveTask must only
// write when the stored revision still matches expected and report false
// when another writer got there first.
type TaskStore interface {
	PutNewTask(ctx context.Context, t models.Task) error
	SaveTask(ctx context.Context, t models.Task, expected int64) (bool, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error)
	CountActiveByReviewer(ctx context.Context) (map[string]int, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}

type UserStore interface {
	PutNewUser(ctx context.Context, u models.User) error
	UpdateUserActive(ctx context.Context, id string, active bool) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error)
}

type AbsenceStore interface {
	PutAbsence(ctx context.Context, a models.Absence) error
	DeleteAbsence(ctx context.Context, id string) error
	GetAbsence(ctx context.Context, id string) (*models.Absence, error)
	ListAbsences(ctx context.Context, f models.AbsenceFilter) ([]models.Absence, error)
}

// SequenceStore hands out per-year UIN sequence numbers, atomically.
type SequenceStore interface {
	NextUIN(ctx context.Context, year int) (int64, error)
}

type NotificationStore interface {
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	ListUserNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string, nowMs int64) error
}

type AuditReader interface {
	ListTaskAudit(ctx context.Context, taskID string) ([]models.AuditRecord, error)
}

// FileStore keeps version binaries. Upload returns the stable URL the
// version record carries from then on.
type FileStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// Deps wires an Engine. Files may be nil in processes that never take
// uploads (the scheduler).
type Deps struct {
	Tasks         TaskStore
	Users         UserStore
	Absences      AbsenceStore
	Sequences     SequenceStore
	Notifications NotificationStore
	Audit         AuditReader
	Files         FileStore
	Effects       *effects.Coordinator
	Log           *logrus.Entry
	UINPrefix     string
}

// Engine is the workflow orchestrator. Every mutation loads the current
// snapshot inside a per-key critical section, validates the intent against
// it, commits exactly one conditional write and then hands the resulting
// event to the side-effect coordinator.
type Engine struct {
	tasks     TaskStore
	users     UserStore
	absences  AbsenceStore
	seq       SequenceStore
	notes     NotificationStore
	audit     AuditReader
	files     FileStore
	effects   *effects.Coordinator
	log       *logrus.Entry
	mu        *keyedMutex
	uinPrefix string
	now       func() time.Time
}

func New(d Deps) *Engine {
	prefix := d.UINPrefix
	if prefix == "" {
		prefix = "AD"
	}
	return &Engine{
		tasks:     d.Tasks,
		users:     d.Users,
		absences:  d.Absences,
		seq:       d.Sequences,
		notes:     d.Notifications,
		audit:     d.Audit,
		files:     d.Files,
		effects:   d.Effects,
		log:       d.Log,
		mu:        newKeyedMutex(),
		uinPrefix: prefix,
		now:       time.Now,
	}
}

func (e *Engine) today() string { return models.Day(e.now()) }

func (e *Engine) loadTask(ctx context.Context, id string) (*models.Task, error) {
	t, err := e.tasks.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	return t, nil
}

// commit bumps the revision and writes t back, expecting nobody moved it
// since the load.
func (e *Engine) commit(ctx context.Context, t *models.Task) error {
	expected := t.Revision
	t.Revision++
	t.UpdatedAt = e.now().UnixMilli()
	ok, err := e.tasks.SaveTask(ctx, *t, expected)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: task %s", ErrConflict, t.ID)
	}
	return nil
}

// pickReviewer assembles today's candidate pool and applies the workload
// rule. exclude removes reviewers beyond the absent set, used when the
// reviewer being replaced has not recorded an absence row yet.
func (e *Engine) pickReviewer(ctx context.Context, today string, exclude map[string]struct{}) (string, error) {
	reviewers, err := e.users.ListUsers(ctx, models.UserFilter{Role: models.RoleCompliance, ActiveOnly: true})
	if err != nil {
		return "", fmt.Errorf("list reviewers: %w", err)
	}
	absent, err := e.absentOn(ctx, today)
	if err != nil {
		return "", err
	}
	counts, err := e.tasks.CountActiveByReviewer(ctx)
	if err != nil {
		return "", fmt.Errorf("count workloads: %w", err)
	}

	cands := make([]workflow.Candidate, 0, len(reviewers))
	for _, u := range reviewers {
		if _, ok := absent[u.ID]; ok {
			continue
		}
		if _, ok := exclude[u.ID]; ok {
			continue
		}
		cands = append(cands, workflow.Candidate{UserID: u.ID, ActiveTasks: counts[u.ID]})
	}
	// PickReviewer breaks ties by position, so fix the order first.
	sort.Slice(cands, func(i, j int) bool { return cands[i].UserID < cands[j].UserID })
	return workflow.PickReviewer(cands)
}

func (e *Engine) absentOn(ctx context.Context, day string) (map[string]struct{}, error) {
	abs, err := e.absences.ListAbsences(ctx, models.AbsenceFilter{CoveringDate: day})
	if err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	m := make(map[string]struct{}, len(abs))
	for _, a := range abs {
		m[a.UserID] = struct{}{}
	}
	return m, nil
}
