package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"adflow/internal/effects"
	"adflow/internal/models"
)

// memStore backs every engine interface with maps. It doubles as the
// coordinator's audit and notification sink so tests can assert on side
// effects next to state.
type memStore struct {
	mu       sync.Mutex
	tasks    map[string]models.Task
	users    map[string]models.User
	absences map[string]models.Absence
	notes    map[string]models.Notification
	audits   []models.AuditRecord
	seqs     map[int]int64

	saveConflict bool
	putTaskErr   error
}

func newMemStore() *memStore {
	return &memStore{
		tasks:    make(map[string]models.Task),
		users:    make(map[string]models.User),
		absences: make(map[string]models.Absence),
		notes:    make(map[string]models.Notification),
		seqs:     make(map[int]int64),
	}
}

func (s *memStore) PutNewTask(_ context.Context, t models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putTaskErr != nil {
		return s.putTaskErr
	}
	if _, ok := s.tasks[t.ID]; ok {
		return fmt.Errorf("task %s already exists", t.ID)
	}
	s.tasks[t.ID] = t
	return nil
}

func (s *memStore) SaveTask(_ context.Context, t models.Task, expected int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveConflict {
		return false, nil
	}
	cur, ok := s.tasks[t.ID]
	if !ok || cur.Revision != expected {
		return false, nil
	}
	s.tasks[t.ID] = t
	return true, nil
}

func (s *memStore) GetTask(_ context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *memStore) ListTasks(_ context.Context, f models.TaskFilter) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Task
	for _, t := range s.tasks {
		if !matchTask(t, f) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matchTask(t models.Task, f models.TaskFilter) bool {
	if len(f.Statuses) > 0 {
		ok := false
		for _, st := range f.Statuses {
			if t.Status == st {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.ComplianceID != "" && t.ComplianceID != f.ComplianceID {
		return false
	}
	if f.ProducerID != "" && !t.HasProducer(f.ProducerID) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	return true
}

func (s *memStore) CountActiveByReviewer(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int)
	for _, t := range s.tasks {
		if t.Status == models.StatusOpen || t.Status == models.StatusComplianceReview {
			out[t.ComplianceID]++
		}
	}
	return out, nil
}

func (s *memStore) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[models.Status]int)
	for _, t := range s.tasks {
		out[t.Status]++
	}
	return out, nil
}

func (s *memStore) PutNewUser(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *memStore) UpdateUserActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s missing", id)
	}
	u.Active = active
	s.users[id] = u
	return nil
}

func (s *memStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *memStore) ListUsers(_ context.Context, f models.UserFilter) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.ActiveOnly && !u.Active {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) PutAbsence(_ context.Context, a models.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.absences[a.ID] = a
	return nil
}

func (s *memStore) DeleteAbsence(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.absences, id)
	return nil
}

func (s *memStore) GetAbsence(_ context.Context, id string) (*models.Absence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.absences[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *memStore) ListAbsences(_ context.Context, f models.AbsenceFilter) ([]models.Absence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Absence
	for _, a := range s.absences {
		if f.UserID != "" && a.UserID != f.UserID {
			continue
		}
		if f.CoveringDate != "" && !a.Covers(f.CoveringDate) {
			continue
		}
		if f.EndedBefore != "" && a.ToDate >= f.EndedBefore {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) NextUIN(_ context.Context, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[year]++
	return s.seqs[year], nil
}

func (s *memStore) PutNotification(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[n.ID] = n
	return nil
}

func (s *memStore) GetNotification(_ context.Context, id string) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (s *memStore) ListUserNotifications(_ context.Context, userID string, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) MarkNotificationRead(_ context.Context, id string, nowMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("notification %s missing", id)
	}
	n.Read = true
	n.UpdatedAt = nowMs
	s.notes[id] = n
	return nil
}

func (s *memStore) AppendAudit(_ context.Context, rec models.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, rec)
	return nil
}

func (s *memStore) ListTaskAudit(_ context.Context, taskID string) ([]models.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditRecord
	for _, r := range s.audits {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out, nil
}

// auditsByAction counts trail entries per action, for assertions.
func (s *memStore) auditsByAction(action string) []models.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditRecord
	for _, r := range s.audits {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}

func (s *memStore) notesFor(userID string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type fakeQueue struct {
	mu        sync.Mutex
	published []string
}

func (q *fakeQueue) PublishDelivery(_ context.Context, notificationID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, notificationID)
	return nil
}

type fakeFiles struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	uploadErr error
}

func (f *fakeFiles) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, key)
	return "https://files.test/" + key, nil
}

func (f *fakeFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type testEnv struct {
	eng   *Engine
	store *memStore
	queue *fakeQueue
	files *fakeFiles
}

func newTestEngine(t *testing.T) *testEnv {
	t.Helper()
	st := newMemStore()
	q := &fakeQueue{}
	fs := &fakeFiles{}
	log := testLog()
	eng := New(Deps{
		Tasks:         st,
		Users:         st,
		Absences:      st,
		Sequences:     st,
		Notifications: st,
		Audit:         st,
		Files:         fs,
		Effects:       effects.NewCoordinator(st, st, q, log),
		Log:           log,
		UINPrefix:     "AD",
	})
	eng.now = func() time.Time { return fixedNow }
	return &testEnv{eng: eng, store: st, queue: q, files: fs}
}

// Deterministic 24-hex ids; decimal digits keep them ordered and valid.
func hexID(n int) string { return fmt.Sprintf("%024d", n) }

func (env *testEnv) addUser(id string, role models.Role, active bool) models.User {
	u := models.User{
		ID:        id,
		Name:      "user " + id[len(id)-3:],
		Email:     "user-" + id[len(id)-3:] + "@example.com",
		Role:      role,
		Active:    active,
		CreatedAt: fixedNow.UnixMilli(),
	}
	env.store.users[u.ID] = u
	return u
}

func (env *testEnv) addTask(id string, status models.Status, reviewerID string, producers ...string) models.Task {
	t := models.Task{
		ID:                id,
		UIN:               "AD2026" + id[len(id)-3:],
		Title:             "task " + id[len(id)-3:],
		Type:              models.TaskInternal,
		Status:            status,
		CreatedBy:         first(producers),
		ProducerIDs:       producers,
		ComplianceID:      reviewerID,
		Versions:          []models.Version{},
		Comments:          []models.Comment{},
		ExchangeApprovals: []models.ExchangeApproval{},
		Revision:          1,
		CreatedAt:         fixedNow.UnixMilli(),
		UpdatedAt:         fixedNow.UnixMilli(),
	}
	env.store.tasks[t.ID] = t
	return t
}

func first(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func uploadBody() io.Reader { return bytes.NewReader([]byte("fake png bytes")) }
