package engine

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"adflow/internal/effects"
	"adflow/internal/models"
	"adflow/internal/workflow"
)

// CreateTaskInput carries a request to open a new task. ProducerIDs lists
// additional producers besides the creator.
type CreateTaskInput struct {
	Title       string
	Description string
	Type        models.TaskType
	ProducerIDs []string
}

// CreateTask opens a task in OPEN with a UIN and an assigned compliance
// reviewer. When no reviewer is available the whole operation fails and
// nothing is persisted.
func (e *Engine) CreateTask(ctx context.Context, actor models.Actor, in CreateTaskInput) (*models.Task, error) {
	const op = "engine.Engine.CreateTask"
	log := e.log.WithField("operation", op).WithField("actor_id", actor.ID)

	if !workflow.CanCreateTask(actor.Role) {
		return nil, fmt.Errorf("%w: role %s cannot create tasks", ErrForbidden, actor.Role)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &workflow.ValidationError{Field: "title", Reason: "required"}
	}
	if in.Type != models.TaskInternal && in.Type != models.TaskExchange {
		return nil, &workflow.ValidationError{Field: "task_type", Reason: "must be INTERNAL or EXCHANGE"}
	}
	producers, err := e.resolveProducers(ctx, actor, in.ProducerIDs)
	if err != nil {
		return nil, err
	}

	// Reviewer first: an unassignable task must not reach the store.
	reviewerID, err := e.pickReviewer(ctx, e.today(), nil)
	if err != nil {
		return nil, err
	}

	now := e.now()
	year := now.UTC().Year()
	seq, err := e.seq.NextUIN(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("next uin: %w", err)
	}

	t := models.Task{
		ID:                models.NewID(),
		UIN:               workflow.FormatUIN(e.uinPrefix, year, seq),
		Title:             title,
		Description:       strings.TrimSpace(in.Description),
		Type:              in.Type,
		Status:            models.StatusOpen,
		CreatedBy:         actor.ID,
		ProducerIDs:       producers,
		ComplianceID:      reviewerID,
		Versions:          []models.Version{},
		Comments:          []models.Comment{},
		ExchangeApprovals: []models.ExchangeApproval{},
		Revision:          1,
		CreatedAt:         now.UnixMilli(),
		UpdatedAt:         now.UnixMilli(),
	}
	if err := e.tasks.PutNewTask(ctx, t); err != nil {
		return nil, fmt.Errorf("store task: %w", err)
	}
	log.WithField("task_id", t.ID).WithField("uin", t.UIN).WithField("reviewer", reviewerID).Info("task created")

	e.effects.Emit(ctx, effects.Event{
		Kind:  models.ActionTaskCreated,
		Actor: actor,
		Task:  &t,
		From:  models.StatusOpen,
		To:    models.StatusOpen,
	})
	return &t, nil
}

func (e *Engine) resolveProducers(ctx context.Context, actor models.Actor, extra []string) ([]string, error) {
	ids := make([]string, 0, len(extra)+1)
	seen := make(map[string]struct{}, len(extra)+1)
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if actor.Role == models.RoleProducer {
		add(actor.ID)
	}
	for _, id := range extra {
		if _, ok := seen[id]; ok {
			continue
		}
		u, err := e.users.GetUser(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load producer %s: %w", id, err)
		}
		if u == nil {
			return nil, fmt.Errorf("%w: producer %s", ErrNotFound, id)
		}
		if u.Role != models.RoleProducer {
			return nil, &workflow.ValidationError{Field: "producer_ids", Reason: fmt.Sprintf("user %s is not a producer", id)}
		}
		if !u.Active {
			return nil, &workflow.ValidationError{Field: "producer_ids", Reason: fmt.Sprintf("user %s is deactivated", id)}
		}
		add(id)
	}
	if len(ids) == 0 {
		return nil, &workflow.ValidationError{Field: "producer_ids", Reason: "at least one producer is required"}
	}
	return ids, nil
}

// ChangeStatusInput is a direct status request. Only the fields the target
// status consumes are read.
type ChangeStatusInput struct {
	To           models.Status
	ApprovalDate string
	ExpiryDate   string
	PublishDate  string
	Remarks      string
}

func (e *Engine) ChangeStatus(ctx context.Context, actor models.Actor, taskID string, in ChangeStatusInput) (*models.Task, error) {
	const op = "engine.Engine.ChangeStatus"
	log := e.log.WithField("operation", op).WithField("task_id", taskID)

	unlock := e.mu.lock(taskKey(taskID))
	defer unlock()

	t, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !workflow.AllowedTransition(actor.Role, t.Status, in.To) {
		if workflow.CanTransition(t.Status, in.To) {
			return nil, fmt.Errorf("%w: %s may not move %s to %s", ErrForbidden, actor.Role, t.Status, in.To)
		}
		return nil, &workflow.TransitionError{From: t.Status, To: in.To}
	}

	tr, err := workflow.Apply(t, workflow.ChangeStatus{
		To:           in.To,
		ApprovalDate: in.ApprovalDate,
		ExpiryDate:   in.ExpiryDate,
		PublishDate:  in.PublishDate,
		Remarks:      in.Remarks,
	}, e.now())
	if err != nil {
		return nil, err
	}
	if err := e.commit(ctx, t); err != nil {
		return nil, err
	}
	log.WithField("from", tr.From).WithField("to", tr.To).Info("status changed")

	e.effects.Emit(ctx, effects.Event{
		Kind:  models.ActionStatusChanged,
		Actor: actor,
		Task:  t,
		From:  tr.From,
		To:    tr.To,
	})
	return t, nil
}

// UploadVersionInput carries one content artifact.
type UploadVersionInput struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

// UploadVersion stores the binary, appends the version record and moves
// the task to COMPLIANCE_REVIEW if it was anywhere else.
func (e *Engine) UploadVersion(ctx context.Context, actor models.Actor, taskID string, in UploadVersionInput) (*models.Task, error) {
	const op = "engine.Engine.UploadVersion"
	log := e.log.WithField("operation", op).WithField("task_id", taskID)

	if strings.TrimSpace(in.FileName) == "" {
		return nil, &workflow.ValidationError{Field: "file", Reason: "file name is required"}
	}
	if in.Content == nil {
		return nil, &workflow.ValidationError{Field: "file", Reason: "file content is required"}
	}

	unlock := e.mu.lock(taskKey(taskID))
	defer unlock()

	t, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !workflow.CanUploadVersion(actor, t) {
		return nil, fmt.Errorf("%w: only assigned producers upload versions", ErrForbidden)
	}
	if !t.Status.Active() {
		return nil, &workflow.ValidationError{Field: "status", Reason: fmt.Sprintf("cannot upload a version on a %s task", t.Status)}
	}

	number := t.NextVersionNumber()
	key := fmt.Sprintf("tasks/%s/v%03d/%s", t.ID, number, path.Base(in.FileName))
	url, err := e.files.Upload(ctx, key, in.ContentType, in.Content)
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	v := models.Version{
		Number:      number,
		FileName:    path.Base(in.FileName),
		FileURL:     url,
		ContentType: in.ContentType,
		UploadedBy:  actor.ID,
		UploadedAt:  e.now().UnixMilli(),
	}
	tr, err := workflow.Apply(t, workflow.UploadVersion{Version: v}, e.now())
	if err != nil {
		e.discardFile(ctx, key)
		return nil, err
	}
	if err := e.commit(ctx, t); err != nil {
		e.discardFile(ctx, key)
		return nil, err
	}
	log.WithField("version", number).WithField("to", tr.To).Info("version uploaded")

	e.effects.Emit(ctx, effects.Event{
		Kind:    models.ActionVersionUploaded,
		Actor:   actor,
		Task:    t,
		From:    tr.From,
		To:      tr.To,
		Version: &v,
	})
	return t, nil
}

// discardFile removes a binary whose version record never committed.
func (e *Engine) discardFile(ctx context.Context, key string) {
	if err := e.files.Delete(ctx, key); err != nil {
		e.log.WithError(err).WithField("key", key).Warn("orphan upload not removed")
	}
}

// AddCommentInput carries one remark. Version is ignored when Global is
// set and must name an existing version otherwise.
type AddCommentInput struct {
	Text    string
	Global  bool
	Version int
}

func (e *Engine) AddComment(ctx context.Context, actor models.Actor, taskID string, in AddCommentInput) (*models.Task, error) {
	const op = "engine.Engine.AddComment"
	log := e.log.WithField("operation", op).WithField("task_id", taskID)

	if !workflow.CanComment(actor.Role) {
		return nil, fmt.Errorf("%w: role %s cannot comment", ErrForbidden, actor.Role)
	}

	unlock := e.mu.lock(taskKey(taskID))
	defer unlock()

	t, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleProducer && !t.HasProducer(actor.ID) {
		return nil, fmt.Errorf("%w: only assigned producers comment on a task", ErrForbidden)
	}

	c := models.Comment{
		ID:         models.NewID(),
		AuthorID:   actor.ID,
		AuthorRole: actor.Role,
		Global:     in.Global,
		Version:    in.Version,
		Text:       strings.TrimSpace(in.Text),
		CreatedAt:  e.now().UnixMilli(),
	}
	tr, err := workflow.Apply(t, workflow.AddComment{Comment: c}, e.now())
	if err != nil {
		return nil, err
	}
	if err := e.commit(ctx, t); err != nil {
		return nil, err
	}
	if tr.Changed {
		log.WithField("from", tr.From).WithField("to", tr.To).Info("comment handed task back")
	}

	e.effects.Emit(ctx, effects.Event{
		Kind:    models.ActionCommentAdded,
		Actor:   actor,
		Task:    t,
		From:    tr.From,
		To:      tr.To,
		Comment: &c,
	})
	return t, nil
}

// AddExchangeApprovalInput registers one exchange that must sign off.
type AddExchangeApprovalInput struct {
	Exchange string
	Remarks  string
}

func (e *Engine) AddExchangeApproval(ctx context.Context, actor models.Actor, taskID string, in AddExchangeApprovalInput) (*models.Task, error) {
	if !workflow.CanManageExchangeApprovals(actor.Role) {
		return nil, fmt.Errorf("%w: role %s cannot manage exchange approvals", ErrForbidden, actor.Role)
	}
	name := strings.TrimSpace(in.Exchange)
	if name == "" {
		return nil, &workflow.ValidationError{Field: "exchange", Reason: "required"}
	}

	unlock := e.mu.lock(taskKey(taskID))
	defer unlock()

	t, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Type != models.TaskExchange {
		return nil, &workflow.ValidationError{Field: "task_type", Reason: "exchange approvals apply to EXCHANGE tasks only"}
	}
	if t.Status.Terminal() {
		return nil, &workflow.ValidationError{Field: "status", Reason: fmt.Sprintf("cannot edit approvals on a %s task", t.Status)}
	}
	if t.ExchangeApprovalFor(name) != nil {
		return nil, &workflow.ValidationError{Field: "exchange", Reason: fmt.Sprintf("approval for %s already exists", name)}
	}

	ea := models.ExchangeApproval{
		Exchange: name,
		Status:   models.ExchangeApprovalPending,
		Remarks:  strings.TrimSpace(in.Remarks),
		AddedBy:  actor.ID,
		AddedAt:  e.now().UnixMilli(),
	}
	t.ExchangeApprovals = append(t.ExchangeApprovals, ea)
	if err := e.commit(ctx, t); err != nil {
		return nil, err
	}

	e.effects.Emit(ctx, effects.Event{
		Kind:     models.ActionExchangeAdded,
		Actor:    actor,
		Task:     t,
		From:     t.Status,
		To:       t.Status,
		Exchange: &ea,
	})
	return t, nil
}

// DecideExchangeApprovalInput records an exchange's verdict.
type DecideExchangeApprovalInput struct {
	Status    string
	Reference string
	Remarks   string
	DecidedOn string
}

func (e *Engine) DecideExchangeApproval(ctx context.Context, actor models.Actor, taskID, exchange string, in DecideExchangeApprovalInput) (*models.Task, error) {
	if !workflow.CanManageExchangeApprovals(actor.Role) {
		return nil, fmt.Errorf("%w: role %s cannot manage exchange approvals", ErrForbidden, actor.Role)
	}
	if in.Status != models.ExchangeApprovalApproved && in.Status != models.ExchangeApprovalRejected {
		return nil, &workflow.ValidationError{Field: "status", Reason: "must be APPROVED or REJECTED"}
	}
	decidedOn := in.DecidedOn
	if decidedOn == "" {
		decidedOn = e.today()
	} else if !models.ValidDate(decidedOn) {
		return nil, &workflow.ValidationError{Field: "decided_on", Reason: "not a valid YYYY-MM-DD date"}
	}

	unlock := e.mu.lock(taskKey(taskID))
	defer unlock()

	t, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ea := t.ExchangeApprovalFor(strings.TrimSpace(exchange))
	if ea == nil {
		return nil, fmt.Errorf("%w: exchange approval %s", ErrNotFound, exchange)
	}
	if ea.Status != models.ExchangeApprovalPending {
		return nil, &workflow.ValidationError{Field: "exchange", Reason: fmt.Sprintf("%s already decided %s", ea.Exchange, ea.Status)}
	}

	ea.Status = in.Status
	ea.Reference = strings.TrimSpace(in.Reference)
	if r := strings.TrimSpace(in.Remarks); r != "" {
		ea.Remarks = r
	}
	ea.DecidedOn = decidedOn
	if err := e.commit(ctx, t); err != nil {
		return nil, err
	}

	e.effects.Emit(ctx, effects.Event{
		Kind:     models.ActionExchangeDecided,
		Actor:    actor,
		Task:     t,
		From:     t.Status,
		To:       t.Status,
		Exchange: ea,
	})
	return t, nil
}
