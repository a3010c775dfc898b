package effects

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"adflow/internal/models"
)

const defaultMaxEmailAttempts = 3

// AuditSink appends one immutable audit record.
type AuditSink interface {
	AppendAudit(ctx context.Context, rec models.AuditRecord) error
}

// NotificationSink persists one notification.
type NotificationSink interface {
	PutNotification(ctx context.Context, n models.Notification) error
}

// DeliveryPublisher queues one email delivery job for the worker.
type DeliveryPublisher interface {
	PublishDelivery(ctx context.Context, notificationID string) error
}

// Coordinator turns committed workflow changes into their side effects:
// exactly one audit record per event, plus zero or more notifications.
// Failures here are logged and swallowed; a state change that already
// committed never rolls back because a side effect misfired.
type Coordinator struct {
	audits  AuditSink
	notes   NotificationSink
	deliver DeliveryPublisher
	log     *logrus.Entry
	now     func() time.Time
}

func NewCoordinator(audits AuditSink, notes NotificationSink, deliver DeliveryPublisher, log *logrus.Entry) *Coordinator {
	return &Coordinator{
		audits:  audits,
		notes:   notes,
		deliver: deliver,
		log:     log,
		now:     time.Now,
	}
}

// Emit records ev. It never fails from the caller's point of view.
func (c *Coordinator) Emit(ctx context.Context, ev Event) {
	const op = "effects.Coordinator.Emit"
	log := c.log.WithField("operation", op).WithField("kind", ev.Kind)
	if ev.Task != nil {
		log = log.WithField("task_id", ev.Task.ID)
	}

	rec := models.AuditRecord{
		ID:        models.NewID(),
		Action:    ev.Kind,
		Detail:    detailFor(ev),
		ActorID:   ev.Actor.ID,
		CreatedAt: c.now().UnixMilli(),
	}
	if ev.Task != nil {
		rec.TaskID = ev.Task.ID
	}
	if err := c.audits.AppendAudit(ctx, rec); err != nil {
		log.WithError(err).Error("audit append failed")
	}

	for _, n := range c.noticesFor(ev) {
		if err := c.notes.PutNotification(ctx, n); err != nil {
			log.WithError(err).WithField("user_id", n.UserID).Error("notification write failed")
			continue
		}
		if !n.ViaEmail {
			continue
		}
		if err := c.deliver.PublishDelivery(ctx, n.ID); err != nil {
			// The row stays PENDING; the scheduler's retry path will not
			// see it, so flag loudly.
			log.WithError(err).WithField("notification_id", n.ID).Error("delivery publish failed")
		}
	}
}

func (c *Coordinator) notice(userID, kind, title, message, taskID string, viaEmail bool) models.Notification {
	now := c.now().UnixMilli()
	n := models.Notification{
		ID:        models.NewID(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		TaskID:    taskID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if viaEmail {
		n.ViaEmail = true
		n.EmailStatus = models.EmailPending
		n.MaxAttempts = defaultMaxEmailAttempts
	}
	return n
}

func (c *Coordinator) noticesFor(ev Event) []models.Notification {
	t := ev.Task
	switch ev.Kind {
	case models.ActionTaskCreated:
		msg := fmt.Sprintf("Task %s (%s) was assigned to you for compliance review.", t.UIN, t.Title)
		return []models.Notification{
			c.notice(t.ComplianceID, models.NoticeAssignment, "New task assigned", msg, t.ID, true),
		}

	case models.ActionStatusChanged:
		return c.statusNotices(ev)

	case models.ActionVersionUploaded:
		msg := fmt.Sprintf("Version %d of task %s is ready for compliance review.", ev.Version.Number, t.UIN)
		return []models.Notification{
			c.notice(t.ComplianceID, models.NoticeReviewRequest, "New version to review", msg, t.ID, true),
		}

	case models.ActionCommentAdded:
		return c.commentNotices(ev)

	case models.ActionReviewerReassigned:
		msg := fmt.Sprintf("Task %s (%s) was reassigned to you; the previous reviewer is absent.", t.UIN, t.Title)
		return []models.Notification{
			c.notice(t.ComplianceID, models.NoticeReassignment, "Task reassigned to you", msg, t.ID, true),
		}

	case models.ActionTaskExpired:
		msg := fmt.Sprintf("Task %s passed its expiry date (%s) and was closed automatically.", t.UIN, t.ExpiryDate)
		var out []models.Notification
		for _, id := range participants(t, "") {
			out = append(out, c.notice(id, models.NoticeExpiry, "Task expired", msg, t.ID, true))
		}
		return out

	case models.ActionExchangeDecided:
		msg := fmt.Sprintf("Exchange %s recorded decision %s for task %s.", ev.Exchange.Exchange, ev.Exchange.Status, t.UIN)
		var out []models.Notification
		for _, id := range t.ProducerIDs {
			out = append(out, c.notice(id, models.NoticeExchangeDecision, "Exchange decision recorded", msg, t.ID, false))
		}
		return out
	}
	// Remaining kinds (exchange requests, absence and user management) are
	// audit-only.
	return nil
}

func (c *Coordinator) statusNotices(ev Event) []models.Notification {
	t := ev.Task
	switch ev.To {
	case models.StatusComplianceReview:
		msg := fmt.Sprintf("Task %s is back in compliance review.", t.UIN)
		return []models.Notification{
			c.notice(t.ComplianceID, models.NoticeReviewRequest, "Task returned for review", msg, t.ID, true),
		}
	case models.StatusProductReview:
		msg := fmt.Sprintf("Task %s was handed back for product review.", t.UIN)
		var out []models.Notification
		for _, id := range t.ProducerIDs {
			out = append(out, c.notice(id, models.NoticeStatusChange, "Producer action required", msg, t.ID, true))
		}
		return out
	case models.StatusApproved:
		msg := fmt.Sprintf("Task %s was approved; publication is permitted until %s.", t.UIN, t.ExpiryDate)
		var out []models.Notification
		for _, id := range t.ProducerIDs {
			out = append(out, c.notice(id, models.NoticeStatusChange, "Task approved", msg, t.ID, true))
		}
		return out
	case models.StatusClosedInternal, models.StatusClosedExchange:
		msg := fmt.Sprintf("Task %s was closed: %s", t.UIN, t.ClosureRemarks)
		var out []models.Notification
		for _, id := range participants(t, ev.Actor.ID) {
			out = append(out, c.notice(id, models.NoticeStatusChange, "Task closed", msg, t.ID, false))
		}
		return out
	}
	// PUBLISHED is the producers' own doing; nobody needs a ping.
	return nil
}

func (c *Coordinator) commentNotices(ev Event) []models.Notification {
	t := ev.Task
	cm := ev.Comment
	if ev.moved() {
		msg := fmt.Sprintf("A reviewer commented on version %d of task %s; changes are required before approval.", cm.Version, t.UIN)
		var out []models.Notification
		for _, id := range t.ProducerIDs {
			out = append(out, c.notice(id, models.NoticeStatusChange, "Review feedback received", msg, t.ID, true))
		}
		return out
	}
	where := "the task"
	if !cm.Global {
		where = fmt.Sprintf("version %d", cm.Version)
	}
	msg := fmt.Sprintf("New comment on %s of task %s.", where, t.UIN)
	var out []models.Notification
	for _, id := range participants(t, ev.Actor.ID) {
		out = append(out, c.notice(id, models.NoticeComment, "New comment", msg, t.ID, false))
	}
	return out
}

// participants lists the task's producers and reviewer once each, skipping
// except.
func participants(t *models.Task, except string) []string {
	seen := make(map[string]struct{}, len(t.ProducerIDs)+1)
	var out []string
	add := func(id string) {
		if id == "" || id == except {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range t.ProducerIDs {
		add(id)
	}
	add(t.ComplianceID)
	return out
}

func detailFor(ev Event) string {
	switch ev.Kind {
	case models.ActionTaskCreated:
		return fmt.Sprintf("task %s created; reviewer %s assigned", ev.Task.UIN, ev.Task.ComplianceID)
	case models.ActionStatusChanged:
		d := fmt.Sprintf("status changed from %s to %s", ev.From, ev.To)
		if ev.Task.ClosureRemarks != "" && ev.To.Terminal() {
			d += "; remarks: " + ev.Task.ClosureRemarks
		}
		return d
	case models.ActionVersionUploaded:
		d := fmt.Sprintf("version %d uploaded", ev.Version.Number)
		if ev.moved() {
			d += fmt.Sprintf("; status changed from %s to %s", ev.From, ev.To)
		}
		return d
	case models.ActionCommentAdded:
		d := "global comment added"
		if !ev.Comment.Global {
			d = fmt.Sprintf("comment added on version %d", ev.Comment.Version)
		}
		if ev.moved() {
			d += fmt.Sprintf("; status changed from %s to %s", ev.From, ev.To)
		}
		return d
	case models.ActionExchangeAdded:
		return fmt.Sprintf("exchange approval requested from %s", ev.Exchange.Exchange)
	case models.ActionExchangeDecided:
		return fmt.Sprintf("exchange %s decided %s", ev.Exchange.Exchange, ev.Exchange.Status)
	case models.ActionReviewerReassigned:
		return fmt.Sprintf("reviewer reassigned from %s to %s", ev.ReassignedFrom, ev.Task.ComplianceID)
	case models.ActionTaskExpired:
		return fmt.Sprintf("status changed from %s to %s; expiry date %s has passed", ev.From, ev.To, ev.Task.ExpiryDate)
	case models.ActionAbsenceCreated:
		return fmt.Sprintf("absence recorded for user %s from %s to %s", ev.Absence.UserID, ev.Absence.FromDate, ev.Absence.ToDate)
	case models.ActionAbsenceDeleted:
		return fmt.Sprintf("absence for user %s (%s to %s) removed", ev.Absence.UserID, ev.Absence.FromDate, ev.Absence.ToDate)
	case models.ActionAbsencePurged:
		return fmt.Sprintf("absence for user %s (%s to %s) purged after retention", ev.Absence.UserID, ev.Absence.FromDate, ev.Absence.ToDate)
	case models.ActionUserCreated:
		return fmt.Sprintf("user %s created with role %s", ev.User.Name, ev.User.Role)
	case models.ActionUserUpdated:
		return fmt.Sprintf("user %s active set to %t", ev.User.Name, ev.User.Active)
	}
	return ev.Kind
}
