package models

// Audit actions.
const (
	ActionTaskCreated        = "task_created"
	ActionStatusChanged      = "status_changed"
	ActionVersionUploaded    = "version_uploaded"
	ActionCommentAdded       = "comment_added"
	ActionExchangeAdded      = "exchange_approval_added"
	ActionExchangeDecided    = "exchange_approval_decided"
	ActionReviewerReassigned = "reviewer_reassigned"
	ActionTaskExpired        = "task_expired"
	ActionAbsenceCreated     = "absence_created"
	ActionAbsenceDeleted     = "absence_deleted"
	ActionAbsencePurged      = "absence_purged"
	ActionUserCreated        = "user_created"
	ActionUserUpdated        = "user_updated"
)

// AuditRecord is one append-only trail entry. Records are never updated or
// deleted.
type AuditRecord struct {
	// Keys
	ID string `dynamodbav:"audit_id" json:"audit_id"`

	// Business
	Action  string `dynamodbav:"action" json:"action"`
	Detail  string `dynamodbav:"detail" json:"detail"`
	ActorID string `dynamodbav:"actor_id" json:"actor_id"`
	TaskID  string `dynamodbav:"task_id" json:"task_id,omitempty"`

	// Timestamps (epoch ms)
	CreatedAt int64 `dynamodbav:"created_at" json:"created_at"`
}
