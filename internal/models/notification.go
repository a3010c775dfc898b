package models

// Notification kinds.
const (
	NoticeAssignment       = "assignment"
	NoticeReassignment     = "reassignment"
	NoticeStatusChange     = "status_change"
	NoticeReviewRequest    = "review_request"
	NoticeComment          = "comment"
	NoticeExpiry           = "expiry"
	NoticeExchangeDecision = "exchange_decision"
)

// Email delivery states. Blank means the notification is in-app only.
const (
	EmailPending    = "PENDING"
	EmailProcessing = "PROCESSING"
	EmailSent       = "SENT"
	EmailFailed     = "FAILED"
	EmailDLQ        = "DLQ"
)

// Notification is one message for one user, optionally mirrored to email.
// The email_* fields drive the delivery worker and stay empty for in-app
// only notifications.
type Notification struct {
	// Keys
	ID     string `dynamodbav:"notification_id" json:"notification_id"`
	UserID string `dynamodbav:"user_id" json:"user_id"`

	// Content
	Kind    string `dynamodbav:"kind" json:"kind"`
	Title   string `dynamodbav:"title" json:"title"`
	Message string `dynamodbav:"message" json:"message"`
	TaskID  string `dynamodbav:"task_id" json:"task_id,omitempty"`
	Read    bool   `dynamodbav:"read" json:"read"`

	// Email delivery
	ViaEmail     bool   `dynamodbav:"via_email" json:"via_email"`
	EmailStatus  string `dynamodbav:"email_status" json:"email_status,omitempty"`
	AttemptCount int    `dynamodbav:"attempt_count" json:"attempt_count"`
	MaxAttempts  int    `dynamodbav:"max_attempts" json:"max_attempts"`
	LastError    string `dynamodbav:"last_error" json:"last_error,omitempty"`

	// Timestamps (store as epoch ms, easy + consistent)
	CreatedAt           int64  `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt           int64  `dynamodbav:"updated_at" json:"updated_at"`
	WorkerID            string `dynamodbav:"worker_id" json:"worker_id,omitempty"`
	ProcessingStartedAt int64  `dynamodbav:"processing_started_at" json:"processing_started_at,omitempty"`
	NextRetryAt         int64  `dynamodbav:"next_retry_at" json:"next_retry_at,omitempty"`
}
