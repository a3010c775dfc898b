package models

// TaskType separates purely internal creatives from those that also need
// sign-off by an exchange.
type TaskType string

const (
	TaskInternal TaskType = "INTERNAL"
	TaskExchange TaskType = "EXCHANGE"
)

// Exchange approval decisions.
const (
	ExchangeApprovalPending  = "PENDING"
	ExchangeApprovalApproved = "APPROVED"
	ExchangeApprovalRejected = "REJECTED"
)

// Version is one uploaded content artifact. Numbers start at 1 and grow by
// one per upload; versions are never removed.
type Version struct {
	Number      int    `dynamodbav:"number" json:"number"`
	FileName    string `dynamodbav:"file_name" json:"file_name"`
	FileURL     string `dynamodbav:"file_url" json:"file_url"`
	ContentType string `dynamodbav:"content_type" json:"content_type"`
	UploadedBy  string `dynamodbav:"uploaded_by" json:"uploaded_by"`
	UploadedAt  int64  `dynamodbav:"uploaded_at" json:"uploaded_at"`
}

// Comment is a remark on the whole task (global) or on one version.
type Comment struct {
	ID         string `dynamodbav:"comment_id" json:"comment_id"`
	AuthorID   string `dynamodbav:"author_id" json:"author_id"`
	AuthorRole Role   `dynamodbav:"author_role" json:"author_role"`
	Global     bool   `dynamodbav:"global" json:"global"`
	Version    int    `dynamodbav:"version" json:"version,omitempty"`
	Text       string `dynamodbav:"text" json:"text"`
	CreatedAt  int64  `dynamodbav:"created_at" json:"created_at"`
}

// ExchangeApproval tracks one exchange's sign-off on an EXCHANGE task.
type ExchangeApproval struct {
	Exchange  string `dynamodbav:"exchange" json:"exchange"`
	Status    string `dynamodbav:"status" json:"status"`
	Reference string `dynamodbav:"reference" json:"reference,omitempty"`
	Remarks   string `dynamodbav:"remarks" json:"remarks,omitempty"`
	AddedBy   string `dynamodbav:"added_by" json:"added_by"`
	AddedAt   int64  `dynamodbav:"added_at" json:"added_at"`
	DecidedOn string `dynamodbav:"decided_on" json:"decided_on,omitempty"`
}

// Task is one piece of advertising content moving through review. Status
// changes only through the workflow engine; nothing else writes it.
type Task struct {
	// Keys
	ID  string `dynamodbav:"task_id" json:"task_id"`
	UIN string `dynamodbav:"uin" json:"uin"`

	// Business
	Title       string   `dynamodbav:"title" json:"title"`
	Description string   `dynamodbav:"description" json:"description"`
	Type        TaskType `dynamodbav:"task_type" json:"task_type"`
	Status      Status   `dynamodbav:"status" json:"status"`

	// Participants
	CreatedBy    string   `dynamodbav:"created_by" json:"created_by"`
	ProducerIDs  []string `dynamodbav:"producer_ids" json:"producer_ids"`
	ComplianceID string   `dynamodbav:"compliance_id" json:"compliance_id"`

	// Business dates (ISO YYYY-MM-DD)
	ApprovalDate string `dynamodbav:"approval_date" json:"approval_date,omitempty"`
	PublishDate  string `dynamodbav:"publish_date" json:"publish_date,omitempty"`
	ExpiryDate   string `dynamodbav:"expiry_date" json:"expiry_date,omitempty"`

	// Closure
	ClosedAt       int64  `dynamodbav:"closed_at" json:"closed_at,omitempty"`
	ClosureRemarks string `dynamodbav:"closure_remarks" json:"closure_remarks,omitempty"`

	// Owned records
	Versions          []Version          `dynamodbav:"versions" json:"versions"`
	Comments          []Comment          `dynamodbav:"comments" json:"comments"`
	ExchangeApprovals []ExchangeApproval `dynamodbav:"exchange_approvals" json:"exchange_approvals"`

	// Concurrency + timestamps (store as epoch ms, easy + consistent)
	Revision  int64 `dynamodbav:"revision" json:"revision"`
	CreatedAt int64 `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt int64 `dynamodbav:"updated_at" json:"updated_at"`
}

// HasProducer reports whether id is one of the task's assigned producers.
func (t *Task) HasProducer(id string) bool {
	for _, p := range t.ProducerIDs {
		if p == id {
			return true
		}
	}
	return false
}

// NextVersionNumber is the number the next uploaded version must carry.
func (t *Task) NextVersionNumber() int { return len(t.Versions) + 1 }

// ExchangeApprovalFor returns a pointer into the task's approval list, or
// nil when no entry exists for that exchange.
func (t *Task) ExchangeApprovalFor(exchange string) *ExchangeApproval {
	for i := range t.ExchangeApprovals {
		if t.ExchangeApprovals[i].Exchange == exchange {
			return &t.ExchangeApprovals[i]
		}
	}
	return nil
}

// TaskFilter narrows task listings. Zero values mean "any".
type TaskFilter struct {
	Statuses     []Status
	ComplianceID string
	ProducerID   string
	Type         TaskType
}
