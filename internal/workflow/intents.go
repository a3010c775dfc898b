package workflow

import "adflow/internal/models"

// Intent is a named request to mutate one task. Every status movement,
// direct or implied by another action, funnels through Apply with one of
// these.
type Intent interface {
	intentName() string
}

// ChangeStatus is a direct status request from a caller. The date and
// remark fields are mandatory for the targets that consume them and
// ignored otherwise.
type ChangeStatus struct {
	To           models.Status
	ApprovalDate string
	ExpiryDate   string
	PublishDate  string
	Remarks      string
}

// UploadVersion records a new content artifact. New content always lands
// the task in compliance review.
type UploadVersion struct {
	Version models.Version
}

// AddComment attaches a remark. A reviewer's version comment during
// compliance review is the review feedback and hands the task back to the
// producers; global comments never move status.
type AddComment struct {
	Comment models.Comment
}

// Expire closes a task whose expiry date has passed. Only the expiry scan
// builds this intent.
type Expire struct {
	Today string
}

func (ChangeStatus) intentName() string  { return "change_status" }
func (UploadVersion) intentName() string { return "upload_version" }
func (AddComment) intentName() string    { return "add_comment" }
func (Expire) intentName() string        { return "expire" }
