package workflow

import (
	"fmt"
	"strings"
	"time"

	"adflow/internal/models"
)

// Transition describes what Apply did to the task's status. From equals To
// when the intent changed data without moving the task.
type Transition struct {
	From    models.Status
	To      models.Status
	Changed bool
}

// Apply validates in against t's current state and mutates t accordingly.
// On error t is left untouched; every check runs before the first write.
func Apply(t *models.Task, in Intent, now time.Time) (Transition, error) {
	switch in := in.(type) {
	case ChangeStatus:
		return applyChangeStatus(t, in, now)
	case UploadVersion:
		return applyUploadVersion(t, in)
	case AddComment:
		return applyAddComment(t, in)
	case Expire:
		return applyExpire(t, in, now)
	default:
		return Transition{}, fmt.Errorf("unknown intent %T", in)
	}
}

func applyChangeStatus(t *models.Task, in ChangeStatus, now time.Time) (Transition, error) {
	from := t.Status
	if err := ValidateTransition(from, in.To); err != nil {
		return Transition{}, err
	}
	switch in.To {
	case models.StatusApproved:
		if in.ApprovalDate == "" {
			return Transition{}, invalid("approval_date", "required when approving")
		}
		if in.ExpiryDate == "" {
			return Transition{}, invalid("expiry_date", "required when approving")
		}
		if !models.ValidDate(in.ApprovalDate) {
			return Transition{}, invalid("approval_date", "not a valid YYYY-MM-DD date")
		}
		if !models.ValidDate(in.ExpiryDate) {
			return Transition{}, invalid("expiry_date", "not a valid YYYY-MM-DD date")
		}
		if in.ExpiryDate <= in.ApprovalDate {
			return Transition{}, invalid("expiry_date", "must be after approval_date")
		}
	case models.StatusPublished:
		if in.PublishDate == "" {
			return Transition{}, invalid("publish_date", "required when publishing")
		}
		if !models.ValidDate(in.PublishDate) {
			return Transition{}, invalid("publish_date", "not a valid YYYY-MM-DD date")
		}
	case models.StatusClosedInternal, models.StatusClosedExchange:
		if strings.TrimSpace(in.Remarks) == "" {
			return Transition{}, invalid("closure_remarks", "required when closing")
		}
	}

	t.Status = in.To
	switch in.To {
	case models.StatusApproved:
		t.ApprovalDate = in.ApprovalDate
		t.ExpiryDate = in.ExpiryDate
	case models.StatusPublished:
		t.PublishDate = in.PublishDate
	case models.StatusClosedInternal, models.StatusClosedExchange:
		t.ClosedAt = now.UnixMilli()
		t.ClosureRemarks = strings.TrimSpace(in.Remarks)
	}
	return Transition{From: from, To: in.To, Changed: true}, nil
}

func applyUploadVersion(t *models.Task, in UploadVersion) (Transition, error) {
	from := t.Status
	if !from.Active() {
		return Transition{}, invalid("status", fmt.Sprintf("cannot upload a version on a %s task", from))
	}
	if in.Version.Number != t.NextVersionNumber() {
		return Transition{}, invalid("version", "version numbers must be assigned in order")
	}
	t.Versions = append(t.Versions, in.Version)
	if from != models.StatusComplianceReview {
		t.Status = models.StatusComplianceReview
		return Transition{From: from, To: models.StatusComplianceReview, Changed: true}, nil
	}
	return Transition{From: from, To: from}, nil
}

func applyAddComment(t *models.Task, in AddComment) (Transition, error) {
	from := t.Status
	if from.Terminal() {
		return Transition{}, invalid("status", fmt.Sprintf("cannot comment on a %s task", from))
	}
	c := in.Comment
	if strings.TrimSpace(c.Text) == "" {
		return Transition{}, invalid("text", "required")
	}
	if c.Global {
		if c.Version != 0 {
			return Transition{}, invalid("version", "global comments are not attached to a version")
		}
	} else {
		if c.Version < 1 || c.Version > len(t.Versions) {
			return Transition{}, invalid("version", "comment references an unknown version")
		}
	}
	t.Comments = append(t.Comments, c)
	if c.AuthorRole == models.RoleCompliance && !c.Global && from == models.StatusComplianceReview {
		t.Status = models.StatusProductReview
		return Transition{From: from, To: models.StatusProductReview, Changed: true}, nil
	}
	return Transition{From: from, To: from}, nil
}

func applyExpire(t *models.Task, in Expire, now time.Time) (Transition, error) {
	from := t.Status
	if from != models.StatusApproved && from != models.StatusPublished {
		return Transition{}, invalid("status", fmt.Sprintf("cannot expire a %s task", from))
	}
	if t.ExpiryDate == "" || t.ExpiryDate >= in.Today {
		return Transition{}, invalid("expiry_date", "task has not passed its expiry date")
	}
	t.Status = models.StatusExpired
	t.ClosedAt = now.UnixMilli()
	t.ClosureRemarks = fmt.Sprintf("expired automatically on %s (expiry date %s)", in.Today, t.ExpiryDate)
	return Transition{From: from, To: models.StatusExpired, Changed: true}, nil
}
