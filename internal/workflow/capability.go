package workflow

import "adflow/internal/models"

var (
	producerSide = []models.Role{models.RoleProducer, models.RoleAdmin}
	reviewerSide = []models.Role{models.RoleCompliance, models.RoleAdmin}
	anyCloser    = []models.Role{models.RoleProducer, models.RoleCompliance, models.RoleAdmin}
)

// transitionGrants lists which roles may request each direct transition.
// Producers drive their content forward (submit, resubmit, publish),
// compliance drives review outcomes (hand back, approve), and exchange
// closures need a compliance or admin hand. The lifecycle table still
// applies on top of this.
var transitionGrants = map[models.Status]map[models.Status][]models.Role{
	models.StatusOpen: {
		models.StatusComplianceReview: producerSide,
		models.StatusClosedInternal:   anyCloser,
		models.StatusClosedExchange:   reviewerSide,
	},
	models.StatusComplianceReview: {
		models.StatusProductReview:  reviewerSide,
		models.StatusApproved:       reviewerSide,
		models.StatusClosedInternal: anyCloser,
		models.StatusClosedExchange: reviewerSide,
	},
	models.StatusProductReview: {
		models.StatusComplianceReview: producerSide,
		models.StatusClosedInternal:   anyCloser,
		models.StatusClosedExchange:   reviewerSide,
	},
	models.StatusApproved: {
		models.StatusPublished:      producerSide,
		models.StatusClosedInternal: anyCloser,
		models.StatusClosedExchange: reviewerSide,
	},
	models.StatusPublished: {
		models.StatusClosedInternal: anyCloser,
		models.StatusClosedExchange: reviewerSide,
	},
}

// AllowedTransition reports whether role may request from -> to directly.
func AllowedTransition(role models.Role, from, to models.Status) bool {
	for _, r := range transitionGrants[from][to] {
		if r == role {
			return true
		}
	}
	return false
}

// CanCreateTask: producers open tasks for their own content, admins for
// anybody's.
func CanCreateTask(role models.Role) bool {
	return role == models.RoleProducer || role == models.RoleAdmin
}

// CanUploadVersion: content comes from the task's own producers.
func CanUploadVersion(actor models.Actor, t *models.Task) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.Role == models.RoleProducer && t.HasProducer(actor.ID)
}

// CanComment: every participant role may comment.
func CanComment(role models.Role) bool {
	return role.Valid()
}

// CanManageExchangeApprovals: exchange paperwork is a compliance job.
func CanManageExchangeApprovals(role models.Role) bool {
	return role == models.RoleCompliance || role == models.RoleAdmin
}

// CanAdminister guards user management, absence management and manual
// scan triggers.
func CanAdminister(role models.Role) bool {
	return role == models.RoleAdmin
}
