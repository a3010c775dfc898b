package workflow

import "adflow/internal/models"

// allowedTransitions is the full lifecycle table. A pair absent from the
// table is invalid no matter who asks. EXPIRED has no entry as a target
// here because only the expiry scan reaches it, through the Expire intent.
var allowedTransitions = map[models.Status]map[models.Status]struct{}{
	models.StatusOpen: {
		models.StatusComplianceReview: {},
		models.StatusClosedInternal:   {},
		models.StatusClosedExchange:   {},
	},
	models.StatusComplianceReview: {
		models.StatusProductReview:  {},
		models.StatusApproved:       {},
		models.StatusClosedInternal: {},
		models.StatusClosedExchange: {},
	},
	models.StatusProductReview: {
		models.StatusComplianceReview: {},
		models.StatusClosedInternal:   {},
		models.StatusClosedExchange:   {},
	},
	models.StatusApproved: {
		models.StatusPublished:      {},
		models.StatusClosedInternal: {},
		models.StatusClosedExchange: {},
	},
	models.StatusPublished: {
		models.StatusClosedInternal: {},
		models.StatusClosedExchange: {},
	},
	models.StatusClosedInternal: {},
	models.StatusClosedExchange: {},
	models.StatusExpired:        {},
}

// CanTransition reports whether the lifecycle table allows from -> to.
func CanTransition(from, to models.Status) bool {
	_, ok := allowedTransitions[from][to]
	return ok
}

// ValidateTransition returns a TransitionError when from -> to is not in
// the table.
func ValidateTransition(from, to models.Status) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
