package workflow

import "adflow/internal/models"

// Candidate is one available reviewer with their current workload.
type Candidate struct {
	UserID      string
	ActiveTasks int
}

// PickReviewer selects the candidate with the fewest active tasks.
// Candidates must arrive sorted by user id ascending; a strict less-than
// comparison then makes ties deterministic, the lowest id (oldest account)
// wins.
func PickReviewer(cands []Candidate) (string, error) {
	if len(cands) == 0 {
		return "", ErrNoAvailableReviewer
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.ActiveTasks < best.ActiveTasks {
			best = c
		}
	}
	return best.UserID, nil
}

// ActiveAssignmentStatuses are the statuses that count toward a reviewer's
// workload and that move with the reviewer on reassignment.
var ActiveAssignmentStatuses = []models.Status{
	models.StatusOpen,
	models.StatusComplianceReview,
}

// CountsTowardWorkload reports whether a task in status s occupies its
// assigned reviewer.
func CountsTowardWorkload(s models.Status) bool {
	return s == models.StatusOpen || s == models.StatusComplianceReview
}
