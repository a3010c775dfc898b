package workflow

import (
	"errors"
	"testing"

	"adflow/internal/models"
)

var validPairs = []struct {
	from, to models.Status
}{
	{models.StatusOpen, models.StatusComplianceReview},
	{models.StatusOpen, models.StatusClosedInternal},
	{models.StatusOpen, models.StatusClosedExchange},
	{models.StatusComplianceReview, models.StatusProductReview},
	{models.StatusComplianceReview, models.StatusApproved},
	{models.StatusComplianceReview, models.StatusClosedInternal},
	{models.StatusComplianceReview, models.StatusClosedExchange},
	{models.StatusProductReview, models.StatusComplianceReview},
	{models.StatusProductReview, models.StatusClosedInternal},
	{models.StatusProductReview, models.StatusClosedExchange},
	{models.StatusApproved, models.StatusPublished},
	{models.StatusApproved, models.StatusClosedInternal},
	{models.StatusApproved, models.StatusClosedExchange},
	{models.StatusPublished, models.StatusClosedInternal},
	{models.StatusPublished, models.StatusClosedExchange},
}

func TestCanTransitionMatrix(t *testing.T) {
	valid := make(map[[2]models.Status]bool, len(validPairs))
	for _, p := range validPairs {
		valid[[2]models.Status{p.from, p.to}] = true
	}
	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			want := valid[[2]models.Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, from := range []models.Status{models.StatusClosedInternal, models.StatusClosedExchange, models.StatusExpired} {
		for _, to := range models.AllStatuses {
			if CanTransition(from, to) {
				t.Errorf("terminal status %s allows transition to %s", from, to)
			}
		}
	}
}

func TestExpiredUnreachableByDirectTransition(t *testing.T) {
	for _, from := range models.AllStatuses {
		if CanTransition(from, models.StatusExpired) {
			t.Errorf("direct transition %s -> EXPIRED should not exist", from)
		}
	}
}

func TestValidateTransitionError(t *testing.T) {
	err := ValidateTransition(models.StatusOpen, models.StatusApproved)
	var terr *TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("ValidateTransition returned %v, want *TransitionError", err)
	}
	if terr.From != models.StatusOpen || terr.To != models.StatusApproved {
		t.Errorf("TransitionError = %s -> %s, want OPEN -> APPROVED", terr.From, terr.To)
	}
}
