package models

// Status is the task lifecycle state. The workflow package owns the
// transition table; everything else treats this as an opaque label.
type Status string

const (
	StatusOpen             Status = "OPEN"
	StatusComplianceReview Status = "COMPLIANCE_REVIEW"
	StatusProductReview    Status = "PRODUCT_REVIEW"
	StatusApproved         Status = "APPROVED"
	StatusPublished        Status = "PUBLISHED"
	StatusClosedInternal   Status = "CLOSED_INTERNAL"
	StatusClosedExchange   Status = "CLOSED_EXCHANGE"
	StatusExpired          Status = "EXPIRED"
)

// AllStatuses lists every defined status in rough lifecycle order.
var AllStatuses = []Status{
	StatusOpen,
	StatusComplianceReview,
	StatusProductReview,
	StatusApproved,
	StatusPublished,
	StatusClosedInternal,
	StatusClosedExchange,
	StatusExpired,
}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	switch s {
	case StatusClosedInternal, StatusClosedExchange, StatusExpired:
		return true
	}
	return false
}

// Active reports a valid, non-terminal status.
func (s Status) Active() bool { return s.Valid() && !s.Terminal() }
