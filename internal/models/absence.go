package models

// Absence is one reviewer-unavailability interval, inclusive on both ends.
// Dates are ISO YYYY-MM-DD strings, so string order is date order.
type Absence struct {
	// Keys
	ID     string `dynamodbav:"absence_id" json:"absence_id"`
	UserID string `dynamodbav:"user_id" json:"user_id"`

	// Interval
	FromDate string `dynamodbav:"from_date" json:"from_date"`
	ToDate   string `dynamodbav:"to_date" json:"to_date"`
	Reason   string `dynamodbav:"reason" json:"reason,omitempty"`

	// Timestamps (epoch ms)
	CreatedBy string `dynamodbav:"created_by" json:"created_by"`
	CreatedAt int64  `dynamodbav:"created_at" json:"created_at"`
}

// Covers reports whether day falls inside the interval.
func (a Absence) Covers(day string) bool {
	return a.FromDate <= day && day <= a.ToDate
}

// Overlaps reports whether [from, to] shares at least one day with the
// interval.
func (a Absence) Overlaps(from, to string) bool {
	return a.FromDate <= to && from <= a.ToDate
}

// AbsenceFilter narrows absence listings. Zero values mean "any".
type AbsenceFilter struct {
	UserID       string
	CoveringDate string
	EndedBefore  string
}
