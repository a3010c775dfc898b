package models

// Role decides what a user may do in the review workflow.
type Role string

const (
	RoleProducer   Role = "PRODUCER"
	RoleCompliance Role = "COMPLIANCE"
	RoleAdmin      Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleProducer, RoleCompliance, RoleAdmin:
		return true
	}
	return false
}

// User is a workflow participant. Deactivated users keep their history but
// cannot act or receive new assignments.
type User struct {
	// Keys
	ID string `dynamodbav:"user_id" json:"user_id"`

	// Business
	Name   string `dynamodbav:"name" json:"name"`
	Email  string `dynamodbav:"email" json:"email"`
	Role   Role   `dynamodbav:"role" json:"role"`
	Active bool   `dynamodbav:"active" json:"active"`

	// Timestamps (epoch ms)
	CreatedAt int64 `dynamodbav:"created_at" json:"created_at"`
}

// UserFilter narrows user listings. Zero values mean "any".
type UserFilter struct {
	Role       Role
	ActiveOnly bool
}

// SystemActorID marks writes made by scheduled scans rather than a person.
const SystemActorID = "system"

// Actor is the authenticated identity attached to every engine call.
type Actor struct {
	ID   string
	Role Role
}

// System is the synthetic actor used by the scheduler.
func System() Actor { return Actor{ID: SystemActorID, Role: RoleAdmin} }
