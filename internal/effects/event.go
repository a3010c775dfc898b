package effects

import "adflow/internal/models"

// Event is one committed workflow change handed to the coordinator. Kind
// is a models.Action* constant; the pointer fields carry whatever payload
// that kind needs and stay nil otherwise. Task is nil for user-level and
// absence-level events. From equals To when no status movement rode along
// with the operation.
type Event struct {
	Kind  string
	Actor models.Actor
	Task  *models.Task
	From  models.Status
	To    models.Status

	Version        *models.Version
	Comment        *models.Comment
	Exchange       *models.ExchangeApproval
	Absence        *models.Absence
	User           *models.User
	ReassignedFrom string
}

func (ev Event) moved() bool { return ev.From != ev.To }
