package httpapi

import (
	"github.com/sirupsen/logrus"

	"adflow/internal/engine"
)

// App carries the API's dependencies into the handlers.
type App struct {
	Engine *engine.Engine
	Log    *logrus.Entry

	// AbsenceRetentionDays parameterizes the manually triggered cleanup
	// scan; the scheduler reads its own copy from config.
	AbsenceRetentionDays int
}
