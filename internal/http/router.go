package httpapi

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, app *App) {
	r.Get("/healthz", healthHandler)

	// Everything below acts on behalf of a user.
	r.Group(func(r chi.Router) {
		r.Use(actorMiddleware(app.Engine, app.Log))

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", app.createTaskHandler)
			r.Get("/", app.listTasksHandler)
			r.Route("/{taskID}", func(r chi.Router) {
				r.Get("/", app.getTaskHandler)
				r.Post("/status", app.changeStatusHandler)
				r.Post("/versions", app.uploadVersionHandler)
				r.Post("/comments", app.addCommentHandler)
				r.Post("/exchange-approvals", app.addExchangeApprovalHandler)
				r.Put("/exchange-approvals/{exchange}", app.decideExchangeApprovalHandler)
				r.Get("/audit", app.taskAuditHandler)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", app.createUserHandler)
			r.Get("/", app.listUsersHandler)
			r.Get("/{userID}", app.getUserHandler)
			r.Patch("/{userID}", app.setUserActiveHandler)
		})

		r.Route("/absences", func(r chi.Router) {
			r.Post("/", app.createAbsenceHandler)
			r.Get("/", app.listAbsencesHandler)
			r.Delete("/{absenceID}", app.deleteAbsenceHandler)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", app.listNotificationsHandler)
			r.Post("/{notificationID}/read", app.markNotificationReadHandler)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/status-counts", app.statusCountsHandler)
			r.Get("/reviewer-load", app.reviewerLoadHandler)
		})

		r.Route("/system/scans", func(r chi.Router) {
			r.Post("/expiry", app.expiryScanHandler)
			r.Post("/reassignment", app.reassignmentScanHandler)
			r.Post("/cleanup", app.cleanupScanHandler)
		})
	})
}
