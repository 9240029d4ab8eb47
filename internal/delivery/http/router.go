package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"partyreminders/internal/delivery/http/controllers"
	"partyreminders/internal/delivery/http/middleware"
	"partyreminders/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes wrapped in request logging.
func NewRouter(reminderController *controllers.ReminderController, verifier domain.TokenVerifier, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier, logger)

	// Scheduler trigger
	mux.HandleFunc("POST /cron/reminders", requireAuth(reminderController.TriggerReminders))

	mux.HandleFunc("GET /healthz", controllers.Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.LoggingMiddleware(logger, mux)
}
