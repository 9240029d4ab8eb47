package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"partyreminders/internal/delivery/http/helpers"
	"partyreminders/internal/delivery/http/middleware"
	"partyreminders/internal/domain"
)

// TriggerRemindersSuccessResponse is the success response envelope for POST /cron/reminders (200).
type TriggerRemindersSuccessResponse struct {
	Data  *domain.RunReport `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type ReminderController struct {
	Logger   *slog.Logger
	Service  domain.ReminderService
	Location *time.Location
	Now      func() time.Time
}

func NewReminderController(logger *slog.Logger, svc domain.ReminderService, loc *time.Location) *ReminderController {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderController{
		Logger:   logger,
		Service:  svc,
		Location: loc,
		Now:      time.Now,
	}
}

// TriggerReminders godoc
// @Summary Run the reminder pipeline
// @Description Sends reminders to every pending recipient of the active occasions falling on the target day (tomorrow in the reference timezone unless date is given). Returns 200 with the run report even when individual sends failed.
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Param date query string false "Target day, YYYY-MM-DD"
// @Success 200 {object} controllers.TriggerRemindersSuccessResponse "data contains the run report"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error; data contains the partial run report"
// @Router /cron/reminders [post]
func (c *ReminderController) TriggerReminders(w http.ResponseWriter, r *http.Request) {
	window, err := helpers.ParseWindow(r, c.Location, c.Now())
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	caller, _ := middleware.CallerFromContext(r.Context())
	c.Logger.InfoContext(r.Context(), "reminder run triggered",
		"caller", caller,
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"date", window.Start.Format(domain.DateLayout),
	)

	// A run outlives its trigger request; only per-send timeouts bound it.
	report, err := c.Service.Run(context.WithoutCancel(r.Context()), window)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSON(w, http.StatusInternalServerError, report, &helpers.APIError{
			Code:    helpers.ErrCodeInternalError,
			Message: err.Error(),
		})
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, report)
}
