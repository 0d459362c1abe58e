package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"challenge-league/internal/middleware"
	"challenge-league/internal/repository"
	"challenge-league/internal/service"
	"challenge-league/pkg/logger"
)

// SchedulerHandler exposes the scheduler passes over HTTP so an
// external cron (or an operator) can trigger them, alongside the
// in-process cron runner.
type SchedulerHandler struct {
	scheduler  service.Scheduler
	warnings   service.Warnings
	leagueRepo repository.LeagueRepository
	logger     *logger.Logger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(scheduler service.Scheduler, warnings service.Warnings, leagueRepo repository.LeagueRepository, logger *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler:  scheduler,
		warnings:   warnings,
		leagueRepo: leagueRepo,
		logger:     logger,
	}
}

// Run handles POST /api/v1/scheduler/run: one full daily pass, phase
// transitions followed by the day-ahead warning tier.
func (h *SchedulerHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.scheduler.ProcessDueTransitions(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Scheduler pass failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to process transitions")
		return
	}

	warningReport, err := h.warnings.SendDeadlineWarnings(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Day-ahead warning pass failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to send deadline warnings")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"transitions": report,
		"warnings":    warningReport,
	})
}

// FinalWarnings handles POST /api/v1/scheduler/final-warnings: the
// final-hours warning tier, run on its own cadence during the day.
func (h *SchedulerHandler) FinalWarnings(w http.ResponseWriter, r *http.Request) {
	report, err := h.warnings.SendFinalWarnings(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Final warning pass failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to send final warnings")
		return
	}

	h.respondJSON(w, http.StatusOK, report)
}

// ForceTransition handles POST /api/v1/leagues/{leagueID}/transition.
// Requires the caller to be an active admin of the league.
func (h *SchedulerHandler) ForceTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	leagueID, err := strconv.ParseInt(chi.URLParam(r, "leagueID"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid league ID")
		return
	}

	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		h.respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	isAdmin, err := h.leagueRepo.IsAdmin(ctx, leagueID, userID)
	if err != nil {
		h.logger.WithError(err).Error("Admin check failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to verify permissions")
		return
	}
	if !isAdmin {
		h.respondError(w, http.StatusForbidden, "League admin access required")
		return
	}

	result, err := h.scheduler.ForceTransition(ctx, leagueID)
	if err != nil {
		h.logger.WithError(err).WithField("league_id", leagueID).Error("Manual transition failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to apply transition")
		return
	}

	status := http.StatusOK
	if !result.OK {
		status = http.StatusConflict
	}
	h.respondJSON(w, status, result)
}

// respondJSON writes a JSON response
func (h *SchedulerHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

// respondError writes a JSON error response
func (h *SchedulerHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
