package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/templui/pacekeeper/internal/ctxkeys"
	"github.com/templui/pacekeeper/internal/period"
	"github.com/templui/pacekeeper/internal/service"
)

type PlanHandler struct {
	goalService *service.GoalPeriodService
	resolver    *period.Resolver
	now         func() time.Time
}

func NewPlanHandler(goalService *service.GoalPeriodService, resolver *period.Resolver) *PlanHandler {
	return &PlanHandler{
		goalService: goalService,
		resolver:    resolver,
		now:         time.Now,
	}
}

type goalSettingsRequest struct {
	DailyKm   *float64 `json:"dailyKm"`
	WeeklyKm  *float64 `json:"weeklyKm"`
	MonthlyKm *float64 `json:"monthlyKm"`
	// Date is optional and defaults to now.
	Date string `json:"date"`
}

func (h *PlanHandler) GoalSettings(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req goalSettingsRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.DailyKm == nil || req.WeeklyKm == nil || req.MonthlyKm == nil {
		respondError(w, r, fmt.Errorf("%w: dailyKm, weeklyKm and monthlyKm are required", errBadRequest))
		return
	}

	at, err := h.dateOrNow(req.Date)
	if err != nil {
		respondError(w, r, err)
		return
	}

	set, err := h.goalService.UpsertGoalSettings(r.Context(), userID, *req.DailyKm, *req.WeeklyKm, *req.MonthlyKm, at)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, set, "Goal settings saved")
}

func (h *PlanHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	at, err := h.dateOrNow(r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	set, err := h.goalService.PlansByDate(r.Context(), userID, at)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, set, "")
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	periods, err := h.goalService.List(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, periods, "")
}

func (h *PlanHandler) dateOrNow(s string) (time.Time, error) {
	if s == "" {
		return h.now(), nil
	}
	return h.resolver.ParseDate(s)
}
