package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/templui/pacekeeper/internal/ctxkeys"
	"github.com/templui/pacekeeper/internal/model"
	"github.com/templui/pacekeeper/internal/period"
	"github.com/templui/pacekeeper/internal/service"
)

type RunHandler struct {
	runService *service.RunService
	resolver   *period.Resolver
	now        func() time.Time
}

func NewRunHandler(runService *service.RunService, resolver *period.Resolver) *RunHandler {
	return &RunHandler{
		runService: runService,
		resolver:   resolver,
		now:        time.Now,
	}
}

type createRunRequest struct {
	StartedAt       string   `json:"startedAt"`
	DistanceKm      float64  `json:"distanceKm"`
	DurationSeconds float64  `json:"durationSeconds"`
	Pace            *float64 `json:"pace"`
	AvgHeartRate    *float64 `json:"avgHeartRate"`
	Calories        *float64 `json:"calories"`
	Status          string   `json:"status"`
}

func (h *RunHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req createRunRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Timestamps without an explicit offset are rejected.
	startedAt, err := period.ParseInstant(req.StartedAt)
	if err != nil {
		respondError(w, r, err)
		return
	}

	run, err := h.runService.Append(r.Context(), userID, model.RunSample{
		StartedAt:       startedAt,
		DistanceKm:      req.DistanceKm,
		DurationSeconds: req.DurationSeconds,
		Pace:            req.Pace,
		AvgHeartRate:    req.AvgHeartRate,
		Calories:        req.Calories,
		Status:          req.Status,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, run, "Run recorded")
}

func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, fmt.Errorf("%w: limit must be an integer", errBadRequest))
			return
		}
		limit = n
	}

	runs, err := h.runService.Recent(r.Context(), userID, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, runs, "")
}

func (h *RunHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	at := h.now()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := h.resolver.ParseDate(v)
		if err != nil {
			respondError(w, r, err)
			return
		}
		at = parsed
	}

	runs, err := h.runService.ByDate(r.Context(), userID, at)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, runs, "")
}

func (h *RunHandler) Show(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	run, err := h.runService.ByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, run, "")
}
