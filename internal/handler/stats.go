package handler

import (
	"net/http"
	"time"

	"github.com/templui/pacekeeper/internal/ctxkeys"
	"github.com/templui/pacekeeper/internal/service"
)

type StatsHandler struct {
	statsService *service.StatsService
	now          func() time.Time
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		now:          time.Now,
	}
}

// Overview takes ?period=week|month.
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	overview, err := h.statsService.Overview(r.Context(), userID, r.URL.Query().Get("period"), h.now())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, overview, "")
}

// Dashboard takes ?range=today|week|month|year.
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	dashboard, err := h.statsService.Dashboard(r.Context(), userID, r.URL.Query().Get("range"), h.now())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard, "")
}
