package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"ai_orchestrator/internal/middleware"
	"ai_orchestrator/internal/storage"
	"ai_orchestrator/internal/utils"
)

const defaultUsageWindowDays = 30

// UsageHandler reports how many orchestration runs a tenant made recently.
type UsageHandler struct {
	repo   *storage.UsageRepository
	logger *utils.Logger
}

// NewUsageHandler creates a usage reporting handler.
func NewUsageHandler(repo *storage.UsageRepository) *UsageHandler {
	return &UsageHandler{
		repo:   repo,
		logger: utils.NewLogger("usage-handler"),
	}
}

// UsageSummary is the response for GET /ai/usage.
type UsageSummary struct {
	Runs  int       `json:"runs"`
	Since time.Time `json:"since"`
}

// Summary serves GET /ai/usage?days=N (default 30, capped at 365).
func (h *UsageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing tenant")
		return
	}

	days := defaultUsageWindowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			utils.RespondWithError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = parsed
	}

	since := time.Now().AddDate(0, 0, -days)
	runs, err := h.repo.CountByTenant(r.Context(), tenantID, since)
	if err != nil {
		h.logger.Error("Failed to count usage", "tenant", tenantID, "error", err)
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Could not load usage")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, UsageSummary{Runs: runs, Since: since})
}
