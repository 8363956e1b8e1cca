package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ai_orchestrator/internal/aierror"
	"ai_orchestrator/internal/middleware"
	"ai_orchestrator/internal/models"
	"ai_orchestrator/internal/orchestrator"
	"ai_orchestrator/internal/providers"
	"ai_orchestrator/internal/registry"
	"ai_orchestrator/internal/softfail"
	"ai_orchestrator/internal/storage"
	"ai_orchestrator/internal/usage"
	"ai_orchestrator/internal/utils"
)

// TaskHandler runs natural-language tasks through the fallback engine.
type TaskHandler struct {
	registry *registry.Service
	vault    *storage.Vault
	factory  *providers.Factory
	runner   *orchestrator.Runner
	usage    *usage.Worker
	logger   *utils.Logger
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(reg *registry.Service, vault *storage.Vault, factory *providers.Factory, runner *orchestrator.Runner, usageWorker *usage.Worker) *TaskHandler {
	return &TaskHandler{
		registry: reg,
		vault:    vault,
		factory:  factory,
		runner:   runner,
		usage:    usageWorker,
		logger:   utils.NewLogger("task-handler"),
	}
}

// TaskRequest is the normalized task submitted by the CRM frontend.
type TaskRequest struct {
	TaskType            string `json:"task_type"`
	Prompt              string `json:"prompt"`
	System              string `json:"system,omitempty"`
	MaxTokens           int    `json:"max_tokens,omitempty"`
	PreferredProviderID string `json:"preferred_provider_id,omitempty"`
}

// attemptInfo is the wire form of one failed attempt.
type attemptInfo struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   *int   `json:"status,omitempty"`
}

// TaskResponse is returned on success.
type TaskResponse struct {
	Text         string        `json:"text"`
	ProviderType string        `json:"provider_type"`
	Model        string        `json:"model,omitempty"`
	Attempts     []attemptInfo `json:"attempts,omitempty"`
}

// Run handles POST /ai/tasks
func (h *TaskHandler) Run(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing tenant")
		return
	}

	var req TaskRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Prompt == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	taskType := models.NormalizeTaskType(req.TaskType)
	var preferredID uuid.UUID
	if req.PreferredProviderID != "" {
		id, err := uuid.Parse(req.PreferredProviderID)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid preferred_provider_id")
			return
		}
		preferredID = id
	}

	eligible, err := h.registry.EligibleProviders(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("Provider lookup failed", "tenant", tenantID, "error", err)
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Could not load AI provider configuration")
		return
	}

	start := time.Now()
	result, runErr := h.runner.RunFallback(r.Context(), string(taskType), eligible, h.invokeFunc(req), orchestrator.Options{
		TaskType:    taskType,
		PreferredID: preferredID,
	})

	h.recordUsage(tenantID, taskType, result, runErr, time.Since(start))

	if runErr != nil {
		h.respondFailure(w, result, runErr)
		return
	}

	resp, _ := result.Payload.(*providers.TaskResponse)
	if resp == nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Provider returned an unexpected payload")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, TaskResponse{
		Text:         resp.Text,
		ProviderType: string(result.Provider.ProviderType),
		Model:        resp.Model,
		Attempts:     toAttemptInfo(result.Attempts),
	})
}

// invokeFunc builds the per-provider invocation: decrypt the stored
// credential, call the family client, and reject apparently-successful
// responses whose content is actually a provider failure.
func (h *TaskHandler) invokeFunc(req TaskRequest) orchestrator.InvokeFunc {
	return func(ctx context.Context, p *models.Provider) (interface{}, error) {
		apiKey, err := h.vault.Decrypt(p.EncryptedKey)
		if err != nil {
			return nil, err
		}

		client, err := h.factory.ClientFor(p, apiKey)
		if err != nil {
			return nil, err
		}

		resp, err := client.Complete(ctx, providers.TaskRequest{
			System:    req.System,
			Prompt:    req.Prompt,
			MaxTokens: req.MaxTokens,
		})
		if err != nil {
			return nil, err
		}

		if det := softfail.Detect(resp.Text); det.IsSoftFailure {
			h.logger.Warn("Soft failure detected",
				"provider", p.ProviderType, "pattern", det.Pattern)
			return nil, &providers.CallError{
				Provider: p.ProviderType,
				Status:   http.StatusOK,
				Body:     resp.Text,
			}
		}

		return resp, nil
	}
}

// respondFailure maps terminal orchestration errors onto HTTP responses.
// "Zero providers configured" and "all configured providers failed" are
// deliberately distinct: they require different user guidance.
func (h *TaskHandler) respondFailure(w http.ResponseWriter, result *orchestrator.Result, runErr error) {
	if errors.Is(runErr, orchestrator.ErrNoProviders) {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.ErrorResponse{
			Error: "No AI provider is configured. Connect one in your AI settings.",
			Code:  "NO_PROVIDERS",
		})
		return
	}

	var exhausted *orchestrator.ExhaustedError
	if errors.As(runErr, &exhausted) {
		utils.RespondWithJSON(w, http.StatusBadGateway, struct {
			utils.ErrorResponse
			Attempts []attemptInfo `json:"attempts"`
		}{
			ErrorResponse: utils.ErrorResponse{
				Error: orchestrator.Summarize(exhausted.Attempts),
				Code:  "ALL_PROVIDERS_FAILED",
			},
			Attempts: toAttemptInfo(exhausted.Attempts),
		})
		return
	}

	var classified *aierror.ClassifiedError
	if errors.As(runErr, &classified) {
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, utils.ErrorResponse{
			Error:          classified.UserMessage,
			Code:           string(classified.Code),
			RemediationURL: classified.RemediationURL,
		})
		return
	}

	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		utils.RespondWithError(w, http.StatusRequestTimeout, "The request was cancelled")
		return
	}

	h.logger.Error("Unexpected orchestration error", "error", runErr)
	utils.RespondWithError(w, http.StatusInternalServerError, "AI task failed")
}

// recordUsage enqueues the run's usage event. Fire-and-forget: an enqueue
// failure is logged and the response proceeds untouched.
func (h *TaskHandler) recordUsage(tenantID uuid.UUID, taskType models.TaskType, result *orchestrator.Result, runErr error, elapsed time.Duration) {
	event := &usage.Event{
		TenantID:   tenantID,
		TaskType:   string(taskType),
		Success:    runErr == nil,
		Attempts:   len(result.Attempts),
		DurationMS: elapsed.Milliseconds(),
	}
	if runErr == nil && result.Provider != nil {
		event.ProviderType = string(result.Provider.ProviderType)
	}
	if runErr != nil {
		event.ErrorCode = terminalCode(runErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.usage.Enqueue(ctx, event); err != nil {
		h.logger.Error("Failed to enqueue usage event", "tenant", tenantID, "error", err)
	}
}

func terminalCode(runErr error) string {
	if errors.Is(runErr, orchestrator.ErrNoProviders) {
		return "NO_PROVIDERS"
	}
	var exhausted *orchestrator.ExhaustedError
	if errors.As(runErr, &exhausted) {
		return "ALL_PROVIDERS_FAILED"
	}
	var classified *aierror.ClassifiedError
	if errors.As(runErr, &classified) {
		return string(classified.Code)
	}
	return string(aierror.CodeUnknown)
}

func toAttemptInfo(attempts []orchestrator.Attempt) []attemptInfo {
	if len(attempts) == 0 {
		return nil
	}
	out := make([]attemptInfo, len(attempts))
	for i, a := range attempts {
		out[i] = attemptInfo{
			Provider: string(a.ProviderType),
			Code:     string(a.Code),
			Message:  a.Message,
			Status:   a.Status,
		}
	}
	return out
}
