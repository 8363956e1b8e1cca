package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai_orchestrator/internal/middleware"
	"ai_orchestrator/internal/models"
	"ai_orchestrator/internal/registry"
	"ai_orchestrator/internal/storage"
	"ai_orchestrator/internal/utils"
)

// ProvidersHandler manages a tenant's provider connections. API keys are
// encrypted on the way in and never returned; responses only say whether a
// credential is stored.
type ProvidersHandler struct {
	repo     *storage.ProviderRepository
	vault    *storage.Vault
	registry *registry.Service
	logger   *utils.Logger
}

// NewProvidersHandler creates a providers settings handler.
func NewProvidersHandler(repo *storage.ProviderRepository, vault *storage.Vault, reg *registry.Service) *ProvidersHandler {
	return &ProvidersHandler{
		repo:     repo,
		vault:    vault,
		registry: reg,
		logger:   utils.NewLogger("providers-handler"),
	}
}

// ProviderRequest is the create/update payload.
type ProviderRequest struct {
	ProviderType string `json:"provider_type"`
	Model        string `json:"model,omitempty"`
	DisplayName  string `json:"display_name,omitempty"`
	APIKey       string `json:"api_key,omitempty"`
	Active       *bool  `json:"active,omitempty"`
}

// ProviderResponse is a provider without its credential.
type ProviderResponse struct {
	ID              uuid.UUID `json:"id"`
	ProviderType    string    `json:"provider_type"`
	Model           string    `json:"model,omitempty"`
	DisplayName     string    `json:"display_name,omitempty"`
	Active          bool      `json:"active"`
	ConnectionOrder int       `json:"connection_order"`
	HasCredential   bool      `json:"has_credential"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

func toProviderResponse(p *models.Provider) ProviderResponse {
	return ProviderResponse{
		ID:              p.ID,
		ProviderType:    string(p.ProviderType),
		Model:           p.Model,
		DisplayName:     p.DisplayName,
		Active:          p.Active,
		ConnectionOrder: p.ConnectionOrder,
		HasCredential:   p.EncryptedKey != "",
		CreatedAt:       p.CreatedAt,
	}
}

// HandleCollection serves /ai/providers
func (h *ProvidersHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleItem serves /ai/providers/{id}
func (h *ProvidersHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/ai/providers/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid provider ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *ProvidersHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing tenant")
		return
	}

	providers, err := h.registry.Providers(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("Failed to list providers", "tenant", tenantID, "error", err)
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Could not load providers")
		return
	}

	out := make([]ProviderResponse, len(providers))
	for i := range providers {
		out[i] = toProviderResponse(&providers[i])
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

func (h *ProvidersHandler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing tenant")
		return
	}

	var req ProviderRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	providerType := models.ProviderType(req.ProviderType)
	if !providerType.IsSupported() {
		utils.RespondWithError(w, http.StatusBadRequest, "Unsupported provider type")
		return
	}
	if req.APIKey == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "api_key is required")
		return
	}

	encrypted, err := h.vault.Encrypt(req.APIKey)
	if err != nil {
		h.logger.Error("Failed to encrypt credential", "tenant", tenantID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store credential")
		return
	}

	provider := &models.Provider{
		TenantID:     tenantID,
		ProviderType: providerType,
		Model:        req.Model,
		DisplayName:  req.DisplayName,
		EncryptedKey: encrypted,
		Active:       true,
	}
	if req.Active != nil {
		provider.Active = *req.Active
	}

	if err := h.repo.Create(r.Context(), provider); err != nil {
		h.logger.Error("Failed to create provider", "tenant", tenantID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create provider")
		return
	}

	h.registry.InvalidateAsync(tenantID)
	h.logger.Info("Provider created",
		"tenant", tenantID, "provider", provider.ProviderType, "id", provider.ID)
	utils.RespondWithJSON(w, http.StatusCreated, toProviderResponse(provider))
}

func (h *ProvidersHandler) get(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing tenant")
		return
	}

	provider, err := h.repo.GetByID(r.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, storage.ErrProviderNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Provider not found")
			return
		}
		h.logger.Error("Failed to fetch provider", "tenant", tenantID, "id", id, "error", err)
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Could not load provider")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, toProviderResponse(provider))
}

func (h *ProvidersHandler) update(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing tenant")
		return
	}

	var req ProviderRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	provider, err := h.repo.GetByID(r.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, storage.ErrProviderNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Provider not found")
			return
		}
		h.logger.Error("Failed to fetch provider", "tenant", tenantID, "id", id, "error", err)
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Could not load provider")
		return
	}

	if req.Model != "" {
		provider.Model = req.Model
	}
	if req.DisplayName != "" {
		provider.DisplayName = req.DisplayName
	}
	if req.Active != nil {
		provider.Active = *req.Active
	}
	if req.APIKey != "" {
		encrypted, err := h.vault.Encrypt(req.APIKey)
		if err != nil {
			h.logger.Error("Failed to encrypt credential", "tenant", tenantID, "error", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store credential")
			return
		}
		provider.EncryptedKey = encrypted
	}

	if err := h.repo.Update(r.Context(), provider); err != nil {
		if errors.Is(err, storage.ErrProviderNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Provider not found")
			return
		}
		h.logger.Error("Failed to update provider", "tenant", tenantID, "id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update provider")
		return
	}

	h.registry.InvalidateAsync(tenantID)
	h.logger.Info("Provider updated", "tenant", tenantID, "id", id)
	utils.RespondWithJSON(w, http.StatusOK, toProviderResponse(provider))
}

func (h *ProvidersHandler) delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing tenant")
		return
	}

	if err := h.repo.Delete(r.Context(), tenantID, id); err != nil {
		if errors.Is(err, storage.ErrProviderNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Provider not found")
			return
		}
		h.logger.Error("Failed to delete provider", "tenant", tenantID, "id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete provider")
		return
	}

	h.registry.InvalidateAsync(tenantID)
	h.logger.Info("Provider deleted", "tenant", tenantID, "id", id)
	w.WriteHeader(http.StatusNoContent)
}
