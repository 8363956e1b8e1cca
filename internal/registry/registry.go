// Package registry is the read-through layer between the orchestrator and
// the provider store: cache hit returns immediately, a miss fetches from
// the repository and fills the cache.
package registry

import (
	"context"

	"github.com/google/uuid"

	"ai_orchestrator/internal/models"
	"ai_orchestrator/internal/storage"
	"ai_orchestrator/internal/utils"
)

// ProviderSource fetches a tenant's providers from the durable store.
// *storage.ProviderRepository implements it; tests substitute fakes.
type ProviderSource interface {
	GetByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Provider, error)
}

// Service serves tenant provider lists through the cache.
type Service struct {
	source ProviderSource
	cache  *storage.ProviderCache
	logger *utils.Logger
}

// NewService creates a registry service.
func NewService(source ProviderSource, cache *storage.ProviderCache) *Service {
	return &Service{
		source: source,
		cache:  cache,
		logger: utils.NewLogger("registry"),
	}
}

// Providers returns the tenant's providers (active and inactive), cached
// for the cache TTL. Store failures propagate wrapping
// storage.ErrProviderFetch, never as an empty list.
func (s *Service) Providers(ctx context.Context, tenantID uuid.UUID) ([]models.Provider, error) {
	if cached, ok := s.cache.Get(tenantID); ok {
		return cached, nil
	}

	providers, err := s.source.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(tenantID, providers)
	return providers, nil
}

// EligibleProviders returns only the providers that may participate in
// orchestration: active, credentialed and of a supported family.
// Ineligible providers are silently excluded.
func (s *Service) EligibleProviders(ctx context.Context, tenantID uuid.UUID) ([]models.Provider, error) {
	providers, err := s.Providers(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	eligible := make([]models.Provider, 0, len(providers))
	for _, p := range providers {
		if p.Eligible() {
			eligible = append(eligible, p)
		}
	}
	return eligible, nil
}

// Invalidate drops the tenant's cache entry. Must be called whenever a
// provider is added, edited or removed so correctness does not depend
// solely on TTL expiry.
func (s *Service) Invalidate(tenantID uuid.UUID) {
	s.cache.Invalidate(tenantID)
}

// InvalidateAsync invalidates without blocking the settings-update path.
// In-flight runs holding an already-fetched list finish against the stale
// list; that eventual-consistency window is accepted.
func (s *Service) InvalidateAsync(tenantID uuid.UUID) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Cache invalidation panicked", "tenant", tenantID, "panic", r)
			}
		}()
		s.cache.Invalidate(tenantID)
		s.logger.Debug("Provider cache invalidated", "tenant", tenantID)
	}()
}
