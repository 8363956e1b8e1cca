package providers

import (
	"fmt"
	"time"

	"ai_orchestrator/internal/models"
)

// Factory builds family clients from normalized provider records and
// already-decrypted API keys.
type Factory struct {
	timeout time.Duration
}

// NewFactory creates a client factory with the given per-call timeout.
func NewFactory(timeout time.Duration) *Factory {
	return &Factory{timeout: timeout}
}

// ClientFor returns a client for the provider's family. The caller is
// responsible for decrypting the credential first; the factory never sees
// ciphertext.
func (f *Factory) ClientFor(provider *models.Provider, apiKey string) (Client, error) {
	switch provider.ProviderType {
	case models.ProviderTypeOpenAI:
		return NewOpenAIClient(apiKey, provider.Model, f.timeout)
	case models.ProviderTypeAnthropic:
		return NewAnthropicClient(apiKey, provider.Model, f.timeout)
	case models.ProviderTypeGemini:
		return NewGeminiClient(apiKey, provider.Model, f.timeout)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", provider.ProviderType)
	}
}
