package models

import (
	"time"

	"github.com/google/uuid"
)

// ProviderType enumerates supported provider families.
type ProviderType string

const (
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderTypeAnthropic ProviderType = "anthropic"
	ProviderTypeGemini    ProviderType = "gemini"
)

// SupportedProviderTypes is the allowlist of families the orchestrator will
// ever call. Rows with any other family are ignored, not rejected.
var SupportedProviderTypes = []ProviderType{
	ProviderTypeOpenAI,
	ProviderTypeAnthropic,
	ProviderTypeGemini,
}

// IsSupported reports whether the family string is in the allowlist.
func (t ProviderType) IsSupported() bool {
	for _, s := range SupportedProviderTypes {
		if t == s {
			return true
		}
	}
	return false
}

// Provider is the canonical, normalized provider record. The two historical
// active-flag columns (active, is_enabled) are collapsed into Active before
// a record leaves the storage layer.
type Provider struct {
	ID              uuid.UUID    `db:"id"`
	TenantID        uuid.UUID    `db:"tenant_id"`
	ProviderType    ProviderType `db:"provider_type"`
	Model           string       `db:"model"`
	DisplayName     string       `db:"display_name"`
	EncryptedKey    string       `db:"encrypted_key"`
	Active          bool         `db:"-"`
	ConnectionOrder int          `db:"connection_order"`
	CreatedAt       time.Time    `db:"created_at"`
}

// Eligible reports whether the provider may participate in orchestration:
// active, credentialed and of a supported family. Ineligible providers are
// silently excluded, never surfaced as errors.
func (p *Provider) Eligible() bool {
	return p.Active && p.EncryptedKey != "" && p.ProviderType.IsSupported()
}
