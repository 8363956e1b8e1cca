package providers

import (
	"context"
	"fmt"

	"ai_orchestrator/internal/models"
)

// TaskRequest is a normalized natural-language task sent to a provider.
type TaskRequest struct {
	Model     string // provider-specific model name, empty for the family default
	System    string // optional system/instruction prompt
	Prompt    string
	MaxTokens int
}

// TaskResponse is a normalized provider response.
type TaskResponse struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Client is implemented by each concrete provider family client.
type Client interface {
	// Type returns the provider family this client talks to
	Type() models.ProviderType

	// Complete sends a task request and returns the text response.
	// Non-2xx provider responses come back as *CallError.
	Complete(ctx context.Context, req TaskRequest) (*TaskResponse, error)
}

// CallError is a failed provider call: the HTTP status and raw body the
// provider returned. The error classifier turns it into a normalized code;
// nothing downstream ever branches on the raw body directly.
type CallError struct {
	Provider models.ProviderType
	Status   int
	Body     string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Status, e.Body)
}

// defaultMaxTokens bounds responses when the caller does not specify one.
const defaultMaxTokens = 1024
