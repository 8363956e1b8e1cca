// Package orchestrator runs one natural-language task against a ranked
// chain of providers: invoke, classify the failure, decide whether the next
// provider gets a turn, and aggregate the outcome. Providers are tried
// strictly one at a time — a later provider only runs after the earlier one
// has fully failed.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ai_orchestrator/internal/aierror"
	"ai_orchestrator/internal/models"
	"ai_orchestrator/internal/selector"
	"ai_orchestrator/internal/utils"
)

// ErrNoProviders is the terminal error for an empty chain: the tenant has
// no eligible providers configured and must add one. Distinct from
// ExhaustedError, where configured providers all failed.
var ErrNoProviders = errors.New("no AI providers configured")

// ExhaustedError means every provider in the chain failed retryably. It
// carries the full ordered attempt list as the audit trail.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	return Summarize(e.Attempts)
}

// Attempt records one provider tried during a run. Immutable once
// appended; the ordered list across a run is returned to the caller on
// failure.
type Attempt struct {
	ProviderID   uuid.UUID
	ProviderType models.ProviderType
	Code         aierror.Code
	Message      string // truncated, secret-scrubbed
	Status       *int
	At           time.Time
}

// Result is the terminal value of one orchestration run.
type Result struct {
	Success  bool
	Provider *models.Provider // provider that served, nil on failure
	Payload  interface{}      // opaque to the orchestrator
	Attempts []Attempt        // empty on first-try success
}

// InvokeFunc performs the actual provider call. The orchestrator supplies
// the provider; the caller owns credential decryption, transport and
// soft-failure detection, feeding any of those back as an error.
type InvokeFunc func(ctx context.Context, provider *models.Provider) (interface{}, error)

// attemptMessageLimit bounds raw provider messages in attempt records.
const attemptMessageLimit = 300

// Runner executes fallback chains.
type Runner struct {
	logger *utils.Logger
}

// NewRunner creates a runner with its own component logger.
func NewRunner() *Runner {
	return &Runner{logger: utils.NewLogger("orchestrator")}
}

// Options tune one RunFallback call.
type Options struct {
	TaskType    models.TaskType
	PreferredID uuid.UUID // moved to the front of the chain when present
}

// RunFallback is the single orchestration entry point: rank the providers
// for the task, then execute the chain.
func (r *Runner) RunFallback(ctx context.Context, operation string, providers []models.Provider, invoke InvokeFunc, opts Options) (*Result, error) {
	chain := selector.BuildChain(providers, opts.TaskType, opts.PreferredID)
	return r.Run(ctx, operation, chain, invoke)
}

// Run executes a pre-ranked chain. State machine per operation:
//
//	Pending -> Attempting(p0) -> {Success | Attempting(p1) | Stopped | Exhausted}
//
// A retryable failure appends an attempt record and moves on; a
// non-retryable (user-input) failure stops immediately even if providers
// remain; failing the last provider retryably exhausts the chain.
func (r *Runner) Run(ctx context.Context, operation string, chain []models.Provider, invoke InvokeFunc) (*Result, error) {
	if len(chain) == 0 {
		r.logger.Warn("No providers available", "operation", operation)
		return &Result{Success: false}, ErrNoProviders
	}

	attempts := make([]Attempt, 0, len(chain))

	for i := range chain {
		provider := &chain[i]

		if err := ctx.Err(); err != nil {
			r.logger.Warn("Operation cancelled",
				"operation", operation, "provider", provider.ProviderType)
			return &Result{Success: false, Attempts: attempts}, err
		}

		r.logger.Debug("Attempting provider",
			"operation", operation,
			"provider", provider.ProviderType,
			"position", i,
			"chain_len", len(chain))

		payload, err := invoke(ctx, provider)
		if err == nil {
			r.logger.Info("Provider succeeded",
				"operation", operation,
				"provider", provider.ProviderType,
				"prior_failures", len(attempts))
			return &Result{
				Success:  true,
				Provider: provider,
				Payload:  payload,
				Attempts: attempts,
			}, nil
		}

		retry, code := aierror.ShouldFallback(err)
		attempt := Attempt{
			ProviderID:   provider.ID,
			ProviderType: provider.ProviderType,
			Code:         code,
			Message:      utils.SafeMessage(err.Error(), attemptMessageLimit),
			Status:       aierror.StatusOf(err),
			At:           time.Now(),
		}
		attempts = append(attempts, attempt)

		if !retry {
			r.logger.Warn("Provider failed fatally, stopping chain",
				"operation", operation,
				"provider", provider.ProviderType,
				"code", code,
				"error", attempt.Message)
			return &Result{Success: false, Attempts: attempts},
				fmt.Errorf("provider %s: %w", provider.ProviderType,
					aierror.Classify(provider.ProviderType, attempt.Status, err.Error()))
		}

		r.logger.Warn("Provider failed, trying next",
			"operation", operation,
			"provider", provider.ProviderType,
			"code", code,
			"remaining", len(chain)-i-1,
			"error", attempt.Message)
	}

	r.logger.Error("All providers exhausted",
		"operation", operation, "attempts", len(attempts))
	return &Result{Success: false, Attempts: attempts}, &ExhaustedError{Attempts: attempts}
}
