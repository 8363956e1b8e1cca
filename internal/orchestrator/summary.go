package orchestrator

import (
	"fmt"

	"ai_orchestrator/internal/aierror"
)

// summaryPriority orders failure categories by how actionable they are for
// the user: a billing problem is worth surfacing over a transient network
// blip even if the network error happened last.
var summaryPriority = [][]aierror.Code{
	{aierror.CodeBillingRequired, aierror.CodeInsufficientQuota},
	{aierror.CodeInvalidKey, aierror.CodeAuthError, aierror.CodePermissionDenied},
	{aierror.CodeModelNotFound},
	{aierror.CodeRateLimit},
	{aierror.CodeNetworkError, aierror.CodeTimeout, aierror.CodeServiceUnavailable},
}

var summaryMessages = map[aierror.Code]string{
	aierror.CodeBillingRequired:    "your AI provider account has a billing problem",
	aierror.CodeInsufficientQuota:  "your AI provider account is out of quota",
	aierror.CodeInvalidKey:         "a configured API key was rejected",
	aierror.CodeAuthError:          "authentication with a provider failed",
	aierror.CodePermissionDenied:   "a configured API key lacks permission",
	aierror.CodeModelNotFound:      "a configured model was not found",
	aierror.CodeRateLimit:          "providers are rate limiting requests",
	aierror.CodeNetworkError:       "providers could not be reached",
	aierror.CodeTimeout:            "providers timed out",
	aierror.CodeServiceUnavailable: "providers are temporarily unavailable",
}

// Summarize builds one user-facing message from a full attempt list instead
// of dumping every raw provider error on the user. The most actionable
// category present wins: billing > key/auth > model config > rate limit >
// network/timeout > generic.
func Summarize(attempts []Attempt) string {
	if len(attempts) == 0 {
		return "All AI providers failed."
	}

	seen := make(map[aierror.Code]bool, len(attempts))
	for _, a := range attempts {
		seen[a.Code] = true
	}

	for _, group := range summaryPriority {
		for _, code := range group {
			if seen[code] {
				return fmt.Sprintf("All %d AI provider(s) failed: %s. Check your AI settings or try again later.",
					len(attempts), summaryMessages[code])
			}
		}
	}

	return fmt.Sprintf("All %d AI provider(s) failed. Please try again later.", len(attempts))
}
