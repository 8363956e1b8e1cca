package aierror

import (
	"context"
	"errors"
	"net"
	"strings"

	"ai_orchestrator/internal/providers"
	"ai_orchestrator/internal/storage"
)

// ShouldFallback answers the narrower, operation-level question: given an
// error from one provider, should the next provider in the chain be tried
// at all?
//
// Network errors, timeouts, 5xx, 429 and 401/403 are retryable — a
// different provider may well succeed. A 400 is retryable unless the body
// indicates a user-caused problem (prompt too long, content-policy
// violation); no amount of provider switching fixes the user's input, so
// the whole operation stops.
func ShouldFallback(err error) (bool, Code) {
	if err == nil {
		return false, ""
	}

	if errors.Is(err, storage.ErrDecryptFailed) {
		// Credential problem for this provider; the next one has its own key.
		return true, CodeInvalidKey
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true, CodeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, CodeTimeout
		}
		return true, CodeNetworkError
	}

	var callErr *providers.CallError
	if errors.As(err, &callErr) {
		return classifyCall(callErr)
	}

	// Classified errors keep their own retry decision.
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Code.Retryable(), classified.Code
	}

	return fallbackFromText(err.Error())
}

func classifyCall(callErr *providers.CallError) (bool, Code) {
	body := strings.ToLower(callErr.Body)

	switch {
	case callErr.Status == 400:
		if containsAny(body, contextLengthPhrases) {
			return false, CodeContextLength
		}
		if containsAny(body, contentPolicyPhrases) {
			return false, CodeContentPolicy
		}
		if code, ok := matchPhrases(body, genericPhrases); ok {
			return true, code
		}
		return true, CodeUnknown
	case callErr.Status == 401 || callErr.Status == 403:
		return true, CodeAuthError
	case callErr.Status == 404:
		return true, CodeModelNotFound
	case callErr.Status == 429:
		if code, ok := matchPhrases(body, fatalPhrasesFor(callErr.Provider)); ok {
			return true, code
		}
		return true, CodeRateLimit
	case callErr.Status >= 500:
		return true, CodeServiceUnavailable
	default:
		// Covers soft failures surfaced as HTTP-200 CallErrors.
		return fallbackFromText(body)
	}
}

func fallbackFromText(text string) (bool, Code) {
	if code, ok := matchPhrases(strings.ToLower(text), genericPhrases); ok {
		return code.Retryable(), code
	}
	return true, CodeUnknown
}

// StatusOf extracts the HTTP status from a provider call error, if the
// error carries one. Used to record status codes in attempt records.
func StatusOf(err error) *int {
	var callErr *providers.CallError
	if errors.As(err, &callErr) && callErr.Status > 0 {
		status := callErr.Status
		return &status
	}
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Status
	}
	return nil
}
