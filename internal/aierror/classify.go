package aierror

import (
	"fmt"
	"strings"

	"ai_orchestrator/internal/models"
)

// ClassifiedError is the user-facing classification of one provider error:
// a normalized code, a message safe to show, and an optional link to the
// page where the user can fix the underlying problem.
type ClassifiedError struct {
	Code           Code
	UserMessage    string
	RemediationURL string
	Status         *int
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.UserMessage)
}

// phraseRule maps a lowercase substring of the raw error body to a code.
type phraseRule struct {
	substr string
	code   Code
}

// Family tables, highest priority first. These phrases indicate definite
// billing or permission problems and win regardless of status code: a 429
// that is actually "quota exhausted" must not be treated as "rate limited"
// and hammered again.
var openAIFatalPhrases = []phraseRule{
	{"insufficient_quota", CodeInsufficientQuota},
	{"exceeded your current quota", CodeInsufficientQuota},
	{"billing_hard_limit_reached", CodeBillingRequired},
	{"billing details", CodeBillingRequired},
	{"incorrect api key", CodeInvalidKey},
	{"invalid_api_key", CodeInvalidKey},
	{"you must be a member of an organization", CodePermissionDenied},
	{"does not have access to model", CodePermissionDenied},
}

var anthropicFatalPhrases = []phraseRule{
	{"credit balance is too low", CodeBillingRequired},
	{"billing", CodeBillingRequired},
	{"invalid x-api-key", CodeInvalidKey},
	{"authentication_error", CodeInvalidKey},
	{"permission_error", CodePermissionDenied},
}

var geminiFatalPhrases = []phraseRule{
	{"api key not valid", CodeInvalidKey},
	{"api_key_invalid", CodeInvalidKey},
	{"quota exceeded", CodeInsufficientQuota},
	{"resource_exhausted", CodeInsufficientQuota},
	{"billing", CodeBillingRequired},
	{"permission_denied", CodePermissionDenied},
	{"consumer has been suspended", CodePermissionDenied},
}

func fatalPhrasesFor(family models.ProviderType) []phraseRule {
	switch family {
	case models.ProviderTypeOpenAI:
		return openAIFatalPhrases
	case models.ProviderTypeAnthropic:
		return anthropicFatalPhrases
	case models.ProviderTypeGemini:
		return geminiFatalPhrases
	default:
		return nil
	}
}

// Body refinements applied on top of a 400 status.
var contextLengthPhrases = []string{
	"context length",
	"context_length",
	"maximum context",
	"prompt is too long",
	"too many tokens",
}

var contentPolicyPhrases = []string{
	"content policy",
	"content_policy",
	"content management policy",
	"safety",
	"blocked by",
}

// Generic message-text fallback, applied when neither the family table nor
// the status rules matched.
var genericPhrases = []phraseRule{
	{"timed out", CodeTimeout},
	{"timeout", CodeTimeout},
	{"deadline exceeded", CodeTimeout},
	{"connection refused", CodeNetworkError},
	{"connection reset", CodeNetworkError},
	{"no such host", CodeNetworkError},
	{"network", CodeNetworkError},
	{"econnrefused", CodeNetworkError},
	{"quota", CodeInsufficientQuota},
	{"billing", CodeBillingRequired},
	{"payment", CodeBillingRequired},
	{"rate limit", CodeRateLimit},
	{"too many requests", CodeRateLimit},
	{"overloaded", CodeServiceUnavailable},
}

func matchPhrases(body string, rules []phraseRule) (Code, bool) {
	for _, rule := range rules {
		if strings.Contains(body, rule.substr) {
			return rule.code, true
		}
	}
	return "", false
}

func containsAny(body string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(body, p) {
			return true
		}
	}
	return false
}

// Classify maps a raw provider error (status code and message body) from a
// specific provider family into a normalized code, a user-facing message
// and an optional remediation URL.
//
// Matching precedence within a family:
//  1. family-specific non-retryable billing/permission phrases, regardless
//     of status code
//  2. HTTP status rules with body-text refinements
//  3. generic message-text fallback
//  4. CodeUnknown
func Classify(family models.ProviderType, status *int, rawBody string) *ClassifiedError {
	body := strings.ToLower(rawBody)

	if code, ok := matchPhrases(body, fatalPhrasesFor(family)); ok {
		return newClassified(family, code, status)
	}

	if status != nil {
		if code, ok := classifyStatus(*status, body); ok {
			return newClassified(family, code, status)
		}
	}

	if code, ok := matchPhrases(body, genericPhrases); ok {
		return newClassified(family, code, status)
	}

	return newClassified(family, CodeUnknown, status)
}

func classifyStatus(status int, body string) (Code, bool) {
	switch {
	case status == 400:
		if containsAny(body, contextLengthPhrases) {
			return CodeContextLength, true
		}
		if containsAny(body, contentPolicyPhrases) {
			return CodeContentPolicy, true
		}
		return CodeUnknown, false // fall through to the generic phrases
	case status == 401:
		return CodeInvalidKey, true
	case status == 403:
		return CodePermissionDenied, true
	case status == 404:
		return CodeModelNotFound, true
	case status == 429:
		return CodeRateLimit, true
	case status >= 500:
		return CodeServiceUnavailable, true
	default:
		return CodeUnknown, false
	}
}

var userMessages = map[Code]string{
	CodeNetworkError:       "Could not reach the AI provider. Check your network and try again.",
	CodeTimeout:            "The AI provider took too long to respond. Please try again.",
	CodeServiceUnavailable: "The AI provider is temporarily unavailable. Please try again shortly.",
	CodeRateLimit:          "The AI provider is rate limiting requests. Please wait a moment and retry.",
	CodeInsufficientQuota:  "Your AI provider account is out of quota. Add credits to continue.",
	CodeBillingRequired:    "Your AI provider account has a billing problem. Update billing to continue.",
	CodeInvalidKey:         "The configured API key was rejected. Check the key in your AI settings.",
	CodeAuthError:          "Authentication with the AI provider failed. Check your AI settings.",
	CodeModelNotFound:      "The configured model was not found. Pick a different model in your AI settings.",
	CodeContentPolicy:      "The request was rejected by the provider's content policy.",
	CodeContextLength:      "The request is too long for the configured model. Shorten it and try again.",
	CodePermissionDenied:   "The configured API key does not have permission for this request.",
	CodeUnknown:            "The AI provider returned an unexpected error. Please try again.",
}

// remediationURLs point the user at the provider console page where the
// problem can actually be fixed. Only actionable codes carry a link.
var remediationURLs = map[models.ProviderType]map[Code]string{
	models.ProviderTypeOpenAI: {
		CodeInsufficientQuota: "https://platform.openai.com/account/billing",
		CodeBillingRequired:   "https://platform.openai.com/account/billing",
		CodeInvalidKey:        "https://platform.openai.com/api-keys",
		CodeAuthError:         "https://platform.openai.com/api-keys",
		CodePermissionDenied:  "https://platform.openai.com/account/limits",
	},
	models.ProviderTypeAnthropic: {
		CodeInsufficientQuota: "https://console.anthropic.com/settings/billing",
		CodeBillingRequired:   "https://console.anthropic.com/settings/billing",
		CodeInvalidKey:        "https://console.anthropic.com/settings/keys",
		CodeAuthError:         "https://console.anthropic.com/settings/keys",
	},
	models.ProviderTypeGemini: {
		CodeInsufficientQuota: "https://aistudio.google.com/app/plan_information",
		CodeBillingRequired:   "https://aistudio.google.com/app/plan_information",
		CodeInvalidKey:        "https://aistudio.google.com/apikey",
		CodeAuthError:         "https://aistudio.google.com/apikey",
	},
}

func newClassified(family models.ProviderType, code Code, status *int) *ClassifiedError {
	e := &ClassifiedError{
		Code:        code,
		UserMessage: userMessages[code],
		Status:      status,
	}
	if urls, ok := remediationURLs[family]; ok {
		e.RemediationURL = urls[code]
	}
	return e
}
