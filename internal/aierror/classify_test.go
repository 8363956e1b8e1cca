package aierror

import (
	"testing"

	"ai_orchestrator/internal/models"
)

func intPtr(v int) *int { return &v }

func TestClassify_OpenAIFatalPhrases(t *testing.T) {
	cases := []struct {
		body string
		want Code
	}{
		{"You exceeded your current quota, please check your plan and billing details", CodeInsufficientQuota},
		{`{"error":{"type":"insufficient_quota"}}`, CodeInsufficientQuota},
		{"billing_hard_limit_reached", CodeBillingRequired},
		{"Incorrect API key provided: sk-abc***", CodeInvalidKey},
		{"You must be a member of an organization to use the API", CodePermissionDenied},
		{"Project does not have access to model gpt-4o", CodePermissionDenied},
	}

	for _, tc := range cases {
		got := Classify(models.ProviderTypeOpenAI, intPtr(429), tc.body)
		if got.Code != tc.want {
			t.Errorf("Classify(openai, 429, %q) = %s, want %s", tc.body, got.Code, tc.want)
		}
	}
}

func TestClassify_FamilyPhrasesWinOverStatus(t *testing.T) {
	// A 429 whose body says quota exhaustion must classify as quota, not
	// rate limit: retrying a drained account is pointless.
	got := Classify(models.ProviderTypeOpenAI, intPtr(429), "You exceeded your current quota")
	if got.Code != CodeInsufficientQuota {
		t.Errorf("Expected INSUFFICIENT_QUOTA, got %s", got.Code)
	}

	got = Classify(models.ProviderTypeAnthropic, intPtr(400), "Your credit balance is too low to access the Anthropic API")
	if got.Code != CodeBillingRequired {
		t.Errorf("Expected BILLING_REQUIRED, got %s", got.Code)
	}
}

func TestClassify_AnthropicPhrases(t *testing.T) {
	cases := []struct {
		body string
		want Code
	}{
		{"invalid x-api-key", CodeInvalidKey},
		{`{"error":{"type":"authentication_error"}}`, CodeInvalidKey},
		{`{"error":{"type":"permission_error"}}`, CodePermissionDenied},
	}

	for _, tc := range cases {
		got := Classify(models.ProviderTypeAnthropic, intPtr(401), tc.body)
		if got.Code != tc.want {
			t.Errorf("Classify(anthropic, 401, %q) = %s, want %s", tc.body, got.Code, tc.want)
		}
	}
}

func TestClassify_GeminiPhrases(t *testing.T) {
	cases := []struct {
		body string
		want Code
	}{
		{"API key not valid. Please pass a valid API key.", CodeInvalidKey},
		{"RESOURCE_EXHAUSTED: Quota exceeded for quota metric", CodeInsufficientQuota},
		{"PERMISSION_DENIED: Consumer has been suspended", CodePermissionDenied},
	}

	for _, tc := range cases {
		got := Classify(models.ProviderTypeGemini, intPtr(403), tc.body)
		if got.Code != tc.want {
			t.Errorf("Classify(gemini, 403, %q) = %s, want %s", tc.body, got.Code, tc.want)
		}
	}
}

func TestClassify_StatusRules(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   Code
	}{
		{400, "This model's maximum context length is 128000 tokens", CodeContextLength},
		{400, "prompt is too long: 210000 tokens", CodeContextLength},
		{400, "Your request was rejected by our content policy", CodeContentPolicy},
		{401, "unauthorized", CodeInvalidKey},
		{403, "forbidden", CodePermissionDenied},
		{404, "model not found", CodeModelNotFound},
		{429, "slow down", CodeRateLimit},
		{500, "internal error", CodeServiceUnavailable},
		{503, "overloaded", CodeServiceUnavailable},
	}

	for _, tc := range cases {
		got := Classify(models.ProviderTypeOpenAI, intPtr(tc.status), tc.body)
		if got.Code != tc.want {
			t.Errorf("Classify(openai, %d, %q) = %s, want %s", tc.status, tc.body, got.Code, tc.want)
		}
	}
}

func TestClassify_GenericTextFallback(t *testing.T) {
	cases := []struct {
		body string
		want Code
	}{
		{"dial tcp: connection refused", CodeNetworkError},
		{"request timed out after 45s", CodeTimeout},
		{"lookup api.openai.com: no such host", CodeNetworkError},
		{"completely novel failure mode", CodeUnknown},
	}

	for _, tc := range cases {
		got := Classify(models.ProviderTypeOpenAI, nil, tc.body)
		if got.Code != tc.want {
			t.Errorf("Classify(openai, nil, %q) = %s, want %s", tc.body, got.Code, tc.want)
		}
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	got := Classify(models.ProviderTypeOpenAI, intPtr(429), "INSUFFICIENT_QUOTA")
	if got.Code != CodeInsufficientQuota {
		t.Errorf("Expected case-insensitive match, got %s", got.Code)
	}
}

func TestClassify_CarriesUserMessageAndRemediation(t *testing.T) {
	got := Classify(models.ProviderTypeOpenAI, intPtr(401), "invalid_api_key")
	if got.UserMessage == "" {
		t.Error("Expected a user-facing message")
	}
	if got.RemediationURL != "https://platform.openai.com/api-keys" {
		t.Errorf("Unexpected remediation URL: %s", got.RemediationURL)
	}
	if got.Status == nil || *got.Status != 401 {
		t.Error("Expected status to be carried through")
	}

	// Transient codes carry no remediation link; there is nothing to fix
	got = Classify(models.ProviderTypeOpenAI, intPtr(503), "overloaded")
	if got.RemediationURL != "" {
		t.Errorf("Expected no remediation URL for SERVICE_UNAVAILABLE, got %s", got.RemediationURL)
	}
}

func TestClassify_EveryCodeHasUserMessage(t *testing.T) {
	codes := []Code{
		CodeNetworkError, CodeTimeout, CodeServiceUnavailable, CodeRateLimit,
		CodeInsufficientQuota, CodeBillingRequired, CodeInvalidKey, CodeAuthError,
		CodeModelNotFound, CodeContentPolicy, CodeContextLength,
		CodePermissionDenied, CodeUnknown,
	}
	for _, code := range codes {
		if userMessages[code] == "" {
			t.Errorf("Code %s has no user message", code)
		}
	}
}

func TestCode_Retryable(t *testing.T) {
	nonRetryable := []Code{CodeContentPolicy, CodeContextLength}
	for _, code := range nonRetryable {
		if code.Retryable() {
			t.Errorf("Code %s should not be retryable", code)
		}
	}

	retryable := []Code{
		CodeNetworkError, CodeTimeout, CodeServiceUnavailable, CodeRateLimit,
		CodeInsufficientQuota, CodeBillingRequired, CodeInvalidKey, CodeAuthError,
		CodeModelNotFound, CodePermissionDenied, CodeUnknown,
		Code("NEVER_SEEN_BEFORE"),
	}
	for _, code := range retryable {
		if !code.Retryable() {
			t.Errorf("Code %s should be retryable", code)
		}
	}
}
