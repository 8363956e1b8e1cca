package aierror

// Code is the closed taxonomy of normalized provider error codes. Every
// provider family's raw errors resolve into this one set so downstream code
// never branches on provider family.
type Code string

const (
	CodeNetworkError       Code = "NETWORK_ERROR"
	CodeTimeout            Code = "TIMEOUT"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeRateLimit          Code = "RATE_LIMIT"
	CodeInsufficientQuota  Code = "INSUFFICIENT_QUOTA"
	CodeBillingRequired    Code = "BILLING_REQUIRED"
	CodeInvalidKey         Code = "INVALID_KEY"
	CodeAuthError          Code = "AUTH_ERROR"
	CodeModelNotFound      Code = "MODEL_NOT_FOUND"
	CodeContentPolicy      Code = "CONTENT_POLICY"
	CodeContextLength      Code = "CONTEXT_LENGTH"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodeUnknown            Code = "UNKNOWN"
)

// retryable maps each code to the fallback decision: true means the next
// provider in the chain should be tried, false means the failure is
// inherent to the user's input and switching providers cannot fix it.
var retryable = map[Code]bool{
	CodeNetworkError:       true,
	CodeTimeout:            true,
	CodeServiceUnavailable: true,
	CodeRateLimit:          true,
	CodeInsufficientQuota:  true,
	CodeBillingRequired:    true,
	CodeInvalidKey:         true,
	CodeAuthError:          true,
	CodeModelNotFound:      true,
	CodeContentPolicy:      false,
	CodeContextLength:      false,
	CodePermissionDenied:   true,
	CodeUnknown:            true,
}

// Retryable reports whether a code allows falling back to the next
// provider. Unknown codes default to retryable; only definitively
// user-caused failures stop the chain.
func (c Code) Retryable() bool {
	if r, ok := retryable[c]; ok {
		return r
	}
	return true
}
