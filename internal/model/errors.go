package model

// ProviderError carries a sanitized upstream failure: a stable code, a
// human-readable message safe to surface to callers, and retryability for
// clients that want to distinguish transient failures.
type ProviderError struct {
	Code       string
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
