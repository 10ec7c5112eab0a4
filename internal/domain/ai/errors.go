package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrUnavailable is returned when no provider is configured or the breaker is open.
var ErrUnavailable = errors.New("ai provider unavailable")
