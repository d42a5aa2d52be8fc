package generation

import "errors"

// Sentinel errors for classifying provider interactions.
var (
	// ErrInvalidConfig is returned when the generator configuration is
	// incomplete or invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrInvalidRequest is returned when a submission is rejected before a
	// task is created: malformed parameters (e.g. seeds out of range) or a
	// non-success provider envelope.
	ErrInvalidRequest = errors.New("invalid generation request")

	// ErrRateLimited is returned when the provider rejects a submission
	// because of request-rate limits. Callers may retry after a cooldown.
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrTaskNotReady is returned when a status query reaches the provider
	// before it has materialized the task record. Callers treat this as
	// still-processing.
	ErrTaskNotReady = errors.New("task record not ready")

	// ErrProtocol is returned when the provider response cannot be
	// interpreted: transport failures, malformed bodies, or unexpected
	// envelope codes on status queries.
	ErrProtocol = errors.New("provider protocol error")
)
