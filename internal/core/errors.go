package core

// Error codes for domain errors.
const (
	// ErrCodeInvalidRequest marks a join with a missing room or username.
	ErrCodeInvalidRequest = "invalid_request"
	// ErrCodeBadRequest marks a malformed inbound payload.
	ErrCodeBadRequest = "bad_request"
)

// CoreError wraps a code and human-readable message. It is surfaced to the
// offending connection only; relay failures are never surfaced at all.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
