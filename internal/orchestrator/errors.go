package orchestrator

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError indicates input that was rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

var (
	// ErrDescriptionRequired is returned when the description is blank.
	ErrDescriptionRequired = &ValidationError{Field: "businessDescription", Message: "description is required"}

	// ErrGenerationInFlight is returned when Submit is called while another
	// submission on the same orchestrator has not finished.
	ErrGenerationInFlight = errors.New("a policy generation is already in progress")

	// ErrGenerationFailed is the only failure callers see from the gateway path.
	ErrGenerationFailed = errors.New("generation failed, try again")
)

// GatewayError describes a failed call to the generation gateway.
type GatewayError struct {
	// StatusCode is zero when no HTTP response was received.
	StatusCode int
	Message    string
	Cause      error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("gateway error: %s: %v", msg, e.Cause)
	}
	return "gateway error: " + msg
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Unauthorized reports whether the gateway rejected the credential.
func (e *GatewayError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// ExportError wraps a clipboard or file-save failure.
type ExportError struct {
	Op    string
	Cause error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed: %s: %v", e.Op, e.Cause)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}
