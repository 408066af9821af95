package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/policy-generator/internal/gateway"
	"github.com/jonathan/policy-generator/internal/types"
)

// Client-facing error messages. Causes are logged, never returned.
const (
	MsgRequired         = "Business description and policy type are required"
	MsgGenerationFailed = "Failed to generate policy"
)

// AuthError indicates a rejected credential.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "unauthorized: " + e.Message
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		gwValidation  *gateway.ValidationError
		reqValidation *types.RequestValidationError
		authErr       *AuthError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &gwValidation), errors.As(err, &reqValidation):
		return http.StatusBadRequest
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the only error text a client receives for err.
func publicMessage(err error) string {
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return MsgRequired
	case http.StatusUnauthorized:
		return "Unauthorized"
	default:
		return MsgGenerationFailed
	}
}
