package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/policy-generator/internal/gateway"
	"github.com/jonathan/policy-generator/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"gateway validation", &gateway.ValidationError{Field: "policyType", Message: "unknown"}, http.StatusBadRequest},
		{"request validation", &types.RequestValidationError{}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("outer: %w", &gateway.ValidationError{}), http.StatusBadRequest},
		{"auth", &AuthError{Message: "bad token"}, http.StatusUnauthorized},
		{"generation", &gateway.GenerationError{Message: "provider call failed"}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage_NeverLeaksCause(t *testing.T) {
	err := &gateway.GenerationError{Message: "provider call failed", Cause: errors.New("api key sk-secret rejected")}
	assert.Equal(t, MsgGenerationFailed, publicMessage(err))
	assert.Equal(t, MsgRequired, publicMessage(&gateway.ValidationError{}))
}
