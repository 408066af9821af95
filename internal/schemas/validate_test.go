package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePolicyResponse_Valid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"policy only", `{"policy": "# Privacy Policy"}`},
		{"generated source", `{"policy": "# Terms", "source": "generated"}`},
		{"fallback source", `{"policy": "# Cookies", "source": "fallback"}`},
		{"extra fields", `{"policy": "# Doc", "model": "gemini"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, ValidatePolicyResponse([]byte(tt.body)))
		})
	}
}

func TestValidatePolicyResponse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing policy", `{"error": "nope"}`, "(root)"},
		{"empty policy", `{"policy": ""}`, "policy"},
		{"policy wrong type", `{"policy": 42}`, "policy"},
		{"unknown source", `{"policy": "# Doc", "source": "cache"}`, "source"},
		{"not an object", `["policy"]`, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePolicyResponse([]byte(tt.body))
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
			require.NotEmpty(t, verr.Errors)
			assert.Equal(t, tt.field, verr.Errors[0].Field)
		})
	}
}

func TestValidatePolicyResponse_MalformedJSON(t *testing.T) {
	err := ValidatePolicyResponse([]byte(`{"policy": `))
	require.Error(t, err)

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "document could not be loaded")
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "policy", Message: "is required"},
			{Field: "source", Message: "must be one of the following"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "1. policy: is required")
	assert.Contains(t, errorMsg, "2. source")
}

func TestSchemaLoadError_Unwrap(t *testing.T) {
	cause := errors.New("bad json")
	err := &SchemaLoadError{Path: "x.json", Message: "oops", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load schema x.json: oops: bad json", err.Error())
}
