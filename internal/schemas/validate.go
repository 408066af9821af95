// Package schemas provides JSON Schema validation for payloads exchanged with the gateway.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed policy_response.schema.json
var policyResponseSchema string

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself,
// or a document that is not JSON at all
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

var (
	policyResponseOnce   sync.Once
	policyResponseLoaded *gojsonschema.Schema
	policyResponseErr    error
)

// ValidatePolicyResponse checks a gateway success body against the embedded schema.
func ValidatePolicyResponse(body []byte) error {
	policyResponseOnce.Do(func() {
		policyResponseLoaded, policyResponseErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(policyResponseSchema))
	})
	if policyResponseErr != nil {
		return &SchemaLoadError{Path: "policy_response.schema.json", Message: "invalid schema", Cause: policyResponseErr}
	}

	result, err := policyResponseLoaded.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &SchemaLoadError{
			Path:    "policy_response.schema.json",
			Message: "document could not be loaded",
			Cause:   err,
		}
	}
	return toValidationError(result)
}

func toValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
