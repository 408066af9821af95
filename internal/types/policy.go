// Package types provides type definitions for structured data used throughout the policy generator.
package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// PolicyType identifies the kind of legal document to generate.
type PolicyType string

// Policy type constants. No other values are valid.
const (
	PolicyPrivacy PolicyType = "privacy"
	PolicyTerms   PolicyType = "terms"
	PolicyCookies PolicyType = "cookies"
)

// policyLabels maps each policy type to its human-readable category name.
var policyLabels = map[PolicyType]string{
	PolicyPrivacy: "Privacy Policy",
	PolicyTerms:   "Terms of Service",
	PolicyCookies: "Cookie Policy",
}

// AllPolicyTypes returns every supported policy type in display order.
func AllPolicyTypes() []PolicyType {
	return []PolicyType{PolicyPrivacy, PolicyTerms, PolicyCookies}
}

// ParsePolicyType converts a raw string into a PolicyType.
func ParsePolicyType(s string) (PolicyType, error) {
	pt := PolicyType(strings.TrimSpace(s))
	if !pt.Valid() {
		return "", fmt.Errorf("invalid policy type %q: must be one of privacy, terms, cookies", s)
	}
	return pt, nil
}

// Valid reports whether the policy type is one of the enumerated values.
func (p PolicyType) Valid() bool {
	_, ok := policyLabels[p]
	return ok
}

// Label returns the category label, e.g. "Terms of Service".
// Unknown types return an empty string.
func (p PolicyType) Label() string {
	return policyLabels[p]
}

func (p PolicyType) String() string {
	return string(p)
}

// PolicyRequest is the body accepted by the generation endpoint.
type PolicyRequest struct {
	BusinessDescription string     `json:"businessDescription" validate:"notblank"`
	PolicyType          PolicyType `json:"policyType" validate:"oneof=privacy terms cookies"`
}

// Source values for PolicyResponse.
const (
	SourceGenerated = "generated"
	SourceFallback  = "fallback"
)

// PolicyResponse carries a generated markdown document.
type PolicyResponse struct {
	Policy string `json:"policy"`
	Source string `json:"source,omitempty"`
}

// ErrorResponse is the body of every non-2xx gateway response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FieldError describes a single invalid field on a request.
type FieldError struct {
	Field string
	Rule  string
}

// RequestValidationError lists every invalid field on a PolicyRequest.
type RequestValidationError struct {
	Fields []FieldError
}

func (e *RequestValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s failed %s", f.Field, f.Rule))
	}
	return "invalid policy request: " + strings.Join(parts, ", ")
}

// HasField reports whether the named JSON field failed validation.
func (e *RequestValidationError) HasField(name string) bool {
	for _, f := range e.Fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Validate checks the request using the validator.
func (r *PolicyRequest) Validate() error {
	err := requestValidator().Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &RequestValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
