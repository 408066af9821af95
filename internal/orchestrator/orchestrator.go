// Package orchestrator drives one policy generation from form input to a
// displayable document: it validates input, calls the gateway with the
// caller's credential, owns the fallback template, and exports results.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/policy-generator/internal/fallback"
	"github.com/jonathan/policy-generator/internal/types"
	"go.uber.org/zap"
)

// Notice variants.
const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// Notice is a short user-facing message.
type Notice struct {
	Title       string
	Description string
	Variant     string
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

// CredentialSource yields the caller's current session credential.
type CredentialSource func(ctx context.Context) (string, error)

// Result is a document ready to display or export.
type Result struct {
	SubmissionID string
	PolicyType   types.PolicyType
	Policy       string
	Source       string
}

// Options configures an Orchestrator.
type Options struct {
	// FallbackEnabled substitutes the built-in template when generation fails.
	FallbackEnabled bool
	Credentials     CredentialSource
	Notifier        Notifier
	Saver           FileSaver
	Clipboard       Clipboard
	Logger          *zap.Logger
}

// Orchestrator allows at most one generation in flight per instance.
type Orchestrator struct {
	gateway GatewayClient
	opts    Options
	logger  *zap.Logger

	mu       sync.Mutex
	inFlight bool
}

// New creates an Orchestrator around the given gateway client.
func New(gw GatewayClient, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(Notice) {})
	}
	if opts.Credentials == nil {
		opts.Credentials = StaticCredential("")
	}
	return &Orchestrator{
		gateway: gw,
		opts:    opts,
		logger:  logger.Named("orchestrator"),
	}
}

// InFlight reports whether a submission is currently running.
func (o *Orchestrator) InFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight
}

func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return false
	}
	o.inFlight = true
	return true
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.inFlight = false
	o.mu.Unlock()
}

// Submit requests one document. A blank description is rejected without any
// network call. On gateway failure the result is either the fallback
// template (when enabled) or ErrGenerationFailed.
func (o *Orchestrator) Submit(ctx context.Context, description string, policyType types.PolicyType) (*Result, error) {
	if strings.TrimSpace(description) == "" {
		o.notify("Description Required", "Please provide a description of your business.", VariantDestructive)
		return nil, ErrDescriptionRequired
	}
	if !policyType.Valid() {
		return nil, &ValidationError{Field: "policyType", Message: fmt.Sprintf("unknown policy type %q", policyType)}
	}

	if !o.begin() {
		return nil, ErrGenerationInFlight
	}
	defer o.end()

	submissionID := uuid.NewString()
	log := o.logger.With(
		zap.String("submission_id", submissionID),
		zap.String("policy_type", policyType.String()),
	)
	label := strings.ToLower(policyType.Label())

	resp, err := o.generate(ctx, description, policyType)
	if err == nil {
		log.Info("policy generated", zap.Int("chars", len(resp.Policy)))
		o.notify("Policy Generated", fmt.Sprintf("Your %s has been successfully generated.", label), VariantDefault)
		return &Result{
			SubmissionID: submissionID,
			PolicyType:   policyType,
			Policy:       resp.Policy,
			Source:       types.SourceGenerated,
		}, nil
	}

	var gwErr *GatewayError
	if errors.As(err, &gwErr) && gwErr.Unauthorized() {
		log.Warn("gateway rejected credential", zap.Error(err))
	} else {
		log.Error("policy generation failed", zap.Error(err))
	}

	if o.opts.FallbackEnabled {
		log.Info("using fallback template")
		o.notify("Policy Generated From Template",
			fmt.Sprintf("The generator was unavailable, so a standard %s template was used. Review it before publishing.", label),
			VariantDefault)
		return &Result{
			SubmissionID: submissionID,
			PolicyType:   policyType,
			Policy:       fallback.Document(policyType, description),
			Source:       types.SourceFallback,
		}, nil
	}

	o.notify("Generation Failed", "There was an error generating your policy. Please try again.", VariantDestructive)
	return nil, ErrGenerationFailed
}

func (o *Orchestrator) generate(ctx context.Context, description string, policyType types.PolicyType) (*types.PolicyResponse, error) {
	credential, err := o.opts.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain credential: %w", err)
	}
	return o.gateway.Generate(ctx, types.PolicyRequest{
		BusinessDescription: description,
		PolicyType:          policyType,
	}, credential)
}

func (o *Orchestrator) notify(title, description, variant string) {
	o.opts.Notifier.Notify(Notice{Title: title, Description: description, Variant: variant})
}
