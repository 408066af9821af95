// Package gateway turns a business description and policy type into a
// markdown document through an external text-generation provider.
package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonathan/policy-generator/internal/llm"
	"github.com/jonathan/policy-generator/internal/prompts"
	"github.com/jonathan/policy-generator/internal/types"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Generation parameters fixed by the product.
const (
	DefaultTemperature     float32 = 0.7
	DefaultMaxOutputTokens int32   = 2000
	DefaultTimeout                 = 60 * time.Second
)

// Options tunes a Gateway. Zero values fall back to the defaults above.
type Options struct {
	Temperature     float32
	MaxOutputTokens int32
	// Timeout bounds the single provider call.
	Timeout time.Duration
	// BreakerThreshold opens a circuit breaker after this many consecutive
	// provider failures. Zero disables the breaker.
	BreakerThreshold uint32
	// BreakerCooldown is how long an open breaker rejects calls.
	BreakerCooldown time.Duration
	Logger          *zap.Logger
}

// Gateway is stateless per call and safe for concurrent use.
type Gateway struct {
	client  llm.Client
	opts    Options
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// New creates a Gateway around an LLM client
func New(client llm.Client, opts Options) *Gateway {
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Gateway{
		client: client,
		opts:   opts,
		logger: logger.Named("gateway"),
	}

	if opts.BreakerThreshold > 0 {
		threshold := opts.BreakerThreshold
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "llm-provider",
			MaxRequests: 1,
			Timeout:     opts.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				g.logger.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return g
}

// BuildMessages returns the system and user instructions for a request.
func BuildMessages(description string, policyType types.PolicyType) (system, user string) {
	data := map[string]string{
		"Label":       policyType.Label(),
		"Description": description,
	}
	system = prompts.Format(prompts.MustGet(prompts.PolicyFile, prompts.KeyGenerateSystem), data)
	user = prompts.Format(prompts.MustGet(prompts.PolicyFile, prompts.KeyGenerateUser), data)
	return system, user
}

// Generate makes exactly one provider call and returns its text verbatim.
// The credential is passed through untouched; authorization happens upstream.
func (g *Gateway) Generate(ctx context.Context, description string, policyType types.PolicyType, credential string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", &ValidationError{Field: "businessDescription", Message: "must not be empty"}
	}
	if !policyType.Valid() {
		return "", &ValidationError{Field: "policyType", Message: "must be one of privacy, terms, cookies"}
	}

	system, user := BuildMessages(description, policyType)
	req := llm.Request{
		System:          system,
		User:            user,
		Temperature:     g.opts.Temperature,
		MaxOutputTokens: g.opts.MaxOutputTokens,
		Credential:      credential,
	}

	log := g.logger.With(
		zap.String("policy_type", policyType.String()),
		zap.String("model", g.client.Model()),
		zap.Bool("credential_present", credential != ""),
	)

	start := time.Now()
	text, err := g.call(ctx, req)
	if err != nil {
		log.Error("generation failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", err
	}

	log.Info("generation succeeded",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(text)))
	return text, nil
}

func (g *Gateway) call(ctx context.Context, req llm.Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	invoke := func() (string, error) {
		text, err := g.client.Generate(callCtx, req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return "", &GenerationError{Message: "provider timed out", Cause: err}
			}
			return "", &GenerationError{Message: "provider call failed", Cause: err}
		}
		if strings.TrimSpace(text) == "" {
			return "", &GenerationError{Message: "provider returned an empty document"}
		}
		return text, nil
	}

	if g.breaker == nil {
		return invoke()
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return invoke()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &GenerationError{Message: "provider unavailable", Cause: err}
		}
		return "", err
	}
	return out.(string), nil
}
