package main

import (
	"context"
	"fmt"

	"github.com/jonathan/policy-generator/internal/config"
	"github.com/jonathan/policy-generator/internal/gateway"
	"github.com/jonathan/policy-generator/internal/llm"
	"github.com/jonathan/policy-generator/internal/server"
	"github.com/jonathan/policy-generator/internal/server/middleware"
	"go.uber.org/zap"
)

// buildGateway creates the provider client and the gateway around it.
// The returned close function releases the provider client.
func buildGateway(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gateway.Gateway, func(), error) {
	llmCfg := llm.DefaultFor(llm.Provider(cfg.LLM.Provider))
	if llmCfg == nil {
		return nil, nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "" {
		llmCfg = llmCfg.WithModel(cfg.LLM.Model)
	}
	if cfg.LLM.BaseURL != "" {
		llmCfg.BaseURL = cfg.LLM.BaseURL
	}
	llmCfg.UseCallerCredential = cfg.LLM.UseCallerCredential

	if cfg.LLM.APIKey == "" && !llmCfg.UseCallerCredential {
		return nil, nil, fmt.Errorf("an API key is required: set llm.api_key, GEMINI_API_KEY or OPENAI_API_KEY")
	}

	client, err := llm.NewClient(ctx, llmCfg, cfg.LLM.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	logger.Info("llm client ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", client.Model()),
	)

	gw := gateway.New(client, gateway.Options{
		Temperature:      float32(cfg.LLM.Temperature),
		MaxOutputTokens:  int32(cfg.LLM.MaxOutputTokens),
		Timeout:          cfg.LLM.Timeout,
		BreakerThreshold: uint32(cfg.LLM.BreakerThreshold),
		BreakerCooldown:  cfg.LLM.BreakerCooldown,
		Logger:           logger,
	})
	return gw, func() { _ = client.Close() }, nil
}

// buildValidator returns the token validator for the configured auth mode.
func buildValidator(auth config.AuthConfig) (middleware.TokenValidator, error) {
	switch auth.Mode {
	case config.AuthModeJWT:
		return server.NewJWTService(auth.JWTSecret, auth.JWTExpirationHours).AsTokenValidator(), nil
	case config.AuthModeAPIKey:
		return server.NewAPIKeyValidator(auth.APIKeyHashes)
	default:
		return nil, nil
	}
}
