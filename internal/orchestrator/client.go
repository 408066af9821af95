package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/policy-generator/internal/gateway"
	"github.com/jonathan/policy-generator/internal/schemas"
	"github.com/jonathan/policy-generator/internal/types"
)

// maxResponseBody bounds how much of a gateway reply is read.
const maxResponseBody = 1 << 20

// DefaultClientTimeout bounds a single gateway round trip.
const DefaultClientTimeout = 90 * time.Second

// GatewayClient sends one generation request to the gateway.
type GatewayClient interface {
	Generate(ctx context.Context, req types.PolicyRequest, credential string) (*types.PolicyResponse, error)
}

// HTTPGatewayClient calls a remote gateway over HTTP
type HTTPGatewayClient struct {
	url        string
	httpClient *http.Client
}

// NewHTTPGatewayClient creates a client for the gateway endpoint at url.
func NewHTTPGatewayClient(url string, timeout time.Duration) *HTTPGatewayClient {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &HTTPGatewayClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate posts the request with the credential as a bearer token.
func (c *HTTPGatewayClient) Generate(ctx context.Context, req types.PolicyRequest, credential string) (*types.PolicyResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Message: "gateway unreachable", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp types.ErrorResponse
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := schemas.ValidatePolicyResponse(body); err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: "malformed response", Cause: err}
	}

	var out types.PolicyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: "malformed response", Cause: err}
	}
	if out.Source == "" {
		out.Source = types.SourceGenerated
	}
	return &out, nil
}

// InProcessClient calls a Gateway directly, without HTTP.
type InProcessClient struct {
	Gateway *gateway.Gateway
}

// Generate invokes the gateway in the current process.
func (c *InProcessClient) Generate(ctx context.Context, req types.PolicyRequest, credential string) (*types.PolicyResponse, error) {
	text, err := c.Gateway.Generate(ctx, req.BusinessDescription, req.PolicyType, credential)
	if err != nil {
		var verr *gateway.ValidationError
		if errors.As(err, &verr) {
			return nil, &GatewayError{StatusCode: http.StatusBadRequest, Message: verr.Message, Cause: err}
		}
		return nil, &GatewayError{StatusCode: http.StatusInternalServerError, Message: "Failed to generate policy", Cause: err}
	}
	return &types.PolicyResponse{Policy: text, Source: types.SourceGenerated}, nil
}

// StaticCredential returns a CredentialSource that always yields token.
func StaticCredential(token string) CredentialSource {
	token = strings.TrimSpace(token)
	return func(context.Context) (string, error) {
		return token, nil
	}
}
