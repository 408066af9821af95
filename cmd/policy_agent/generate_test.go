package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jonathan/policy-generator/internal/config"
	"github.com/jonathan/policy-generator/internal/orchestrator"
	"github.com/jonathan/policy-generator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGateway struct {
	mu    sync.Mutex
	calls map[types.PolicyType]int
	fail  map[types.PolicyType]bool
}

func (s *stubGateway) Generate(_ context.Context, req types.PolicyRequest, _ string) (*types.PolicyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[types.PolicyType]int)
	}
	s.calls[req.PolicyType]++
	if s.fail[req.PolicyType] {
		return nil, &orchestrator.GatewayError{StatusCode: 500, Message: "Failed to generate policy"}
	}
	return &types.PolicyResponse{Policy: "# " + req.PolicyType.Label() + "\n", Source: types.SourceGenerated}, nil
}

type memClipboard struct{ text string }

func (c *memClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

const description = "We run an online bookstore that collects email addresses for order confirmation."

func TestParseTypes(t *testing.T) {
	all, err := parseTypes("all")
	require.NoError(t, err)
	assert.Equal(t, types.AllPolicyTypes(), all)

	one, err := parseTypes(" Cookies ")
	require.NoError(t, err)
	assert.Equal(t, []types.PolicyType{types.PolicyCookies}, one)

	_, err = parseTypes("eula")
	assert.Error(t, err)
}

func TestReadDescription(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desc.txt")
	require.NoError(t, os.WriteFile(path, []byte(description), 0644))

	got, err := readDescription(path, nil)
	require.NoError(t, err)
	assert.Equal(t, description, got)

	got, err = readDescription("-", strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	_, err = readDescription(filepath.Join(t.TempDir(), "missing.txt"), nil)
	assert.Error(t, err)
}

func TestResolveGenerateOptions_OutputDir(t *testing.T) {
	oldType, oldDesc, oldOut := genType, genDescription, genOutDir
	t.Cleanup(func() { genType, genDescription, genOutDir = oldType, oldDesc, oldOut })

	cfg := &config.Config{Client: config.ClientConfig{OutputDir: "./policies"}}
	genType, genDescription, genOutDir = "privacy", description, ""

	opts, err := resolveGenerateOptions(&cobra.Command{}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "./policies", opts.OutDir)
	assert.False(t, opts.Print)

	genOutDir = "./override"
	opts, err = resolveGenerateOptions(&cobra.Command{}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "./override", opts.OutDir)

	cfg.Client.OutputDir = ""
	genOutDir = ""
	opts, err = resolveGenerateOptions(&cobra.Command{}, cfg)
	require.NoError(t, err)
	assert.Empty(t, opts.OutDir)
	assert.True(t, opts.Print)
}

func TestGeneratePolicies_AllTypesToDirectory(t *testing.T) {
	dir := t.TempDir()
	gw := &stubGateway{}
	var stdout, stderr bytes.Buffer

	err := generatePolicies(context.Background(), generateOptions{
		Types:       types.AllPolicyTypes(),
		Description: description,
		OutDir:      dir,
	}, gw, &memClipboard{}, zap.NewNop(), &stdout, &stderr)
	require.NoError(t, err)

	for _, name := range []string{"privacy-policy.md", "terms-of-service.md", "cookie-policy.md"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(string(data), "# "))
	}
	for _, pt := range types.AllPolicyTypes() {
		assert.Equal(t, 1, gw.calls[pt])
	}
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "3 of 3 succeeded")
	assert.Contains(t, stderr.String(), "TERMS OF SERVICE")
}

func TestGeneratePolicies_PrintAndCopy(t *testing.T) {
	clip := &memClipboard{}
	var stdout, stderr bytes.Buffer

	err := generatePolicies(context.Background(), generateOptions{
		Types:       []types.PolicyType{types.PolicyTerms},
		Description: description,
		Print:       true,
		Copy:        true,
	}, &stubGateway{}, clip, zap.NewNop(), &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, "# Terms of Service\n", stdout.String())
	assert.Equal(t, "# Terms of Service\n", clip.text)
	assert.Contains(t, stderr.String(), "Copied to Clipboard")
}

func TestGeneratePolicies_PartialFailure(t *testing.T) {
	gw := &stubGateway{fail: map[types.PolicyType]bool{types.PolicyCookies: true}}
	var stdout, stderr bytes.Buffer

	err := generatePolicies(context.Background(), generateOptions{
		Types:       types.AllPolicyTypes(),
		Description: description,
		Print:       true,
	}, gw, &memClipboard{}, zap.NewNop(), &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 policies failed")
	assert.Contains(t, stdout.String(), "# Privacy Policy")
	assert.NotContains(t, stdout.String(), "# Cookie Policy")
	assert.Contains(t, stderr.String(), "Generation Failed")
}

func TestGeneratePolicies_Fallback(t *testing.T) {
	gw := &stubGateway{fail: map[types.PolicyType]bool{types.PolicyPrivacy: true}}
	var stdout, stderr bytes.Buffer

	err := generatePolicies(context.Background(), generateOptions{
		Types:       []types.PolicyType{types.PolicyPrivacy},
		Description: description,
		Print:       true,
		Fallback:    true,
	}, gw, &memClipboard{}, zap.NewNop(), &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "# Privacy Policy for Your Business")
	assert.Contains(t, stdout.String(), description)
}

func TestGeneratePolicies_BlankDescription(t *testing.T) {
	gw := &stubGateway{}
	var stdout, stderr bytes.Buffer

	err := generatePolicies(context.Background(), generateOptions{
		Types: []types.PolicyType{types.PolicyPrivacy},
		Print: true,
	}, gw, &memClipboard{}, zap.NewNop(), &stdout, &stderr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, orchestrator.ErrDescriptionRequired))
	assert.Empty(t, gw.calls)
	assert.Contains(t, stderr.String(), "Description Required")
}

func TestHashKeyCommand(t *testing.T) {
	var out bytes.Buffer
	hashKeyCmd.SetOut(&out)
	hashKeyCost = 4
	t.Cleanup(func() { hashKeyCost = 12 })

	require.NoError(t, runHashKey(hashKeyCmd, []string{"secret-key"}))
	assert.True(t, strings.HasPrefix(out.String(), "$2a$04$"))
}
