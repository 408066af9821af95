package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/policy-generator/internal/fallback"
	"github.com/jonathan/policy-generator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu          sync.Mutex
	requests    []types.PolicyRequest
	credentials []string
	resp        *types.PolicyResponse
	err         error
	release     chan struct{}
	started     chan struct{}
}

func (f *fakeGateway) Generate(ctx context.Context, req types.PolicyRequest, credential string) (*types.PolicyResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.credentials = append(f.credentials, credential)
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *recorder) last() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}
	}
	return r.notices[len(r.notices)-1]
}

const bookstore = "We run an online bookstore that collects email addresses for order confirmation."

func TestSubmit_Success(t *testing.T) {
	gw := &fakeGateway{resp: &types.PolicyResponse{Policy: "# Privacy Policy\n\nBody"}}
	notes := &recorder{}
	o := New(gw, Options{Notifier: notes, Credentials: StaticCredential("session-token")})

	res, err := o.Submit(context.Background(), bookstore, types.PolicyPrivacy)
	require.NoError(t, err)

	assert.Equal(t, "# Privacy Policy\n\nBody", res.Policy)
	assert.Equal(t, types.SourceGenerated, res.Source)
	assert.Equal(t, types.PolicyPrivacy, res.PolicyType)
	assert.NotEmpty(t, res.SubmissionID)

	require.Equal(t, 1, gw.calls())
	assert.Equal(t, bookstore, gw.requests[0].BusinessDescription)
	assert.Equal(t, types.PolicyPrivacy, gw.requests[0].PolicyType)
	assert.Equal(t, "session-token", gw.credentials[0])

	assert.Equal(t, "Policy Generated", notes.last().Title)
	assert.Equal(t, VariantDefault, notes.last().Variant)
	assert.False(t, o.InFlight())
}

func TestSubmit_BlankDescription(t *testing.T) {
	for _, desc := range []string{"", "   ", "\n\t "} {
		gw := &fakeGateway{resp: &types.PolicyResponse{Policy: "x"}}
		notes := &recorder{}
		o := New(gw, Options{Notifier: notes, FallbackEnabled: true})

		res, err := o.Submit(context.Background(), desc, types.PolicyTerms)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrDescriptionRequired)

		var verr *ValidationError
		assert.True(t, errors.As(err, &verr))
		assert.Equal(t, 0, gw.calls())
		assert.Equal(t, "Description Required", notes.last().Title)
		assert.Equal(t, VariantDestructive, notes.last().Variant)
	}
}

func TestSubmit_UnknownPolicyType(t *testing.T) {
	gw := &fakeGateway{}
	o := New(gw, Options{})

	_, err := o.Submit(context.Background(), bookstore, types.PolicyType("eula"))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "policyType", verr.Field)
	assert.Equal(t, 0, gw.calls())
}

func TestSubmit_FailureWithoutFallback(t *testing.T) {
	gw := &fakeGateway{err: &GatewayError{StatusCode: 500, Message: "Failed to generate policy"}}
	notes := &recorder{}
	o := New(gw, Options{Notifier: notes})

	res, err := o.Submit(context.Background(), bookstore, types.PolicyCookies)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrGenerationFailed)

	var gwErr *GatewayError
	assert.False(t, errors.As(err, &gwErr))

	assert.Equal(t, "Generation Failed", notes.last().Title)
	assert.Equal(t, VariantDestructive, notes.last().Variant)
	assert.False(t, o.InFlight())
}

func TestSubmit_FailureWithFallback(t *testing.T) {
	gw := &fakeGateway{err: &GatewayError{StatusCode: 401, Message: "Missing Authorization header"}}
	notes := &recorder{}
	o := New(gw, Options{Notifier: notes, FallbackEnabled: true})

	res, err := o.Submit(context.Background(), bookstore, types.PolicyPrivacy)
	require.NoError(t, err)

	assert.Equal(t, types.SourceFallback, res.Source)
	assert.Equal(t, fallback.Document(types.PolicyPrivacy, bookstore), res.Policy)
	assert.Contains(t, res.Policy, "# Privacy Policy")
	assert.Contains(t, res.Policy, bookstore)
	assert.Equal(t, 1, gw.calls())
	assert.NotEqual(t, VariantDestructive, notes.last().Variant)
}

func TestSubmit_CredentialError(t *testing.T) {
	gw := &fakeGateway{resp: &types.PolicyResponse{Policy: "x"}}
	o := New(gw, Options{Credentials: func(context.Context) (string, error) {
		return "", errors.New("session expired")
	}})

	_, err := o.Submit(context.Background(), bookstore, types.PolicyPrivacy)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.NotContains(t, err.Error(), "session expired")
	assert.Equal(t, 0, gw.calls())
}

func TestSubmit_SingleFlight(t *testing.T) {
	gw := &fakeGateway{
		resp:    &types.PolicyResponse{Policy: "# Terms"},
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	o := New(gw, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background(), bookstore, types.PolicyTerms)
		done <- err
	}()

	select {
	case <-gw.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never reached the gateway")
	}
	assert.True(t, o.InFlight())

	_, err := o.Submit(context.Background(), bookstore, types.PolicyTerms)
	assert.ErrorIs(t, err, ErrGenerationInFlight)

	close(gw.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, gw.calls())
	assert.False(t, o.InFlight())

	gw.started = nil
	gw.release = nil
	_, err = o.Submit(context.Background(), bookstore, types.PolicyTerms)
	require.NoError(t, err)
	assert.Equal(t, 2, gw.calls())
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation error: businessDescription - description is required", ErrDescriptionRequired.Error())

	err := &GatewayError{StatusCode: 401, Message: "Missing Authorization header"}
	assert.Equal(t, "gateway error: status 401: Missing Authorization header", err.Error())
	assert.True(t, err.Unauthorized())

	cause := errors.New("dial tcp: refused")
	err = &GatewayError{Message: "gateway unreachable", Cause: cause}
	assert.Equal(t, "gateway error: gateway unreachable: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, err.Unauthorized())
}
