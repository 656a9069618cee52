package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	llmclient "catalognorm/internal/llm/client"
	"catalognorm/internal/tester"
	"catalognorm/internal/upstream"
)

// scriptedClient returns errs in order, then succeeds.
type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) Name() string { return "scripted" }
func (s *scriptedClient) Close() error { return nil }
func (s *scriptedClient) GenerateJSON(ctx context.Context, req llmclient.Request) (json.RawMessage, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return nil, s.errs[s.calls-1]
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	inner := &scriptedClient{errs: []error{
		&upstream.ServiceError{Service: "openai", StatusCode: http.StatusTooManyRequests},
		&upstream.ServiceError{Service: "openai", StatusCode: http.StatusBadGateway},
	}}
	cli := Wrap(inner, Retry(3, time.Millisecond))
	raw, err := cli.GenerateJSON(context.Background(), llmclient.Request{})
	tester.NoErr(t, err)
	tester.Eq(t, string(raw), `{"ok":true}`)
	tester.Eq(t, inner.calls, 3)
}

func TestRetry_DoesNotRetryRefusalOrAuth(t *testing.T) {
	for _, e := range []error{
		&llmclient.RefusalError{Provider: "openai"},
		&upstream.ServiceError{Service: "openai", StatusCode: http.StatusUnauthorized},
		llmclient.ErrEmptyResponse,
	} {
		inner := &scriptedClient{errs: []error{e}}
		_, err := Wrap(inner, Retry(5, time.Millisecond)).GenerateJSON(context.Background(), llmclient.Request{})
		tester.True(t, errors.Is(err, e), "error must be returned unchanged")
		tester.Eq(t, inner.calls, 1)
	}
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	e := &upstream.ServiceError{Service: "openai", StatusCode: http.StatusServiceUnavailable}
	inner := &scriptedClient{errs: []error{e, e, e, e}}
	_, err := Wrap(inner, Retry(2, time.Millisecond)).GenerateJSON(context.Background(), llmclient.Request{})
	se := tester.ErrAs[*upstream.ServiceError](t, err)
	tester.Eq(t, se.StatusCode, http.StatusServiceUnavailable)
	tester.Eq(t, inner.calls, 2)
}

func TestRetry_SingleAttemptIsPassThrough(t *testing.T) {
	e := &upstream.ServiceError{Service: "openai", StatusCode: http.StatusServiceUnavailable}
	inner := &scriptedClient{errs: []error{e}}
	_, err := Wrap(inner, Retry(1, time.Millisecond)).GenerateJSON(context.Background(), llmclient.Request{})
	tester.True(t, errors.Is(err, e))
	tester.Eq(t, inner.calls, 1)
}
