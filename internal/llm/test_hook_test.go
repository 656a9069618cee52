package llm

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	llmclient "catalognorm/internal/llm/client"
	"catalognorm/internal/tester"
)

type recordingHook struct {
	before, after []string
	lastErr       error
}

func (h *recordingHook) Before(ctx context.Context, stage string, req llmclient.Request) {
	h.before = append(h.before, stage)
}

func (h *recordingHook) After(ctx context.Context, stage string, raw json.RawMessage, err error) {
	h.after = append(h.after, stage)
	h.lastErr = err
}

func TestWithHooks_CallsBeforeAndAfter(t *testing.T) {
	hook := &recordingHook{}
	ctx := WithPromptHook(WithStage(context.Background(), "extract"), hook)
	cli := Wrap(&fastClient{}, WithHooks())
	_, err := cli.GenerateJSON(ctx, llmclient.Request{})
	tester.NoErr(t, err)
	tester.Eq(t, hook.before, []string{"extract"})
	tester.Eq(t, hook.after, []string{"extract"})

	// no hook in context: no-op
	_, err = cli.GenerateJSON(context.Background(), llmclient.Request{})
	tester.NoErr(t, err)
	tester.Eq(t, StageFrom(context.Background()), "unknown")
}

func TestWithUsage_CountsOutcomes(t *testing.T) {
	meter := NewUsageMeter()
	ok := Wrap(&fastClient{}, WithUsage(meter))
	refusing := Wrap(&scriptedClient{errs: []error{&llmclient.RefusalError{Provider: "x"}, llmclient.ErrEmptyResponse}}, WithUsage(meter))

	_, _ = ok.GenerateJSON(context.Background(), llmclient.Request{})
	_, _ = refusing.GenerateJSON(context.Background(), llmclient.Request{})
	_, _ = refusing.GenerateJSON(context.Background(), llmclient.Request{})

	tester.Eq(t, meter.Snapshot(), []UsageStat{
		{Client: "fast", Requests: 1},
		{Client: "scripted", Requests: 2, Errors: 1, Refusals: 1},
	})
}

func TestWithLogging_LogsRequestAndError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cli := Wrap(&scriptedClient{errs: []error{llmclient.ErrEmptyResponse}}, WithLogging(zap.New(core)))
	ctx := WithObjectID(WithStage(context.Background(), "extract"), "sku-1")

	_, err := cli.GenerateJSON(ctx, llmclient.Request{Model: "m", Input: json.RawMessage(`{"img":"data:image/png;base64,AAAA"}`)})
	tester.Eq(t, err, llmclient.ErrEmptyResponse)

	tester.Eq(t, logs.FilterMessage("LLM request").Len(), 1)
	tester.Eq(t, logs.FilterMessage("LLM error").Len(), 1)
	input := logs.FilterMessage("LLM request input").All()[0].ContextMap()["input"].(string)
	tester.Contains(t, input, "[REDACTED media]")
	tester.Eq(t, logs.FilterField(zap.String("objectID", "sku-1")).Len(), 3)
}

func TestRedactMedia(t *testing.T) {
	out := RedactMedia(map[string]any{
		"images": []any{"data:image/jpeg;base64,/9j/4AAQ"},
		"name":   "Hub",
		"price":  12.0,
	}).(map[string]any)
	tester.Eq(t, out["images"], any([]any{"[REDACTED media]"}))
	tester.Eq(t, out["name"], any("Hub"))
	tester.Eq(t, out["price"], any(12.0))
}
