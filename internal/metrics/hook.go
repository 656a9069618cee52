package metrics

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"catalognorm/internal/llm"
	llmclient "catalognorm/internal/llm/client"
)

// Completion outcome labels.
const (
	CompletionOK    = "ok"
	CompletionError = "error"
)

// CompletionHook returns a PromptHook that times each completion call into
// catalognorm_completion_duration_seconds. Attach one per request with
// llm.WithPromptHook. A nil Recorder yields nil.
func (r *Recorder) CompletionHook() llm.PromptHook {
	if r == nil {
		return nil
	}
	return &completionHook{r: r, now: time.Now}
}

type completionHook struct {
	r   *Recorder
	now func() time.Time

	mu      sync.Mutex
	started []time.Time
}

func (h *completionHook) Before(context.Context, string, llmclient.Request) {
	h.mu.Lock()
	h.started = append(h.started, h.now())
	h.mu.Unlock()
}

func (h *completionHook) After(_ context.Context, stage string, _ json.RawMessage, err error) {
	h.mu.Lock()
	n := len(h.started)
	if n == 0 {
		h.mu.Unlock()
		return
	}
	start := h.started[n-1]
	h.started = h.started[:n-1]
	h.mu.Unlock()

	if stage == "" {
		stage = "unknown"
	}
	outcome := CompletionOK
	if err != nil {
		outcome = CompletionError
	}
	h.r.completions.WithLabelValues(stage, outcome).Observe(h.now().Sub(start).Seconds())
}
