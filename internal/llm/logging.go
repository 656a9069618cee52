package llm

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	llmclient "catalognorm/internal/llm/client"
)

// previewLimit caps the redacted input preview logged at debug level.
const previewLimit = 512

// WithLogging logs request size, latency and errors. A nil logger disables
// logging.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{next: next, log: logger.Named("llm")}
	}
}

type logging struct {
	next llmclient.LLMClient
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) GenerateJSON(ctx context.Context, req llmclient.Request) (json.RawMessage, error) {
	fields := []zap.Field{
		zap.String("client", l.next.Name()),
		zap.String("model", req.Model),
		zap.String("stage", StageFrom(ctx)),
		zap.String("objectID", ObjectIDFrom(ctx)),
	}
	l.log.Info("LLM request", append(fields, zap.Int("bytes", len(req.System)+len(req.Input)))...)
	if ce := l.log.Check(zap.DebugLevel, "LLM request input"); ce != nil {
		ce.Write(append(fields, zap.String("input", previewInput(req.Input)))...)
	}
	start := time.Now()
	raw, err := l.next.GenerateJSON(ctx, req)
	fields = append(fields, zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		l.log.Warn("LLM error", append(fields, zap.Error(err))...)
		return raw, err
	}
	l.log.Info("LLM response", append(fields, zap.Int("bytes", len(raw)))...)
	return raw, nil
}

func previewInput(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return truncate(string(raw), previewLimit)
	}
	b, err := json.Marshal(RedactMedia(v))
	if err != nil {
		return ""
	}
	return truncate(string(b), previewLimit)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
