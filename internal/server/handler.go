package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"catalognorm/internal/llm"
	"catalognorm/internal/metrics"
	"catalognorm/internal/pipeline"
	"catalognorm/internal/record"
)

// maxBody caps one record request.
const maxBody = 1 << 20

// StatusClientClosedRequest is returned when the caller went away first.
const StatusClientClosedRequest = 499

type Handler struct {
	standardize pipeline.Transformer
	inventory   pipeline.Transformer
	usage       *llm.UsageMeter
	metrics     *metrics.Recorder
	log         *zap.Logger
}

func NewHandler(standardize, inventory pipeline.Transformer, usage *llm.UsageMeter, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{standardize: standardize, inventory: inventory, usage: usage, log: log.Named("http")}
}

// WithMetrics records every transform on m and serves it at /metrics.
func (h *Handler) WithMetrics(m *metrics.Recorder) *Handler {
	h.metrics = m
	return h
}

func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		http.NotFound(w, r)
		return
	}
	h.metrics.Handler().ServeHTTP(w, r)
}

func (h *Handler) HandleStandardize(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, "standardize", h.standardize)
}

func (h *Handler) HandleInventory(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, "inventory", h.inventory)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleUsage(w http.ResponseWriter, _ *http.Request) {
	if h.usage == nil {
		writeJSON(w, http.StatusOK, []llm.UsageStat{})
		return
	}
	writeJSON(w, http.StatusOK, h.usage.Snapshot())
}

func (h *Handler) transform(w http.ResponseWriter, r *http.Request, name string, t pipeline.Transformer) {
	start := time.Now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, pipeline.Failure{Kind: pipeline.KindInternal, Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, pipeline.Failure{Kind: pipeline.KindInternal, Message: err.Error()})
		return
	}

	ctx := r.Context()
	if hook := h.metrics.CompletionHook(); hook != nil {
		ctx = llm.WithPromptHook(ctx, hook)
	}
	out, err := t.Run(ctx, record.RawRecord(body))
	if err != nil {
		f := pipeline.FailureFrom(err)
		status := statusFor(f.Kind, r)
		h.log.Warn("record failed",
			zap.String("requestID", RequestIDFromContext(r.Context())),
			zap.String("pipeline", name),
			zap.String("objectID", f.ObjectID),
			zap.String("kind", string(f.Kind)),
			zap.Int("status", status),
			zap.Error(err))
		h.metrics.Observe(name, string(f.Kind), time.Since(start))
		writeJSON(w, status, f)
		return
	}

	outcome := metrics.OutcomeOK
	if out.Fallback != nil {
		outcome = metrics.OutcomeFlagged
	}
	h.metrics.Observe(name, outcome, time.Since(start))
	h.log.Info("record transformed",
		zap.String("requestID", RequestIDFromContext(r.Context())),
		zap.String("pipeline", name),
		zap.String("objectID", out.Record.ObjectID),
		zap.Bool("flagged", out.Fallback != nil),
		zap.Duration("took", time.Since(start)))
	writeJSON(w, http.StatusOK, out)
}

func statusFor(kind pipeline.Kind, r *http.Request) int {
	switch kind {
	case pipeline.KindService, pipeline.KindEnrichmentLookup:
		return http.StatusBadGateway
	case pipeline.KindRefusal, pipeline.KindSchemaViolation, pipeline.KindMissingIdentifier:
		return http.StatusUnprocessableEntity
	case pipeline.KindCanceled:
		if r.Context().Err() != nil {
			return StatusClientClosedRequest
		}
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
