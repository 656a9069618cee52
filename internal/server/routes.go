package server

import "net/http"

func NewMux(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/records/standardize", h.HandleStandardize)
	mux.HandleFunc("POST /v1/records/inventory", h.HandleInventory)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("GET /metrics", h.HandleMetrics)

	// Debug Handlers
	mux.HandleFunc("GET /debug/llm-usage", h.HandleUsage)

	return CORS(WithRequestID(mux))
}
