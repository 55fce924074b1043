// Package handle holds the HTTP handlers of the extraction service.
package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"condo-extract/api/internal/pipeline"
)

// Processor is the engine entry point the handlers call.
type Processor interface {
	Process(ctx context.Context, doc []byte) (*pipeline.Result, error)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handle struct {
	proc      Processor
	db        Pinger
	gatherer  prometheus.Gatherer
	maxUpload int64
	deadline  time.Duration
}

type Option func(*Handle)

// WithDB makes /healthz ping the cache database.
func WithDB(db Pinger) Option { return func(h *Handle) { h.db = db } }

// WithGatherer exposes the registry at /metrics.
func WithGatherer(g prometheus.Gatherer) Option { return func(h *Handle) { h.gatherer = g } }

func WithMaxUpload(n int64) Option {
	return func(h *Handle) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// WithDeadline sets the default per-request deadline.
func WithDeadline(d time.Duration) Option {
	return func(h *Handle) {
		if d > 0 {
			h.deadline = d
		}
	}
}

func New(proc Processor, opts ...Option) *Handle {
	h := &Handle{
		proc:      proc,
		maxUpload: 32 << 20,
		deadline:  180 * time.Second,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register mounts every route on mux.
func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /processar-pdf", h.ProcessPDF)
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /healthz", h.Healthz)
	if h.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, errorBody{Success: false, Detail: detail})
}
