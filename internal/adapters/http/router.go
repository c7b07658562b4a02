package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
	"github.com/kirillkom/document-insight-engine/internal/core/ports"
	"github.com/kirillkom/document-insight-engine/internal/observability/metrics"
)

const maxUploadBytes = 64 << 20

type Handler struct {
	ingestor  ports.DocumentIngestor
	reader    ports.DocumentReader
	generator ports.InsightGenerator
	logger    *slog.Logger
	metrics   *metrics.HTTPMetrics
	limiter   *rate.Limiter
}

type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	Metrics        *metrics.HTTPMetrics
}

func NewHandler(
	ingestor ports.DocumentIngestor,
	reader ports.DocumentReader,
	generator ports.InsightGenerator,
	logger *slog.Logger,
	options Options,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if options.RateLimitRPS > 0 {
		burst := options.RateLimitBurst
		if burst <= 0 {
			burst = int(options.RateLimitRPS)
		}
		limiter = rate.NewLimiter(rate.Limit(options.RateLimitRPS), burst)
	}

	return &Handler{
		ingestor:  ingestor,
		reader:    reader,
		generator: generator,
		logger:    logger,
		metrics:   options.Metrics,
		limiter:   limiter,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/documents", h.handleUpload)
	mux.HandleFunc("GET /v1/documents/{id}", h.handleGetDocument)
	mux.HandleFunc("POST /v1/insights", h.handleInsights)
	mux.HandleFunc("GET /healthz", h.handleHealth)

	var handler http.Handler = mux
	handler = h.rateLimit(handler)
	handler = h.accessLog(handler)
	handler = requestID(handler)
	return handler
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	doc, err := h.ingestor.Upload(r.Context(), header.Filename, mimeType, file)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":     doc.ID,
		"status": doc.Status,
	})
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := h.reader.GetByID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	var req domain.InsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	report, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
