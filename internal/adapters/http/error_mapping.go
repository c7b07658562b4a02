package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
)

// writeDomainError maps the error taxonomy onto HTTP statuses. The body shape
// is always {"error": "..."} so clients have one failure contract. EmptyCorpus
// is a client-visible outcome of their document set, hence 422 rather than a
// server fault.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, context.Canceled):
		status = 499 // client closed request
	case domain.IsKind(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		status = http.StatusNotFound
	case domain.IsKind(err, domain.ErrEmptyCorpus):
		status = http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrModelUnavailable), domain.IsKind(err, domain.ErrTemporary):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}
