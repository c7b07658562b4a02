package ports

import (
	"context"
	"io"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous segmentation and
// embedding of an uploaded document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// InsightGenerator runs the full ranking pipeline for one request.
type InsightGenerator interface {
	Generate(ctx context.Context, req domain.InsightRequest) (*domain.InsightReport, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
