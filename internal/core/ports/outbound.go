package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
}

// SectionRepository persists segmented sections with their embeddings. The
// replace is the per-document durability point: it runs exactly once, after
// embedding succeeds.
type SectionRepository interface {
	ReplaceSections(ctx context.Context, documentID string, sections []domain.Section) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.Section, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes upload events.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// Segmenter splits a raw document into titled sections using layout signals.
type Segmenter interface {
	Segment(ctx context.Context, filename string, data io.ReaderAt, size int64) ([]domain.Section, error)
}

// ProcessingObserver receives worker pipeline outcomes for instrumentation.
type ProcessingObserver interface {
	ObserveProcessed(status string, elapsed time.Duration)
	AddSectionsIndexed(n int)
}

// Embedder builds fixed-dimension vectors for section and query text.
// Ready reports whether the underlying model finished loading; callers must
// check it before spending embedding calls.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Ready() bool
}
