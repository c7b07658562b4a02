package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
	"github.com/kirillkom/document-insight-engine/internal/core/ports"
)

// ProcessDocumentUseCase is the worker-side pipeline: segment an uploaded
// document, embed its sections and cache them, tracking status transitions
// on the document record.
type ProcessDocumentUseCase struct {
	repo     ports.DocumentRepository
	embedder ports.Embedder
	pipeline sectionPipeline
	observer ports.ProcessingObserver
	logger   *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	sections ports.SectionRepository,
	storage ports.ObjectStorage,
	segmenter ports.Segmenter,
	embedder ports.Embedder,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		repo:     repo,
		embedder: embedder,
		pipeline: sectionPipeline{
			storage:   storage,
			segmenter: segmenter,
			embedder:  embedder,
			sections:  sections,
		},
		logger: logger,
	}
}

// WithObserver attaches processing instrumentation; a nil observer is a no-op.
func (uc *ProcessDocumentUseCase) WithObserver(observer ports.ProcessingObserver) *ProcessDocumentUseCase {
	uc.observer = observer
	return uc
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	start := time.Now()
	usable, raw, err := uc.process(ctx, documentID)
	if err != nil {
		if uc.observer != nil {
			uc.observer.ObserveProcessed(string(domain.StatusFailed), time.Since(start))
		}
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed: %v", err, failErr)
		}
		uc.logger.Error("document processing failed",
			"document_id", documentID,
			"error", err,
		)
		return err
	}

	if uc.observer != nil {
		uc.observer.ObserveProcessed(string(domain.StatusReady), time.Since(start))
		uc.observer.AddSectionsIndexed(len(usable))
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	uc.logger.Info("document processed",
		"document_id", documentID,
		"sections", raw,
		"indexed", len(usable),
	)
	return nil
}

func (uc *ProcessDocumentUseCase) process(ctx context.Context, documentID string) ([]domain.Section, int, error) {
	if !uc.embedder.Ready() {
		return nil, 0, domain.ErrModelUnavailable
	}

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, 0, err
	}
	return uc.pipeline.run(ctx, doc)
}
