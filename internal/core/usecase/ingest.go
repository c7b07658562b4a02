package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
	"github.com/kirillkom/document-insight-engine/internal/core/ports"
)

// IngestDocumentUseCase accepts an uploaded document, stores the raw bytes,
// records metadata and hands the document off to the worker via the queue.
type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	logger  *slog.Logger
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	logger *slog.Logger,
) *IngestDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
		logger:  logger,
	}
}

func (uc *IngestDocumentUseCase) Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	if !isPDF(filename, mimeType) {
		return nil, domain.WrapError(domain.ErrInvalidRequest, "upload document", errors.New("only pdf documents are supported"))
	}

	id := uuid.NewString()
	storageKey := id + "_" + sanitizeFilename(filename)

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.queue.PublishDocumentUploaded(ctx, doc.ID); err != nil {
		// The record exists; a stuck "uploaded" status is recoverable by
		// republishing, so surface the error instead of rolling back.
		return nil, fmt.Errorf("publish upload event: %w", err)
	}

	uc.logger.Info("document uploaded",
		"document_id", doc.ID,
		"filename", doc.Filename,
	)
	return doc, nil
}

func isPDF(filename, mimeType string) bool {
	if strings.EqualFold(strings.TrimSpace(mimeType), "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// sanitizeFilename keeps only the base name and replaces path-hostile runes
// so the storage key stays a single flat file.
func sanitizeFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, base)
}
