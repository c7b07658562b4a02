package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
	"github.com/kirillkom/document-insight-engine/internal/core/ports"
)

// sectionPipeline runs the shared segment -> filter -> embed -> persist
// sequence used by both the background worker and the on-demand path of
// insight generation.
type sectionPipeline struct {
	storage   ports.ObjectStorage
	segmenter ports.Segmenter
	embedder  ports.Embedder
	sections  ports.SectionRepository
}

// run returns the usable (persisted) sections along with the raw section
// count before the minimum-length filter. The raw count lets callers tell an
// unreadable corpus apart from one that merely has no rankable content.
func (p sectionPipeline) run(ctx context.Context, doc *domain.Document) ([]domain.Section, int, error) {
	data, err := p.readDocument(ctx, doc)
	if err != nil {
		return nil, 0, fmt.Errorf("read document %s: %w", doc.Filename, err)
	}

	raw, err := p.segmenter.Segment(ctx, doc.Filename, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("segment %s: %w", doc.Filename, err)
	}

	usable := make([]domain.Section, 0, len(raw))
	for _, s := range raw {
		if hasEnoughWords(s) {
			usable = append(usable, s)
		}
	}

	// Too-short sections are dropped before embedding so they never spend
	// an embedding call.
	if len(usable) > 0 {
		texts := make([]string, len(usable))
		for i, s := range usable {
			texts[i] = candidateText(s)
		}
		vectors, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, 0, fmt.Errorf("embed sections of %s: %w", doc.Filename, err)
		}
		if len(vectors) != len(usable) {
			return nil, 0, fmt.Errorf("section embedding count mismatch for %s: got %d for %d sections", doc.Filename, len(vectors), len(usable))
		}
		for i := range usable {
			usable[i].Embedding = vectors[i]
		}
	}

	if err := p.sections.ReplaceSections(ctx, doc.ID, usable); err != nil {
		return nil, 0, fmt.Errorf("persist sections of %s: %w", doc.Filename, err)
	}
	return usable, len(raw), nil
}

func (p sectionPipeline) readDocument(ctx context.Context, doc *domain.Document) ([]byte, error) {
	rc, err := p.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func allEmbedded(sections []domain.Section) bool {
	for _, s := range sections {
		if !s.HasEmbedding() {
			return false
		}
	}
	return true
}
