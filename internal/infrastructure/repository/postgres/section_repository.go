package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
)

type SectionRepository struct {
	db *sql.DB
}

func NewSectionRepository(db *sql.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// ReplaceSections atomically swaps a document's cached sections. This is the
// pipeline's per-document durability point: it runs once, after embedding
// succeeds, so a crash before the call means full re-segmentation on retry
// and a crash after it means cache reuse.
func (r *SectionRepository) ReplaceSections(ctx context.Context, documentID string, sections []domain.Section) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sections tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_sections WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("clear sections: %w", err)
	}

	for _, section := range sections {
		embeddingJSON, err := json.Marshal(section.Embedding)
		if err != nil {
			return fmt.Errorf("marshal embedding: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO document_sections (
	document_id, section_index, title, content, page_number, source_document, embedding
) VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
			documentID, section.SectionIndex, section.Title, section.Content,
			section.PageNumber, section.SourceDocument, embeddingJSON,
		)
		if err != nil {
			return fmt.Errorf("insert section %d: %w", section.SectionIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sections tx: %w", err)
	}
	return nil
}

func (r *SectionRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.Section, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT section_index, title, content, page_number, source_document, embedding
FROM document_sections
WHERE document_id = $1
ORDER BY section_index
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	var sections []domain.Section
	for rows.Next() {
		var section domain.Section
		var embeddingRaw []byte
		if err := rows.Scan(
			&section.SectionIndex, &section.Title, &section.Content,
			&section.PageNumber, &section.SourceDocument, &embeddingRaw,
		); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		if err := json.Unmarshal(embeddingRaw, &section.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding: %w", err)
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return sections, nil
}
