package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
	"github.com/kirillkom/document-insight-engine/internal/core/ports"
)

// BuildQueryModel combines the task description with an optional persona into
// a single query string and embeds it. A failed embedding call propagates
// as-is; there are no retries at this layer.
func BuildQueryModel(ctx context.Context, embedder ports.Embedder, taskDescription, persona string) (domain.QueryModel, error) {
	text := fmt.Sprintf("Task: %s", taskDescription)
	if strings.TrimSpace(persona) != "" {
		text = fmt.Sprintf("Persona: %s. Task: %s", persona, taskDescription)
	}

	vector, err := embedder.EmbedQuery(ctx, text)
	if err != nil {
		return domain.QueryModel{}, fmt.Errorf("embed query: %w", err)
	}
	return domain.QueryModel{Text: text, Embedding: vector}, nil
}
