package usecase

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
	"github.com/kirillkom/document-insight-engine/internal/core/ports"
)

var sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// RefineSection narrows a selected section down to the sentence most similar
// to the query plus one sentence of surrounding context on each side. Very
// short sections (fewer than three usable sentences) are returned verbatim
// since sentence-level scoring is meaningless there.
func RefineSection(ctx context.Context, embedder ports.Embedder, section domain.ScoredSection, query domain.QueryModel) (domain.RefinedExcerpt, error) {
	excerpt := domain.RefinedExcerpt{
		Document:   section.Document,
		PageNumber: section.PageNumber,
	}

	sentences := usableSentences(section.Content)
	if len(sentences) < 3 {
		excerpt.RefinedText = section.Content
		return excerpt, nil
	}

	vectors, err := embedder.Embed(ctx, sentences)
	if err != nil {
		return domain.RefinedExcerpt{}, fmt.Errorf("embed sentences: %w", err)
	}
	if len(vectors) != len(sentences) {
		return domain.RefinedExcerpt{}, fmt.Errorf("sentence embedding count mismatch: got %d for %d sentences", len(vectors), len(sentences))
	}

	best := 0
	bestScore := math.Inf(-1)
	for i, v := range vectors {
		if score := cosineSimilarity(v, query.Embedding); score > bestScore {
			best, bestScore = i, score
		}
	}

	start := best - 1
	if start < 0 {
		start = 0
	}
	end := best + 2
	if end > len(sentences) {
		end = len(sentences)
	}

	excerpt.RefinedText = strings.Join(sentences[start:end], " ")
	return excerpt, nil
}

// usableSentences splits content on terminal punctuation and drops fragments
// of four words or fewer. Content with no terminal punctuation at all counts
// as a single sentence.
func usableSentences(content string) []string {
	raw := sentencePattern.FindAllString(content, -1)
	if len(raw) == 0 {
		if trimmed := strings.TrimSpace(content); trimmed != "" {
			raw = []string{trimmed}
		}
	}

	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if len(strings.Fields(s)) <= 4 {
			continue
		}
		sentences = append(sentences, s)
	}
	return sentences
}
