package usecase

import (
	"strings"
	"testing"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
)

func scoredSection(title, doc string, score float64) domain.ScoredSection {
	return domain.ScoredSection{
		Section:    domain.Section{Title: title, SourceDocument: doc},
		Document:   doc,
		FinalScore: score,
	}
}

func TestSelectDiversePenalizesRepeatDocuments(t *testing.T) {
	// Document A dominates on raw score but the per-document penalty should
	// pull document B's best section into second place.
	scored := []domain.ScoredSection{
		scoredSection("A1", "a.pdf", 0.90),
		scoredSection("A2", "a.pdf", 0.85),
		scoredSection("A3", "a.pdf", 0.80),
		scoredSection("A4", "a.pdf", 0.30),
		scoredSection("A5", "a.pdf", 0.10),
		scoredSection("B1", "b.pdf", 0.70),
		scoredSection("B2", "b.pdf", 0.60),
	}

	selected := selectDiverse(scored, 3, 0.60)
	if len(selected) != 3 {
		t.Fatalf("selected %d sections, want 3", len(selected))
	}

	got := []string{selected[0].Title, selected[1].Title, selected[2].Title}
	want := []string{"A1", "B1", "A2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("selection order = %v, want %v", got, want)
		}
	}
}

func TestSelectDiverseSkipsDuplicateTitles(t *testing.T) {
	scored := []domain.ScoredSection{
		scoredSection("Introduction", "a.pdf", 0.9),
		scoredSection("Introduction", "b.pdf", 0.8),
		scoredSection("Methods", "b.pdf", 0.5),
	}

	selected := selectDiverse(scored, 3, 0.60)
	if len(selected) != 2 {
		t.Fatalf("selected %d sections, want 2", len(selected))
	}
	if selected[1].Title != "Methods" {
		t.Fatalf("second pick = %q, want Methods", selected[1].Title)
	}
}

func TestSelectDiverseFewerCandidatesThanK(t *testing.T) {
	scored := []domain.ScoredSection{scoredSection("Only", "a.pdf", 0.5)}

	selected := selectDiverse(scored, 5, 0.60)
	if len(selected) != 1 {
		t.Fatalf("selected %d sections, want 1", len(selected))
	}
}

func rankableSection(title, doc string, embedding []float32) domain.Section {
	return domain.Section{
		Title:          title,
		Content:        "This section discusses several relevant operational details across multiple paragraphs of text.",
		SourceDocument: doc,
		PageNumber:     2,
		Embedding:      embedding,
	}
}

func TestScoreSectionsBlendsOverallAndThematic(t *testing.T) {
	query := domain.QueryModel{Embedding: []float32{1, 0}}
	themes := []domain.Theme{{Phrase: "theme", Weight: 1, Embedding: []float32{0, 1}}}
	sections := []domain.Section{rankableSection("Alignment", "a.pdf", []float32{1, 0})}

	scored := scoreSections(sections, query, themes, DefaultRankingParams())
	if len(scored) != 1 {
		t.Fatalf("scored %d sections, want 1", len(scored))
	}
	// overall = 1, thematic = 0 -> final = 0.4
	if diff := scored[0].FinalScore - 0.4; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("final score = %v, want 0.4", scored[0].FinalScore)
	}
}

func TestScoreSectionsFiltersArtifacts(t *testing.T) {
	query := domain.QueryModel{Embedding: []float32{1, 0}}
	sections := []domain.Section{
		rankableSection("report_final.pdf", "a.pdf", []float32{1, 0}),
		{Title: "Short", Content: "too few words", SourceDocument: "a.pdf", Embedding: []float32{1, 0}},
		rankableSection("No embedding", "a.pdf", nil),
		rankableSection("Kept", "a.pdf", []float32{1, 0}),
	}

	scored := scoreSections(sections, query, nil, DefaultRankingParams())
	if len(scored) != 1 || scored[0].Title != "Kept" {
		t.Fatalf("scored = %+v, want only the Kept section", scored)
	}
}

func TestRankSectionsNumbersAndTruncates(t *testing.T) {
	query := domain.QueryModel{Embedding: []float32{1, 0}}
	long := rankableSection("Long", "a.pdf", []float32{1, 0})
	long.Content = strings.Repeat("word ", 100) + "tail words beyond the cut"

	results, selected := RankSections([]domain.Section{long}, query, nil, 5, DefaultRankingParams())
	if len(results) != 1 || len(selected) != 1 {
		t.Fatalf("got %d results, %d selected", len(results), len(selected))
	}
	if results[0].ImportanceRank != 1 {
		t.Fatalf("rank = %d, want 1", results[0].ImportanceRank)
	}
	if !strings.HasSuffix(results[0].Content, "...") {
		t.Fatalf("content not truncated: %q", results[0].Content)
	}
	if len([]rune(results[0].Content)) != resultContentRunes+3 {
		t.Fatalf("truncated length = %d", len([]rune(results[0].Content)))
	}
	// The selected copy keeps the full content for refinement.
	if selected[0].Content != long.Content {
		t.Fatal("selected section lost its full content")
	}
}

func TestRankSectionsEmptyInput(t *testing.T) {
	results, selected := RankSections(nil, domain.QueryModel{Embedding: []float32{1}}, nil, 5, DefaultRankingParams())
	if results == nil {
		t.Fatal("results must be an empty slice, not nil")
	}
	if len(results) != 0 || len(selected) != 0 {
		t.Fatalf("expected empty output, got %d/%d", len(results), len(selected))
	}
}
