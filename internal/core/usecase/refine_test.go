package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
)

func TestUsableSentencesFiltersShortFragments(t *testing.T) {
	content := "Short one. This sentence clearly has enough words to count. No. Another sentence that also carries enough words here."
	sentences := usableSentences(content)
	if len(sentences) != 2 {
		t.Fatalf("got %d sentences, want 2: %v", len(sentences), sentences)
	}
}

func TestUsableSentencesNoTerminalPunctuation(t *testing.T) {
	sentences := usableSentences("a heading line with several words but no punctuation")
	if len(sentences) != 1 {
		t.Fatalf("got %d sentences, want 1", len(sentences))
	}
}

func TestRefineSectionVerbatimWhenTooFewSentences(t *testing.T) {
	embedder := newFakeEmbedder()
	section := domain.ScoredSection{
		Section: domain.Section{
			Content:    "Only two usable sentences live here today. This second sentence also has enough words.",
			PageNumber: 4,
		},
		Document: "a.pdf",
	}

	excerpt, err := RefineSection(context.Background(), embedder, section, domain.QueryModel{Embedding: []float32{1, 0}})
	if err != nil {
		t.Fatalf("RefineSection() error = %v", err)
	}
	if excerpt.RefinedText != section.Content {
		t.Fatalf("refined text = %q, want verbatim content", excerpt.RefinedText)
	}
	if excerpt.Document != "a.pdf" || excerpt.PageNumber != 4 {
		t.Fatalf("excerpt provenance = %+v", excerpt)
	}
	if embedder.embedCalls != 0 {
		t.Fatalf("embed calls = %d, want 0 for verbatim path", embedder.embedCalls)
	}
}

func TestRefineSectionPicksWindowAroundBestSentence(t *testing.T) {
	s1 := "The first sentence talks about unrelated background material."
	s2 := "The second sentence covers the core answer to the question."
	s3 := "The third sentence adds supporting detail for the answer."
	s4 := "The fourth sentence wanders off into another topic entirely."

	embedder := newFakeEmbedder()
	embedder.fallback = []float32{0, 1}
	embedder.vectors[s2] = []float32{1, 0}

	section := domain.ScoredSection{
		Section:  domain.Section{Content: s1 + " " + s2 + " " + s3 + " " + s4, PageNumber: 1},
		Document: "a.pdf",
	}

	excerpt, err := RefineSection(context.Background(), embedder, section, domain.QueryModel{Embedding: []float32{1, 0}})
	if err != nil {
		t.Fatalf("RefineSection() error = %v", err)
	}

	want := s1 + " " + s2 + " " + s3
	if excerpt.RefinedText != want {
		t.Fatalf("refined text = %q, want %q", excerpt.RefinedText, want)
	}
}

func TestRefineSectionWindowClampedAtEdges(t *testing.T) {
	s1 := "The opening sentence holds the most relevant content here."
	s2 := "The middle sentence provides additional but weaker context."
	s3 := "The closing sentence rounds out the discussion completely."

	embedder := newFakeEmbedder()
	embedder.fallback = []float32{0, 1}
	embedder.vectors[s1] = []float32{1, 0}

	section := domain.ScoredSection{
		Section: domain.Section{Content: s1 + " " + s2 + " " + s3},
	}

	excerpt, err := RefineSection(context.Background(), embedder, section, domain.QueryModel{Embedding: []float32{1, 0}})
	if err != nil {
		t.Fatalf("RefineSection() error = %v", err)
	}

	want := s1 + " " + s2
	if excerpt.RefinedText != want {
		t.Fatalf("refined text = %q, want %q", excerpt.RefinedText, want)
	}
}
