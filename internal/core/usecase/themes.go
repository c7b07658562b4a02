package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
	"github.com/kirillkom/document-insight-engine/internal/core/ports"
)

const maxThemeNgram = 4

// ExtractThemes decomposes the query into a small set of weighted theme
// phrases. Candidate n-grams (1..4 tokens, stopwords removed) are embedded
// and scored by similarity to the full query vector; the final picks are
// diversified so near-duplicate phrasings do not crowd out distinct facets.
func ExtractThemes(ctx context.Context, embedder ports.Embedder, query domain.QueryModel, topN int, diversity float64) ([]domain.Theme, error) {
	if topN <= 0 {
		topN = 3
	}
	if diversity < 0 || diversity > 1 {
		diversity = 0.7
	}

	candidates := candidatePhrases(query.Text)
	if len(candidates) == 0 {
		return nil, nil
	}

	vectors, err := embedder.Embed(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("embed theme candidates: %w", err)
	}
	if len(vectors) != len(candidates) {
		return nil, fmt.Errorf("theme embedding count mismatch: got %d for %d candidates", len(vectors), len(candidates))
	}

	relevance := make([]float64, len(candidates))
	for i, v := range vectors {
		relevance[i] = cosineSimilarity(v, query.Embedding)
	}

	picked := selectMMR(relevance, vectors, topN, diversity)
	themes := make([]domain.Theme, 0, len(picked))
	for _, idx := range picked {
		themes = append(themes, domain.Theme{
			Phrase:    candidates[idx],
			Weight:    clamp01(relevance[idx]),
			Embedding: vectors[idx],
		})
	}
	return themes, nil
}

// selectMMR runs maximal-marginal-relevance selection: the first pick is the
// most relevant candidate, each following pick trades relevance against
// similarity to the candidates already chosen.
func selectMMR(relevance []float64, vectors [][]float32, topN int, diversity float64) []int {
	if len(relevance) == 0 {
		return nil
	}

	first := 0
	for i := 1; i < len(relevance); i++ {
		if relevance[i] > relevance[first] {
			first = i
		}
	}

	selected := []int{first}
	remaining := make([]int, 0, len(relevance)-1)
	for i := range relevance {
		if i != first {
			remaining = append(remaining, i)
		}
	}

	for len(selected) < topN && len(remaining) > 0 {
		bestPos := -1
		bestScore := math.Inf(-1)
		for pos, idx := range remaining {
			maxSim := math.Inf(-1)
			for _, s := range selected {
				if sim := cosineSimilarity(vectors[idx], vectors[s]); sim > maxSim {
					maxSim = sim
				}
			}
			score := (1-diversity)*relevance[idx] - diversity*maxSim
			if score > bestScore {
				bestPos, bestScore = pos, score
			}
		}
		selected = append(selected, remaining[bestPos])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}
	return selected
}

func candidatePhrases(text string) []string {
	tokens := contentTokens(text)
	if len(tokens) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var phrases []string
	for n := 1; n <= maxThemeNgram; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			phrase := strings.Join(tokens[i:i+n], " ")
			if _, ok := seen[phrase]; ok {
				continue
			}
			seen[phrase] = struct{}{}
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}

// contentTokens lowercases the text, splits on non-alphanumeric runes and
// drops stopwords so candidate phrases carry only content words.
func contentTokens(text string) []string {
	raw := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, ok := stopwords[t]; ok {
			continue
		}
		if len(t) < 2 {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"of": {}, "at": {}, "by": {}, "for": {}, "with": {}, "about": {},
	"to": {}, "from": {}, "in": {}, "on": {}, "as": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "being": {}, "has": {},
	"have": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
	"would": {}, "should": {}, "can": {}, "could": {}, "may": {}, "might": {},
	"must": {}, "that": {}, "this": {}, "these": {}, "those": {}, "it": {},
	"its": {}, "they": {}, "them": {}, "their": {}, "we": {}, "our": {},
	"you": {}, "your": {}, "he": {}, "she": {}, "his": {}, "her": {},
	"not": {}, "no": {}, "so": {}, "than": {}, "then": {}, "too": {},
	"very": {}, "just": {}, "also": {}, "into": {}, "over": {}, "under": {},
	"all": {}, "any": {}, "each": {}, "more": {}, "most": {}, "other": {},
	"some": {}, "such": {}, "only": {}, "own": {}, "same": {}, "both": {},
	"task": {}, "persona": {},
}
