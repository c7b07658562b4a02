package usecase

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
)

// RankingParams collects the scoring and selection tunables. Defaults match
// the values the service ships with; config can override all of them.
type RankingParams struct {
	TopK             int
	DiversityPenalty float64
	OverallWeight    float64
	ThematicWeight   float64
	ThemeTopN        int
	ThemeDiversity   float64
}

func DefaultRankingParams() RankingParams {
	return RankingParams{
		TopK:             5,
		DiversityPenalty: 0.60,
		OverallWeight:    0.4,
		ThematicWeight:   0.6,
		ThemeTopN:        3,
		ThemeDiversity:   0.7,
	}
}

const (
	minCandidateWords     = 10
	candidateContentRunes = 500
	resultContentRunes    = 300
)

// Sections whose title is really a filename are artifacts of extraction, not
// document structure.
var fileExtensionPattern = regexp.MustCompile(`(?i)\.(pdf|docx?|txt|md|pptx?|xlsx?|csv|html?)\b`)

// candidateText is the representation used both for embedding a section and
// for the minimum-length filter: title plus the leading slice of content.
func candidateText(s domain.Section) string {
	return s.Title + ". " + firstRunes(s.Content, candidateContentRunes)
}

func hasEnoughWords(s domain.Section) bool {
	return len(strings.Fields(candidateText(s))) >= minCandidateWords
}

func isRankable(s domain.Section) bool {
	if fileExtensionPattern.MatchString(s.Title) {
		return false
	}
	return hasEnoughWords(s) && s.HasEmbedding()
}

// RankSections scores every rankable section against the query and themes,
// then greedily picks up to k winners with a per-document diversity penalty.
// It returns the presentation rows alongside the selected sections so the
// refinement stage can reuse the full content and embeddings.
func RankSections(sections []domain.Section, query domain.QueryModel, themes []domain.Theme, k int, params RankingParams) ([]domain.RankedResult, []domain.ScoredSection) {
	scored := scoreSections(sections, query, themes, params)
	selected := selectDiverse(scored, k, params.DiversityPenalty)

	results := make([]domain.RankedResult, 0, len(selected))
	for i, s := range selected {
		results = append(results, domain.RankedResult{
			SectionTitle:   s.Title,
			Content:        truncateContent(s.Content, resultContentRunes),
			PageNumber:     s.PageNumber,
			Document:       s.Document,
			ImportanceRank: i + 1,
			RelevanceScore: s.FinalScore,
		})
	}
	return results, selected
}

func scoreSections(sections []domain.Section, query domain.QueryModel, themes []domain.Theme, params RankingParams) []domain.ScoredSection {
	scored := make([]domain.ScoredSection, 0, len(sections))
	for _, s := range sections {
		if !isRankable(s) {
			continue
		}

		overall := cosineSimilarity(s.Embedding, query.Embedding)

		thematic := 0.0
		if len(themes) > 0 {
			var sum float64
			for _, theme := range themes {
				sum += cosineSimilarity(s.Embedding, theme.Embedding) * theme.Weight
			}
			thematic = sum / float64(len(themes))
		}

		scored = append(scored, domain.ScoredSection{
			Section:       s,
			Document:      s.SourceDocument,
			OverallScore:  overall,
			ThematicScore: thematic,
			FinalScore:    params.OverallWeight*overall + params.ThematicWeight*thematic,
		})
	}
	return scored
}

// selectDiverse picks winners one round at a time. Each round re-evaluates
// every unpicked candidate with its score multiplied by
// (1 - penalty * count(picks from same document)), so a document's second
// section must beat fresh documents on merit. Duplicate titles are skipped
// outright.
func selectDiverse(scored []domain.ScoredSection, k int, penalty float64) []domain.ScoredSection {
	if k <= 0 {
		return []domain.ScoredSection{}
	}

	candidates := make([]domain.ScoredSection, len(scored))
	copy(candidates, scored)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FinalScore > candidates[j].FinalScore
	})

	selected := make([]domain.ScoredSection, 0, k)
	picked := make([]bool, len(candidates))
	seenTitles := make(map[string]struct{})

	for len(selected) < k {
		docCounts := make(map[string]int, len(selected))
		for _, s := range selected {
			docCounts[s.Document]++
		}

		bestIdx := -1
		bestScore := math.Inf(-1)
		for i, c := range candidates {
			if picked[i] {
				continue
			}
			if _, dup := seenTitles[c.Title]; dup {
				continue
			}
			adjusted := c.FinalScore * (1 - float64(docCounts[c.Document])*penalty)
			if adjusted > bestScore {
				bestIdx, bestScore = i, adjusted
			}
		}
		if bestIdx < 0 {
			break
		}

		picked[bestIdx] = true
		seenTitles[candidates[bestIdx].Title] = struct{}{}
		selected = append(selected, candidates[bestIdx])
	}
	return selected
}

func truncateContent(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
