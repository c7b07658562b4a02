package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	pdfapi "github.com/ledongthuc/pdf"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
)

const (
	defaultTitleSizeRatio = 1.15
	fallbackBodyFontSize  = 10.0
)

// Segmenter splits a PDF into titled sections using only font and line-shape
// signals: a line opens a new section when its first glyph is bold, its font
// size exceeds the page-one median by the configured ratio, its word count is
// strictly between 3 and 12, and it does not end in '.' or ','.
type Segmenter struct {
	titleSizeRatio float64
}

func NewSegmenter(titleSizeRatio float64) *Segmenter {
	if titleSizeRatio <= 0 {
		titleSizeRatio = defaultTitleSizeRatio
	}
	return &Segmenter{titleSizeRatio: titleSizeRatio}
}

type pageLine struct {
	text     string
	fontName string
	fontSize float64
	page     int
}

// Segment walks lines in page order. Extraction failures degrade to a single
// placeholder section carrying the error text so one malformed document never
// blocks the rest of the corpus; a document with zero extractable pages
// yields zero sections.
func (s *Segmenter) Segment(ctx context.Context, filename string, data io.ReaderAt, size int64) ([]domain.Section, error) {
	lines, firstPageSizes, pageCount, err := extractLines(ctx, data, size)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return []domain.Section{errorSection(filename, err)}, nil
	}
	if pageCount == 0 {
		return nil, nil
	}

	threshold := medianFontSize(firstPageSizes) * s.titleSizeRatio
	return buildSections(filename, lines, threshold), nil
}

func extractLines(ctx context.Context, data io.ReaderAt, size int64) (lines []pageLine, firstPageSizes []float64, pageCount int, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			lines, firstPageSizes, pageCount = nil, nil, 0
			err = fmt.Errorf("pdf parse: %v", r)
		}
	}()

	reader, err := pdfapi.NewReader(data, size)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("open pdf: %w", err)
	}

	pageCount = reader.NumPage()
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, 0, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, rowErr := page.GetTextByRow()
		if rowErr != nil {
			return nil, nil, 0, fmt.Errorf("extract page %d: %w", pageNum, rowErr)
		}

		for _, row := range rows {
			if len(row.Content) == 0 {
				continue
			}
			if pageNum == 1 {
				for _, glyph := range row.Content {
					if glyph.FontSize > 0 {
						firstPageSizes = append(firstPageSizes, glyph.FontSize)
					}
				}
			}
			text := strings.TrimSpace(joinRow(row.Content))
			if text == "" {
				continue
			}
			first := row.Content[0]
			lines = append(lines, pageLine{
				text:     text,
				fontName: first.Font,
				fontSize: first.FontSize,
				page:     pageNum,
			})
		}
	}
	return lines, firstPageSizes, pageCount, nil
}

// joinRow concatenates positioned glyph runs, inserting a space where the
// horizontal gap between runs exceeds a fraction of the font size.
func joinRow(texts pdfapi.TextHorizontal) string {
	var b strings.Builder
	for i, t := range texts {
		if i > 0 {
			prev := texts[i-1]
			minGap := prev.FontSize * 0.2
			if minGap <= 0 {
				minGap = 1
			}
			if t.X-(prev.X+prev.W) > minGap {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}
	return b.String()
}

func buildSections(filename string, lines []pageLine, threshold float64) []domain.Section {
	var sections []domain.Section
	var content strings.Builder
	title := ""
	titleSeeded := false
	page := 1

	flush := func() {
		text := strings.TrimSpace(content.String())
		if text == "" {
			return
		}
		sections = append(sections, domain.Section{
			Title:          title,
			Content:        text,
			PageNumber:     page,
			SectionIndex:   len(sections),
			SourceDocument: filename,
		})
	}

	for _, line := range lines {
		// The very first non-empty line seeds the initial, possibly
		// title-less section.
		if !titleSeeded {
			title = line.text
			titleSeeded = true
		}

		if isTitleLine(line, threshold) {
			flush()
			title = line.text
			content.Reset()
			page = line.page
		} else {
			content.WriteString(line.text)
			content.WriteByte(' ')
		}
	}
	flush()
	return sections
}

func isTitleLine(line pageLine, threshold float64) bool {
	font := strings.ToLower(line.fontName)
	isBold := strings.Contains(font, "bold") || strings.Contains(font, "black")
	isLargeEnough := line.fontSize > threshold
	wordCount := len(strings.Fields(line.text))
	isShortLine := wordCount > 3 && wordCount < 12
	endsWithPunctuation := strings.HasSuffix(line.text, ".") || strings.HasSuffix(line.text, ",")
	return isLargeEnough && isBold && isShortLine && !endsWithPunctuation
}

func medianFontSize(sizes []float64) float64 {
	if len(sizes) == 0 {
		return fallbackBodyFontSize
	}
	sorted := make([]float64, len(sizes))
	copy(sorted, sizes)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func errorSection(filename string, err error) domain.Section {
	return domain.Section{
		Title:          fmt.Sprintf("Error processing %s", filename),
		Content:        err.Error(),
		PageNumber:     1,
		SourceDocument: filename,
	}
}
