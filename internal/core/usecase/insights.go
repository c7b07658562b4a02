package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
	"github.com/kirillkom/document-insight-engine/internal/core/ports"
)

type pipelineStage string

const (
	stageSegmenting pipelineStage = "segmenting"
	stageScoring    pipelineStage = "scoring"
	stageRefining   pipelineStage = "refining"
)

// InsightUseCase orchestrates the full pipeline for one request: gather
// sections for every referenced document (reusing cached ones when complete),
// model the query, rank with diversity and refine the winners.
type InsightUseCase struct {
	repo     ports.DocumentRepository
	embedder ports.Embedder
	pipeline sectionPipeline
	params   RankingParams
	logger   *slog.Logger
}

func NewInsightUseCase(
	repo ports.DocumentRepository,
	sections ports.SectionRepository,
	storage ports.ObjectStorage,
	segmenter ports.Segmenter,
	embedder ports.Embedder,
	params RankingParams,
	logger *slog.Logger,
) *InsightUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightUseCase{
		repo:     repo,
		embedder: embedder,
		pipeline: sectionPipeline{
			storage:   storage,
			segmenter: segmenter,
			embedder:  embedder,
			sections:  sections,
		},
		params: params,
		logger: logger,
	}
}

func (uc *InsightUseCase) Generate(ctx context.Context, req domain.InsightRequest) (*domain.InsightReport, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if !uc.embedder.Ready() {
		return nil, domain.ErrModelUnavailable
	}

	start := time.Now()
	k := req.TopK
	if k == 0 {
		k = uc.params.TopK
	}

	var (
		candidates []domain.Section
		inputDocs  = make([]string, 0, len(req.DocumentIDs))
		rawTotal   int
	)
	for _, id := range req.DocumentIDs {
		doc, err := uc.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		inputDocs = append(inputDocs, doc.Filename)

		sections, raw, err := uc.loadSections(ctx, doc)
		if err != nil {
			return nil, err
		}
		rawTotal += raw
		candidates = append(candidates, sections...)
	}
	if rawTotal == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	uc.logger.Debug("pipeline stage",
		"stage", stageScoring,
		"candidates", len(candidates),
	)

	query, err := BuildQueryModel(ctx, uc.embedder, req.TaskDescription, req.Persona)
	if err != nil {
		return nil, err
	}
	themes, err := ExtractThemes(ctx, uc.embedder, query, uc.params.ThemeTopN, uc.params.ThemeDiversity)
	if err != nil {
		return nil, err
	}
	results, selected := RankSections(candidates, query, themes, k, uc.params)

	uc.logger.Debug("pipeline stage",
		"stage", stageRefining,
		"selected", len(selected),
	)

	refined := make([]domain.RefinedExcerpt, 0, len(selected))
	for _, s := range selected {
		excerpt, err := RefineSection(ctx, uc.embedder, s, query)
		if err != nil {
			return nil, err
		}
		refined = append(refined, excerpt)
	}

	elapsed := time.Since(start)
	uc.logger.Info("insight report generated",
		"documents", len(req.DocumentIDs),
		"sections", len(candidates),
		"returned", len(results),
		"elapsed", elapsed,
	)

	return &domain.InsightReport{
		Sections:           results,
		SubsectionAnalysis: refined,
		Metadata: domain.ReportMetadata{
			ProcessingTimestamp:    time.Now().Format("2006-01-02 15:04:05"),
			JobToBeDone:            req.TaskDescription,
			Persona:                req.Persona,
			InputDocuments:         inputDocs,
			ProcessingTimeSeconds:  math.Round(elapsed.Seconds()*1000) / 1000,
			TotalSectionsProcessed: len(candidates),
			TopInsightsReturned:    len(results),
		},
	}, nil
}

// loadSections returns a document's sections, reusing the cache only when it
// is complete: non-empty and every section carries an embedding. A partial
// cache (interrupted run, model change mid-flight) triggers full reprocessing.
func (uc *InsightUseCase) loadSections(ctx context.Context, doc *domain.Document) ([]domain.Section, int, error) {
	cached, err := uc.pipeline.sections.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, 0, err
	}
	if len(cached) > 0 && allEmbedded(cached) {
		uc.logger.Debug("reusing cached sections",
			"document", doc.Filename,
			"sections", len(cached),
		)
		return cached, len(cached), nil
	}

	uc.logger.Debug("pipeline stage",
		"stage", stageSegmenting,
		"document", doc.Filename,
	)
	return uc.pipeline.run(ctx, doc)
}

func validateRequest(req domain.InsightRequest) error {
	if strings.TrimSpace(req.TaskDescription) == "" {
		return domain.WrapError(domain.ErrInvalidRequest, "validate request", errors.New("task description is required"))
	}
	if len(req.DocumentIDs) == 0 {
		return domain.WrapError(domain.ErrInvalidRequest, "validate request", errors.New("document list is empty"))
	}
	for _, id := range req.DocumentIDs {
		if strings.TrimSpace(id) == "" {
			return domain.WrapError(domain.ErrInvalidRequest, "validate request", errors.New("document id is empty"))
		}
	}
	if req.TopK < 0 {
		return domain.WrapError(domain.ErrInvalidRequest, "validate request", errors.New("k must be positive"))
	}
	return nil
}
