package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/document-insight-engine/internal/config"
	"github.com/kirillkom/document-insight-engine/internal/core/usecase"
	"github.com/kirillkom/document-insight-engine/internal/infrastructure/embedding/ollama"
	natsqueue "github.com/kirillkom/document-insight-engine/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-insight-engine/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/document-insight-engine/internal/infrastructure/resilience"
	pdfseg "github.com/kirillkom/document-insight-engine/internal/infrastructure/segmenter/pdf"
	"github.com/kirillkom/document-insight-engine/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/document-insight-engine/internal/observability/logging"
)

// Container wires the infrastructure shared by the api and worker binaries.
type Container struct {
	Config config.Config
	Logger *slog.Logger

	DB        *sql.DB
	Documents *postgres.DocumentRepository
	Sections  *postgres.SectionRepository
	Storage   *localfs.Storage
	Queue     *natsqueue.Queue
	Segmenter *pdfseg.Segmenter
	Embedder  *ollama.Client
}

func New(ctx context.Context, service string) (*Container, error) {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	documents := postgres.NewDocumentRepository(db)
	if err := documents.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect queue: %w", err)
	}

	embedder := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaEmbedModel, cfg.EmbeddingDim, ollama.Options{
		ResilienceExecutor: executor,
	})

	return &Container{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Documents: documents,
		Sections:  postgres.NewSectionRepository(db),
		Storage:   storage,
		Queue:     queue,
		Segmenter: pdfseg.NewSegmenter(cfg.TitleSizeRatio),
		Embedder:  embedder,
	}, nil
}

func (c *Container) Close() {
	if c.Queue != nil {
		c.Queue.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

func (c *Container) RankingParams() usecase.RankingParams {
	params := usecase.DefaultRankingParams()
	if c.Config.TopInsights > 0 {
		params.TopK = c.Config.TopInsights
	}
	if c.Config.DiversityPenalty > 0 {
		params.DiversityPenalty = c.Config.DiversityPenalty
	}
	if c.Config.OverallWeight > 0 {
		params.OverallWeight = c.Config.OverallWeight
	}
	if c.Config.ThematicWeight > 0 {
		params.ThematicWeight = c.Config.ThematicWeight
	}
	if c.Config.ThemeTopN > 0 {
		params.ThemeTopN = c.Config.ThemeTopN
	}
	if c.Config.ThemeDiversity > 0 {
		params.ThemeDiversity = c.Config.ThemeDiversity
	}
	return params
}

// WarmUpEmbedder retries the model probe until it succeeds or the context
// ends. Requests arriving before readiness get a typed unavailable error
// rather than a hang.
func (c *Container) WarmUpEmbedder(ctx context.Context) {
	backoff := 2 * time.Second
	for {
		err := c.Embedder.WarmUp(ctx)
		if err == nil {
			c.Logger.Info("embedding model ready", "model", c.Config.OllamaEmbedModel)
			return
		}
		c.Logger.Warn("embedding model not ready yet", "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
