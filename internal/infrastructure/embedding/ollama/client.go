package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kirillkom/document-insight-engine/internal/core/domain"
	"github.com/kirillkom/document-insight-engine/internal/infrastructure/resilience"
)

// Client embeds text through an Ollama-compatible /api/embed endpoint.
// The model dimension is fixed for the process lifetime; vectors of any other
// length are rejected.
type Client struct {
	baseURL    string
	embedModel string
	dimension  int
	httpClient *http.Client
	executor   *resilience.Executor

	ready    atomic.Bool
	readySet sync.Once
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, embedModel string, dimension int) *Client {
	return NewWithOptions(baseURL, embedModel, dimension, Options{})
}

func NewWithOptions(baseURL, embedModel string, dimension int, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if dimension <= 0 {
		dimension = 384
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		embedModel: embedModel,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

// Ready reports whether the model finished its warm-up probe. The flag flips
// to true at most once per process.
func (c *Client) Ready() bool {
	return c.ready.Load()
}

// WarmUp runs a probe embedding and marks the client ready on success.
func (c *Client) WarmUp(ctx context.Context) error {
	if c.Ready() {
		return nil
	}
	vectors, err := c.embed(ctx, []string{"warmup probe"})
	if err != nil {
		return fmt.Errorf("embedding model warm-up: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != c.dimension {
		return fmt.Errorf("embedding model warm-up: expected 1 vector of dim %d, got %d vectors", c.dimension, len(vectors))
	}
	c.readySet.Do(func() {
		c.ready.Store(true)
	})
	return nil
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if !c.Ready() {
		return nil, domain.ErrModelUnavailable
	}
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed(ctx, texts)
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	request := map[string]any{
		"model": c.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/embed", request, &response, "embed")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.embed", call, classifyEmbedError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}

	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed vectors/texts mismatch: %d/%d", len(response.Embeddings), len(texts))
	}
	for i, vector := range response.Embeddings {
		if len(vector) != c.dimension {
			return nil, fmt.Errorf("embed vector %d has dim %d, model dim is %d", i, len(vector), c.dimension)
		}
	}
	return response.Embeddings, nil
}
