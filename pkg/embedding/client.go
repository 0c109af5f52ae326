package embedding

import (
	"context"
	"fmt"

	"chatvault/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder generates vector embeddings for batches of text. A call is
// all-or-nothing: on error no vectors are returned.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type embeddingClient struct {
	embedder embeddings.Embedder
	logger   *logrus.Logger
}

// NewClient creates an embedder against an OpenAI-compatible embeddings API.
func NewClient(cfg models.EmbeddingConfig, logger *logrus.Logger) (Embedder, error) {
	if logger == nil {
		logger = logrus.New()
	}

	token := cfg.APIKey
	if token == "" {
		// Local OpenAI-compatible services accept any token.
		token = "none"
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &embeddingClient{
		embedder: embedder,
		logger:   logger,
	}, nil
}

// EmbedTexts generates embeddings for a batch of texts, in input order.
func (c *embeddingClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	c.logger.WithField("count", len(texts)).Debug("Generating embeddings")

	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch: expected %d, received %d", len(texts), len(vectors))
	}

	return vectors, nil
}
