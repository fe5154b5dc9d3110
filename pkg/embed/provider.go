// Package embed provides the optional semantic embedding signal for the
// matcher. When no provider is configured the mapper runs on statistical
// signals alone.
package embed

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/datadna/etl-mapper/pkg/config"
	"github.com/datadna/etl-mapper/pkg/model"
)

// Provider generates embedding vectors for column descriptions.
// Use this interface for dependency injection so tests can stub it.
type Provider interface {
	EmbedColumns(ctx context.Context, inputs []string) ([][]float64, error)
}

// OpenAIProvider implements Provider against the OpenAI embeddings API
type OpenAIProvider struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider from the embedding configuration
func NewOpenAIProvider(cfg *config.EmbeddingConfig, logger *zap.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(cfg.APIKey),
		model:  cfg.Model,
		logger: logger.Named("embed"),
	}
}

// EmbedColumns generates one embedding per input text, preserving order
func (p *OpenAIProvider) EmbedColumns(ctx context.Context, inputs []string) ([][]float64, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d inputs, got %d vectors",
			len(inputs), len(resp.Data))
	}

	vectors := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float64, len(d.Embedding))
		for j, x := range d.Embedding {
			vec[j] = float64(x)
		}
		vectors[i] = vec
	}

	p.logger.Debug("Generated embeddings", zap.Int("count", len(vectors)))
	return vectors, nil
}

// ColumnText renders the embedding input for one column: its identifiers,
// inferred pattern and a few representative values.
func ColumnText(table, column string, p model.ColumnProfile) string {
	var b strings.Builder
	b.WriteString("table ")
	b.WriteString(table)
	b.WriteString(" column ")
	b.WriteString(column)
	b.WriteString(" pattern ")
	b.WriteString(string(p.Pattern))
	if len(p.TopValues) > 0 {
		top := p.TopValues
		if len(top) > 5 {
			top = top[:5]
		}
		b.WriteString(" values ")
		b.WriteString(strings.Join(top, ", "))
	}
	return b.String()
}
