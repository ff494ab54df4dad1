package embedding

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sandevgo/motherbrain/internal/core"
)

// OpenAI encodes text through an OpenAI compatible embeddings endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
	dims   int
}

func NewOpenAI(baseURL, apiKey, model string, dims int) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dims:   dims,
	}
}

func (o *OpenAI) Encode(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(o.model),
		Dimensions: o.dims,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, core.NewError(core.ErrValidation, "embedding.openai", "empty embedding response")
	}

	vec := resp.Data[0].Embedding
	if len(vec) != o.dims {
		return nil, core.NewError(core.ErrValidation, "embedding.openai",
			"expected %d dimensions, got %d", o.dims, len(vec))
	}
	return vec, nil
}

func (o *OpenAI) Dims() int {
	return o.dims
}
