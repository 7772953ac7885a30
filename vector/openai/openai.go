// Package openai provides a vector.Embedder implementation using the OpenAI
// embeddings API. It adapts couchmesh's text-in / vectors-out contract onto
// the SDK's request and response shapes.
package openai

import (
	"context"

	"github.com/openai/openai-go"

	"github.com/hupe1980/couchmesh/vector"
)

// Options configure the OpenAI embedder adapter. Fields mirror a minimal
// subset of the embeddings parameters; extend via functional options without
// breaking callers.
type Options struct {
	Model string
}

// Embedder wraps the OpenAI embeddings endpoint behind the generic
// vector.Embedder interface.
type Embedder struct {
	client *openai.Client
	opts   Options
}

var _ vector.Embedder = (*Embedder)(nil)

// NewEmbedder creates a new embedder using the official client with its
// default configuration (OPENAI_API_KEY from the environment).
func NewEmbedder(optFns ...func(o *Options)) *Embedder {
	client := openai.NewClient()
	return NewEmbedderFromClient(&client, optFns...)
}

// NewEmbedderFromClient creates a new embedder from an existing client.
func NewEmbedderFromClient(client *openai.Client, optFns ...func(o *Options)) *Embedder {
	opts := Options{
		Model: openai.EmbeddingModelTextEmbedding3Small,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Embedder{client: client, opts: opts}
}

// Embed returns one vector per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: e.opts.Model,
	})
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}
