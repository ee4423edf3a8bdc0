package embed

import "context"

// TextEmbedder turns text into a dense vector. Implementations must be
// deterministic enough for retrieval; the pipeline never compares vectors
// across models.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
