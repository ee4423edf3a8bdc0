package index

import (
	"context"

	"github.com/Shubham-Nemade-24/certagent/internal/chunk"
)

// Entry is one indexed chunk with enough provenance to cite it at
// retrieval time.
type Entry struct {
	ID     string
	Text   string
	Source string
	Page   int
	Seq    int
	Vector []float32
}

// Hit is a retrieval result with its similarity score.
type Hit struct {
	Entry Entry
	Score float32
}

// VectorIndex is the dedupe-aware chunk store the pipeline relies on.
// Add must be idempotent per chunk ID: re-adding an existing ID is a no-op
// and is not reported as newly added. A partial batch failure must leave
// the index safe to retry with the same batch.
type VectorIndex interface {
	// Add upserts chunks by composite ID and returns the IDs that were
	// actually new to the index.
	Add(ctx context.Context, chunks []chunk.Chunk) (added []string, err error)
	// ExistingIDs returns the set of chunk IDs already present.
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)
	// Search returns the top-k entries most similar to the query text.
	Search(ctx context.Context, query string, k int) ([]Hit, error)
}
