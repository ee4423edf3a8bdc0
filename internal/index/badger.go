// Package index persists chunk embeddings in a local Badger store keyed by
// composite chunk ID. Insert-by-key gives the idempotency the pipeline's
// dedupe logic depends on: an existing key is reported as already present,
// never duplicated.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/Shubham-Nemade-24/certagent/internal/chunk"
	"github.com/Shubham-Nemade-24/certagent/internal/embed"
)

// BadgerIndex is the production VectorIndex backed by badgerhold.
type BadgerIndex struct {
	store    *badgerhold.Store
	embedder embed.TextEmbedder
	logger   *slog.Logger
}

var _ VectorIndex = (*BadgerIndex)(nil)

// OpenBadger opens (or creates) the index at dir.
func OpenBadger(dir string, embedder embed.TextEmbedder, logger *slog.Logger) (*BadgerIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badgerhold.DefaultOptions
	opts.Options = badger.DefaultOptions(dir).WithLogger(nil)
	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &BadgerIndex{store: store, embedder: embedder, logger: logger}, nil
}

// Close releases the underlying store.
func (x *BadgerIndex) Close() error {
	return x.store.Close()
}

// Add embeds and inserts chunks whose IDs are not yet present. Chunks whose
// IDs already exist are skipped before the embedding call, so re-adding a
// batch never re-embeds. On a mid-batch failure the IDs added so far remain
// valid and the same batch can be retried safely.
func (x *BadgerIndex) Add(ctx context.Context, chunks []chunk.Chunk) ([]string, error) {
	existing, err := x.ExistingIDs(ctx)
	if err != nil {
		return nil, err
	}

	var added []string
	for _, c := range chunks {
		if _, ok := existing[c.ID]; ok {
			continue
		}
		vec, err := x.embedder.Embed(ctx, c.Text)
		if err != nil {
			return added, fmt.Errorf("embed chunk %s: %w", c.ID, err)
		}
		entry := Entry{
			ID:     c.ID,
			Text:   c.Text,
			Source: c.Source,
			Page:   c.Page,
			Seq:    c.Seq,
			Vector: vec,
		}
		if err := x.store.Insert(c.ID, entry); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				// present despite the pre-filter; treat as already indexed
				continue
			}
			return added, fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
		added = append(added, c.ID)
	}

	x.logger.Info("index.add.ok",
		"chunks", len(chunks),
		"existing", len(chunks)-len(added),
		"added", len(added),
	)
	return added, nil
}

// ExistingIDs returns every chunk ID currently in the index.
func (x *BadgerIndex) ExistingIDs(_ context.Context) (map[string]struct{}, error) {
	var entries []Entry
	if err := x.store.Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("list index ids: %w", err)
	}
	ids := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		ids[e.ID] = struct{}{}
	}
	return ids, nil
}

// Search embeds the query and ranks all entries by cosine similarity.
// Brute force is fine at this scale; the collection is one person's
// certificate archive, not a corpus.
func (x *BadgerIndex) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 4
	}
	qv, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var entries []Entry
	if err := x.store.Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("scan index: %w", err)
	}

	hits := make([]Hit, 0, len(entries))
	for _, e := range entries {
		hits = append(hits, Hit{Entry: e, Score: cosine(qv, e.Vector)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Reset removes the index directory wholly. A missing directory is not an
// error. The store must not be open when calling this.
func Reset(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove index dir: %w", err)
	}
	return nil
}
