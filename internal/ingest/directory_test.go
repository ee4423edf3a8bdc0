package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubham-Nemade-24/certagent/constants"
	"github.com/Shubham-Nemade-24/certagent/internal/chunk"
	"github.com/Shubham-Nemade-24/certagent/internal/extract"
	"github.com/Shubham-Nemade-24/certagent/internal/index"
	"github.com/Shubham-Nemade-24/certagent/internal/pipeline"
	"github.com/Shubham-Nemade-24/certagent/internal/records"
	"github.com/Shubham-Nemade-24/certagent/internal/registry"
	"github.com/Shubham-Nemade-24/certagent/internal/store"
)

type stubExtractor struct{ texts map[string]string }

func (s *stubExtractor) Extract(_ context.Context, path string) (extract.Result, error) {
	// the stored file is content-addressed, so key by sniffed content
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Result{}, err
	}
	return extract.Result{
		Pages:  []extract.PageText{{Page: 1, Text: s.texts[string(data)]}},
		Method: "pdf-text",
	}, nil
}

type stubIndex struct{ ids map[string]struct{} }

func (s *stubIndex) Add(_ context.Context, chunks []chunk.Chunk) ([]string, error) {
	var added []string
	for _, c := range chunks {
		if _, ok := s.ids[c.ID]; !ok {
			s.ids[c.ID] = struct{}{}
			added = append(added, c.ID)
		}
	}
	return added, nil
}
func (s *stubIndex) ExistingIDs(context.Context) (map[string]struct{}, error) { return s.ids, nil }
func (s *stubIndex) Search(context.Context, string, int) ([]index.Hit, error) {
	return nil, nil
}

type stubLLM struct{}

func (stubLLM) ExtractRecord(context.Context, string) (string, error) {
	return `["A","B","C","D","E","F","G","H","I"]`, nil
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(filepath.Join(docs, ".hidden"), 0o755))

	files := map[string]string{
		"cert1.pdf":         "content one",
		"cert2.png":         "content two",
		"dup-of-cert1.pdf":  "content one", // byte-identical
		"notes.txt":         "ignored extension",
		".hidden/cert3.pdf": "hidden file",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(docs, name), []byte(body), 0o644))
	}

	reg, err := registry.Open(filepath.Join(dir, "registry.txt"), nil)
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	in := &Intaker{
		Pipeline: &pipeline.Pipeline{
			Store:    store.New(filepath.Join(dir, "data"), log),
			Registry: reg,
			Extractor: &stubExtractor{texts: map[string]string{
				"content one": "Certificate issued to Alice",
				"content two": "Certificate issued to Bob",
			}},
			Splitter: chunk.NewSplitter(0, 0),
			Index:    &stubIndex{ids: map[string]struct{}{}},
			Extract:  stubLLM{},
			Archive:  records.NewArchive(filepath.Join(dir, "outputs"), log),
			Logger:   log,
		},
		Logger: log,
	}

	results, stats, err := in.IngestDirectory(context.Background(), docs, nil, true)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), stats.Matched, "txt and hidden files excluded")
	assert.Equal(t, uint32(2), stats.Done)
	assert.Equal(t, uint32(1), stats.Skipped)
	assert.Equal(t, uint32(0), stats.Failed)
	require.Len(t, results, 3)

	byStatus := map[constants.Status]int{}
	for _, r := range results {
		byStatus[r.Status]++
	}
	assert.Equal(t, 2, byStatus[constants.StatusProcessedParsed])
	assert.Equal(t, 1, byStatus[constants.StatusSkippedDuplicateFile])
}

func TestIngestDirectoryRequiresRoot(t *testing.T) {
	in := &Intaker{}
	_, _, err := in.IngestDirectory(context.Background(), "  ", nil, true)
	assert.Error(t, err)
}
