package pipeline

import (
	"bytes"
	"context"
	"errors"
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
	"github.com/Shubham-Nemade-24/certagent/internal/records"
	"github.com/Shubham-Nemade-24/certagent/internal/registry"
	"github.com/Shubham-Nemade-24/certagent/internal/store"
)

const goodResponse = `["Alice","2023-05-01","CERT-001","Mathematics","A+","State University","ROLL123","12 College Rd","signed"]`

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (extract.Result, error) {
	f.calls++
	if f.err != nil {
		return extract.Result{}, f.err
	}
	return extract.Result{
		Pages:      []extract.PageText{{Page: 1, Text: f.text}},
		Provenance: extract.ProvenanceNative,
		Method:     "pdf-text",
	}, nil
}

type fakeIndex struct {
	ids    map[string]struct{}
	addErr error
}

func newFakeIndex() *fakeIndex { return &fakeIndex{ids: map[string]struct{}{}} }

func (f *fakeIndex) Add(_ context.Context, chunks []chunk.Chunk) ([]string, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	var added []string
	for _, c := range chunks {
		if _, ok := f.ids[c.ID]; ok {
			continue
		}
		f.ids[c.ID] = struct{}{}
		added = append(added, c.ID)
	}
	return added, nil
}

func (f *fakeIndex) ExistingIDs(_ context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(f.ids))
	for id := range f.ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ int) ([]index.Hit, error) {
	return nil, nil
}

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) ExtractRecord(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeAppender struct {
	rows []records.Record
	err  error
}

func (f *fakeAppender) Append(_ context.Context, rec records.Record) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, rec)
	return nil
}

type fixture struct {
	p        *Pipeline
	ex       *fakeExtractor
	ix       *fakeIndex
	llm      *fakeLLM
	sheet    *fakeAppender
	outDir   string
	registry *registry.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	reg, err := registry.Open(filepath.Join(dir, "processed_doc_hashes.txt"), nil)
	require.NoError(t, err)

	ex := &fakeExtractor{text: "Name: Alice\nDate: 2023-05-01\nCertificate of Merit"}
	ix := newFakeIndex()
	model := &fakeLLM{response: goodResponse}
	sheet := &fakeAppender{}
	outDir := filepath.Join(dir, "outputs")

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	return &fixture{
		p: &Pipeline{
			Store:     store.New(filepath.Join(dir, "data"), log),
			Registry:  reg,
			Extractor: ex,
			Splitter:  chunk.NewSplitter(0, 0),
			Index:     ix,
			Extract:   model,
			Archive:   records.NewArchive(outDir, log),
			Appender:  sheet,
			Logger:    log,
		},
		ex:       ex,
		ix:       ix,
		llm:      model,
		sheet:    sheet,
		outDir:   outDir,
		registry: reg,
	}
}

func (f *fixture) archiveCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.outDir)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

func TestProcessParsedDocument(t *testing.T) {
	f := newFixture(t)

	res, err := f.p.Process(context.Background(), Intake{
		Data: []byte("%PDF-1.4 cert one"), Filename: "cert1.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, constants.StatusProcessedParsed, res.Status)
	assert.Equal(t, constants.StateDone, res.State)
	require.NotNil(t, res.Record)
	assert.Equal(t, "Alice", res.Record.SubjectName)
	assert.Equal(t, "2023-05-01", res.Record.IssueDate)
	assert.True(t, res.SheetAppended)
	assert.Len(t, f.sheet.rows, 1)
	assert.Equal(t, 1, f.archiveCount(t))
	assert.True(t, f.registry.Contains(res.ContentHash))
	assert.FileExists(t, res.StoredPath)
}

func TestByteIdenticalReuploadSkipsBeforeExtraction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	data := []byte("%PDF-1.4 cert one")

	_, err := f.p.Process(ctx, Intake{Data: data, Filename: "cert1.pdf"})
	require.NoError(t, err)
	require.Equal(t, 1, f.ex.calls)

	// same bytes under a different filename
	res, err := f.p.Process(ctx, Intake{Data: data, Filename: "copy-of-cert1.pdf"})
	require.NoError(t, err)

	assert.Equal(t, constants.StatusSkippedDuplicateFile, res.Status)
	assert.Equal(t, constants.StateSkipped, res.State)
	assert.Equal(t, 1, f.ex.calls, "no second text extraction")
	assert.Equal(t, 1, f.llm.calls)
	assert.Len(t, f.sheet.rows, 1, "no new spreadsheet row")
	assert.Equal(t, 1, f.archiveCount(t), "no new archive file")
}

func TestSameContentDifferentBytesSkipsAtContentDedupe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.p.Process(ctx, Intake{Data: []byte("pdf encoding"), Filename: "cert1.pdf"})
	require.NoError(t, err)

	// a rescan: different raw bytes, identical extracted text
	res, err := f.p.Process(ctx, Intake{Data: []byte("png encoding"), Filename: "cert1-scan.png"})
	require.NoError(t, err)

	assert.Equal(t, constants.StatusSkippedDuplicateContent, res.Status)
	assert.Equal(t, 2, f.ex.calls, "text extraction runs for the new bytes")
	assert.Equal(t, 1, f.llm.calls, "model is not invoked again")
	assert.Len(t, f.sheet.rows, 1)
}

func TestIndexIsAuthoritativeWhenRegistryDrifts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// first run populated the index; then the registry file was lost
	first, err := f.p.Process(ctx, Intake{Data: []byte("bytes one"), Filename: "cert1.pdf"})
	require.NoError(t, err)
	require.Equal(t, constants.StatusProcessedParsed, first.Status)

	reg2, err := registry.Open(filepath.Join(t.TempDir(), "fresh.txt"), nil)
	require.NoError(t, err)
	f.p.Registry = reg2

	// byte-identical content is still caught at file level, so force a new
	// stored file that chunks to the same IDs via the same stored basename:
	// simulate by wiping the stored file and re-processing the same bytes.
	require.NoError(t, os.Remove(first.StoredPath))
	res, err := f.p.Process(ctx, Intake{Data: []byte("bytes one"), Filename: "cert1.pdf"})
	require.NoError(t, err)

	assert.Equal(t, constants.StatusSkippedDuplicateContent, res.Status)
	assert.Equal(t, 1, f.llm.calls, "extraction is not re-run")
	assert.False(t, reg2.Contains(res.ContentHash))
}

func TestUnparseableResponseIsArchivedAndRetryable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.llm.response = "I could not find a certificate in this text."

	res, err := f.p.Process(ctx, Intake{Data: []byte("bytes one"), Filename: "cert1.pdf"})
	require.NoError(t, err)

	assert.Equal(t, constants.StatusProcessedUnparsed, res.Status)
	assert.Equal(t, constants.StateDone, res.State)
	assert.Nil(t, res.Record)
	assert.NotEmpty(t, res.ArchivePath)
	assert.Equal(t, 1, f.archiveCount(t), "raw output archived")
	assert.Empty(t, f.sheet.rows)
	assert.False(t, f.registry.Contains(res.ContentHash), "registry untouched")

	// after a model fix, the same content under new bytes is retried
	f.llm.response = goodResponse
	res2, err := f.p.Process(ctx, Intake{Data: []byte("bytes two"), Filename: "cert1-rescan.pdf"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusProcessedParsed, res2.Status)
	assert.True(t, f.registry.Contains(res2.ContentHash))
}

func TestSheetFailureLeavesRegistryUntouched(t *testing.T) {
	f := newFixture(t)
	f.sheet.err = errors.New("quota exceeded")

	res, err := f.p.Process(context.Background(), Intake{
		Data: []byte("bytes one"), Filename: "cert1.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, constants.StatusProcessedParsed, res.Status)
	assert.False(t, res.SheetAppended)
	assert.Contains(t, res.SheetError, "quota exceeded")
	assert.NotEmpty(t, res.ArchivePath, "archive is the recovery source of truth")
	assert.False(t, f.registry.Contains(res.ContentHash))
}

func TestExtractionFailureKeepsIndexedChunks(t *testing.T) {
	f := newFixture(t)
	f.llm.err = errors.New("model timeout")

	res, err := f.p.Process(context.Background(), Intake{
		Data: []byte("bytes one"), Filename: "cert1.pdf",
	})
	require.Error(t, err)

	assert.Equal(t, constants.StatusFailed, res.Status)
	assert.Equal(t, constants.StateFailed, res.State)
	assert.NotEmpty(t, f.ix.ids, "chunks already indexed remain indexed")
	assert.False(t, f.registry.Contains(res.ContentHash))
}

func TestNoExtractableTextFails(t *testing.T) {
	f := newFixture(t)
	f.ex.err = extract.ErrNoText

	res, err := f.p.Process(context.Background(), Intake{
		Data: []byte("scanned noise"), Filename: "blank.pdf",
	})
	require.Error(t, err)
	assert.Equal(t, constants.StatusFailed, res.Status)
	assert.Contains(t, res.FailureReason, "no extractable text")
	assert.Empty(t, f.ix.ids)
}

func TestUnsupportedExtensionFails(t *testing.T) {
	f := newFixture(t)

	res, err := f.p.Process(context.Background(), Intake{
		Data: []byte("plain"), Filename: "notes.txt",
	})
	require.Error(t, err)
	assert.Equal(t, constants.StatusFailed, res.Status)
	assert.Equal(t, 0, f.ex.calls)
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	results := f.p.ProcessBatch(ctx, []Intake{
		{Data: []byte("plain"), Filename: "notes.txt"},
		{Data: []byte("bytes one"), Filename: "cert1.pdf"},
	})
	require.Len(t, results, 2)
	assert.Equal(t, constants.StatusFailed, results[0].Status)
	assert.Equal(t, constants.StatusProcessedParsed, results[1].Status)
}

func TestIntakeFailureReportsPreLoadState(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	f.p.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	res, err := f.p.Process(context.Background(), Intake{
		Data: []byte("plain"), Filename: "notes.txt",
	})
	require.Error(t, err)

	assert.Equal(t, constants.StateFailed, res.State)
	assert.Contains(t, buf.String(), "at="+string(constants.StateIntake))
	assert.NotContains(t, buf.String(), "at="+string(constants.StateLoaded),
		"the document never reached LOADED")
}
