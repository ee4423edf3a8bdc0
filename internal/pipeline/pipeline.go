// Package pipeline runs one certificate document from raw bytes to a
// persisted extraction record: store, dedupe at file and content level,
// chunk, index, extract, archive, append.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Shubham-Nemade-24/certagent/constants"
	"github.com/Shubham-Nemade-24/certagent/internal/chunk"
	"github.com/Shubham-Nemade-24/certagent/internal/common"
	"github.com/Shubham-Nemade-24/certagent/internal/extract"
	"github.com/Shubham-Nemade-24/certagent/internal/hashing"
	"github.com/Shubham-Nemade-24/certagent/internal/history"
	"github.com/Shubham-Nemade-24/certagent/internal/index"
	"github.com/Shubham-Nemade-24/certagent/internal/llm"
	"github.com/Shubham-Nemade-24/certagent/internal/records"
	"github.com/Shubham-Nemade-24/certagent/internal/registry"
	"github.com/Shubham-Nemade-24/certagent/internal/store"
)

// Intake is one document handed to the pipeline.
type Intake struct {
	Data     []byte
	Filename string
}

// Result is the terminal outcome for one intake.
type Result struct {
	Source      string
	State       constants.State
	Status      constants.Status
	FileHash    string
	ContentHash string
	StoredPath  string
	ChunksAdded int

	Raw         string
	Record      *records.Record
	ArchivePath string

	SheetAppended bool
	SheetError    string
	FailureReason string
}

// Pipeline wires the collaborators for sequential document processing.
// Appender and Runs may be nil; the corresponding steps are skipped.
type Pipeline struct {
	Store     *store.Store
	Registry  *registry.Registry
	Extractor extract.TextExtractor
	Splitter  chunk.Splitter
	Index     index.VectorIndex
	Extract   llm.RecordExtractor
	Archive   *records.Archive
	Appender  records.SpreadsheetAppender
	Runs      *history.Store
	Logger    *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Process runs one document to a terminal state. Recoverable conditions
// (duplicate, unparseable response, spreadsheet error) come back as statuses
// in the Result; only collaborator-level breakage returns err alongside a
// FAILED result.
func (p *Pipeline) Process(ctx context.Context, in Intake) (Result, error) {
	log := p.logger().With("source", in.Filename, "run_id", uuid.NewString())
	res := Result{Source: in.Filename}

	ext := constants.NormalizeExt(filepath.Ext(in.Filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return p.fail(ctx, log, res, constants.StateIntake,
			common.NewAppError("INTAKE", fmt.Sprintf("unsupported file type %q", ext), nil))
	}

	// File-level dedupe runs before any text extraction.
	saved, err := p.Store.Save(in.Data, in.Filename)
	if err != nil {
		return p.fail(ctx, log, res, constants.StateIntake,
			common.NewAppError("INTAKE", "store intake file", err))
	}
	res.FileHash = saved.FileHash
	res.StoredPath = saved.Path
	if saved.Already {
		res.State = constants.StateSkipped
		res.Status = constants.StatusSkippedDuplicateFile
		log.Info("pipeline.skip.file_duplicate", "file_hash", saved.FileHash)
		p.record(ctx, res)
		return res, nil
	}
	res.State = constants.StateLoaded

	extracted, err := p.Extractor.Extract(ctx, saved.Path)
	if err != nil {
		if errors.Is(err, extract.ErrNoText) {
			return p.fail(ctx, log, res, constants.StateLoaded,
				common.NewAppError("EXTRACT_TEXT", "no extractable text", nil))
		}
		return p.fail(ctx, log, res, constants.StateLoaded,
			common.NewAppError("EXTRACT_TEXT", "text extraction failed", err))
	}
	res.State = constants.StateTextExtracted
	log.Info("pipeline.extract.ok", "method", extracted.Method, "pages", len(extracted.Pages))

	// Chunk IDs key off the stored name, so byte-identical re-uploads
	// reproduce the same IDs regardless of the declared filename.
	chunks := p.Splitter.Split(filepath.Base(saved.Path), extracted.Pages)
	if len(chunks) == 0 {
		return p.fail(ctx, log, res, constants.StateTextExtracted,
			common.NewAppError("EXTRACT_TEXT", "no extractable text", nil))
	}
	res.State = constants.StateChunked

	joined := chunk.Join(chunks)
	res.ContentHash = hashing.HashText(joined)
	res.State = constants.StateDedupeChecked
	if p.Registry.Contains(res.ContentHash) {
		res.State = constants.StateSkipped
		res.Status = constants.StatusSkippedDuplicateContent
		log.Info("pipeline.skip.content_duplicate", "content_hash", res.ContentHash)
		p.record(ctx, res)
		return res, nil
	}

	added, err := p.Index.Add(ctx, chunks)
	if err != nil {
		return p.fail(ctx, log, res, constants.StateDedupeChecked,
			common.NewAppError("INDEX", "vector index upsert failed", err))
	}
	res.ChunksAdded = len(added)
	if len(added) == 0 {
		// Registry and index can drift; the index wins.
		res.State = constants.StateSkipped
		res.Status = constants.StatusSkippedDuplicateContent
		log.Warn("pipeline.skip.index_has_all_chunks", "content_hash", res.ContentHash)
		p.record(ctx, res)
		return res, nil
	}
	res.State = constants.StateIndexed
	log.Info("pipeline.index.ok", "chunks", len(chunks), "added", len(added))

	raw, err := p.Extract.ExtractRecord(ctx, joined)
	if err != nil {
		return p.fail(ctx, log, res, constants.StateIndexed,
			common.NewAppError("MODEL", "extraction model call failed", err))
	}
	res.Raw = raw
	res.State = constants.StateExtracted

	archivePath, err := p.Archive.Save(in.Filename, raw)
	if err != nil {
		return p.fail(ctx, log, res, constants.StateExtracted,
			common.NewAppError("RECORD", "archive raw output", err))
	}
	res.ArchivePath = archivePath

	rec, err := records.ParseRow(raw)
	if err != nil {
		if errors.Is(err, records.ErrParseFailure) {
			// Raw output is archived; the registry stays untouched so the
			// same content can be retried after a model fix.
			res.State = constants.StateDone
			res.Status = constants.StatusProcessedUnparsed
			res.FailureReason = err.Error()
			log.Warn("pipeline.parse.unparseable", "reason", err.Error())
			p.record(ctx, res)
			return res, nil
		}
		return p.fail(ctx, log, res, constants.StateExtracted,
			common.NewAppError("RECORD", "validate model response", err))
	}
	res.Record = &rec
	res.State = constants.StateRecorded

	if p.Appender != nil {
		if err := p.Appender.Append(ctx, rec); err != nil {
			// Parsed but not persisted: surface the error and leave the
			// registry untouched so a re-run retries the append.
			res.State = constants.StateDone
			res.Status = constants.StatusProcessedParsed
			res.SheetError = err.Error()
			log.Error("pipeline.sheet.error", "err", err)
			p.record(ctx, res)
			return res, nil
		}
		res.SheetAppended = true
	}

	if err := p.Registry.Add(res.ContentHash); err != nil {
		return p.fail(ctx, log, res, constants.StateRecorded,
			common.NewAppError("RECORD", "registry append", err))
	}
	res.State = constants.StateDone
	res.Status = constants.StatusProcessedParsed
	log.Info("pipeline.done", "content_hash", res.ContentHash, "sheet_appended", res.SheetAppended)
	p.record(ctx, res)
	return res, nil
}

// ProcessBatch runs documents strictly one at a time. A failed document
// never stops its siblings.
func (p *Pipeline) ProcessBatch(ctx context.Context, intakes []Intake) []Result {
	results := make([]Result, 0, len(intakes))
	for _, in := range intakes {
		res, err := p.Process(ctx, in)
		if err != nil {
			p.logger().Error("pipeline.document.failed", "source", in.Filename, "err", err)
		}
		results = append(results, res)
	}
	return results
}

func (p *Pipeline) fail(ctx context.Context, log *slog.Logger, res Result, at constants.State, cause error) (Result, error) {
	res.State = constants.StateFailed
	res.Status = constants.StatusFailed
	res.FailureReason = cause.Error()
	log.Error("pipeline.failed", "at", string(at), "err", cause)
	p.record(ctx, res)
	return res, cause
}

func (p *Pipeline) record(ctx context.Context, res Result) {
	if p.Runs == nil {
		return
	}
	errMsg := res.FailureReason
	if errMsg == "" {
		errMsg = res.SheetError
	}
	_, err := p.Runs.Record(ctx, history.Run{
		Source:      res.Source,
		FileHash:    res.FileHash,
		ContentHash: res.ContentHash,
		Status:      string(res.Status),
		State:       string(res.State),
		RawResponse: res.Raw,
		ErrorMsg:    errMsg,
	})
	if err != nil {
		p.logger().Error("pipeline.history.error", "source", res.Source, "err", err)
	}
}

// Summarize renders a one-line human report per result, for CLI output.
func Summarize(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "%s: %s", r.Source, r.Status)
		if r.FailureReason != "" {
			fmt.Fprintf(&b, " (%s)", r.FailureReason)
		}
		if r.SheetError != "" {
			fmt.Fprintf(&b, " (sheet: %s)", r.SheetError)
		}
		b.WriteString("\n")
	}
	return b.String()
}
