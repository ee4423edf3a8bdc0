package constants

// State is the position of a document inside the ingestion pipeline.
type State string

// Stable values (logged and stored in run history). StateIntake precedes
// LOADED: the document has been received but not yet stored.
const (
	StateIntake        State = "INTAKE"
	StateLoaded        State = "LOADED"
	StateTextExtracted State = "TEXT_EXTRACTED"
	StateChunked       State = "CHUNKED"
	StateDedupeChecked State = "DEDUPE_CHECKED"
	StateIndexed       State = "INDEXED"
	StateExtracted     State = "EXTRACTED"
	StateRecorded      State = "RECORDED"
	StateDone          State = "DONE"
	StateFailed        State = "FAILED"
	StateSkipped       State = "SKIPPED_DUPLICATE"
)

// Status is the per-document outcome reported to the caller.
type Status string

const (
	StatusSkippedDuplicateFile    Status = "skipped_duplicate_file"
	StatusSkippedDuplicateContent Status = "skipped_duplicate_content"
	StatusFailed                  Status = "failed"
	StatusProcessedParsed         Status = "processed_parsed"
	StatusProcessedUnparsed       Status = "processed_unparsed"
)
