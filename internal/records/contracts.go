package records

import "context"

// SpreadsheetAppender is the external spreadsheet collaborator: a 9-column
// tabular append target with a fixed header row. Append failures are
// reported, never raised past the pipeline boundary.
type SpreadsheetAppender interface {
	Append(ctx context.Context, rec Record) error
}
