package llm

import "context"

// RecordExtractor is the extraction collaborator: full document context in,
// raw model response out. The response is validated elsewhere; a non-error
// return says nothing about whether the response parses.
type RecordExtractor interface {
	ExtractRecord(ctx context.Context, contextText string) (string, error)
}

// Answerer answers a question over retrieved context chunks.
type Answerer interface {
	Answer(ctx context.Context, contextText, question string) (string, error)
}
