// Package qa answers free-form questions over the indexed certificate text.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Shubham-Nemade-24/certagent/internal/common"
	"github.com/Shubham-Nemade-24/certagent/internal/index"
	"github.com/Shubham-Nemade-24/certagent/internal/llm"
)

// DefaultTopK matches the retrieval depth used at extraction time.
const DefaultTopK = 4

// Answer is a model response with the chunk IDs it was grounded on.
type Answer struct {
	Text    string
	Sources []string
}

// Service retrieves the most relevant chunks and asks the model.
type Service struct {
	Index    index.VectorIndex
	Answerer llm.Answerer
	Logger   *slog.Logger
}

// Ask retrieves the top-k chunks for question and answers from them.
// k <= 0 uses DefaultTopK.
func (s *Service) Ask(ctx context.Context, question string, k int) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("%w: question is required", common.ErrInvalidInput)
	}
	if k <= 0 {
		k = DefaultTopK
	}

	hits, err := s.Index.Search(ctx, question, k)
	if err != nil {
		return Answer{}, fmt.Errorf("search index: %w", err)
	}
	if len(hits) == 0 {
		return Answer{}, fmt.Errorf("%w: no indexed documents to answer from", common.ErrNotFound)
	}

	parts := make([]string, 0, len(hits))
	sources := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Entry.Text)
		sources = append(sources, h.Entry.ID)
	}

	text, err := s.Answerer.Answer(ctx, strings.Join(parts, "\n\n---\n\n"), question)
	if err != nil {
		return Answer{}, err
	}
	if s.Logger != nil {
		s.Logger.Info("qa.answered", "question_len", len(question), "sources", len(sources))
	}
	return Answer{Text: text, Sources: sources}, nil
}
