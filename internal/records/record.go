// Package records turns raw model responses into validated 9-field
// extraction records and handles their durable persistence: raw-output
// archive, spreadsheet append, run history.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Shubham-Nemade-24/certagent/constants"
)

// ErrParseFailure marks a model response that is not a valid 9-element row.
// It is a recoverable condition, surfaced as a status, never a crash.
var ErrParseFailure = errors.New("unparseable model response")

// Record is the fixed 9-field extraction result, in spreadsheet column order.
// Missing values are empty strings, never null.
type Record struct {
	SubjectName string
	IssueDate   string
	Identifier  string
	Purpose     string
	Grade       string
	Authority   string
	RollNumber  string
	Address     string
	Remainder   string
}

// Row returns the record's fields in fixed column order.
func (r Record) Row() []string {
	return []string{
		r.SubjectName,
		r.IssueDate,
		r.Identifier,
		r.Purpose,
		r.Grade,
		r.Authority,
		r.RollNumber,
		r.Address,
		r.Remainder,
	}
}

// ParseRow validates a raw model response as a literal 9-element array and
// converts it into a Record. Any other shape, or a parse error, returns an
// error wrapping ErrParseFailure.
func ParseRow(raw string) (Record, error) {
	cleaned, ok := extractArray(raw)
	if !ok {
		return Record{}, fmt.Errorf("%w: no array literal found", ErrParseFailure)
	}

	if err := validateRow([]byte(cleaned)); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()
	var values []any
	if err := dec.Decode(&values); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	if len(values) != constants.RecordFieldCount {
		return Record{}, fmt.Errorf("%w: got %d elements, want %d", ErrParseFailure, len(values), constants.RecordFieldCount)
	}

	fields := make([]string, constants.RecordFieldCount)
	for i, v := range values {
		fields[i] = stringify(v)
	}
	return Record{
		SubjectName: fields[0],
		IssueDate:   fields[1],
		Identifier:  fields[2],
		Purpose:     fields[3],
		Grade:       fields[4],
		Authority:   fields[5],
		RollNumber:  fields[6],
		Address:     fields[7],
		Remainder:   fields[8],
	}, nil
}

// extractArray strips markdown fences and surrounding prose, keeping the
// outermost [...] literal. Models occasionally wrap the row in a code block
// or add a lead-in sentence.
func extractArray(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		// nested structures are already rejected by the schema
		b, _ := json.Marshal(t)
		return string(b)
	}
}
