package llm

import (
	"strings"

	"github.com/Shubham-Nemade-24/certagent/constants"
)

// BuildExtractionPrompt renders the 9-field extraction prompt for one
// document's full chunk context.
func BuildExtractionPrompt(contextText string) string {
	var b strings.Builder
	b.WriteString("You are a highly accurate certificate data extractor.\n\n")
	b.WriteString("Read the certificate text and extract the required details into a single structured row matching this exact column order:\n\n")
	for _, h := range constants.RecordHeader {
		b.WriteString("- ")
		b.WriteString(h)
		b.WriteString("\n")
	}
	b.WriteString(`
OUTPUT FORMAT (strict):

Return ONLY a JSON array with exactly 9 elements, like:

["Professor Name", "YYYY-MM-DD", "CERT-001", "Course name", "Grade", "Institution", "ROLL123", "Address", "Extra details"]

- Use empty string "" if any field is missing.
- Do NOT add explanations, labels, or multiline text.
- Dates must be in YYYY-MM-DD format.
- "Other Details" should include any leftover information like signatures, comments, reference numbers, seals, or notes.

CERTIFICATE TEXT:
`)
	b.WriteString(contextText)
	return b.String()
}

// BuildAnswerPrompt renders the retrieval QA prompt.
func BuildAnswerPrompt(contextText, question string) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant answering questions based on certificate and related documents.\n")
	b.WriteString("Use ONLY the information provided in the CONTEXT below.\n")
	b.WriteString("If the answer is not clearly contained in the context, say you do not know.\n\n")
	b.WriteString("CONTEXT:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nQUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\nANSWER:\n")
	return b.String()
}
