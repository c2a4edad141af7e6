package llm

import (
	"strings"

	"github.com/mlaskin/docvision/constants"
)

const textInstruction = "Extract all text from this document and return it in markdown format."

// documentPart picks the block kind the provider expects for the payload:
// PDFs go in a document block, everything else in an image block.
func documentPart(data []byte, mediaType string) Part {
	if mediaType == constants.MediaTypePDF {
		return NewDocumentPart(data, mediaType)
	}
	return NewImagePart(data, mediaType)
}

// BuildTextPrompt assembles the free-text extraction payload: the document
// or image followed by the markdown instruction.
func BuildTextPrompt(data []byte, mediaType string) Request {
	return Request{Parts: []Part{
		documentPart(data, mediaType),
		NewTextPart(textInstruction),
	}}
}

// BuildStructuredPrompt assembles the structured extraction payload. The
// instruction lists every requested field with its description, demands a
// bare JSON object, and anchors the model with a literal example shape.
// The example is deliberate: the model is not running a constrained
// decode, so showing valid output keeps it honest more often than rules
// alone do.
func BuildStructuredPrompt(data []byte, mediaType string, fields []string) Request {
	var b strings.Builder
	b.WriteString("Extract the following fields from this document:\n")
	for _, name := range fields {
		b.WriteString("- ")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(constants.DescribeField(name))
		b.WriteString("\n")
	}
	b.WriteString("\nReturn ONLY a JSON object with these exact field names as keys. ")
	b.WriteString("Do not wrap it in markdown fencing and do not add any explanation or surrounding prose.\n")
	b.WriteString(`Example shape: {"invoiceNumber": "INV-2024-001", "amountDue": "149.99"}`)
	b.WriteString("\nIf a field is not found in the document, use null as its value.")

	return Request{Parts: []Part{
		documentPart(data, mediaType),
		NewTextPart(b.String()),
	}}
}
