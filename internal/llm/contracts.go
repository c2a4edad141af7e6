package llm

import "context"

// PartKind tags one unit of a model request payload.
type PartKind string

const (
	PartText     PartKind = "text"
	PartImage    PartKind = "image"
	PartDocument PartKind = "document"
)

// Part is one content block of a request: either an instruction text or a
// base64-encodable document/image payload with its media type. An explicit
// variant tag is used instead of inspecting which fields are set.
type Part struct {
	Kind      PartKind
	Text      string
	Data      []byte
	MediaType string
}

// NewTextPart creates an instruction block.
func NewTextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// NewImagePart creates an image block.
func NewImagePart(data []byte, mediaType string) Part {
	return Part{Kind: PartImage, Data: data, MediaType: mediaType}
}

// NewDocumentPart creates a document block. The provider rejects documents
// tagged as images and vice versa, so the block kind must match the media
// type chosen by the prompt builder.
func NewDocumentPart(data []byte, mediaType string) Part {
	return Part{Kind: PartDocument, Data: data, MediaType: mediaType}
}

// Request is an assembled model payload: an ordered sequence of content
// blocks. Block order is part of the contract (document first, then the
// instruction).
type Request struct {
	Parts []Part
}

// ReplyBlock is one unit of a model reply, tagged with its kind. Only
// "text" blocks carry a value the parser cares about; everything else is
// kept so callers can see what the model returned.
type ReplyBlock struct {
	Kind string
	Text string
}

// Reply is the model's answer: an ordered sequence of tagged blocks.
type Reply struct {
	Blocks []ReplyBlock
}

// Invoker is the model boundary the extraction pipeline depends on.
// Implementations do not retry; retries, if desired, belong to the caller.
type Invoker interface {
	Invoke(ctx context.Context, req Request, maxTokens int64) (*Reply, error)
}
