package constants

// ExtractionStatus is the canonical status for rows in the extractions
// history table.
type ExtractionStatus string

// Stable values (store these exact strings).
const (
	StatusOK     ExtractionStatus = "OK"     // extraction completed, result recorded
	StatusEmpty  ExtractionStatus = "EMPTY"  // completed but the reply yielded no usable output
	StatusFailed ExtractionStatus = "FAILED" // resource or model failure
)

// ExtractionMode distinguishes the two public operations.
type ExtractionMode string

const (
	ModeText       ExtractionMode = "TEXT"
	ModeStructured ExtractionMode = "STRUCTURED"
)
