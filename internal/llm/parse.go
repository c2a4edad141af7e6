package llm

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// firstTextBlock returns the value of the first text-tagged block, or ""
// when the reply holds none. An empty reply is a valid outcome, not an
// error.
func firstTextBlock(reply *Reply) (string, bool) {
	if reply == nil {
		return "", false
	}
	for _, block := range reply.Blocks {
		if block.Kind == "text" {
			return block.Text, true
		}
	}
	return "", false
}

// ExtractPlainText scans the reply's blocks in order and returns the first
// text block's value, or "" when no text block exists.
func ExtractPlainText(reply *Reply) string {
	text, _ := firstTextBlock(reply)
	return text
}

// ExtractStructuredJSON locates the first text block and recovers the JSON
// object embedded in it. The model is told to return bare JSON but often
// adds fencing or prose anyway, so the parser slices from the first '{'
// to the last '}' before unmarshalling. Anything unrecoverable degrades
// to an empty mapping; extraction is best-effort and "found nothing" is a
// normal outcome. Keys are passed through exactly as the model returned
// them, with no filtering against the requested field list.
func ExtractStructuredJSON(reply *Reply, logger *slog.Logger) map[string]any {
	if logger == nil {
		logger = slog.Default()
	}

	text, ok := firstTextBlock(reply)
	if !ok {
		logger.Warn("llm.parse.no_text_block")
		return map[string]any{}
	}

	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		logger.Warn("llm.parse.no_json_object", "text_len", len(text))
		return map[string]any{}
	}

	// Greedy span: first '{' through last '}'. Replies holding several
	// JSON-looking fragments get treated as one span and fail the parse
	// below rather than silently picking one fragment.
	candidate := text[start : end+1]

	var fields map[string]any
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		logger.Warn("llm.parse.invalid_json", "error", err, "candidate_len", len(candidate))
		return map[string]any{}
	}
	return fields
}
