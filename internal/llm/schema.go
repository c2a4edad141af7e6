package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildFieldsSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map describing the expected structured reply: every requested
// field is a string or null. Additional properties stay allowed because
// the parser passes the model's keys through unfiltered; validation is an
// opt-in signal for callers, never a gate inside the pipeline.
func BuildFieldsSchema(fields []string) map[string]any {
	props := make(map[string]any, len(fields))
	for _, name := range fields {
		props[name] = map[string]any{"type": []string{"string", "null"}}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

// ValidateAgainstSchema validates "data" against "schemaMap".
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
