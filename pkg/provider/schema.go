package provider

import "encoding/json"

// DefaultSchemaName names schemas that arrive without a wrapper.
const DefaultSchemaName = "response"

// SchemaParts splits a structured-output document into name, schema and
// strict flag. Documents already in the OpenAI wrapper form
// {"name": ..., "schema": {...}, "strict": ...} are unwrapped; anything
// else is treated as a bare JSON Schema.
func SchemaParts(doc json.RawMessage) (name string, schema json.RawMessage, strict bool) {
	var wrapper struct {
		Name   string          `json:"name"`
		Schema json.RawMessage `json:"schema"`
		Strict bool            `json:"strict"`
	}
	if err := json.Unmarshal(doc, &wrapper); err == nil && wrapper.Name != "" && len(wrapper.Schema) > 0 {
		return wrapper.Name, wrapper.Schema, wrapper.Strict
	}
	return DefaultSchemaName, doc, false
}
