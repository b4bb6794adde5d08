package provider

import (
	"encoding/json"
	"testing"
)

func TestEncodeBody_OverridesWin(t *testing.T) {
	type req struct {
		Model       string   `json:"model"`
		Temperature *float64 `json:"temperature,omitempty"`
		MaxTokens   int      `json:"max_tokens"`
	}
	one := 1.0
	data, err := EncodeBody(req{Model: "m", Temperature: &one, MaxTokens: 4096},
		map[string]any{"temperature": 0.2, "seed": 7})
	if err != nil {
		t.Fatalf("EncodeBody: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["temperature"] != 0.2 {
		t.Errorf("temperature = %v, want override 0.2", got["temperature"])
	}
	if got["seed"] != float64(7) {
		t.Errorf("seed = %v, want 7", got["seed"])
	}
	if got["max_tokens"] != float64(4096) || got["model"] != "m" {
		t.Errorf("adapter defaults lost: %v", got)
	}
}

func TestSchemaParts(t *testing.T) {
	name, schema, strict := SchemaParts(json.RawMessage(`{"name":"mls","strict":true,"schema":{"type":"object"}}`))
	if name != "mls" || string(schema) != `{"type":"object"}` || !strict {
		t.Errorf("wrapped: got %q %s %v", name, schema, strict)
	}

	bare := json.RawMessage(`{"type":"object","properties":{"shift_mm":{"type":"number"}}}`)
	name, schema, strict = SchemaParts(bare)
	if name != DefaultSchemaName || string(schema) != string(bare) || strict {
		t.Errorf("bare: got %q %s %v", name, schema, strict)
	}
}
