package prompts

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSelection_Request(t *testing.T) {
	users := writeFile(t, "user.yaml", "describe:\n  v1: Describe this image\n")
	systems := writeFile(t, "system.yaml", "general:\n  default: You are precise.\n")
	schema := writeFile(t, "schema.json", `{"type":"object","properties":{"shift_mm":{"type":"number"}}}`)

	sel := Selection{
		PromptsPath: users, SystemsPath: systems, SchemaPath: schema,
		PromptID: "describe", PromptVersion: "v1",
		SystemID: "general", SystemVersion: "default",
		Overrides: `{"temperature": 0.2}`,
	}
	req, err := sel.Request()
	if err != nil {
		t.Fatal(err)
	}
	if req.UserPrompt != "Describe this image" || req.SystemPrompt != "You are precise." {
		t.Errorf("prompts = %q / %q", req.UserPrompt, req.SystemPrompt)
	}
	if !json.Valid(req.Schema) {
		t.Errorf("schema = %s", req.Schema)
	}
	if req.Overrides["temperature"] != json.Number("0.2") {
		t.Errorf("overrides = %v", req.Overrides)
	}

	sel.SystemVersion = "v9"
	if _, err := sel.Request(); !errors.Is(err, ErrUnknownPrompt) {
		t.Errorf("err = %v, want ErrUnknownPrompt", err)
	}
}

func TestSelection_MissingFields(t *testing.T) {
	_, err := Selection{PromptID: "describe"}.Request()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"prompts file", "systems file", "prompt version", "system id"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
