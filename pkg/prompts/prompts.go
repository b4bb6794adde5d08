// Package prompts loads the external inputs of a task: prompt and system
// templates keyed by id and version, a JSON schema document, and JSON
// configuration overrides.
package prompts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownPrompt is returned when an (id, version) pair is not present
// in the loaded templates.
var ErrUnknownPrompt = errors.New("unknown prompt")

// Templates maps id -> version -> text, the layout of the prompt and
// system YAML files:
//
//	structured_findings_extraction:
//	  mls_v1: |
//	    Extract the midline shift ...
type Templates map[string]map[string]string

// LoadTemplates reads a template YAML file.
func LoadTemplates(path string) (Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading templates: %w", err)
	}

	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing templates %s: %w", path, err)
	}
	if t == nil {
		t = Templates{}
	}
	return t, nil
}

// Get returns the text for id and version.
func (t Templates) Get(id, version string) (string, error) {
	versions, ok := t[id]
	if !ok {
		return "", fmt.Errorf("%w: id %q (known: %v)", ErrUnknownPrompt, id, keys(t))
	}
	text, ok := versions[version]
	if !ok {
		return "", fmt.Errorf("%w: %s version %q (known: %v)", ErrUnknownPrompt, id, version, keys(versions))
	}
	return text, nil
}

// LoadSchema reads a JSON schema document. The document must be a JSON
// object; it is returned unchanged for the adapters to attach.
func LoadSchema(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("schema %s is not a JSON object: %w", path, err)
	}
	return json.RawMessage(bytes.TrimSpace(data)), nil
}

// ParseOverrides decodes a JSON object of configuration overrides. Numbers
// keep their literal form so they are logged exactly as given. An empty
// string yields nil.
func ParseOverrides(s string) (map[string]any, error) {
	if len(bytes.TrimSpace([]byte(s))) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("model overrides must be a JSON object: %w", err)
	}
	return m, nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
