package prompts

import (
	"errors"
	"fmt"

	"github.com/rhuss/vendorbench/pkg/provider"
)

// Selection names the template files, keys and optional inputs of a task.
type Selection struct {
	PromptsPath string
	SystemsPath string
	SchemaPath  string

	PromptID      string
	PromptVersion string
	SystemID      string
	SystemVersion string

	// Overrides is a JSON object, see ParseOverrides.
	Overrides string
}

// Request loads and resolves everything the selection names. Problems are
// configuration errors: unknown ids and versions wrap ErrUnknownPrompt.
func (s Selection) Request() (provider.GenerationRequest, error) {
	var req provider.GenerationRequest

	var missing []error
	for _, f := range []struct{ name, value string }{
		{"prompts file", s.PromptsPath},
		{"systems file", s.SystemsPath},
		{"prompt id", s.PromptID},
		{"prompt version", s.PromptVersion},
		{"system id", s.SystemID},
		{"system version", s.SystemVersion},
	} {
		if f.value == "" {
			missing = append(missing, fmt.Errorf("%s is required", f.name))
		}
	}
	if err := errors.Join(missing...); err != nil {
		return req, err
	}

	users, err := LoadTemplates(s.PromptsPath)
	if err != nil {
		return req, err
	}
	systems, err := LoadTemplates(s.SystemsPath)
	if err != nil {
		return req, err
	}
	if req.UserPrompt, err = users.Get(s.PromptID, s.PromptVersion); err != nil {
		return req, fmt.Errorf("user prompt: %w", err)
	}
	if req.SystemPrompt, err = systems.Get(s.SystemID, s.SystemVersion); err != nil {
		return req, fmt.Errorf("system prompt: %w", err)
	}

	if s.SchemaPath != "" {
		if req.Schema, err = LoadSchema(s.SchemaPath); err != nil {
			return req, err
		}
	}
	if req.Overrides, err = ParseOverrides(s.Overrides); err != nil {
		return req, err
	}
	return req, nil
}
