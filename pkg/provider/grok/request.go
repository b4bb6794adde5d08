package grok

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/rhuss/vendorbench/pkg/debug"
	"github.com/rhuss/vendorbench/pkg/provider"
)

// buildRequest assembles the typed chat completion request.
func buildRequest(model string, req *provider.GenerationRequest) (openai.ChatCompletionRequest, error) {
	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: req.UserPrompt}}
	if req.HasImage() {
		img, err := provider.EncodeImage(req.ImagePath)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: img.DataURL()},
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:         model,
		Messages:      messages,
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}

	if len(req.Schema) > 0 {
		name, schema, strict := provider.SchemaParts(req.Schema)
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: schema,
				Strict: strict,
			},
		}
	}

	return chatReq, nil
}

// reservedKeys are built by the adapter and cannot be overridden.
var reservedKeys = map[string]bool{"messages": true, "response_format": true, "stream": true, "stream_options": true}

// wireOverrides returns the overrides that are merged into the request
// body. Adapter-owned keys are dropped.
func wireOverrides(overrides map[string]any) map[string]any {
	if len(overrides) == 0 {
		return nil
	}
	out := make(map[string]any, len(overrides))
	for k, v := range overrides {
		if reservedKeys[k] {
			debug.Log("providers", "override ignored", "vendor", Name, "key", k)
			continue
		}
		out[k] = v
	}
	return out
}
