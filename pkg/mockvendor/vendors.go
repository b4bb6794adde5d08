package mockvendor

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// --- openai Responses API ---

type responsesRequest struct {
	Model string `json:"model"`
	Input []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"input"`
	Temperature *float64 `json:"temperature"`
	TopP        *float64 `json:"top_p"`
}

func (s *server) handleResponses(w http.ResponseWriter, r *http.Request) {
	var req responsesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid request")
		return
	}

	p := &prompt{model: req.Model}
	for _, m := range req.Input {
		for _, c := range m.Content {
			switch {
			case c.Type == "input_image":
				p.image = true
			case m.Role == "system":
				p.system += c.Text
			case m.Role == "user":
				p.user += c.Text
			}
		}
	}
	if failIfScripted(w, p) {
		return
	}

	out, ok := newSSE(w)
	if !ok {
		return
	}
	tokens, input := p.reply()

	served := map[string]any{"id": "resp_mock", "model": req.Model, "temperature": 1.0, "top_p": 1.0}
	if req.Temperature != nil {
		served["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		served["top_p"] = *req.TopP
	}
	out.event("response.created", map[string]any{"type": "response.created", "response": served})

	for i, tok := range tokens {
		if !s.delay(r, p) {
			return
		}
		out.event("response.output_text.delta", map[string]any{"type": "response.output_text.delta", "delta": tok})
		if i == 0 && p.streamError() {
			out.event("error", map[string]any{"type": "error", "message": "stream failure (mock)"})
			return
		}
	}

	served["usage"] = map[string]any{"input_tokens": input, "output_tokens": len(tokens)}
	out.event("response.completed", map[string]any{"type": "response.completed", "response": served})
}

// --- anthropic Messages API ---

type messagesRequest struct {
	Model    string `json:"model"`
	System   string `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func (s *server) handleMessages(w http.ResponseWriter, r *http.Request) {
	var req messagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid request")
		return
	}

	p := &prompt{model: req.Model, system: req.System}
	for _, m := range req.Messages {
		for _, c := range m.Content {
			switch c.Type {
			case "image":
				p.image = true
			case "text":
				p.user += c.Text
			}
		}
	}
	if failIfScripted(w, p) {
		return
	}

	out, ok := newSSE(w)
	if !ok {
		return
	}
	tokens, input := p.reply()

	out.event("message_start", map[string]any{
		"type": "message_start",
		"message": map[string]any{
			"id": "msg_mock", "type": "message", "role": "assistant", "model": req.Model,
			"usage": map[string]any{"input_tokens": input, "output_tokens": 1},
		},
	})
	out.event("content_block_start", map[string]any{
		"type": "content_block_start", "index": 0,
		"content_block": map[string]any{"type": "text", "text": ""},
	})
	out.event("ping", map[string]any{"type": "ping"})

	for i, tok := range tokens {
		if !s.delay(r, p) {
			return
		}
		out.event("content_block_delta", map[string]any{
			"type": "content_block_delta", "index": 0,
			"delta": map[string]any{"type": "text_delta", "text": tok},
		})
		if i == 0 && p.streamError() {
			out.event("error", map[string]any{
				"type":  "error",
				"error": map[string]any{"type": "overloaded_error", "message": "Overloaded (mock)"},
			})
			return
		}
	}

	out.event("content_block_stop", map[string]any{"type": "content_block_stop", "index": 0})
	out.event("message_delta", map[string]any{
		"type":  "message_delta",
		"delta": map[string]any{"stop_reason": "end_turn"},
		"usage": map[string]any{"output_tokens": len(tokens)},
	})
	out.event("message_stop", map[string]any{"type": "message_stop"})
}

// --- OpenAI-compatible chat completions (grok) ---

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"messages"`
	StreamOptions *struct {
		IncludeUsage bool `json:"include_usage"`
	} `json:"stream_options"`
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid request")
		return
	}

	p := &prompt{model: req.Model}
	for _, m := range req.Messages {
		text, image := chatContent(m.Content)
		p.image = p.image || image
		switch m.Role {
		case "system":
			p.system += text
		case "user":
			p.user += text
		}
	}
	if failIfScripted(w, p) {
		return
	}

	out, ok := newSSE(w)
	if !ok {
		return
	}
	tokens, input := p.reply()
	created := time.Now().Unix()

	chunk := func(delta map[string]any, finish any) map[string]any {
		return map[string]any{
			"id": "chatcmpl-mock", "object": "chat.completion.chunk", "created": created, "model": req.Model,
			"choices": []any{map[string]any{"index": 0, "delta": delta, "finish_reason": finish}},
		}
	}

	out.event("", chunk(map[string]any{"role": "assistant", "content": ""}, nil))
	for i, tok := range tokens {
		if !s.delay(r, p) {
			return
		}
		out.event("", chunk(map[string]any{"content": tok}, nil))
		if i == 0 && p.streamError() {
			out.event("", map[string]any{
				"error": map[string]any{"message": "stream failure (mock)", "type": "server_error"},
			})
			return
		}
	}
	out.event("", chunk(map[string]any{}, "stop"))

	if req.StreamOptions != nil && req.StreamOptions.IncludeUsage {
		out.event("", map[string]any{
			"id": "chatcmpl-mock", "object": "chat.completion.chunk", "created": created, "model": req.Model,
			"choices": []any{},
			"usage": map[string]any{
				"prompt_tokens": input, "completion_tokens": len(tokens), "total_tokens": input + len(tokens),
			},
		})
	}
	out.done()
}

// chatContent reads a string or multimodal content array.
func chatContent(content any) (text string, image bool) {
	switch v := content.(type) {
	case string:
		return v, false
	case []any:
		for _, part := range v {
			m, ok := part.(map[string]any)
			if !ok {
				continue
			}
			switch m["type"] {
			case "text":
				if t, ok := m["text"].(string); ok {
					text += t
				}
			case "image_url":
				image = true
			}
		}
	}
	return text, image
}

// --- gemini streamGenerateContent ---

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction"`
	Contents          []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []struct {
		Text       string `json:"text"`
		InlineData *struct {
			MIMEType string `json:"mimeType"`
		} `json:"inlineData"`
	} `json:"parts"`
}

func (s *server) handleGemini(w http.ResponseWriter, r *http.Request) {
	model, ok := strings.CutSuffix(r.PathValue("action"), ":streamGenerateContent")
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unsupported method (mock)")
		return
	}

	var req geminiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid request")
		return
	}

	p := &prompt{model: model}
	if req.SystemInstruction != nil {
		for _, part := range req.SystemInstruction.Parts {
			p.system += part.Text
		}
	}
	for _, c := range req.Contents {
		for _, part := range c.Parts {
			if part.InlineData != nil {
				p.image = true
			}
			p.user += part.Text
		}
	}
	if failIfScripted(w, p) {
		return
	}

	out, ok := newSSE(w)
	if !ok {
		return
	}
	tokens, input := p.reply()

	chunk := func(text string, emitted int, finish string) map[string]any {
		cand := map[string]any{
			"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			"index":   0,
		}
		if finish != "" {
			cand["finishReason"] = finish
		}
		return map[string]any{
			"candidates":    []any{cand},
			"usageMetadata": map[string]any{"promptTokenCount": input, "candidatesTokenCount": emitted},
			"modelVersion":  model,
		}
	}

	for i, tok := range tokens {
		if !s.delay(r, p) {
			return
		}
		if i == len(tokens)-1 && !p.streamError() {
			out.event("", chunk(tok, len(tokens), "STOP"))
			return
		}
		out.event("", chunk(tok, i+1, ""))
		if i == 0 && p.streamError() {
			out.event("", map[string]any{
				"error": map[string]any{"code": 500, "message": "stream failure (mock)", "status": "INTERNAL"},
			})
			return
		}
	}
}
