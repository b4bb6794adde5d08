// Package provider defines the vendor-neutral contract for benchmarking
// streaming LLM backends. Each adapter (openai, anthropic, grok, gemini)
// turns a GenerationRequest into its own wire format, classifies the raw
// stream into Events, and lets the shared driver in this package fold
// those events into a ResponseContract. Timing, usage accounting, and
// error classification are written once here and reused by every adapter.
package provider
