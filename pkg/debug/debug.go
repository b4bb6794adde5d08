// Package debug provides category-based debug logging on top of log/slog.
//
// Categories select WHAT is logged (VENDORBENCH_DEBUG, comma separated);
// the level selects HOW MUCH (VENDORBENCH_LOG_LEVEL). Both can also come
// from the config file; the environment wins.
//
//	debug.Log("providers", "request", "vendor", "gemini", "url", url)
//	debug.Trace("providers", "request body", "body", string(body))
//
// Categories: providers, experiment, storage, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// LevelTrace is below slog.LevelDebug. Full request bodies and every
// stream event are logged at this level.
const LevelTrace = slog.LevelDebug - 4

var categories atomic.Pointer[map[string]bool]

func init() {
	m := parseCategories(os.Getenv("VENDORBENCH_DEBUG"))
	categories.Store(&m)
}

// Options configures the default slog logger.
type Options struct {
	Categories string
	Level      string
	// Format is "text" (default) or "json".
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

// Init installs the default slog logger and the enabled categories.
func Init(opts Options) {
	cats := os.Getenv("VENDORBENCH_DEBUG")
	if cats == "" {
		cats = opts.Categories
	}
	m := parseCategories(cats)
	categories.Store(&m)

	level := os.Getenv("VENDORBENCH_LOG_LEVEL")
	if level == "" {
		level = opts.Level
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		h = slog.NewJSONHandler(out, handlerOpts)
	} else {
		h = slog.NewTextHandler(out, handlerOpts)
	}
	slog.SetDefault(slog.New(h))
}

// Enabled reports whether debug output is active for the category.
func Enabled(category string) bool {
	m := *categories.Load()
	return m["all"] || m[category]
}

// Log emits a debug message for the category. No-op when disabled.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the category.
func Trace(category string, msg string, args ...any) {
	if !TraceEnabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceEnabled reports whether TRACE output is active for the category.
func TraceEnabled(category string) bool {
	if !Enabled(category) {
		return false
	}
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// ParseLevel converts a level name to a slog.Level. Unknown names map to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Truncate shortens s to maxLen bytes for log output, appending "...".
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}

func setCategories(s string) func() {
	prev := categories.Load()
	m := parseCategories(s)
	categories.Store(&m)
	return func() { categories.Store(prev) }
}
