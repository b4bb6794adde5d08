package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rhuss/vendorbench/pkg/api"
	"github.com/rhuss/vendorbench/pkg/debug"
	"github.com/rhuss/vendorbench/pkg/observability"
	"github.com/rhuss/vendorbench/pkg/provider"
	"github.com/rhuss/vendorbench/pkg/storage"
)

// ErrInvalidTask is returned for structurally invalid input, before any
// adapter is invoked.
var ErrInvalidTask = errors.New("invalid task")

// Orchestrator runs tasks across a fixed roster.
type Orchestrator struct {
	roster []Member
	sink   storage.Sink
	cfg    Config

	now func() time.Time
}

// New creates an Orchestrator. The roster must not be empty and the sink
// must not be nil; dry runs use a memory store.
func New(roster []Member, sink storage.Sink, cfg Config) (*Orchestrator, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("experiment: roster must not be empty")
	}
	if sink == nil {
		return nil, fmt.Errorf("experiment: sink must not be nil")
	}
	for i, m := range roster {
		if m.Provider == nil {
			return nil, fmt.Errorf("experiment: roster[%d] %s has no adapter", i, m.Spec)
		}
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Orchestrator{roster: roster, sink: sink, cfg: cfg, now: time.Now}, nil
}

// Roster returns the model specs in roster order.
func (o *Orchestrator) Roster() []provider.ModelSpec {
	specs := make([]provider.ModelSpec, len(o.roster))
	for i, m := range o.roster {
		specs[i] = m.Spec
	}
	return specs
}

// Run invokes every roster member for task and returns one CallLog per
// member in roster order. Each CallLog is written to the sink as soon as
// its call finishes.
//
// Model failures never surface as errors; they are recorded in the
// CallLogs. Run returns an error only for an invalid task, checked before
// any call, or when sink writes failed. In the latter case the returned
// slice is still complete.
func (o *Orchestrator) Run(ctx context.Context, task *api.Task) ([]*api.CallLog, error) {
	if err := validateTask(task); err != nil {
		return nil, err
	}

	debug.Log("experiment", "task started",
		"experiment_id", task.ExperimentID, "subject_id", task.SubjectID, "item_id", task.ItemID,
		"models", len(o.roster), "concurrency", o.cfg.Concurrency)

	logs := make([]*api.CallLog, len(o.roster))
	writeErrs := make([]error, len(o.roster))

	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for i, m := range o.roster {
		g.Go(func() error {
			logs[i] = o.call(ctx, task, m)
			if err := o.sink.Write(ctx, logs[i]); err != nil {
				writeErrs[i] = fmt.Errorf("writing %s: %w", m.Spec, err)
				observability.RecordSinkWrite(err)
				slog.Error("call log not persisted", "provider", m.Spec.Provider, "model", m.Spec.Model, "error", err)
				return nil
			}
			observability.RecordSinkWrite(nil)
			return nil
		})
	}
	g.Wait()

	return logs, errors.Join(writeErrs...)
}

// call performs one isolated adapter invocation. A panicking adapter is
// recorded as an unknown failure.
func (o *Orchestrator) call(ctx context.Context, task *api.Task, m Member) (log *api.CallLog) {
	t := *task
	t.Request.Overrides = mergeOverrides(m.Overrides, task.Request.Overrides)

	start := o.now()
	defer func() {
		if r := recover(); r != nil {
			var sum provider.Summary
			c := sum.Contract(&t.Request, start, o.now(), fmt.Errorf("adapter panicked: %v", r))
			log = api.NewCallLog(&t, m.Spec, c, o.cfg.RetryCount, o.now())
			o.record(log)
		}
	}()

	c := m.Provider.Generate(ctx, &t.Request)
	log = api.NewCallLog(&t, m.Spec, c, o.cfg.RetryCount, o.now())
	o.record(log)
	return log
}

func (o *Orchestrator) record(l *api.CallLog) {
	if err := l.Validate(); err != nil {
		slog.Warn("call log violates record invariant", "provider", l.Provider, "model", l.Model, "error", err)
	}
	observability.RecordCall(l)

	attrs := []any{
		"provider", l.Provider,
		"model", l.Model,
		"latency_ms", int64(l.TotalLatencyMillis),
	}
	if l.HTTPStatus != nil {
		attrs = append(attrs, "status", *l.HTTPStatus)
	}
	if l.Failed() {
		attrs = append(attrs, "error", *l.ErrorCategory, "message", *l.ErrorMessage)
		slog.Info("call failed", attrs...)
		return
	}
	if l.TTFTMillis != nil {
		attrs = append(attrs, "ttft_ms", int64(*l.TTFTMillis))
	}
	if l.OutputChars != nil {
		attrs = append(attrs, "output_chars", *l.OutputChars)
	}
	slog.Info("call completed", attrs...)
}

// mergeOverrides layers task overrides over roster overrides. The result
// is a new map; nil when both are empty.
func mergeOverrides(roster, task map[string]any) map[string]any {
	if len(roster) == 0 {
		return task
	}
	merged := maps.Clone(roster)
	maps.Copy(merged, task)
	return merged
}

func validateTask(task *api.Task) error {
	if task == nil {
		return fmt.Errorf("%w: task is nil", ErrInvalidTask)
	}
	if task.ExperimentID == "" {
		return fmt.Errorf("%w: experiment id is required", ErrInvalidTask)
	}
	if task.Request.HasImage() {
		info, err := os.Stat(task.Request.ImagePath)
		if err != nil {
			return fmt.Errorf("%w: image: %w", ErrInvalidTask, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: image %s is a directory", ErrInvalidTask, task.Request.ImagePath)
		}
	}
	return nil
}
