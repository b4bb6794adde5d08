package experiment

import (
	"context"
	"fmt"

	"github.com/rhuss/vendorbench/pkg/config"
	"github.com/rhuss/vendorbench/pkg/observability"
	"github.com/rhuss/vendorbench/pkg/provider"
	"github.com/rhuss/vendorbench/pkg/storage"
)

// FromConfig builds the roster, opens the sink and returns a ready
// Orchestrator. Adapters share one instrumented HTTP client. The caller
// closes the returned sink once the run is over.
func FromConfig(ctx context.Context, cfg *config.Config) (*Orchestrator, storage.Sink, error) {
	client := observability.InstrumentClient(provider.NewHTTPClient())

	roster, err := NewFactory(cfg, client).Roster(cfg.Roster)
	if err != nil {
		return nil, nil, fmt.Errorf("building roster: %w", err)
	}

	sink, err := OpenSink(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	o, err := New(roster, sink, Config{
		Concurrency: cfg.Experiment.Concurrency,
		RetryCount:  cfg.Experiment.RetryCount,
	})
	if err != nil {
		sink.Close()
		return nil, nil, err
	}
	return o, sink, nil
}
