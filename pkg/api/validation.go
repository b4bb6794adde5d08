package api

// Validate checks the invariants every persisted CallLog holds. It returns
// a *RecordError describing the first violation, or nil.
func (l *CallLog) Validate() error {
	if l.Provider == "" {
		return invalid("model_provider", "provider is required")
	}
	if l.Model == "" {
		return invalid("model_name", "model is required")
	}
	if l.ExperimentID == "" {
		return invalid("experiment_id", "experiment id is required")
	}
	if l.ErrorCategory != nil && l.ResponseText != nil {
		return invalid("response_text", "a failed call must not carry response text")
	}
	if l.TotalLatencyMillis < 0 {
		return invalid("total_latency_ms", "latency must not be negative")
	}
	if l.TTFTMillis != nil {
		if *l.TTFTMillis < 0 || *l.TTFTMillis > l.TotalLatencyMillis {
			return invalid("ttft_ms", "time to first token must be within total latency")
		}
	}
	if l.RetryCount < 0 {
		return invalid("retry_count", "retry count must not be negative")
	}
	return nil
}
