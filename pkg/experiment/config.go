package experiment

// Config holds orchestrator settings.
type Config struct {
	// Concurrency bounds how many roster members run at once for one
	// task. Values below 1 run the roster sequentially in order.
	Concurrency int

	// RetryCount is recorded verbatim on every CallLog. The orchestrator
	// itself never retries.
	RetryCount int
}
