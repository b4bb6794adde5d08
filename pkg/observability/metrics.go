// Package observability provides Prometheus metrics for vendor calls and
// the HTTP plumbing to expose them while a benchmark runs.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rhuss/vendorbench/pkg/api"
)

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 5 minutes.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}

var (
	// CallsTotal counts vendor calls by outcome ("ok" or the error kind).
	CallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendorbench_calls_total",
			Help: "Vendor calls",
		},
		[]string{"provider", "model", "outcome"},
	)

	// CallLatency records total call latency in seconds.
	CallLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendorbench_call_latency_seconds",
			Help:    "Vendor call latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// TimeToFirstToken records the delay until the first text fragment.
	TimeToFirstToken = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendorbench_ttft_seconds",
			Help:    "Time to first token",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// TokensTotal counts vendor-reported tokens by direction (input/output).
	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendorbench_tokens_total",
			Help: "Token count",
		},
		[]string{"provider", "model", "direction"},
	)

	// CharsTotal counts prompt and response characters by direction.
	CharsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendorbench_chars_total",
			Help: "Character count",
		},
		[]string{"provider", "model", "direction"},
	)

	// SinkWritesTotal counts CallLog writes by result ("ok" or "error").
	SinkWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendorbench_sink_writes_total",
			Help: "Call log writes",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal counts outbound vendor HTTP requests by host and
	// status class.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendorbench_http_requests_total",
			Help: "Outbound vendor HTTP requests",
		},
		[]string{"host", "status"},
	)

	// StreamsInFlight tracks vendor response bodies still being read.
	StreamsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vendorbench_streams_in_flight",
			Help: "Vendor streams being consumed",
		},
	)
)

func init() {
	prometheus.MustRegister(
		CallsTotal,
		CallLatency,
		TimeToFirstToken,
		TokensTotal,
		CharsTotal,
		SinkWritesTotal,
		HTTPRequestsTotal,
		StreamsInFlight,
	)
}

// RecordCall records the metrics of one finished call.
func RecordCall(l *api.CallLog) {
	outcome := "ok"
	if l.ErrorCategory != nil {
		outcome = *l.ErrorCategory
	}
	CallsTotal.WithLabelValues(l.Provider, l.Model, outcome).Inc()
	CallLatency.WithLabelValues(l.Provider, l.Model).Observe(l.TotalLatencyMillis / 1000)

	if l.TTFTMillis != nil {
		TimeToFirstToken.WithLabelValues(l.Provider, l.Model).Observe(*l.TTFTMillis / 1000)
	}
	addCount(TokensTotal, l, "input", l.InputTokens)
	addCount(TokensTotal, l, "output", l.OutputTokens)
	addCount(CharsTotal, l, "input", l.InputChars)
	addCount(CharsTotal, l, "output", l.OutputChars)
}

// RecordSinkWrite counts one sink write.
func RecordSinkWrite(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SinkWritesTotal.WithLabelValues(result).Inc()
}

func addCount(cv *prometheus.CounterVec, l *api.CallLog, direction string, n *int) {
	if n == nil || *n < 0 {
		return
	}
	cv.WithLabelValues(l.Provider, l.Model, direction).Add(float64(*n))
}
