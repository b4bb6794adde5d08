package observability

import (
	"io"
	"net/http"
	"strconv"
	"sync"
)

// Transport wraps an http.RoundTripper to record outbound vendor requests.
//
// It captures:
//   - vendorbench_http_requests_total (counter): per request, by host and status class
//   - vendorbench_streams_in_flight (gauge): incremented while a response body is open
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		resp, err := next.RoundTrip(r)
		if err != nil {
			HTTPRequestsTotal.WithLabelValues(r.URL.Host, "error").Inc()
			return nil, err
		}

		// Build a status class label like "2xx", "4xx", "5xx".
		HTTPRequestsTotal.WithLabelValues(r.URL.Host, strconv.Itoa(resp.StatusCode/100)+"xx").Inc()

		StreamsInFlight.Inc()
		resp.Body = &trackedBody{ReadCloser: resp.Body}
		return resp, nil
	})
}

// InstrumentClient returns a copy of c whose transport records metrics.
func InstrumentClient(c *http.Client) *http.Client {
	if c == nil {
		c = &http.Client{}
	}
	instrumented := *c
	instrumented.Transport = Transport(c.Transport)
	return &instrumented
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// trackedBody decrements the in-flight gauge exactly once on Close.
type trackedBody struct {
	io.ReadCloser
	once sync.Once
}

func (b *trackedBody) Close() error {
	b.once.Do(StreamsInFlight.Dec)
	return b.ReadCloser.Close()
}
