package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
)

// ErrMissingCredential is returned by adapter constructors when the
// required API key environment variable is unset.
var ErrMissingCredential = errors.New("missing credential")

// ErrorKind is the machine-stable classifier persisted with failed calls.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindTransport   ErrorKind = "transport"
	KindHTTP4xx     ErrorKind = "http_4xx"
	KindHTTP5xx     ErrorKind = "http_5xx"
	KindVendorError ErrorKind = "vendor_error"
	KindUnknown     ErrorKind = "unknown"
)

// CallError describes why a vendor call failed.
type CallError struct {
	Kind    ErrorKind
	Status  int // HTTP status, 0 when none was received
	Message string
	Err     error
}

func (e *CallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// VendorError builds the error for an application-level failure the vendor
// delivered inside the stream.
func VendorError(message string) *CallError {
	if message == "" {
		message = "vendor reported an error"
	}
	return &CallError{Kind: KindVendorError, Message: message}
}

// StatusError builds a CallError for a non-2xx HTTP status.
func StatusError(status int, message string) *CallError {
	return &CallError{Kind: KindForStatus(status), Status: status, Message: message}
}

// KindForStatus maps an HTTP status code to an ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status >= 400 && status < 500:
		return KindHTTP4xx
	case status >= 500 && status < 600:
		return KindHTTP5xx
	default:
		return KindUnknown
	}
}

// Classify maps any error onto a CallError. Errors that already are
// CallErrors are returned unchanged.
func Classify(err error) *CallError {
	if err == nil {
		return nil
	}

	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &CallError{Kind: KindTimeout, Message: err.Error(), Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &CallError{Kind: KindTimeout, Message: err.Error(), Err: err}
	}

	var urlErr *url.Error
	var opErr *net.OpError
	switch {
	case errors.As(err, &urlErr),
		errors.As(err, &opErr),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED):
		return &CallError{Kind: KindTransport, Message: err.Error(), Err: err}
	}

	return &CallError{Kind: KindUnknown, Message: err.Error(), Err: err}
}

// MapHTTPError converts a non-2xx response into a CallError. It reads a
// bounded prefix of the body to extract the vendor's error message.
func MapHTTPError(resp *http.Response) *CallError {
	message := ExtractErrorMessage(resp.Body)

	if message == "" {
		switch {
		case resp.StatusCode == http.StatusBadRequest:
			message = "invalid request to vendor"
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			message = "vendor authentication failed"
		case resp.StatusCode == http.StatusNotFound:
			message = "vendor resource not found"
		case resp.StatusCode == http.StatusTooManyRequests:
			message = "vendor rate limit exceeded"
		case resp.StatusCode >= http.StatusInternalServerError:
			message = fmt.Sprintf("vendor server error (HTTP %d)", resp.StatusCode)
		default:
			message = fmt.Sprintf("unexpected vendor response (HTTP %d)", resp.StatusCode)
		}
	}

	return StatusError(resp.StatusCode, message)
}

// errorEnvelope matches the {"error": {...}} body shared by the OpenAI,
// Anthropic, xAI and Gemini APIs.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ExtractErrorMessage parses a vendor error body and returns its message,
// or "" when none can be found.
func ExtractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	return ErrorMessageFromJSON(data)
}

// ErrorMessageFromJSON extracts error.message from a vendor error payload.
func ErrorMessageFromJSON(data []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ""
	}
	return env.Error.Message
}
