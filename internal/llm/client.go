package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonathan/study-agent/internal/metrics"
)

// ErrMissingAPIKey is returned before any network activity when no API key is configured.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set; add it to the environment or .env")

// Outcome classifies a remote call.
type Outcome string

// Remote call outcomes.
const (
	OutcomeOK             Outcome = "ok"
	OutcomeHTTPError      Outcome = "http_error"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeUnexpected     Outcome = "unexpected"
)

// Normalized failure texts returned to callers in Result.Text.
const (
	httpErrorFormat   = "Error: LLM API returned %d"
	TransportMessage  = "Error: Could not reach LLM API"
	UnexpectedMessage = "Error: Something went wrong while calling LLM"
)

// Result is the outcome of one remote call. On failure Text holds the
// normalized human-readable error string rather than model output.
type Result struct {
	Text       string
	Outcome    Outcome
	StatusCode int
}

// OK reports whether Text is model output.
func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// Success wraps extracted model output.
func Success(text string) Result {
	return Result{Text: text, Outcome: OutcomeOK}
}

// HTTPFailure is the result for a non-2xx response.
func HTTPFailure(status int) Result {
	return Result{Text: fmt.Sprintf(httpErrorFormat, status), Outcome: OutcomeHTTPError, StatusCode: status}
}

// TransportFailure is the result when no response was received.
func TransportFailure() Result {
	return Result{Text: TransportMessage, Outcome: OutcomeTransportError}
}

// UnexpectedFailure is the result for anything else, including response shape errors.
func UnexpectedFailure() Result {
	return Result{Text: UnexpectedMessage, Outcome: OutcomeUnexpected}
}

// Client sends one rendered prompt to the remote endpoint.
type Client interface {
	// Generate performs exactly one remote call. The returned error is non-nil
	// only for configuration problems (ErrMissingAPIKey); every other failure
	// is reported through Result.
	Generate(ctx context.Context, prompt, model string) (Result, error)
	// Close releases any resources held by the client.
	Close() error
}

// NewClient builds the client for the configured transport.
func NewClient(ctx context.Context, config *Config, log *slog.Logger) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Transport {
	case TransportSDK:
		return NewGenAIClient(ctx, config, log)
	case TransportREST, "":
		return NewRESTClient(config, log), nil
	default:
		return nil, fmt.Errorf("unsupported LLM transport %q (valid: rest, sdk)", config.Transport)
	}
}

func recordOutcome(r Result) Result {
	metrics.RemoteCalls.WithLabelValues(string(r.Outcome)).Inc()
	return r
}
