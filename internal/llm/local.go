package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/study-agent/internal/metrics"
)

// LocalUnavailableMessage is returned whenever the local model cannot produce a summary.
const LocalUnavailableMessage = "Warning: the local summarization model is unavailable. Please try again later."

// DefaultLocalModel is the model name sent to the local inference server.
const DefaultLocalModel = "t5-small"

const probeTimeout = 2 * time.Second

// LengthBounds are the generation limits passed to the local model.
type LengthBounds struct {
	Max int
	Min int
}

// LengthForMode maps a summary mode to output bounds: short is 120/30, anything else 250/80.
func LengthForMode(mode string) LengthBounds {
	if strings.EqualFold(strings.TrimSpace(mode), "short") {
		return LengthBounds{Max: 120, Min: 30}
	}
	return LengthBounds{Max: 250, Min: 80}
}

// LocalConfig locates the local summarization server.
type LocalConfig struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// LocalSummarizer wraps a locally hosted summarization model served over HTTP.
// Availability is decided once, at construction.
type LocalSummarizer struct {
	config    LocalConfig
	http      *http.Client
	available bool
	log       *slog.Logger
}

type localRequest struct {
	Model      string          `json:"model"`
	Inputs     string          `json:"inputs"`
	Parameters localParameters `json:"parameters"`
}

type localParameters struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

type localSummary struct {
	SummaryText string `json:"summary_text"`
}

// NewLocalSummarizer builds the summarizer and probes {URL}/health once.
// An empty URL disables the local model.
func NewLocalSummarizer(ctx context.Context, config LocalConfig, log *slog.Logger) *LocalSummarizer {
	if log == nil {
		log = slog.Default()
	}
	if config.Model == "" {
		config.Model = DefaultLocalModel
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * DefaultTimeout
	}
	config.URL = strings.TrimRight(config.URL, "/")

	s := &LocalSummarizer{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		log:    log,
	}
	if config.URL != "" {
		s.available = s.probe(ctx)
	}
	if s.available {
		metrics.LocalModelAvailable.Set(1)
		log.Info("local summarization model available", "url", config.URL, "model", config.Model)
	} else {
		metrics.LocalModelAvailable.Set(0)
		log.Warn("local summarization model unavailable; fallback summaries will return a warning", "url", config.URL)
	}
	return s
}

// Available reports the startup capability flag.
func (s *LocalSummarizer) Available() bool {
	return s != nil && s.available
}

// Model returns the configured local model name.
func (s *LocalSummarizer) Model() string {
	return s.config.Model
}

// Summarize runs the local model synchronously. It never fails: any problem
// yields LocalUnavailableMessage.
func (s *LocalSummarizer) Summarize(ctx context.Context, text, mode string) (summary string) {
	if !s.Available() {
		return LocalUnavailableMessage
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("local summarization panicked", "panic", r)
			summary = LocalUnavailableMessage
		}
	}()

	out, err := s.summarize(ctx, text, LengthForMode(mode))
	if err != nil {
		s.log.Error("local summarization failed", "err", err, "model", s.config.Model)
		return LocalUnavailableMessage
	}
	return out
}

func (s *LocalSummarizer) summarize(ctx context.Context, text string, bounds LengthBounds) (string, error) {
	body, err := json.Marshal(localRequest{
		Model:  s.config.Model,
		Inputs: text,
		Parameters: localParameters{
			MaxLength: bounds.Max,
			MinLength: bounds.Min,
			DoSample:  false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("local: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL+"/summarize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("local: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("local: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("local: unexpected status %d", resp.StatusCode)
	}

	var summaries []localSummary
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
		return "", fmt.Errorf("local: decode response: %w", err)
	}
	if len(summaries) == 0 {
		return "", fmt.Errorf("local: no summaries returned")
	}
	return strings.TrimSpace(summaries[0].SummaryText), nil
}

func (s *LocalSummarizer) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Debug("local model probe failed", "err", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
