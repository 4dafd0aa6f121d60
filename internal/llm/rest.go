package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// candidateTextPath is the only place model output is read from.
const candidateTextPath = "candidates.0.content.parts.0.text"

// RESTClient calls the generateContent endpoint over plain HTTP.
type RESTClient struct {
	config *Config
	http   *http.Client
	log    *slog.Logger
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// NewRESTClient creates a client with the configured timeout.
func NewRESTClient(config *Config, log *slog.Logger) *RESTClient {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}
	return &RESTClient{
		config: config,
		http:   &http.Client{Timeout: config.timeout()},
		log:    log,
	}
}

// Generate sends prompt to {base}/{model}:generateContent.
func (c *RESTClient) Generate(ctx context.Context, prompt, model string) (Result, error) {
	if c.config.APIKey == "" {
		c.log.Error("GEMINI_API_KEY not set in environment")
		return Result{}, ErrMissingAPIKey
	}
	return recordOutcome(c.generate(ctx, prompt, c.config.ModelOrDefault(model))), nil
}

func (c *RESTClient) generate(ctx context.Context, prompt, model string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("unexpected error calling LLM", "panic", r, "model", model)
			res = UnexpectedFailure()
		}
	}()

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		c.log.Error("unexpected error calling LLM", "err", err, "model", model)
		return UnexpectedFailure()
	}

	url := fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(c.baseURL(), "/"), model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		c.log.Error("unexpected error calling LLM", "err", err, "model", model)
		return UnexpectedFailure()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("LLM request error", "err", err, "model", model)
		return TransportFailure()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("LLM request error", "err", err, "model", model)
		return TransportFailure()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error("LLM HTTP error", "status", resp.StatusCode, "body", string(body), "model", model)
		return HTTPFailure(resp.StatusCode)
	}

	text, err := extractCandidateText(body)
	if err != nil {
		c.log.Error("unexpected error calling LLM", "err", err, "body", string(body), "model", model)
		return UnexpectedFailure()
	}
	return Success(text)
}

// Close is a no-op; the underlying http.Client holds no exclusive resources.
func (c *RESTClient) Close() error {
	return nil
}

func (c *RESTClient) baseURL() string {
	if c.config.BaseURL != "" {
		return c.config.BaseURL
	}
	return DefaultBaseURL
}

// extractCandidateText reads candidates[0].content.parts[0].text. Any other
// shape is an error.
func extractCandidateText(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("response is not valid JSON")
	}
	v := gjson.GetBytes(body, candidateTextPath)
	if !v.Exists() {
		return "", fmt.Errorf("response has no %s", candidateTextPath)
	}
	if v.Type != gjson.String {
		return "", fmt.Errorf("%s is %s, not a string", candidateTextPath, v.Type)
	}
	return v.Str, nil
}
