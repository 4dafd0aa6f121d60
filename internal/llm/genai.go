package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GenAIClient implements Client on top of the generative-ai-go SDK.
type GenAIClient struct {
	client *genai.Client
	config *Config
	log    *slog.Logger
}

// NewGenAIClient creates the SDK client. Without an API key no SDK client is
// created and Generate reports ErrMissingAPIKey.
func NewGenAIClient(ctx context.Context, config *Config, log *slog.Logger) (*GenAIClient, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}
	c := &GenAIClient{config: config, log: log}
	if config.APIKey == "" {
		return c, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	return c, nil
}

// Generate sends prompt through the SDK.
func (c *GenAIClient) Generate(ctx context.Context, prompt, model string) (Result, error) {
	if c.client == nil {
		c.log.Error("GEMINI_API_KEY not set in environment")
		return Result{}, ErrMissingAPIKey
	}

	modelName := c.config.ModelOrDefault(model)
	ctx, cancel := context.WithTimeout(ctx, c.config.timeout())
	defer cancel()

	resp, err := c.client.GenerativeModel(modelName).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return recordOutcome(c.classify(err, modelName)), nil
	}

	text, err := firstCandidateText(resp)
	if err != nil {
		c.log.Error("unexpected error calling LLM", "err", err, "model", modelName)
		return recordOutcome(UnexpectedFailure()), nil
	}
	return recordOutcome(Success(text)), nil
}

// Close releases the SDK client.
func (c *GenAIClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *GenAIClient) classify(err error, model string) Result {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		c.log.Error("LLM HTTP error", "status", apiErr.Code, "body", apiErr.Body, "model", model)
		return HTTPFailure(apiErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		c.log.Error("LLM request error", "err", err, "model", model)
		return TransportFailure()
	}

	c.log.Error("unexpected error calling LLM", "err", err, "model", model)
	return UnexpectedFailure()
}

// firstCandidateText is the SDK counterpart of extractCandidateText: the first
// part of the first candidate must be text.
func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	text, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("first part is %T, not text", candidate.Content.Parts[0])
	}
	return string(text), nil
}
