package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/jonathan/study-agent/internal/logging"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestGenAIClient_MissingAPIKey(t *testing.T) {
	c, err := NewGenAIClient(context.Background(), DefaultConfig(), logging.Discard())
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "p", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGenAIClient_Classify(t *testing.T) {
	c := &GenAIClient{config: DefaultConfig(), log: logging.Discard()}

	tests := []struct {
		name    string
		err     error
		outcome Outcome
		text    string
	}{
		{
			name:    "api error",
			err:     fmt.Errorf("generate: %w", &googleapi.Error{Code: http.StatusTooManyRequests}),
			outcome: OutcomeHTTPError,
			text:    "Error: LLM API returned 429",
		},
		{
			name:    "network",
			err:     fmt.Errorf("dial: %w", timeoutErr{}),
			outcome: OutcomeTransportError,
			text:    TransportMessage,
		},
		{
			name:    "deadline",
			err:     context.DeadlineExceeded,
			outcome: OutcomeTransportError,
			text:    TransportMessage,
		},
		{
			name:    "other",
			err:     errors.New("blocked: SAFETY"),
			outcome: OutcomeUnexpected,
			text:    UnexpectedMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.classify(tt.err, DefaultModel)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.text, res.Text)
		})
	}
}

func TestFirstCandidateText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("summary")}}},
		},
	}
	text, err := firstCandidateText(resp)
	require.NoError(t, err)
	assert.Equal(t, "summary", text)

	_, err = firstCandidateText(nil)
	assert.Error(t, err)

	_, err = firstCandidateText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Error(t, err)

	_, err = firstCandidateText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}}},
		},
	})
	assert.Error(t, err)
}
