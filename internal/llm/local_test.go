package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/study-agent/internal/logging"
)

func TestLengthForMode(t *testing.T) {
	assert.Equal(t, LengthBounds{Max: 120, Min: 30}, LengthForMode("short"))
	assert.Equal(t, LengthBounds{Max: 250, Min: 80}, LengthForMode("detailed"))
	assert.Equal(t, LengthBounds{Max: 250, Min: 80}, LengthForMode("bullet"))
	assert.Equal(t, LengthBounds{Max: 250, Min: 80}, LengthForMode("whatever"))
}

func newLocalServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/summarize", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLocalSummarizer_Summarize(t *testing.T) {
	var got localRequest
	srv := newLocalServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[{"summary_text":" a cat sat on a mat . "}]`))
	})

	s := NewLocalSummarizer(context.Background(), LocalConfig{URL: srv.URL}, logging.Discard())
	require.True(t, s.Available())

	out := s.Summarize(context.Background(), "The cat sat on the mat.", "short")
	assert.Equal(t, "a cat sat on a mat .", out)
	assert.Equal(t, DefaultLocalModel, got.Model)
	assert.Equal(t, "The cat sat on the mat.", got.Inputs)
	assert.Equal(t, 120, got.Parameters.MaxLength)
	assert.Equal(t, 30, got.Parameters.MinLength)
	assert.False(t, got.Parameters.DoSample)
}

func TestLocalSummarizer_DetailedBounds(t *testing.T) {
	var got localRequest
	srv := newLocalServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`[{"summary_text":"long"}]`))
	})

	s := NewLocalSummarizer(context.Background(), LocalConfig{URL: srv.URL, Model: "t5-base"}, logging.Discard())
	s.Summarize(context.Background(), "text", "detailed")
	assert.Equal(t, "t5-base", got.Model)
	assert.Equal(t, 250, got.Parameters.MaxLength)
	assert.Equal(t, 80, got.Parameters.MinLength)
}

func TestLocalSummarizer_Unavailable(t *testing.T) {
	s := NewLocalSummarizer(context.Background(), LocalConfig{}, logging.Discard())
	assert.False(t, s.Available())
	assert.Equal(t, LocalUnavailableMessage, s.Summarize(context.Background(), "text", "short"))
}

func TestLocalSummarizer_ProbeFailureSkipsRequests(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/summarize" {
			atomic.AddInt32(&hits, 1)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewLocalSummarizer(context.Background(), LocalConfig{URL: srv.URL}, logging.Discard())
	assert.False(t, s.Available())
	assert.Equal(t, LocalUnavailableMessage, s.Summarize(context.Background(), "text", "short"))
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestLocalSummarizer_FailuresReturnWarning(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}},
		{"empty list", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newLocalServer(t, tt.handler)
			s := NewLocalSummarizer(context.Background(), LocalConfig{URL: srv.URL, Timeout: time.Second}, logging.Discard())
			require.True(t, s.Available())
			assert.Equal(t, LocalUnavailableMessage, s.Summarize(context.Background(), "text", "short"))
		})
	}
}
