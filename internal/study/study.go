// Package study produces study artifacts (summaries, quizzes, keywords and
// flashcards) from text by rendering prompts and calling the generative backends.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/study-agent/internal/llm"
	"github.com/jonathan/study-agent/internal/metrics"
	"github.com/jonathan/study-agent/internal/prompts"
)

// Backend names reported in SummaryResult.ModelUsed.
const (
	BackendRemote = "Gemini"
	BackendLocal  = "T5"
)

// Defaults applied to empty request fields.
const (
	DefaultMode       = "short"
	DefaultDifficulty = "medium"
)

// ErrConfig marks configuration failures that abort a task without fallback.
var ErrConfig = errors.New("configuration error")

// SummaryResult is a summary together with the backend that produced it.
type SummaryResult struct {
	Summary   string `json:"summary"`
	ModelUsed string `json:"model_used"`
}

// Artifacts holds everything Process produces for one document.
type Artifacts struct {
	SummaryResult
	Quiz       string `json:"quiz"`
	Keywords   string `json:"keywords"`
	Flashcards string `json:"flashcards"`
}

// LocalSummarizer is the fallback summarization backend.
type LocalSummarizer interface {
	Summarize(ctx context.Context, text, mode string) string
	Available() bool
}

// Service runs study tasks against the remote client with local fallback for summaries.
type Service struct {
	remote llm.Client
	local  LocalSummarizer
	model  string
	log    *slog.Logger
}

// NewService wires the backends. model may be empty to use the client default.
func NewService(remote llm.Client, local LocalSummarizer, model string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{remote: remote, local: local, model: model, log: log}
}

// LocalAvailable reports whether the fallback model passed its startup probe.
func (s *Service) LocalAvailable() bool {
	return s.local != nil && s.local.Available()
}

// Summarize tries the remote backend first and falls back to the local model
// when the remote call fails. Every non-ok Result (HTTP error, transport error,
// unexpected response) triggers the fallback; its error text is never returned
// as a Gemini summary. A configuration error is returned without fallback.
func (s *Service) Summarize(ctx context.Context, text, mode string) (SummaryResult, error) {
	if mode == "" {
		mode = DefaultMode
	}
	start := time.Now()

	prompt, err := prompts.Render(prompts.SummaryKind(mode), prompts.Params{Text: text})
	if err != nil {
		return SummaryResult{}, fmt.Errorf("render summary prompt: %w", err)
	}

	res, err := s.remote.Generate(ctx, prompt, s.model)
	if err != nil {
		return SummaryResult{}, configError(err)
	}
	if res.OK() {
		observe("summary", BackendRemote, start)
		return SummaryResult{Summary: res.Text, ModelUsed: BackendRemote}, nil
	}

	s.log.Warn("remote summarization failed, falling back to local model",
		"outcome", res.Outcome,
		"status", res.StatusCode,
		"mode", mode,
	)
	metrics.Fallbacks.Inc()
	result := SummaryResult{Summary: s.summarizeLocal(ctx, text, mode), ModelUsed: BackendLocal}
	observe("summary", BackendLocal, start)
	return result, nil
}

// SummarizeLocal summarizes with the local model only.
func (s *Service) SummarizeLocal(ctx context.Context, text, mode string) SummaryResult {
	if mode == "" {
		mode = DefaultMode
	}
	start := time.Now()
	result := SummaryResult{Summary: s.summarizeLocal(ctx, text, mode), ModelUsed: BackendLocal}
	observe("summary", BackendLocal, start)
	return result
}

// Quiz generates multiple-choice questions at the given difficulty.
func (s *Service) Quiz(ctx context.Context, text, difficulty string) (string, error) {
	if difficulty == "" {
		difficulty = DefaultDifficulty
	}
	return s.generate(ctx, "quiz", prompts.KindQuiz, prompts.Params{Text: text, Difficulty: difficulty})
}

// Keywords extracts key terms.
func (s *Service) Keywords(ctx context.Context, text string) (string, error) {
	return s.generate(ctx, "keywords", prompts.KindKeywords, prompts.Params{Text: text})
}

// Flashcards generates question/answer pairs.
func (s *Service) Flashcards(ctx context.Context, text string) (string, error) {
	return s.generate(ctx, "flashcards", prompts.KindFlashcards, prompts.Params{Text: text})
}

// Process produces every artifact for text. The four tasks run concurrently;
// the first configuration error cancels the rest.
func (s *Service) Process(ctx context.Context, text, mode string) (*Artifacts, error) {
	out := &Artifacts{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := s.Summarize(gctx, text, mode)
		out.SummaryResult = res
		return err
	})
	g.Go(func() error {
		var err error
		out.Quiz, err = s.Quiz(gctx, text, DefaultDifficulty)
		return err
	})
	g.Go(func() error {
		var err error
		out.Keywords, err = s.Keywords(gctx, text)
		return err
	})
	g.Go(func() error {
		var err error
		out.Flashcards, err = s.Flashcards(gctx, text)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// generate runs a single remote task. Failed results pass their text through.
func (s *Service) generate(ctx context.Context, task string, kind prompts.TaskKind, params prompts.Params) (string, error) {
	start := time.Now()
	prompt, err := prompts.Render(kind, params)
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", task, err)
	}

	res, err := s.remote.Generate(ctx, prompt, s.model)
	if err != nil {
		return "", configError(err)
	}
	if !res.OK() {
		s.log.Warn("remote task failed", "task", task, "outcome", res.Outcome, "status", res.StatusCode)
	}
	observe(task, BackendRemote, start)
	return res.Text, nil
}

func (s *Service) summarizeLocal(ctx context.Context, text, mode string) string {
	if s.local == nil {
		return llm.LocalUnavailableMessage
	}
	return s.local.Summarize(ctx, text, mode)
}

func configError(err error) error {
	return fmt.Errorf("%w: %w", ErrConfig, err)
}

func observe(task, backend string, start time.Time) {
	metrics.TaskDuration.WithLabelValues(task, backend).Observe(time.Since(start).Seconds())
}
