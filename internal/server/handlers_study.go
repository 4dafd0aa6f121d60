package server

import (
	"context"
	"encoding/json"
	"net/http"
)

// summaryRequest is the body of the summarize routes. Text must be present
// but may be empty.
type summaryRequest struct {
	Text *string `json:"text" validate:"required"`
	Mode string  `json:"mode,omitempty"`
}

type quizRequest struct {
	Text       *string `json:"text" validate:"required"`
	Difficulty string  `json:"difficulty,omitempty"`
}

type textRequest struct {
	Text *string `json:"text" validate:"required"`
}

type offlineRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

// decode reads a JSON body into v and validates it, writing the error response on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	if err := s.validator.Struct(v); err != nil {
		s.fail(w, r, validationError(err))
		return false
	}
	return true
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Server is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"local_model": s.study.LocalAvailable(),
	})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.study.Summarize(r.Context(), *req.Text, req.Mode)
	if err != nil {
		s.log.Error("summarization failed", "err", err)
		s.errorResponse(w, http.StatusInternalServerError, msgSummarizationError)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleSummarizeOffline(w http.ResponseWriter, r *http.Request) {
	var req offlineRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.jsonResponse(w, http.StatusOK, s.study.SummarizeLocal(r.Context(), req.Text, req.Mode))
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respondText(w, r, "quiz", func(ctx context.Context) (string, error) {
		return s.study.Quiz(ctx, *req.Text, req.Difficulty)
	})
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respondText(w, r, "keywords", func(ctx context.Context) (string, error) {
		return s.study.Keywords(ctx, *req.Text)
	})
}

func (s *Server) handleFlashcards(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respondText(w, r, "flashcards", func(ctx context.Context) (string, error) {
		return s.study.Flashcards(ctx, *req.Text)
	})
}

// respondText runs a single-output task and writes {key: output}.
func (s *Server) respondText(w http.ResponseWriter, r *http.Request, key string, task func(context.Context) (string, error)) {
	out, err := task(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{key: out})
}
