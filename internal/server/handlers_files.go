package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jonathan/study-agent/internal/extract"
	"github.com/jonathan/study-agent/internal/study"
)

const uploadField = "file"

// handleSummarizeFile extracts an uploaded document and summarizes it.
// Every failure is reported as "Failed to summarize <FORMAT>".
func (s *Server) handleSummarizeFile(format extract.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, ok := s.readUpload(w, r, format, "summarize")
		if !ok {
			return
		}

		result, err := s.study.Summarize(r.Context(), text, r.URL.Query().Get("mode"))
		if err != nil {
			s.log.Error("file summarization failed", "format", format, "err", err)
			s.errorResponse(w, http.StatusInternalServerError, fileFailureMessage("summarize", format))
			return
		}
		s.jsonResponse(w, http.StatusOK, result)
	}
}

// handleProcessFile extracts an uploaded document and produces every artifact.
func (s *Server) handleProcessFile(format extract.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, ok := s.readUpload(w, r, format, "process")
		if !ok {
			return
		}

		artifacts, err := s.study.Process(r.Context(), text, r.URL.Query().Get("mode"))
		if err != nil {
			msg := fileFailureMessage("process", format)
			if errors.Is(err, study.ErrConfig) {
				msg = msgSummarizationError
			}
			s.log.Error("file processing failed", "format", format, "err", err)
			s.errorResponse(w, http.StatusInternalServerError, msg)
			return
		}
		s.jsonResponse(w, http.StatusOK, artifacts)
	}
}

// readUpload reads the multipart file and extracts its text, writing the error
// response itself when it returns false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, format extract.Format, action string) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d byte upload limit", s.maxUpload))
			return "", false
		}
		s.errorResponse(w, http.StatusBadRequest, "Expected a multipart upload with a file field")
		return "", false
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Missing file upload")
		return "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.log.Error("failed to read upload", "err", err, "filename", header.Filename)
		s.errorResponse(w, http.StatusInternalServerError, fileFailureMessage(action, format))
		return "", false
	}

	text, err := extract.Extract(data, format)
	if err != nil {
		s.log.Error("document extraction failed",
			"format", format,
			"filename", header.Filename,
			"detected_mime", extract.DetectMIME(data),
			"err", err,
		)
		s.errorResponse(w, HTTPStatus(err), fileFailureMessage(action, format))
		return "", false
	}

	s.log.Debug("document extracted",
		"format", format,
		"filename", header.Filename,
		"bytes", len(data),
		"chars", len(text),
	)
	return text, true
}
