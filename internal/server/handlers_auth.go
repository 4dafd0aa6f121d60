package server

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/jonathan/study-agent/internal/auth"
)

// registerRequest is the body of POST /register.
type registerRequest struct {
	Username string `json:"username" validate:"required"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password" validate:"required"`
}

// credentials are the fields of POST /token, sent as a form or JSON.
type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.fail(w, r, validationError(err))
		return
	}

	if _, err := s.users.Register(r.Context(), req.Username, req.FullName, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}

	s.log.Info("user registered", "username", req.Username)
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "User registered successfully"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := s.validator.Struct(creds); err != nil {
		s.fail(w, r, validationError(err))
		return
	}

	user, err := s.users.Authenticate(r.Context(), creds.Username, creds.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	token, err := s.tokens.GenerateToken(user.Username)
	if err != nil {
		s.log.Error("failed to generate token", "err", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	s.jsonResponse(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: auth.TokenType})
}

// readCredentials accepts a JSON body or an OAuth2 password-style form.
func readCredentials(r *http.Request) (credentials, error) {
	var creds credentials
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&creds)
		return creds, err
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return creds, err
		}
	} else if err := r.ParseForm(); err != nil {
		return creds, err
	}
	creds.Username = r.PostFormValue("username")
	creds.Password = r.PostFormValue("password")
	return creds, nil
}
