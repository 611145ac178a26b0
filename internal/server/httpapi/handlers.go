package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/verigate/verigate/internal/common"
)

// authFailure is the 200-shaped body for expected business conditions; the
// message strings are part of the API contract.
type authFailure struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func failure(message string) authFailure {
	return authFailure{Message: message, Type: "error"}
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		httpError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	err := s.users.SignUp(r.Context(), in.Email, in.Name, in.Password)
	switch {
	case err == nil:
		jsonOK(w, map[string]string{
			"message": "Email has been sent.",
			"status":  "ok",
		})
	case errors.Is(err, common.ErrAlreadyExists):
		jsonOK(w, failure("User is already exists."))
	default:
		// dispatch failures and storage faults alike: generic internal error
		s.logger.Error(r.Context(), "signup failed", "error", err.Error())
		httpError(w, http.StatusInternalServerError, "internal_error")
	}
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	profile, err := s.users.Verify(r.Context(), token)
	if err != nil {
		// every failure path collapses to the same authorization error
		s.logger.Debug(r.Context(), "verification rejected", "error", err.Error())
		httpError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	jsonOK(w, profile)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		httpError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	profile, err := s.users.SignIn(r.Context(), in.Email, in.Password)
	switch {
	case err == nil:
		jsonOK(w, profile)
	case errors.Is(err, common.ErrNotFound):
		jsonOK(w, failure("User not found."))
	case errors.Is(err, common.ErrInvalidCredentials):
		jsonOK(w, failure("Credentials are not valid"))
	default:
		s.logger.Error(r.Context(), "signin failed", "error", err.Error())
		httpError(w, http.StatusInternalServerError, "internal_error")
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
