package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/dmitrijs2005/huntlog/internal/client/api"
	"github.com/dmitrijs2005/huntlog/internal/common"
	"github.com/dmitrijs2005/huntlog/internal/devapi/users"
)

const maxBodyBytes = 1 << 20

func toAPIUser(u *users.User) *api.User {
	return &api.User{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Roles:         append([]string(nil), u.Roles...),
		EmailVerified: u.EmailVerified,
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}
	u, pair, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.LoginResponse{
		User:         toAPIUser(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !s.decode(w, r, &req) {
		return
	}
	u, err := s.svc.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.RegisterResponse{
		Message: "Registration successful. Check your email to verify your account.",
		User:    toAPIUser(u),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req api.RefreshTokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	token, err := s.svc.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.RefreshTokenResponse{AccessToken: token})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req api.ForgotPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	writeMessage(w, "If the email is registered, a reset link has been sent.")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req api.ResetPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	writeMessage(w, "Password has been reset. You can log in now.")
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyEmailRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.svc.VerifyEmail(r.Context(), req.Token); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	writeMessage(w, "Email verified.")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Logout(r.Context(), userIDFrom(r.Context())); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Get(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPIUser(u))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req api.ChangePasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.svc.ChangePassword(r.Context(), userIDFrom(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	writeMessage(w, "Password changed.")
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ResendVerification(r.Context(), userIDFrom(r.Context())); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	writeMessage(w, "Verification email sent.")
}

func (s *Server) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		details := make(map[string][]string, len(verrs))
		for field, ferr := range verrs {
			if ferr != nil {
				details[field] = []string{ferr.Error()}
			}
		}
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", details)
	case errors.Is(err, users.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", "Email is already registered", nil)
	case errors.Is(err, users.ErrAlreadyVerified):
		writeError(w, http.StatusConflict, "already_verified", "Email is already verified", nil)
	case errors.Is(err, users.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password", nil)
	case errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusUnauthorized, "refresh_token_expired", "Refresh token expired", nil)
	case errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token", "Invalid refresh token", nil)
	case errors.Is(err, users.ErrInvalidOneTimeToken):
		writeError(w, http.StatusBadRequest, "invalid_token", "Invalid or expired token", nil)
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not_found", "User not found", nil)
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
	}
}

// decode reads a JSON body into out. On failure it writes a 400 and
// returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := decodeJSON(w, r, out); err != nil {
		s.logger.Debug(r.Context(), "bad request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body", nil)
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	if r.Body == nil {
		return fmt.Errorf("empty body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: msg})
}

// writeError writes the {message, code, details} error body.
func writeError(w http.ResponseWriter, code int, errCode, msg string, details map[string][]string) {
	body := map[string]any{
		"code":    errCode,
		"message": msg,
	}
	if len(details) > 0 {
		body["details"] = details
	}
	writeJSON(w, code, body)
}
