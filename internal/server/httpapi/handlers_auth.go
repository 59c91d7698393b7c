package httpapi

import (
	"net/http"
	"strings"

	"github.com/hararihq/prosperity/internal/server/mail"
)

const minPasswordLength = 8

type credentialsRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Metadata map[string]any `json:"metadata"`
}

func validateCredentials(req *credentialsRequest) []FieldError {
	var fields []FieldError
	if !strings.Contains(req.Email, "@") {
		fields = append(fields, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if len(req.Password) < minPasswordLength {
		fields = append(fields, FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	return fields
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if fields := validateCredentials(&req); fields != nil {
		writeValidationError(w, fields)
		return
	}

	account, pair, verification, err := s.sessions.SignUp(r.Context(), req.Email, req.Password, req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mailer.Enqueue(r.Context(), mail.WelcomeMessage(account.Email))
	s.mailer.Enqueue(r.Context(), mail.VerificationMessage(s.cfg.FrontendURL, account.Email, verification))

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    toAccountPayload(account),
		"session": &sessionPayload{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt,
		},
	})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, pair, err := s.sessions.IssueSession(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Signed in successfully",
		"user":    toAccountPayload(account),
		"session": &sessionPayload{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.sessions.RevokeSession(r.Context(), account.ID, req.RefreshToken); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Signed out successfully")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	pair, err := s.sessions.RotateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": &sessionPayload{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt,
		},
	})
}

func (s *Server) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, token, err := s.sessions.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	// The reset email is sent inline: a 200 here promises the email is on
	// its way, so a delivery failure must surface.
	if account != nil {
		msg := mail.ResetMessage(s.cfg.FrontendURL, account.Email, token)
		if err := s.mailer.SendSync(r.Context(), msg); err != nil {
			s.logger.Error(r.Context(), "error sending reset email", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	// Identical response for unknown emails.
	writeMessage(w, http.StatusOK, "If the email exists, a reset link has been sent")
}

func (s *Server) handleCompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Password) < minPasswordLength {
		writeValidationError(w, []FieldError{{Field: "password", Message: "must be at least 8 characters"}})
		return
	}

	if err := s.sessions.CompletePasswordReset(r.Context(), r.PathValue("token"), req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.VerifyEmail(r.Context(), r.PathValue("token")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Email verified successfully")
}

type updateUserRequest struct {
	Metadata map[string]any `json:"metadata"`
	Password string         `json:"password"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Password != "" && len(req.Password) < minPasswordLength {
		writeValidationError(w, []FieldError{{Field: "password", Message: "must be at least 8 characters"}})
		return
	}

	updated, err := s.accounts.UpdateProfile(r.Context(), account.ID, req.Metadata, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    toAccountPayload(updated),
	})
}
