// Package httpapi exposes the REST surface of the server: authentication,
// account self-management, reports, attachments, and operational endpoints.
// Handlers translate between HTTP and the services layer; no business rules
// live here.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hararihq/prosperity/internal/common"
	"github.com/hararihq/prosperity/internal/server/models"
)

// FieldError carries field-level validation detail.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// accountPayload is the wire form of an account. The password hash and token
// bookkeeping never leave the server.
type accountPayload struct {
	ID              string         `json:"id"`
	Email           string         `json:"email"`
	IsEmailVerified bool           `json:"isEmailVerified"`
	Metadata        map[string]any `json:"metadata"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func toAccountPayload(a *models.Account) *accountPayload {
	return &accountPayload{
		ID:              a.ID,
		Email:           a.Email,
		IsEmailVerified: a.IsEmailVerified,
		Metadata:        a.Metadata,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// sessionPayload is the wire form of a token pair.
type sessionPayload struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message})
}

func writeValidationError(w http.ResponseWriter, fields []FieldError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"message": "Validation failed",
		"errors":  fields,
	})
}

// writeError maps service errors onto statuses and bodies. Unknown errors
// become an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		writeMessage(w, http.StatusBadRequest, "Validation failed")
	case errors.Is(err, common.ErrorDuplicateEmail):
		writeMessage(w, http.StatusBadRequest, "Email already in use")
	case errors.Is(err, common.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, common.ErrInvalidRefreshToken):
		writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrAccountInactive):
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, common.ErrInvalidResetToken):
		writeMessage(w, http.StatusBadRequest, "Invalid or expired reset token")
	case errors.Is(err, common.ErrInvalidVerificationToken):
		writeMessage(w, http.StatusBadRequest, "Invalid or expired verification token")
	case errors.Is(err, common.ErrorForbidden):
		writeMessage(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	default:
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads the request body into dst, rejecting unknown form errors
// with a uniform message.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.ErrValidation
	}
	return nil
}
