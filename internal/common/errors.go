// Package common defines shared constants and sentinel errors used across the
// server layers. Callers should match these values with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrorDuplicateEmail = errors.New("email already in use")

	// Service-level errors (generic/internal flow control).
	ErrorInternal  = errors.New("internal error")
	ErrorForbidden = errors.New("forbidden")

	// Credential and token failures. Each value deliberately collapses every
	// underlying cause (unknown account, inactive account, wrong secret,
	// forged/expired/already-consumed token) into a single externally-visible
	// kind, so a caller cannot distinguish "does not exist" from "wrong secret".
	ErrInvalidToken             = errors.New("invalid token")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrInvalidRefreshToken      = errors.New("invalid refresh token")
	ErrInvalidResetToken        = errors.New("invalid or expired reset token")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
	ErrAccountInactive          = errors.New("account is deactivated")

	// Validation of request shape; carries no confidentiality risk and is
	// accompanied by field-level detail at the HTTP layer.
	ErrValidation = errors.New("validation failed")
)
