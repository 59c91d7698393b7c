// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is the identity record. Email is unique and stored lower-cased.
// PasswordHash is a bcrypt hash and must never be serialized into a response;
// repositories only load it for the code paths that verify or replace it.
type Account struct {
	ID              string
	Email           string
	PasswordHash    []byte
	IsActive        bool
	IsEmailVerified bool

	// One-way token bookkeeping. Only sha256 hashes are stored; the plaintext
	// token travels out-of-band (email) exactly once. Empty hash means no
	// outstanding token.
	VerificationTokenHash    string
	VerificationTokenExpires time.Time
	ResetTokenHash           string
	ResetTokenExpires        time.Time

	// Metadata is a free-form profile blob owned by the client (name, locale…).
	Metadata map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}
