// Package refreshtokens declares the repository contract for an account's
// live refresh-token set in persistent storage.
package refreshtokens

import "context"

// Repository manages the per-account set of live refresh tokens. Set
// membership — not signature validity — is the authority on whether a token
// may still rotate.
type Repository interface {
	// Create adds a token to the account's live set.
	Create(ctx context.Context, accountID string, token string) error

	// Delete conditionally removes a token from the account's set and reports
	// whether it was present. The check and the removal happen in one
	// statement, so two concurrent rotations of the same token observe
	// exactly one true result between them.
	Delete(ctx context.Context, accountID string, token string) (bool, error)
}
