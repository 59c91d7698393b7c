package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/hararihq/prosperity/internal/server/models"
)

type contextKey string

const accountContextKey contextKey = "account"

// Interceptor inspects a request before the handler runs. It returns the
// (possibly enriched) request and whether processing should continue; when it
// returns false the interceptor has already written the response. The
// two-value result makes short-circuiting explicit instead of relying on
// whether a wrapped handler happened to be called.
type Interceptor func(w http.ResponseWriter, r *http.Request) (*http.Request, bool)

// Chain applies interceptors in order, stopping at the first short-circuit.
func Chain(h http.HandlerFunc, interceptors ...Interceptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, ic := range interceptors {
			next, ok := ic(w, r)
			if !ok {
				return
			}
			r = next
		}
		h(w, r)
	}
}

// AccountFromContext returns the authenticated account, or nil if the
// request went through an optional gate without credentials.
func AccountFromContext(ctx context.Context) *models.Account {
	account, _ := ctx.Value(accountContextKey).(*models.Account)
	return account
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// requireAccount authenticates the request: bearer token, signature check,
// then a fresh account fetch so a deactivated or deleted account is locked
// out immediately, before its access token expires.
func (s *Server) requireAccount(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	token := bearerToken(r)
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return r, false
	}

	claims, err := s.sessions.ValidateAccessToken(token)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return r, false
	}

	account, err := s.accounts.Get(r.Context(), claims.AccountID)
	if err != nil || !account.IsActive {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return r, false
	}

	ctx := context.WithValue(r.Context(), accountContextKey, account)
	return r.WithContext(ctx), true
}

// optionalAccount attaches the account when valid credentials are present
// but never rejects the request.
func (s *Server) optionalAccount(_ http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	token := bearerToken(r)
	if token == "" {
		return r, true
	}
	claims, err := s.sessions.ValidateAccessToken(token)
	if err != nil {
		return r, true
	}
	account, err := s.accounts.Get(r.Context(), claims.AccountID)
	if err != nil || !account.IsActive {
		return r, true
	}
	return r.WithContext(context.WithValue(r.Context(), accountContextKey, account)), true
}
