package httpapi

import "net/http"

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": toAccountPayload(account)})
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	// same contract as /api/auth/update-user
	s.handleUpdateUser(w, r)
}

func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())
	if err := s.accounts.Delete(r.Context(), account.ID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Account deleted successfully")
}

// handleGetUser serves /api/users/{id}. There is no admin role; an account
// can only read itself, anything else is 403 regardless of whether the id
// exists.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())
	if r.PathValue("id") != account.ID {
		writeMessage(w, http.StatusForbidden, "Forbidden")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toAccountPayload(account)})
}
