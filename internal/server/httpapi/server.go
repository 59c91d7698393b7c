package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/hararihq/prosperity/internal/logging"
	"github.com/hararihq/prosperity/internal/server/config"
	"github.com/hararihq/prosperity/internal/server/mail"
	"github.com/hararihq/prosperity/internal/server/services"
)

// Server wires the services into an http.Server.
type Server struct {
	cfg      *config.Config
	db       *sql.DB
	sessions *services.SessionService
	accounts *services.AccountService
	reports  *services.ReportService
	mailer   *mail.Dispatcher
	logger   logging.Logger
	metrics  *metrics

	httpServer *http.Server
}

// NewServer builds the router and the underlying http.Server.
func NewServer(
	cfg *config.Config,
	db *sql.DB,
	sessions *services.SessionService,
	accounts *services.AccountService,
	reports *services.ReportService,
	mailer *mail.Dispatcher,
	logger logging.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		db:       db,
		sessions: sessions,
		accounts: accounts,
		reports:  reports,
		mailer:   mailer,
		logger:   logger,
		metrics:  newMetrics(),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Routes registers every endpoint on a fresh mux. Split out from NewServer so
// tests can mount the router on httptest.Server.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	public := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.metrics.instrument(pattern, h))
	}
	protected := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.metrics.instrument(pattern, Chain(h, s.requireAccount)))
	}

	public("POST /api/auth/signup", s.handleSignUp)
	public("POST /api/auth/signin", s.handleSignIn)
	public("POST /api/auth/refresh", s.handleRefresh)
	public("POST /api/auth/reset-password", s.handleRequestPasswordReset)
	public("PUT /api/auth/reset-password/{token}", s.handleCompletePasswordReset)
	public("POST /api/auth/verify-email/{token}", s.handleVerifyEmail)
	protected("POST /api/auth/signout", s.handleSignOut)
	protected("PUT /api/auth/update-user", s.handleUpdateUser)

	protected("GET /api/users/me", s.handleGetMe)
	protected("PUT /api/users/me", s.handleUpdateMe)
	protected("DELETE /api/users/me", s.handleDeleteMe)
	protected("GET /api/users/{id}", s.handleGetUser)

	protected("GET /api/reports", s.handleListReports)
	protected("POST /api/reports", s.handleCreateReport)
	protected("GET /api/reports/{id}", s.handleGetReport)
	protected("PUT /api/reports/{id}", s.handleUpdateReport)
	protected("DELETE /api/reports/{id}", s.handleDeleteReport)
	protected("POST /api/reports/{id}/attachments", s.handleUploadAttachments)
	protected("GET /api/reports/{id}/attachments/{filename}", s.handleGetAttachment)
	protected("DELETE /api/reports/{id}/attachments/{filename}", s.handleDeleteAttachment)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", s.metrics.handler())

	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

// handleReadyz reports readiness only when the database answers a ping.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		writeMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeMessage(w, http.StatusOK, "ok")
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info(context.Background(), "http server listening", "addr", s.cfg.HTTPAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
