// Package server initializes and runs the application server: database and
// migrations, object storage, mail dispatch, and the HTTP API, with graceful
// shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hararihq/prosperity/internal/logging"
	"github.com/hararihq/prosperity/internal/server/blob"
	"github.com/hararihq/prosperity/internal/server/config"
	"github.com/hararihq/prosperity/internal/server/httpapi"
	"github.com/hararihq/prosperity/internal/server/mail"
	"github.com/hararihq/prosperity/internal/server/repositories/repomanager"
	"github.com/hararihq/prosperity/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	mailer     *mail.Dispatcher
	httpServer *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	blobs, err := blob.NewS3Store(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	var sender mail.Sender
	if cfg.EmailDisabled {
		sender = mail.NewLogSender(logger)
	} else {
		sender, err = mail.NewSMTPSender(cfg)
		if err != nil {
			return nil, fmt.Errorf("smtp init error: %w", err)
		}
	}
	mailer := mail.NewDispatcher(sender, cfg.MailQueueSize, logger)

	sessionService := services.NewSessionService(db, repos, cfg)
	accountService := services.NewAccountService(db, repos, blobs, logger)
	reportService := services.NewReportService(db, repos, blobs, logger)

	httpServer := httpapi.NewServer(cfg, db, sessionService, accountService, reportService, mailer, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		mailer:     mailer,
		httpServer: httpServer,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.mailer.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, err.Error())
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), err.Error())
	}
}
