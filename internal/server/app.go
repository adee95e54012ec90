// Package server wires the GophNotes server: it opens the configured note
// storage, builds the service layer and runs the HTTP and gRPC transports
// until a stop signal arrives.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/httpapi"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophnotes/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	noteService *services.NoteService
}

var openRepositories = repomanager.Open

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	m, err := openRepositories(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	ns := services.NewNoteService(m.Notes(), logger)

	return &App{config: c, logger: logger, repomanager: m, noteService: ns}, nil
}

// Run serves both transports until ctx is cancelled, a stop signal arrives
// or one of the servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	defer func() {
		if err := app.repomanager.Close(); err != nil {
			app.logger.Error(context.Background(), "error closing storage", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.Backend)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.noteService, app.logger, app.config.ShutdownTimeout)
		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.noteService)
		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}
