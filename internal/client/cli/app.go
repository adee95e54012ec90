package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dmitrijs2005/gophnotes/internal/client/config"
	"github.com/dmitrijs2005/gophnotes/internal/client/engine"
	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/notify"
	"github.com/dmitrijs2005/gophnotes/internal/client/presence"
	"github.com/dmitrijs2005/gophnotes/internal/client/remote"
	"github.com/dmitrijs2005/gophnotes/internal/client/storage"
	"github.com/dmitrijs2005/gophnotes/internal/filex"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// noteEngine is the part of *engine.Engine the commands use.
type noteEngine interface {
	Owner() string
	Online() bool
	Syncing() bool
	SetOnline(online bool)
	PendingCount(ctx context.Context) (int, error)
	GetNote(ctx context.Context, id string) (models.Note, error)
	ListNotes(ctx context.Context, opts models.ListOptions) ([]models.Note, error)
	AddNote(ctx context.Context, title, body string) (models.Note, *engine.Drain, error)
	UpdateNote(ctx context.Context, id string, patch models.NotePatch) (models.Note, *engine.Drain, error)
	DeleteNote(ctx context.Context, id string) (*engine.Drain, error)
	ClearQueue(ctx context.Context) (int, error)
	TriggerSync(ctx context.Context) (engine.Report, error)
	Subscribe(buffer int) *engine.Subscription
	Close() error
}

type App struct {
	config      *config.Config
	engine      noteEngine
	remote      remote.Client
	store       *storage.Store
	reader      *bufio.Reader
	out         io.Writer
	listOptions models.ListOptions
	log         logging.Logger
	logCloser   io.Closer

	wg         sync.WaitGroup
	reconciled sync.Once
}

// NewApp opens the local replica, connects the remote store client and builds
// the sync engine. The returned App starts offline.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logPath, err := filex.EnsureParentDir(c.LogFile)
	if err != nil {
		return nil, fmt.Errorf("error preparing log file: %w", err)
	}
	dbPath, err := filex.EnsureParentDir(c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error preparing database file: %w", err)
	}

	log, logCloser := logging.NewFileLogger(logPath, slog.LevelInfo)

	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	owner, err := store.ResolveOwner(ctx, c.Owner)
	if err != nil {
		_ = store.Close()
		_ = logCloser.Close()
		return nil, fmt.Errorf("error resolving owner: %w", err)
	}

	rc, err := remote.New(c.Transport, c.ServerEndpointAddr)
	if err != nil {
		_ = store.Close()
		_ = logCloser.Close()
		return nil, err
	}

	eng, err := engine.New(store, rc,
		engine.WithOwner(owner),
		engine.WithLogger(log),
		engine.WithCallTimeout(c.RemoteCallTimeout),
		engine.WithMaxRetries(c.MaxRetries),
	)
	if err != nil {
		_ = rc.Close()
		_ = store.Close()
		_ = logCloser.Close()
		return nil, err
	}

	log.Info(ctx, "client started", "owner", owner, "transport", c.Transport, "server", c.ServerEndpointAddr)

	return &App{
		config:    c,
		engine:    eng,
		remote:    rc,
		store:     store,
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		log:       log,
		logCloser: logCloser,
	}, nil
}

// Run starts the reachability watcher and the optional dashboard, then reads
// commands until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer a.shutdown()
	defer cancel()

	watcher := &presence.Watcher{
		Pinger:   a.remote,
		Interval: a.config.OnlineCheckInterval,
		Timeout:  a.config.RemoteCallTimeout,
		OnChange: func(online bool) { a.onReachabilityChange(ctx, online) },
		Logger:   a.log,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		watcher.Run(ctx)
	}()

	if a.config.DashboardAddr != "" {
		a.startDashboard(ctx)
	}

	runREPL(ctx, a, a.statusLine, a.reader, isTerminal(int(os.Stdin.Fd())))
}

// onReachabilityChange flips the engine mode. The first time the remote
// becomes reachable a full sync runs, so the replica picks up notes written
// by other devices even when nothing is queued locally.
func (a *App) onReachabilityChange(ctx context.Context, online bool) {
	a.engine.SetOnline(online)
	if !online {
		return
	}
	a.reconciled.Do(func() {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if _, err := a.engine.TriggerSync(ctx); err != nil {
				a.log.Warn(ctx, "initial sync failed", "error", err)
			}
		}()
	})
}

func (a *App) startDashboard(ctx context.Context) {
	hub := notify.NewHub(a.log)
	sub := a.engine.Subscribe(64)

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		hub.Forward(ctx, sub.Events())
	}()
	go func() {
		defer a.wg.Done()
		if err := hub.ListenAndServe(ctx, a.config.DashboardAddr); err != nil {
			a.log.Error(ctx, "dashboard stopped", "error", err)
		}
	}()
}

func (a *App) statusLine() string {
	mode := ModeOffline
	if a.engine.Online() {
		mode = ModeOnline
	}
	n, err := a.engine.PendingCount(context.Background())
	if err != nil {
		return fmt.Sprintf("(%s)", mode)
	}
	return fmt.Sprintf("(%s, %d pending)", mode, n)
}

func (a *App) shutdown() {
	ctx := context.Background()
	if err := a.engine.Close(); err != nil {
		a.log.Error(ctx, "error closing engine", "error", err)
	}
	a.wg.Wait()
	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			a.log.Error(ctx, "error closing remote client", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Error(ctx, "error closing database", "error", err)
		}
	}
	a.log.Info(ctx, "client stopped")
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}
