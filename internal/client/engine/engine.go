package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/client/remote"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/timex"
	"github.com/google/uuid"
)

// LocalStore is the local replica. GetNote must return an error matching
// common.ErrorNotFound for unknown ids.
type LocalStore interface {
	ListNotes(ctx context.Context) ([]models.Note, error)
	AllNotes(ctx context.Context) ([]models.Note, error)
	GetNote(ctx context.Context, id string) (*models.Note, error)
	PutNote(ctx context.Context, n *models.Note) error
	DeleteNote(ctx context.Context, id string) error

	// SaveWithOperation writes n and appends op atomically.
	SaveWithOperation(ctx context.Context, n *models.Note, op *models.PendingOperation) error
	ListQueue(ctx context.Context) ([]models.PendingOperation, error)
	RemoveQueue(ctx context.Context, opID string) error
	IncrementRetry(ctx context.Context, opID string) (int, error)
	QueueLen(ctx context.Context) (int, error)
	QueuedNoteIDs(ctx context.Context) (map[string]struct{}, error)
	// ClearQueue drops every operation, marks the affected notes synced and
	// purges affected tombstones. It returns the affected note ids.
	ClearQueue(ctx context.Context) (map[string]struct{}, error)

	MarkReconciled(ctx context.Context, at time.Time) error
}

const (
	DefaultCallTimeout = 10 * time.Second
	DefaultMaxRetries  = 5
)

type Engine struct {
	local  LocalStore
	remote remote.Store
	owner  string
	log    logging.Logger

	now         func() time.Time
	newID       func() string
	callTimeout time.Duration
	maxRetries  int

	locks    *keyedMutex
	subs     *subscribers
	online   atomic.Bool
	draining atomic.Bool
	closed   atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	// mu orders wg.Add in startDrain against the closed swap in Close.
	mu sync.Mutex
	wg sync.WaitGroup
}

type Option func(*Engine)

// WithOwner sets the owner id every note and remote call is scoped by.
func WithOwner(owner string) Option {
	return func(e *Engine) { e.owner = owner }
}

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// WithCallTimeout bounds every remote call.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) { e.callTimeout = d }
}

// WithMaxRetries sets the failed replay count at which a note is marked
// failed instead of pending.
func WithMaxRetries(n int) Option {
	return func(e *Engine) { e.maxRetries = n }
}

// WithOnline sets the initial connectivity state. The default is offline.
func WithOnline(online bool) Option {
	return func(e *Engine) { e.online.Store(online) }
}

var errNoOwner = errors.New("owner is required")

func New(local LocalStore, rs remote.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		local:       local,
		remote:      rs,
		log:         logging.NewNopLogger(),
		now:         time.Now,
		newID:       uuid.NewString,
		callTimeout: DefaultCallTimeout,
		maxRetries:  DefaultMaxRetries,
		locks:       newKeyedMutex(),
		subs:        newSubscribers(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.owner == "" {
		return nil, errNoOwner
	}
	if e.callTimeout <= 0 {
		e.callTimeout = DefaultCallTimeout
	}
	if e.maxRetries <= 0 {
		e.maxRetries = DefaultMaxRetries
	}
	e.log = e.log.With("module", "engine", "owner", e.owner)
	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e, nil
}

func (e *Engine) Owner() string { return e.owner }

func (e *Engine) Online() bool { return e.online.Load() }

// Syncing reports whether a drain is running.
func (e *Engine) Syncing() bool { return e.draining.Load() }

// SetOnline records a connectivity change. Going online with a non-empty
// queue starts a background drain.
func (e *Engine) SetOnline(online bool) {
	if e.online.Swap(online) == online {
		return
	}
	e.log.Info(e.ctx, "connectivity changed", "online", online)
	e.publish(OnlineChanged{At: e.stamp(), Online: online})

	if !online {
		return
	}
	n, err := e.PendingCount(e.ctx)
	if err != nil {
		e.log.Error(e.ctx, "failed to count pending operations", "error", err)
		return
	}
	if n > 0 {
		e.startDrain()
	}
}

// PendingCount returns the number of queued operations.
func (e *Engine) PendingCount(ctx context.Context) (int, error) {
	return e.local.QueueLen(ctx)
}

// Subscribe registers an observer. buffer <= 0 selects a default size.
func (e *Engine) Subscribe(buffer int) *Subscription {
	return e.subs.add(buffer)
}

// Close cancels background drains, waits for them and closes every
// subscription. Mutations keep working; drains are no longer started.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed.Swap(true) {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	e.subs.closeAll()
	return nil
}

func (e *Engine) publish(ev Event) {
	e.subs.publish(ev)
}

func (e *Engine) stamp() time.Time {
	return timex.Stamp(e.now())
}
