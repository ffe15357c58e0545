// Package coordinator decides whether the catalog backend is usable and
// routes every data load through it or through the built-in demo dataset,
// handing the presentation layer data of the same shape either way.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aluiziolira/library-desk/models"
	"github.com/aluiziolira/library-desk/notify"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// Service is the catalog backend. *remote.Client implements it.
type Service interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (models.Stats, error)
	Books(ctx context.Context) ([]models.Book, error)
	Users(ctx context.Context) ([]models.User, error)
	CreateBook(ctx context.Context, draft models.BookDraft) error
	CreateUser(ctx context.Context, draft models.UserDraft) error
	Borrow(ctx context.Context, userName, isbn string) error
	Return(ctx context.Context, isbn string) error
	Search(ctx context.Context, query string, field models.SearchField) ([]models.Book, error)
	BookDetails(ctx context.Context, isbn string) (models.BookDetails, error)
	ShelfPath(ctx context.Context, from, to string) (models.ShelfPath, error)
	Recommend(ctx context.Context, user string) ([]models.Book, error)
}

// activityLimit caps the dashboard activity feed.
const activityLimit = 5

// Coordinator owns the connectivity state. The state is resolved once by
// Probe; a failed live call falls back to demo data for that call only and
// leaves the state untouched.
type Coordinator struct {
	svc     Service
	sink    notify.Sink
	demo    Dataset
	view    *View
	metrics *Metrics
	logger  *slog.Logger

	cacheSize int
	details   *lru.Cache[string, models.BookDetails]

	probeMu sync.Mutex
	state   atomic.Int32
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSink routes notifications to sink.
func WithSink(sink notify.Sink) Option {
	return func(c *Coordinator) {
		c.sink = sink
	}
}

// WithMetrics records coordinator metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithDataset replaces the demo dataset.
func WithDataset(d Dataset) Option {
	return func(c *Coordinator) {
		c.demo = d
	}
}

// WithDetailsCacheSize bounds the live book-details cache.
func WithDetailsCacheSize(size int) Option {
	return func(c *Coordinator) {
		c.cacheSize = size
	}
}

// New builds a coordinator in the Unknown state.
func New(svc Service, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		svc:       svc,
		sink:      notify.Discard,
		demo:      DemoDataset(),
		logger:    slog.Default(),
		cacheSize: 128,
	}
	for _, opt := range opts {
		opt(c)
	}

	details, err := lru.New[string, models.BookDetails](c.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("details cache: %w", err)
	}
	c.details = details
	c.view = newView(c.metrics)
	c.metrics.setMode(Unknown)
	return c, nil
}

// State returns the current connectivity decision.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// View exposes the materialized data for presentation.
func (c *Coordinator) View() *View {
	return c.view
}

func (c *Coordinator) live() bool {
	return c.State() == Live
}

func (c *Coordinator) notify(level notify.Level, message string) {
	c.sink.Deliver(notify.New(level, message))
}

// Probe resolves the connectivity state with one bounded read. It notifies
// once on the transition; later calls return the resolved state without
// touching the network.
func (c *Coordinator) Probe(ctx context.Context) State {
	c.probeMu.Lock()
	defer c.probeMu.Unlock()

	if s := c.State(); s != Unknown {
		return s
	}

	if err := c.svc.Ping(ctx); err != nil {
		c.state.Store(int32(Demo))
		c.logger.Warn("backend unreachable, serving demo data", slog.Any("error", err))
		c.notify(notify.LevelWarning, "Using demo mode: library backend is not reachable")
	} else {
		c.state.Store(int32(Live))
		c.logger.Info("connected to backend")
		c.notify(notify.LevelSuccess, "Connected to library backend")
	}
	c.metrics.setMode(c.State())
	return c.State()
}

// LoadCollection returns the collection for kind. Live reads that fail are
// replaced by the demo collection and reported unless silent. Outside the
// Live state no request is made.
func (c *Coordinator) LoadCollection(ctx context.Context, kind Kind, silent bool) Collection {
	ticket := c.view.ticket(kind)
	coll, err := c.fetch(ctx, kind)
	if abandoned(ctx, err) {
		return coll
	}
	if err != nil && !silent {
		c.notify(notify.LevelError, fmt.Sprintf("Error loading %s data", kind))
	}
	c.view.commit(ticket, Update{Kind: kind, Collection: coll})
	return coll
}

func (c *Coordinator) fetch(ctx context.Context, kind Kind) (Collection, error) {
	if !c.live() {
		return c.demo.Collection(kind), nil
	}

	coll := Collection{Kind: kind}
	var err error
	switch kind {
	case KindBooks:
		coll.Books, err = c.svc.Books(ctx)
	case KindUsers:
		coll.Users, err = c.svc.Users(ctx)
	case KindStats:
		coll.Stats, err = c.svc.Stats(ctx)
	default:
		return Collection{}, fmt.Errorf("unknown collection %q", kind)
	}
	if abandoned(ctx, err) {
		return Collection{Kind: kind}, err
	}
	if err != nil {
		c.logger.Warn("live load failed, using demo data",
			slog.String("kind", string(kind)),
			slog.Any("error", err),
		)
		c.metrics.incFallback(kind)
		return c.demo.Collection(kind), err
	}
	return coll, nil
}

// Refresh reloads kinds concurrently and returns once all have committed.
func (c *Coordinator) Refresh(ctx context.Context, silent bool, kinds ...Kind) {
	var g errgroup.Group
	for _, kind := range kinds {
		g.Go(func() error {
			c.LoadCollection(ctx, kind, silent)
			return nil
		})
	}
	_ = g.Wait()
}

// Dashboard loads books, users and stats together and derives the aggregate
// views. If any of the three live reads fails, all three come from the demo
// dataset so the aggregates stay consistent, and one notification covers the
// whole load.
func (c *Coordinator) Dashboard(ctx context.Context, silent bool) models.Dashboard {
	var (
		bookTicket  = c.view.ticket(KindBooks)
		userTicket  = c.view.ticket(KindUsers)
		statsTicket = c.view.ticket(KindStats)
		dashTicket  = c.view.ticket(KindDashboard)
	)

	books, users, stats, err := c.fetchAll(ctx)
	if abandoned(ctx, err) {
		c.logger.Debug("dashboard load abandoned", slog.Any("error", err))
		return c.view.Dashboard()
	}
	if err != nil {
		c.logger.Warn("dashboard load failed, using demo data", slog.Any("error", err))
		c.metrics.incFallback(KindDashboard)
		books, users, stats = c.demo.Books, c.demo.Users, c.demo.Stats()
		if !silent {
			c.notify(notify.LevelError, "Error loading dashboard data")
		}
	}

	dash := models.Dashboard{
		Stats:      stats,
		Categories: models.CountCategories(books),
		Activity:   models.RecentActivity(books, users, activityLimit),
	}
	c.view.commit(bookTicket, Update{Kind: KindBooks, Collection: Collection{Kind: KindBooks, Books: books}})
	c.view.commit(userTicket, Update{Kind: KindUsers, Collection: Collection{Kind: KindUsers, Users: users}})
	c.view.commit(statsTicket, Update{Kind: KindStats, Collection: Collection{Kind: KindStats, Stats: stats}})
	c.view.commit(dashTicket, Update{Kind: KindDashboard, Dashboard: dash})
	return dash
}

func (c *Coordinator) fetchAll(ctx context.Context) ([]models.Book, []models.User, models.Stats, error) {
	if !c.live() {
		return c.demo.Books, c.demo.Users, c.demo.Stats(), nil
	}

	var (
		books []models.Book
		users []models.User
		stats models.Stats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		books, err = c.svc.Books(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = c.svc.Users(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = c.svc.Stats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, models.Stats{}, err
	}
	return books, users, stats, nil
}

// abandoned reports whether err follows the caller giving up on ctx, in
// which case nothing is committed and no fallback is counted.
func abandoned(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}
