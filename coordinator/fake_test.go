package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aluiziolira/library-desk/models"
	"github.com/aluiziolira/library-desk/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var errUnreachable = errors.New("dial tcp 127.0.0.1:8080: connect: connection refused")

type fakeService struct {
	mu       sync.Mutex
	calls    []string
	queries  []string
	failing  map[string]error
	books    []models.Book
	users    []models.User
	stats    models.Stats
	details  models.BookDetails
	booksFn  func(ctx context.Context) ([]models.Book, error)
	searchFn func(query string) ([]models.Book, error)
}

func newFakeService() *fakeService {
	books := []models.Book{
		{ISBN: "LIB100", Title: "Refactoring", Author: "Martin Fowler", Category: "Programming", Shelf: "Shelf-1", Status: models.StatusAvailable, Available: true},
		{ISBN: "LIB101", Title: "The Go Programming Language", Author: "Alan Donovan", Category: "Programming", Shelf: "Shelf-2", Status: models.StatusBorrowed, BorrowedBy: "Kiran Rao"},
	}
	users := []models.User{
		{ID: "u-1", Name: "Kiran Rao", Contact: "9000000001", BooksCount: 1, TotalBorrowed: 3, JoinDate: "2024-09-01", Status: models.UserActive},
	}
	return &fakeService{
		failing: make(map[string]error),
		books:   books,
		users:   users,
		stats:   models.ComputeStats(books, users),
		details: models.BookDetails{Book: books[0], Reviews: 2},
	}
}

func (f *fakeService) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.failing[name]
}

func (f *fakeService) fail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failing, name)
		return
	}
	f.failing[name] = err
}

func (f *fakeService) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeService) count(name string) int {
	n := 0
	for _, call := range f.callLog() {
		if call == name {
			n++
		}
	}
	return n
}

func (f *fakeService) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.queries = nil
}

func (f *fakeService) Ping(ctx context.Context) error {
	return f.record("ping")
}

func (f *fakeService) Stats(ctx context.Context) (models.Stats, error) {
	if err := f.record("stats"); err != nil {
		return models.Stats{}, err
	}
	return f.stats, nil
}

func (f *fakeService) Books(ctx context.Context) ([]models.Book, error) {
	if err := f.record("books"); err != nil {
		return nil, err
	}
	if f.booksFn != nil {
		return f.booksFn(ctx)
	}
	return f.books, nil
}

func (f *fakeService) Users(ctx context.Context) ([]models.User, error) {
	if err := f.record("users"); err != nil {
		return nil, err
	}
	return f.users, nil
}

func (f *fakeService) CreateBook(ctx context.Context, draft models.BookDraft) error {
	return f.record("create_book")
}

func (f *fakeService) CreateUser(ctx context.Context, draft models.UserDraft) error {
	return f.record("create_user")
}

func (f *fakeService) Borrow(ctx context.Context, userName, isbn string) error {
	return f.record("borrow")
}

func (f *fakeService) Return(ctx context.Context, isbn string) error {
	return f.record("return")
}

func (f *fakeService) Search(ctx context.Context, query string, field models.SearchField) ([]models.Book, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if err := f.record("search"); err != nil {
		return nil, err
	}
	if f.searchFn != nil {
		return f.searchFn(query)
	}
	return []models.Book{f.books[0]}, nil
}

func (f *fakeService) searchQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *fakeService) BookDetails(ctx context.Context, isbn string) (models.BookDetails, error) {
	if err := f.record("details"); err != nil {
		return models.BookDetails{}, err
	}
	return f.details, nil
}

func (f *fakeService) ShelfPath(ctx context.Context, from, to string) (models.ShelfPath, error) {
	if err := f.record("path"); err != nil {
		return models.ShelfPath{}, err
	}
	return models.ShelfPath{From: from, To: to, Found: true, Distance: 2, Path: []string{from, to}}, nil
}

func (f *fakeService) Recommend(ctx context.Context, user string) ([]models.Book, error) {
	if err := f.record("recommend"); err != nil {
		return nil, err
	}
	return f.books[:1], nil
}

type noteRecorder struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (r *noteRecorder) Deliver(n notify.Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

func (r *noteRecorder) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.notes...)
}

func (r *noteRecorder) messages() []string {
	var out []string
	for _, n := range r.all() {
		out = append(out, n.Message)
	}
	return out
}

func (r *noteRecorder) reset() {
	r.mu.Lock()
	r.notes = nil
	r.mu.Unlock()
}

func newTestCoordinator(t *testing.T, svc Service) (*Coordinator, *noteRecorder, *Metrics) {
	t.Helper()
	rec := &noteRecorder{}
	metrics := NewMetrics(prometheus.NewRegistry())
	c, err := New(svc, WithSink(rec), WithMetrics(metrics), WithDetailsCacheSize(8))
	require.NoError(t, err)
	return c, rec, metrics
}

// liveCoordinator returns a coordinator that already probed successfully,
// with the probe call and its notification cleared.
func liveCoordinator(t *testing.T, svc *fakeService) (*Coordinator, *noteRecorder, *Metrics) {
	t.Helper()
	c, rec, metrics := newTestCoordinator(t, svc)
	require.Equal(t, Live, c.Probe(context.Background()))
	svc.reset()
	rec.reset()
	return c, rec, metrics
}
