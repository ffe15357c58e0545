package coordinator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/library-desk/models"
)

// Debouncer runs only the last function handed to it once calls have been
// quiet for the configured duration. A newer call supersedes the pending one.
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
	gen      uint64
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
	}
}

// Debounce schedules fn, replacing whatever was pending.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen

	d.timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		// a timer that fired while being replaced must not run
		current := gen == d.gen
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Immediate cancels any pending call and runs fn now.
func (d *Debouncer) Immediate(fn func()) {
	d.Cancel()
	fn()
}

// Searcher turns keystrokes into searches: only the trailing input after a
// quiet period is searched.
type Searcher struct {
	c         *Coordinator
	ctx       context.Context
	debouncer *Debouncer
	onResult  func(SearchResult, error)
}

// NewSearcher creates a debounced searcher. onResult receives every search
// that actually ran; it may be nil.
func (c *Coordinator) NewSearcher(ctx context.Context, window time.Duration, onResult func(SearchResult, error)) *Searcher {
	return &Searcher{
		c:         c,
		ctx:       ctx,
		debouncer: NewDebouncer(window),
		onResult:  onResult,
	}
}

// Input records the current search box content. Clearing the box cancels
// the pending search.
func (s *Searcher) Input(query string, field models.SearchField) {
	if strings.TrimSpace(query) == "" {
		s.debouncer.Cancel()
		return
	}
	s.debouncer.Debounce(func() {
		s.run(query, field)
	})
}

// Submit searches immediately, superseding any pending input.
func (s *Searcher) Submit(query string, field models.SearchField) (SearchResult, error) {
	var (
		result SearchResult
		err    error
	)
	s.debouncer.Immediate(func() {
		result, err = s.c.Search(s.ctx, query, field)
	})
	if s.onResult != nil {
		s.onResult(result, err)
	}
	return result, err
}

// Cancel drops the pending search.
func (s *Searcher) Cancel() {
	s.debouncer.Cancel()
}

func (s *Searcher) run(query string, field models.SearchField) {
	result, err := s.c.Search(s.ctx, query, field)
	if s.onResult != nil {
		s.onResult(result, err)
	}
}
