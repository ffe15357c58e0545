package notify

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrBusClosed is returned when Publish is called after Close.
	ErrBusClosed = errors.New("notify: bus closed")
	// ErrBusCloseTimeout is returned when pending notifications could not be
	// delivered before the drain timeout.
	ErrBusCloseTimeout = errors.New("notify: close timed out")
)

// Bus decouples publishers from a slow sink: notifications are queued and
// delivered in order by a single worker.
type Bus struct {
	sink         Sink
	queue        chan Notification
	drainTimeout time.Duration

	wg sync.WaitGroup

	delivered atomic.Int64
	dropped   atomic.Int64

	mu     sync.Mutex // guards closed
	closed bool

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewBus starts a bus delivering to sink with the given queue size.
func NewBus(sink Sink, buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	b := &Bus{
		sink:         sink,
		queue:        make(chan Notification, buffer),
		drainTimeout: 2 * time.Second,
		shutdown:     make(chan struct{}),
	}
	b.wg.Add(1)
	go b.worker()
	return b
}

// Publish enqueues n. It never blocks: when the queue is full the
// notification is dropped.
func (b *Bus) Publish(n Notification) (err error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrBusClosed
	}

	defer func() {
		if r := recover(); r != nil {
			err = ErrBusClosed
		}
	}()

	select {
	case <-b.shutdown:
		return ErrBusClosed
	case b.queue <- n:
		return nil
	default:
		b.dropped.Add(1)
		slog.Warn("notification dropped, queue full", slog.String("message", n.Message))
		return nil
	}
}

// Deliver lets a Bus stand in as a Sink.
func (b *Bus) Deliver(n Notification) {
	if err := b.Publish(n); err != nil {
		slog.Debug("notification after close", slog.String("message", n.Message))
	}
}

// Close stops accepting notifications and waits for the queue to drain.
func (b *Bus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.shutdownOnce.Do(func() {
		close(b.shutdown)
	})
	b.closeOnce.Do(func() {
		close(b.queue)
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(b.drainTimeout):
		return ErrBusCloseTimeout
	}
}

// Counts returns how many notifications were delivered and dropped.
func (b *Bus) Counts() (delivered, dropped int64) {
	return b.delivered.Load(), b.dropped.Load()
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for n := range b.queue {
		b.sink.Deliver(n)
		b.delivered.Add(1)
	}
}
