// Package dispatcher fans session events out to registered handlers. Units
// publish through it without knowing who listens; the journal and the
// screen effects subscribe per event kind.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("dispatcher closed")

// Event is one occurrence in the session.
type Event struct {
	Seq       uint64
	Kind      string
	Source    int
	Attrs     map[string]any
	Timestamp time.Time
}

// HandlerFunc processes an event.
type HandlerFunc func(Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type buffer struct {
	kind string
	ch   chan Event
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	logger Logger
	seq    atomic.Uint64

	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter

	// mu guards handlers, buffers and closed. Senders hold the read lock so
	// Close cannot close a channel under them.
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	buffers  []buffer
	closed   bool
	drained  sync.WaitGroup
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string][]HandlerFunc),
		logger:   logger,
	}

	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of events in queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for _, b := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(b.ch)),
					metric.WithAttributes(attribute.String("kind", b.kind)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given kind. A kind may have several
// handlers; they run in registration order.
func (d *Dispatcher) Register(kind string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	if cfg.bufferSize > 0 {
		handler = d.withBuffer(kind, cfg.bufferSize, cfg.blocking, handler)
	}

	if cfg.logged {
		handler = d.withLogging(kind, handler)
	}

	d.mu.Lock()
	d.handlers[kind] = append(d.handlers[kind], handler)
	d.mu.Unlock()
}

// Dispatch routes an event to every handler registered for its kind.
func (d *Dispatcher) Dispatch(e Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}
	hs, ok := d.handlers[e.Kind]
	if !ok {
		return fmt.Errorf("unknown event kind: %s", e.Kind)
	}

	var errs []error
	for _, h := range hs {
		if err := h(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Publish stamps and dispatches an event. Kinds nobody listens to are
// ignored and delivery errors are logged, so units never fail on it.
func (d *Dispatcher) Publish(kind string, source int, attrs map[string]any) {
	if !d.HasHandler(kind) {
		return
	}
	e := Event{
		Seq:       d.seq.Add(1),
		Kind:      kind,
		Source:    source,
		Attrs:     attrs,
		Timestamp: time.Now(),
	}
	if err := d.Dispatch(e); err != nil && !errors.Is(err, ErrClosed) {
		d.logger.Error("publish failed", "kind", kind, "error", err)
	}
}

// HasHandler returns true if a handler is registered for the kind.
func (d *Dispatcher) HasHandler(kind string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[kind]
	return ok
}

// Close stops accepting events and waits until every buffered handler has
// drained its queue.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, b := range d.buffers {
		close(b.ch)
	}
	d.mu.Unlock()

	d.drained.Wait()
}

func (d *Dispatcher) withBuffer(kind string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	ch := make(chan Event, size)

	d.mu.Lock()
	d.buffers = append(d.buffers, buffer{kind: kind, ch: ch})
	d.mu.Unlock()

	kindAttr := attribute.String("kind", kind)

	d.drained.Add(1)
	go func() {
		defer d.drained.Done()
		for e := range ch {
			if err := h(e); err != nil {
				d.logger.Error("buffered handler failed", "kind", kind, "error", err)
			}
			d.processed.Add(context.Background(), 1, metric.WithAttributes(kindAttr))
		}
	}()

	if blocking {
		return func(e Event) error {
			ch <- e
			return nil
		}
	}

	return func(e Event) error {
		select {
		case ch <- e:
			return nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(kindAttr))
			return fmt.Errorf("queue full: %s", kind)
		}
	}
}

func (d *Dispatcher) withLogging(kind string, h HandlerFunc) HandlerFunc {
	return func(e Event) error {
		start := time.Now()
		d.logger.Debug("handling event", "kind", kind, "seq", e.Seq, "source", e.Source)

		err := h(e)

		if err != nil {
			d.logger.Error("event failed", "kind", kind, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "kind", kind, "duration", time.Since(start))
		}

		return err
	}
}
