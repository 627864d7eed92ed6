package events

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/mmynk/littertag/internal/metrics"
	"github.com/mmynk/littertag/internal/storage"
)

// Handler is the work done by a listener. q is bound to the transaction of
// the write that triggered the event.
type Handler func(ctx context.Context, q storage.Queries, ev Event) error

// Listener is a named Handler.
type Listener struct {
	Name   string
	Handle Handler
}

// NewListener creates a Listener.
func NewListener(name string, h Handler) Listener {
	return Listener{Name: name, Handle: h}
}

// Dispatcher maps event names to ordered listeners.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[Name][]Listener

	publisher message.Publisher
	topic     string

	logger *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		listeners: make(map[Name][]Listener),
		logger:    logger,
	}
}

// Listen appends listeners to the event's list. Listeners run in the order
// they were added. Calling Listen with no listeners registers the event
// with an empty list.
func (d *Dispatcher) Listen(name Name, listeners ...Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[name] = append(d.listeners[name], listeners...)
}

// Listeners returns the names of the listeners bound to an event, in order.
func (d *Dispatcher) Listeners(name Name) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, len(d.listeners[name]))
	for i, l := range d.listeners[name] {
		names[i] = l.Name
	}
	return names
}

// Events returns the registered event names, sorted.
func (d *Dispatcher) Events() []Name {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]Name, 0, len(d.listeners))
	for name := range d.listeners {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Dispatch runs the listeners bound to ev in order. The first listener
// error stops the dispatch and is returned; callers running inside
// storage.Store.WithTx then roll back the triggering write.
func (d *Dispatcher) Dispatch(ctx context.Context, q storage.Queries, ev Event) error {
	name := ev.EventName()

	d.mu.RLock()
	listeners := d.listeners[name]
	d.mu.RUnlock()

	metrics.EventsDispatched.WithLabelValues(string(name)).Inc()
	if len(listeners) == 0 {
		d.logger.Debug("Event has no listeners", "event", name)
		return nil
	}

	for _, l := range listeners {
		start := time.Now()
		err := l.Handle(ctx, q, ev)
		metrics.ListenerDuration.WithLabelValues(string(name), l.Name).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.ListenerFailures.WithLabelValues(string(name), l.Name).Inc()
			d.logger.Error("Listener failed", "event", name, "listener", l.Name, "error", err)
			return fmt.Errorf("%s listener %s: %w", name, l.Name, err)
		}
		d.logger.Debug("Listener done", "event", name, "listener", l.Name)
	}

	return nil
}
