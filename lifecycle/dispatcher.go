package lifecycle

import "sync"

// Signal is a page lifecycle event reported by the embedding shell.
type Signal int

const (
	// SignalHidden means the page left the foreground and may be frozen or
	// discarded at any point afterwards.
	SignalHidden Signal = iota
	// SignalVisible means the page returned to the foreground.
	SignalVisible
	// SignalRestored means the page was recreated from a frozen snapshot.
	// Time-bound state must be re-validated against wall clock: timers did
	// not tick while frozen, but the clock advanced.
	SignalRestored
)

// Listener receives lifecycle signals.
type Listener func(Signal)

// Dispatcher fans lifecycle signals out to subscribed listeners.
type Dispatcher struct {
	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
	closed    bool
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: map[int]Listener{}}
}

// Subscribe registers a listener and returns its unsubscribe function.
func (d *Dispatcher) Subscribe(l Listener) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || l == nil {
		return func() {}
	}
	id := d.nextID
	d.nextID++
	d.listeners[id] = l
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

// Notify delivers the signal to every listener before returning.
func (d *Dispatcher) Notify(s Signal) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	snapshot := make([]Listener, 0, len(d.listeners))
	for _, l := range d.listeners {
		snapshot = append(snapshot, l)
	}
	d.mu.Unlock()

	for _, l := range snapshot {
		l(s)
	}
}

// Close drops all listeners; further notifications are no-ops.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.listeners = map[int]Listener{}
}
