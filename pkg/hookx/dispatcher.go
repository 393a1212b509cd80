package hookx

import (
	"context"
	"sync"
)

// Callback receives one event. Returning an error aborts the dispatch.
type Callback func(ctx context.Context, event Event) error

// Dispatcher calls registered callbacks synchronously, event by event in
// array order and callback by callback in registration order.
type Dispatcher struct {
	mu        sync.RWMutex
	callbacks []Callback
}

// NewDispatcher creates a dispatcher with the given callbacks.
func NewDispatcher(callbacks ...Callback) *Dispatcher {
	return &Dispatcher{callbacks: callbacks}
}

// Register adds a callback.
func (d *Dispatcher) Register(cb Callback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks = append(d.callbacks, cb)
}

// Dispatch delivers events and returns the first callback error.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) error {
	d.mu.RLock()
	callbacks := append([]Callback(nil), d.callbacks...)
	d.mu.RUnlock()

	for i, ev := range events {
		for _, cb := range callbacks {
			if err := cb(ctx, ev); err != nil {
				return hookxErrors.NewWithCause(ErrCallbackFailed, err).
					WithDetail("index", i).
					WithDetail("event_type", ev.Type)
			}
		}
	}
	return nil
}
