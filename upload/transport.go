package upload

import (
	"context"
	"fmt"
	"sync"
)

// Transport delivers batches to a remote time-series store. Upload is
// asynchronous: it starts the delivery and returns a channel that yields the
// terminal result exactly once. Implementations must be safe for concurrent
// Upload calls.
type Transport interface {
	// Upload starts delivering one batch. The returned channel receives nil
	// on success or the delivery error, then is closed. Cancelling the
	// context abandons the delivery.
	Upload(ctx context.Context, batch *Batch) <-chan error

	// Close releases transport resources. No Upload may be started after
	// Close returns.
	Close() error
}

// TransportFactory builds a transport from its raw configuration map.
type TransportFactory func(cfg map[string]any) (Transport, error)

var (
	_factoryLock sync.RWMutex

	// _factoryMap stores all registered transport factories keyed by name
	// (e.g. "console", "http").
	_factoryMap = make(map[string]TransportFactory)
)

// RegisterTransport registers a named transport factory. Later registrations
// under the same name replace earlier ones, which lets tests install stubs.
func RegisterTransport(name string, factory TransportFactory) {
	_factoryLock.Lock()
	defer _factoryLock.Unlock()
	_factoryMap[name] = factory
}

// NewTransport builds a transport by factory name.
func NewTransport(name string, cfg map[string]any) (Transport, error) {
	_factoryLock.RLock()
	factory, ok := _factoryMap[name]
	_factoryLock.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown transport %q", name)
	}
	return factory(cfg)
}
