// Package rpc pool.go caches HTTP transports by endpoint name so repeated
// fan-outs reuse connections instead of building a new http.Client each time.
package rpc

import (
	"sync"
	"time"
)

// TransportPool manages HTTP transports keyed by endpoint name.
// It uses double-checked locking so lookups of existing transports only take
// the read lock.
type TransportPool struct {
	transports map[string]*HTTPTransport
	mu         sync.RWMutex
}

// NewTransportPool creates an empty pool.
func NewTransportPool() *TransportPool {
	return &TransportPool{
		transports: make(map[string]*HTTPTransport),
	}
}

// GetOrCreate returns the transport registered under name, creating it with
// url and timeout on first use. Later calls with a different url for the same
// name get the original transport.
func (p *TransportPool) GetOrCreate(name, url string, timeout time.Duration) *HTTPTransport {
	p.mu.RLock()
	if t, exists := p.transports[name]; exists {
		p.mu.RUnlock()
		return t
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// another goroutine may have created it while we waited for the lock
	if t, exists := p.transports[name]; exists {
		return t
	}

	t := NewHTTPTransport(name, url, timeout)
	p.transports[name] = t
	return t
}

// Get returns the transport for name, or nil.
func (p *TransportPool) Get(name string) *HTTPTransport {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.transports[name]
}

// Len returns the number of cached transports.
func (p *TransportPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.transports)
}

// Clear drops every cached transport.
func (p *TransportPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transports = make(map[string]*HTTPTransport)
}
