// Package events is the publish/subscribe surface for provider identity
// changes: the active account and the connected network.
package events

import "sync"

// Kind is a closed set of event kinds.
type Kind uint8

const (
	// AccountChange carries the new normalized account id ("" when cleared).
	AccountChange Kind = iota + 1
	// NetworkChange carries the new network version string.
	NetworkChange
)

func (k Kind) String() string {
	switch k {
	case AccountChange:
		return "ACCOUNT_CHANGE"
	case NetworkChange:
		return "NETWORK_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k == AccountChange || k == NetworkChange
}

// Handler receives the event payload.
type Handler func(value string)

// Subscription identifies one registered handler. The zero value matches
// nothing.
type Subscription struct {
	kind Kind
	id   uint64
}

// Kind returns the event kind the subscription listens to.
func (s Subscription) Kind() Kind { return s.kind }

type subscriber struct {
	id      uint64
	handler Handler
	once    bool
}

// Channel dispatches events to subscribers. The zero value is ready to use
// and safe for concurrent use.
type Channel struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Kind][]subscriber
}

// On registers handler for every future event of kind.
func (c *Channel) On(kind Kind, handler Handler) Subscription {
	return c.add(kind, handler, false)
}

// Once registers handler for the next event of kind only.
func (c *Channel) Once(kind Kind, handler Handler) Subscription {
	return c.add(kind, handler, true)
}

func (c *Channel) add(kind Kind, handler Handler, once bool) Subscription {
	if !kind.Valid() || handler == nil {
		return Subscription{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subs == nil {
		c.subs = make(map[Kind][]subscriber)
	}
	c.nextID++
	c.subs[kind] = append(c.subs[kind], subscriber{id: c.nextID, handler: handler, once: once})
	return Subscription{kind: kind, id: c.nextID}
}

// Off removes the given subscriptions of kind. With no subscriptions it
// removes every handler of kind. Unknown subscriptions are ignored.
func (c *Channel) Off(kind Kind, subs ...Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(subs) == 0 {
		delete(c.subs, kind)
		return
	}
	if len(c.subs[kind]) == 0 {
		return
	}

	drop := make(map[uint64]bool, len(subs))
	for _, s := range subs {
		if s.kind == kind && s.id != 0 {
			drop[s.id] = true
		}
	}
	c.subs[kind] = filter(c.subs[kind], func(s subscriber) bool { return !drop[s.id] })
}

// Emit calls the handlers of kind synchronously, in subscription order.
// Once-handlers are unregistered before any handler runs, so a handler that
// emits the same kind again does not re-trigger them. Handlers run without
// the channel lock held and may subscribe or unsubscribe freely.
func (c *Channel) Emit(kind Kind, value string) {
	c.mu.Lock()
	current := append([]subscriber(nil), c.subs[kind]...)
	if len(current) > 0 {
		c.subs[kind] = filter(c.subs[kind], func(s subscriber) bool { return !s.once })
	}
	c.mu.Unlock()

	for _, s := range current {
		s.handler(value)
	}
}

// Count returns the number of handlers registered for kind.
func (c *Channel) Count(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[kind])
}

func filter(in []subscriber, keep func(subscriber) bool) []subscriber {
	out := in[:0:0]
	for _, s := range in {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
