package assistant

import "sync"

// BroadcastOpen is the unscoped open-panel signal every mounted session
// listens on.
const BroadcastOpen = "open-assistant"

// OpenSignal names the open-panel signal for a single session.
func OpenSignal(sessionID string) string {
	return BroadcastOpen + ":" + sessionID
}

// Bus is a named-signal observer registry. Signals carry no payload.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]map[uint64]func()
	nextID   uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string]map[uint64]func())}
}

// Subscribe registers fn for name. The returned func removes the
// registration and may be called more than once.
func (b *Bus) Subscribe(name string, fn func()) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if _, ok := b.handlers[name]; !ok {
		b.handlers[name] = make(map[uint64]func())
	}
	b.handlers[name][id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if hs, ok := b.handlers[name]; ok {
				delete(hs, id)
				if len(hs) == 0 {
					delete(b.handlers, name)
				}
			}
		})
	}
}

// Publish invokes every handler registered for name and returns how many
// ran. Handlers run outside the bus lock so they may unsubscribe.
func (b *Bus) Publish(name string) int {
	b.mu.RLock()
	fns := make([]func(), 0, len(b.handlers[name]))
	for _, fn := range b.handlers[name] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Subscribers returns the number of handlers registered for name.
func (b *Bus) Subscribers(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}
