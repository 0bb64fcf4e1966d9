package assistant

import (
	"strings"
	"sync"
	"time"
)

// DefaultReplyDelay is the simulated latency before an assistant reply.
const DefaultReplyDelay = 300 * time.Millisecond

// Role identifies who authored a message.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Message is one entry of a conversation. Messages are never mutated once
// appended.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// EventType classifies session state transitions.
type EventType string

const (
	EventMessage    EventType = "message"
	EventPending    EventType = "pending"
	EventVisibility EventType = "visibility"
	EventTeardown   EventType = "teardown"
)

// Event is delivered to watchers on every state transition.
type Event struct {
	Type    EventType `json:"type"`
	Message *Message  `json:"message,omitempty"`
	Open    bool      `json:"open"`
	Pending bool      `json:"pending"`
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID       string    `json:"id"`
	Open     bool      `json:"open"`
	Pending  bool      `json:"pending"`
	Messages []Message `json:"messages"`
}

// AfterFunc schedules f after d and returns a func that cancels it.
// time.AfterFunc satisfies it through SystemAfterFunc.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

// SystemAfterFunc schedules with the runtime timer.
func SystemAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Option configures a Session.
type Option func(*Session)

// WithReplyDelay overrides DefaultReplyDelay.
func WithReplyDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithAfterFunc replaces the scheduler used for delayed replies.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Session) {
		if fn != nil {
			s.afterFunc = fn
		}
	}
}

// WithClock replaces time.Now for activity tracking.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session is one visitor's conversation and panel state. At most one
// reply is pending at a time; submissions made while one is pending are
// dropped, not queued.
type Session struct {
	id        string
	responder *Responder
	delay     time.Duration
	afterFunc AfterFunc
	now       func() time.Time

	mu          sync.Mutex
	alive       bool
	open        bool
	pending     bool
	messages    []Message
	stopReply   func() bool
	unsubscribe []func()
	watchers    map[uint64]chan Event
	nextWatcher uint64
	lastActive  time.Time
}

// NewSession creates a closed session seeded with the greeting.
func NewSession(id string, responder *Responder, opts ...Option) *Session {
	if responder == nil {
		responder = DefaultResponder()
	}
	s := &Session{
		id:        id,
		responder: responder,
		delay:     DefaultReplyDelay,
		afterFunc: SystemAfterFunc,
		now:       time.Now,
		alive:     true,
		messages:  []Message{{Role: RoleAssistant, Content: Greeting}},
		watchers:  make(map[uint64]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActive = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Submit appends a user message and schedules the assistant reply. It
// returns false without changing anything when text is blank, a reply is
// already pending, or the session has been torn down.
func (s *Session) Submit(text string) bool {
	query := strings.TrimSpace(text)
	if query == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.alive || s.pending {
		return false
	}

	msg := Message{Role: RoleUser, Content: query}
	s.messages = append(s.messages, msg)
	s.pending = true
	s.lastActive = s.now()
	s.emitLocked(Event{Type: EventMessage, Message: &msg})
	s.emitLocked(Event{Type: EventPending})

	s.stopReply = s.afterFunc(s.delay, func() { s.deliver(query) })
	return true
}

func (s *Session) deliver(query string) {
	reply := Message{Role: RoleAssistant, Content: s.responder.Respond(query)}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Torn down while the timer was in flight.
	if !s.alive {
		return
	}
	s.messages = append(s.messages, reply)
	s.pending = false
	s.stopReply = nil
	s.emitLocked(Event{Type: EventMessage, Message: &reply})
	s.emitLocked(Event{Type: EventPending})
}

// Open shows the panel.
func (s *Session) Open() { s.setOpen(func(bool) bool { return true }) }

// Close hides the panel. Messages are kept.
func (s *Session) Close() { s.setOpen(func(bool) bool { return false }) }

// Toggle flips panel visibility.
func (s *Session) Toggle() { s.setOpen(func(open bool) bool { return !open }) }

func (s *Session) setOpen(next func(bool) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.alive {
		return
	}
	s.lastActive = s.now()
	open := next(s.open)
	if open == s.open {
		return
	}
	s.open = open
	s.emitLocked(Event{Type: EventVisibility})
}

// Mount subscribes the session to its open signals on bus. Mounting again
// replaces the earlier subscriptions.
func (s *Session) Mount(bus *Bus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.alive || bus == nil {
		return
	}
	s.unmountLocked()
	s.unsubscribe = []func(){
		bus.Subscribe(OpenSignal(s.id), s.Open),
		bus.Subscribe(BroadcastOpen, s.Open),
	}
}

func (s *Session) unmountLocked() {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.unsubscribe = nil
}

// Teardown ends the session: any pending reply is discarded, signal
// subscriptions are dropped and watchers are closed. Safe to call twice.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.alive {
		return
	}
	s.alive = false
	if s.stopReply != nil {
		s.stopReply()
		s.stopReply = nil
	}
	s.unmountLocked()
	s.emitLocked(Event{Type: EventTeardown})
	for id, ch := range s.watchers {
		close(ch)
		delete(s.watchers, id)
	}
}

// Alive reports whether Teardown has not been called.
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// IsOpen reports panel visibility.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Pending reports whether a reply is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Messages returns a copy of the transcript in display order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// LastActive returns the time of the last visitor interaction.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:       s.id,
		Open:     s.open,
		Pending:  s.pending,
		Messages: append([]Message(nil), s.messages...),
	}
}

// Watch returns a channel of state transitions and a cancel func. Events
// are dropped for a watcher whose buffer is full. The channel is closed by
// cancel or Teardown.
func (s *Session) Watch(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.alive {
		close(ch)
		return ch, func() {}
	}
	s.nextWatcher++
	id := s.nextWatcher
	s.watchers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if w, ok := s.watchers[id]; ok {
			close(w)
			delete(s.watchers, id)
		}
	}
}

func (s *Session) emitLocked(ev Event) {
	ev.Open = s.open
	ev.Pending = s.pending
	for _, ch := range s.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
}
