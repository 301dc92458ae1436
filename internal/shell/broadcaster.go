package shell

import (
	"log/slog"
	"sync"
)

// Event names published by the Broadcaster.
const (
	EventShell  = "shell"
	EventHaptic = "haptic"
	EventData   = "data"
)

// Event is one shell signal addressed to connected frontends.
type Event struct {
	Name string
	Data any
}

// Haptic is the payload of a haptic event.
type Haptic struct {
	Kind  string `json:"kind"`
	Style string `json:"style,omitempty"`
}

// Broadcaster relays shell signals to subscribers, typically server-sent
// event streams. Slow subscribers miss events instead of blocking callers.
type Broadcaster struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

// NewBroadcaster returns a broadcaster with no subscribers.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{logger: logger, subs: make(map[chan Event]struct{})}
}

// Subscribe registers a listener with the given buffer size. The returned
// cancel func unregisters it and closes the channel. After Close the
// channel comes back already closed.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	return ch, func() { b.drop(ch) }
}

// Close ends every subscription so that streaming handlers return.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *Broadcaster) drop(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Subscribers reports the number of live listeners.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broadcaster) publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("dropping shell event for slow subscriber", slog.String("event", ev.Name))
		}
	}
}

func (b *Broadcaster) Ready()  { b.publish(Event{Name: EventShell, Data: map[string]string{"call": "ready"}}) }
func (b *Broadcaster) Expand() { b.publish(Event{Name: EventShell, Data: map[string]string{"call": "expand"}}) }

func (b *Broadcaster) Impact(style ImpactStyle) {
	b.publish(Event{Name: EventHaptic, Data: Haptic{Kind: "impact", Style: string(style)}})
}

func (b *Broadcaster) Notify(kind NotificationType) {
	b.publish(Event{Name: EventHaptic, Data: Haptic{Kind: "notification", Style: string(kind)}})
}

func (b *Broadcaster) Selection() {
	b.publish(Event{Name: EventHaptic, Data: Haptic{Kind: "selection"}})
}

func (b *Broadcaster) SendData(payload any) {
	b.publish(Event{Name: EventData, Data: payload})
}
