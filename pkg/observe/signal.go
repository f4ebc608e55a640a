package observe

import (
	"sync"
)

// Signal broadcasts discrete events to subscribers. Unlike Value there is
// no change suppression: every Emit reaches subscribers, which makes Signal
// suitable for edge notifications such as "a load just settled" where the
// observable state itself may not have changed.
type Signal[T any] struct {
	mu     sync.Mutex
	subs   map[int]chan T
	nextID int
}

// NewSignal creates an event signal.
func NewSignal[T any]() *Signal[T] {
	return &Signal[T]{subs: make(map[int]chan T)}
}

// Emit delivers ev to all subscribers. Delivery is coalescing per
// subscriber: a slow subscriber observes the latest event.
func (s *Signal[T]) Emit(ev T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		sendLatest(ch, ev)
	}
}

// Subscribe registers a channel receiving emitted events. The returned
// func cancels the subscription; the channel is not closed.
func (s *Signal[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan T, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
