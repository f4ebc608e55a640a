// Package observe provides change-only observable values and event signals
// for broadcasting state to subscribers over channels.
//
// A Value holds a single piece of state and notifies subscribers only when
// the state actually changes, so downstream consumers (rendering layers,
// pollers) are not woken up for redundant writes. Delivery is coalescing:
// a slow subscriber always observes the latest value, intermediate values
// may be dropped.
package observe

import (
	"sync"
)

// Value is an observable state holder with change-only notification.
// The zero value is not usable; construct with NewValue or NewComparable.
type Value[T any] struct {
	mu     sync.Mutex
	val    T
	eq     func(a, b T) bool
	subs   map[int]chan T
	nextID int
}

// NewValue creates an observable holding initial. The eq function decides
// whether a Set call represents a change; when eq reports the old and new
// values equal, subscribers are not notified.
func NewValue[T any](initial T, eq func(a, b T) bool) *Value[T] {
	return &Value[T]{
		val:  initial,
		eq:   eq,
		subs: make(map[int]chan T),
	}
}

// NewComparable creates an observable for a comparable type using == as
// the change test.
func NewComparable[T comparable](initial T) *Value[T] {
	return NewValue(initial, func(a, b T) bool { return a == b })
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val
}

// Set updates the value and notifies subscribers. When the new value equals
// the current one no notification is sent. Reports whether a change occurred.
func (v *Value[T]) Set(next T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.eq != nil && v.eq(v.val, next) {
		return false
	}

	v.val = next
	for _, ch := range v.subs {
		sendLatest(ch, next)
	}
	return true
}

// Subscribe registers a channel that receives each changed value. The
// channel is buffered with capacity 1 and delivery is coalescing, so the
// writer never blocks on a slow subscriber. The returned func cancels the
// subscription; the channel is not closed.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	ch := make(chan T, 1)
	v.subs[id] = ch

	return ch, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

// sendLatest delivers val into a capacity-1 channel, replacing any stale
// undelivered value so the subscriber always sees the most recent state.
func sendLatest[T any](ch chan T, val T) {
	for {
		select {
		case ch <- val:
			return
		default:
		}
		// Buffer full: drop the stale value and retry.
		select {
		case <-ch:
		default:
		}
	}
}
