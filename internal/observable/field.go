// Package observable provides a minimal observable state container: a
// value guarded by a lock that consumers can read at any time or watch
// for changes.
package observable

import "sync"

// Field holds one observable value. Writes notify every subscriber;
// reads return the latest value. Safe for concurrent use.
type Field[T any] struct {
	mu    sync.RWMutex
	value T
	subs  map[int]chan T
	next  int
}

// NewField returns a Field holding initial.
func NewField[T any](initial T) *Field[T] {
	return &Field[T]{
		value: initial,
		subs:  make(map[int]chan T),
	}
}

// Get returns the current value.
func (f *Field[T]) Get() T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

// Set stores v and notifies subscribers. A slow subscriber only ever
// lags by one value: the channel buffers the latest write and older
// undelivered values are replaced.
func (f *Field[T]) Set(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
	for _, ch := range f.subs {
		select {
		case ch <- v:
		default:
			// Replace the undelivered value with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// Subscribe registers a watcher. The returned channel receives values
// written after the call; cancel removes the subscription and must be
// called exactly once when the watcher is done.
func (f *Field[T]) Subscribe() (<-chan T, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan T, 1)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
	return ch, cancel
}
