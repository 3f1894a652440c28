package dispatcher

import (
	"sync"

	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

// waiter represents a command's pending response. It receives the next frame to arrive after it
// is registered, whatever that frame is: the protocol has no correlation ids.
type waiter struct {
	ch chan protocol.Frame
}

// Recv returns a channel that receives the frame resolving w.
func (w *waiter) Recv() <-chan protocol.Frame {
	return w.ch
}

// registry holds outstanding waiters in registration order.
type registry struct {
	lock    sync.Mutex
	waiters []*waiter
}

// register appends a new waiter. It never blocks.
func (r *registry) register() *waiter {
	w := &waiter{ch: make(chan protocol.Frame, 1)}
	r.lock.Lock()
	r.waiters = append(r.waiters, w)
	r.lock.Unlock()
	return w
}

// resolve hands frame to the oldest waiter and removes it. Returns false if no waiter was pending,
// in which case the frame is dropped.
func (r *registry) resolve(frame protocol.Frame) bool {
	r.lock.Lock()
	if len(r.waiters) == 0 {
		r.lock.Unlock()
		return false
	}
	w := r.waiters[0]
	r.waiters[0] = nil
	r.waiters = r.waiters[1:]
	r.lock.Unlock()

	// Buffered and resolved at most once, so this never blocks.
	w.ch <- frame
	return true
}

// cancel removes w if it is still pending.
func (r *registry) cancel(w *waiter) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for i, pending := range r.waiters {
		if pending == w {
			r.waiters = append(r.waiters[:i], r.waiters[i+1:]...)
			return
		}
	}
}

// abandon drops every pending waiter and returns how many there were.
func (r *registry) abandon() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	n := len(r.waiters)
	r.waiters = nil
	return n
}

func (r *registry) pending() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.waiters)
}
