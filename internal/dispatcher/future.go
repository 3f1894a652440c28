package dispatcher

import (
	"context"
	"sync"

	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

// Future is the eventual outcome of one queued command. It is settled exactly once.
type Future struct {
	// ID identifies the command in log output.
	ID string
	// Code is the command as written to the device.
	Code string

	once  sync.Once
	done  chan struct{}
	frame *protocol.Frame
	err   error
}

func newFuture(id, code string) *Future {
	return &Future{ID: id, Code: code, done: make(chan struct{})}
}

// Failed returns a Future for a command that was never queued, already settled with err.
func Failed(code string, err error) *Future {
	f := newFuture("", code)
	f.settle(nil, err)
	return f
}

func (f *Future) settle(frame *protocol.Frame, err error) {
	f.once.Do(func() {
		f.frame = frame
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed once the command has completed or failed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the outcome of a settled Future. The Frame is nil for commands that do not
// expect a response. Calling Result before Done is closed returns (nil, nil).
func (f *Future) Result() (*protocol.Frame, error) {
	select {
	case <-f.done:
		return f.frame, f.err
	default:
		return nil, nil
	}
}

// Wait blocks until the command completes or ctx expires. An expired ctx only stops the caller
// from waiting; the command stays queued and still runs in order.
func (f *Future) Wait(ctx context.Context) (*protocol.Frame, error) {
	select {
	case <-f.done:
		return f.frame, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
