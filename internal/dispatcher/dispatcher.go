// Package dispatcher serializes commands sent to a device and routes the device's responses back
// to the command that is waiting for them.
//
// The device protocol carries no correlation ids, so a response can only be attributed to the
// command that is currently in flight. The Dispatcher therefore runs at most one command at a
// time, in submission order.
package dispatcher

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dreamscreen/dreamscreen-ble/internal/log"
	"github.com/dreamscreen/dreamscreen-ble/pkg/connector"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

// WorkItem is one queued command.
type WorkItem struct {
	Command []byte
	// ExpectsResponse causes the Dispatcher to wait for the next frame from the device after
	// writing Command.
	ExpectsResponse bool
	// Poll replaces the write with a direct read of the device's response, which resolves the
	// item. Command is ignored. The connector must implement connector.Reader.
	Poll bool
}

// Handlers observe the inbound side of the connection. Both fields are optional.
type Handlers struct {
	// OnFrame is invoked for every frame received from the device, after any pending waiter has
	// been resolved.
	OnFrame func(protocol.Frame)
	// OnDisconnect is invoked once if the connector's Receive channel closes.
	OnDisconnect func()
}

type job struct {
	item   WorkItem
	future *Future
}

// Dispatcher objects send commands to a device, one at a time, and deliver incoming frames to the
// pending command and to the registered Handlers.
type Dispatcher struct {
	conn     connector.Connector
	handlers Handlers
	waiters  registry

	// ctx is canceled when the Dispatcher shuts down, aborting the in-flight command.
	ctx    context.Context
	cancel context.CancelFunc

	lock      sync.Mutex
	queue     []*job
	running   bool
	ready     bool
	started   bool
	listening bool
	closed    bool

	done chan struct{}
}

// New creates a Dispatcher from a Connector. Commands may be enqueued immediately, but none are
// written until Start returns successfully.
func New(conn connector.Connector, handlers Handlers) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		conn:     conn,
		handlers: handlers,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for device frames and waits for the connector to confirm the
// subscription. Once confirmed, the Dispatcher begins executing queued commands.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.lock.Lock()
	if d.closed {
		d.lock.Unlock()
		return protocol.ErrNotConnected
	}
	if d.started {
		d.lock.Unlock()
		return nil
	}
	d.started = true
	d.listening = true
	d.lock.Unlock()

	log.Info("Starting dispatcher service...")
	go d.listen()

	if err := d.conn.Subscribe(ctx); err != nil {
		log.Warning("Failed to subscribe to device responses: %s", err)
		d.Stop()
		return err
	}

	d.lock.Lock()
	closed := d.closed
	d.ready = !closed
	d.lock.Unlock()
	if closed {
		// The link dropped while the subscription was pending.
		return protocol.ErrNotConnected
	}
	log.Debug("Subscription confirmed")
	d.drain()
	return nil
}

// Stop aborts the in-flight command, fails every queued command with protocol.ErrNotConnected,
// and waits for the listening goroutine to exit. It does not close the Connector.
func (d *Dispatcher) Stop() {
	d.shutdown()
	d.lock.Lock()
	listening := d.listening
	d.lock.Unlock()
	if listening {
		<-d.done
	}
}

// Enqueue appends item to the queue and returns a Future that settles when that item completes.
func (d *Dispatcher) Enqueue(item WorkItem) *Future {
	j := &job{item: item, future: newFuture(uuid.NewString(), string(item.Command))}

	d.lock.Lock()
	if d.closed {
		d.lock.Unlock()
		j.future.settle(nil, protocol.ErrNotConnected)
		return j.future
	}
	d.queue = append(d.queue, j)
	depth := len(d.queue)
	d.lock.Unlock()

	log.Debug("[%s] Queued %q (depth %d)", j.future.ID, item.Command, depth)
	d.drain()
	return j.future
}

// drain starts the next queued command unless one is already running, the Dispatcher is not ready,
// or the queue is empty.
func (d *Dispatcher) drain() {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !d.ready || d.running || len(d.queue) == 0 {
		return
	}
	d.running = true
	j := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	go d.run(j)
}

func (d *Dispatcher) run(j *job) {
	frame, err := d.execute(j)
	if err != nil {
		log.Warning("[%s] Command %q failed: %s", j.future.ID, j.future.Code, err)
	}
	j.future.settle(frame, err)

	d.lock.Lock()
	d.running = false
	d.lock.Unlock()
	d.drain()
}

func (d *Dispatcher) execute(j *job) (*protocol.Frame, error) {
	if j.item.Poll {
		return d.poll(j)
	}

	log.Debug("[%s] TX: %q", j.future.ID, j.item.Command)
	if err := d.conn.Send(d.ctx, j.item.Command); err != nil {
		if d.ctx.Err() != nil {
			return nil, protocol.ErrDisconnected
		}
		return nil, protocol.WriteError(err)
	}
	if !j.item.ExpectsResponse {
		return nil, nil
	}

	// Frames that arrive while the write is in progress are not replies to it.
	return d.await(j, d.waiters.register())
}

// poll performs a direct read. The waiter is registered first because the read itself produces
// the reply.
func (d *Dispatcher) poll(j *job) (*protocol.Frame, error) {
	reader, ok := d.conn.(connector.Reader)
	if !ok {
		return nil, protocol.InvalidArgument("connector does not support direct reads")
	}

	w := d.waiters.register()
	log.Debug("[%s] Direct read", j.future.ID)
	if err := reader.Read(); err != nil {
		d.waiters.cancel(w)
		if d.ctx.Err() != nil {
			return nil, protocol.ErrDisconnected
		}
		return nil, err
	}
	return d.await(j, w)
}

func (d *Dispatcher) await(j *job, w *waiter) (*protocol.Frame, error) {
	select {
	case frame := <-w.Recv():
		log.Debug("[%s] Response: %q", j.future.ID, frame.Data)
		return &frame, nil
	case <-d.ctx.Done():
		d.waiters.cancel(w)
		return nil, protocol.ErrDisconnected
	}
}

// listen delivers incoming datagrams until the connector closes its channel or the Dispatcher is
// stopped.
func (d *Dispatcher) listen() {
	disconnected := d.receive()
	close(d.done)
	if disconnected {
		log.Info("Device disconnected")
		if d.handlers.OnDisconnect != nil {
			d.handlers.OnDisconnect()
		}
	}
}

func (d *Dispatcher) receive() (disconnected bool) {
	for {
		select {
		case datagram, open := <-d.conn.Receive():
			if !open {
				d.shutdown()
				return true
			}
			d.process(datagram)
		case <-d.ctx.Done():
			return false
		}
	}
}

func (d *Dispatcher) process(datagram connector.Datagram) {
	frame := protocol.ParseFrame(datagram.Data, datagram.Notification)
	log.Debug("RX: %q (notification: %t)", frame.Data, frame.Unsolicited)
	if !d.waiters.resolve(frame) {
		log.Debug("No pending request for frame %q", frame.Data)
	}
	if d.handlers.OnFrame != nil {
		d.handlers.OnFrame(frame)
	}
}

func (d *Dispatcher) shutdown() {
	d.lock.Lock()
	if d.closed {
		d.lock.Unlock()
		return
	}
	d.closed = true
	d.ready = false
	queued := d.queue
	d.queue = nil
	d.lock.Unlock()

	d.cancel()
	if n := d.waiters.abandon(); n > 0 {
		log.Debug("Abandoned %d pending response(s)", n)
	}
	for _, j := range queued {
		j.future.settle(nil, protocol.ErrNotConnected)
	}
	if len(queued) > 0 {
		log.Info("Dropped %d queued command(s)", len(queued))
	}
}

// Pending returns the number of commands queued behind the in-flight command.
func (d *Dispatcher) Pending() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return len(d.queue)
}
