// Package dreamscreen controls a DreamScreen over a connector.Connector.
//
// All commands sent through a Device are executed one at a time in the order they were issued.
// Responses carry no identifier, so a read resolves with whatever frame the device sends next.
package dreamscreen

import (
	"context"
	"sync"

	"github.com/dreamscreen/dreamscreen-ble/internal/dispatcher"
	"github.com/dreamscreen/dreamscreen-ble/internal/log"
	"github.com/dreamscreen/dreamscreen-ble/pkg/connector"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

// Future is the eventual outcome of a command queued with Send.
type Future = dispatcher.Future

// Response is a frame returned by a read-type command, tagged with that command.
type Response struct {
	protocol.Frame
	Code string
}

// Controller is the set of operations exposed by Device.
type Controller interface {
	SetMode(ctx context.Context, mode string) error
	SetBrightness(ctx context.Context, value int) error
	WriteProp(ctx context.Context, prop, value string) error
	ReadProp(ctx context.Context, prop string) (*Response, error)
	SendWrite(ctx context.Context, code string) error
	SendRead(ctx context.Context, code string) (*Response, error)
	Poll(ctx context.Context) (*Response, error)
}

// queue executes commands in order.
type queue interface {
	// Start waits for the connector to confirm its subscription and begins executing commands.
	Start(ctx context.Context) error
	// Stop fails every outstanding command and stops listening.
	Stop()
	Enqueue(item dispatcher.WorkItem) *dispatcher.Future
}

// A Device represents a connected DreamScreen.
type Device struct {
	conn       connector.Connector
	dispatcher queue

	lock      sync.Mutex
	listeners map[int]Listener
	nextID    int
}

var _ Controller = (*Device)(nil)

// New creates a Device that communicates over conn. Commands may be issued right away; they are
// written once Connect succeeds.
func New(conn connector.Connector) *Device {
	d := &Device{
		conn:      conn,
		listeners: make(map[int]Listener),
	}
	d.dispatcher = dispatcher.New(conn, dispatcher.Handlers{
		OnFrame:      d.publishRead,
		OnDisconnect: d.publishDisconnect,
	})
	return d
}

// Connect subscribes to device responses. Queued commands are written once it succeeds.
func (d *Device) Connect(ctx context.Context) error {
	return d.dispatcher.Start(ctx)
}

// Disconnect fails outstanding commands and closes the underlying connection.
func (d *Device) Disconnect() {
	d.dispatcher.Stop()
	d.conn.Close()
}

// AddListener registers l and returns a function that unregisters it.
func (d *Device) AddListener(l Listener) (remove func()) {
	d.lock.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = l
	d.lock.Unlock()

	return func() {
		d.lock.Lock()
		delete(d.listeners, id)
		d.lock.Unlock()
	}
}

func (d *Device) snapshot() []Listener {
	d.lock.Lock()
	defer d.lock.Unlock()
	listeners := make([]Listener, 0, len(d.listeners))
	for _, l := range d.listeners {
		listeners = append(listeners, l)
	}
	return listeners
}

func (d *Device) publishRead(frame protocol.Frame) {
	for _, l := range d.snapshot() {
		l.OnRead(frame)
	}
}

func (d *Device) publishDisconnect() {
	for _, l := range d.snapshot() {
		l.OnDisconnect()
	}
}

// SetMode changes the display mode. See Modes for accepted names.
func (d *Device) SetMode(ctx context.Context, mode string) error {
	opcode, ok := modes[mode]
	if !ok {
		return protocol.InvalidArgument("invalid mode: %s", mode)
	}
	return d.WriteProp(ctx, PropMode, opcode)
}

// SetBrightness sets the brightness. Values outside [MinBrightness, MaxBrightness] are clamped.
func (d *Device) SetBrightness(ctx context.Context, value int) error {
	return d.WriteProp(ctx, PropBrightness, protocol.EncodeBrightness(value, MinBrightness, MaxBrightness))
}

// WriteProp writes value to prop without any validation or conversion of value.
//
//	WriteProp(ctx, "mode", "1") // same as SetMode(ctx, "video")
func (d *Device) WriteProp(ctx context.Context, prop, value string) error {
	key, err := propertyKey(prop)
	if err != nil {
		return err
	}
	return d.SendWrite(ctx, protocol.WriteCommand(key, value))
}

// ReadProp asks the device to report prop.
func (d *Device) ReadProp(ctx context.Context, prop string) (*Response, error) {
	key, err := propertyKey(prop)
	if err != nil {
		return nil, err
	}
	return d.SendRead(ctx, protocol.ReadCommand(key))
}

// SendWrite queues a raw command and waits until it has been written.
func (d *Device) SendWrite(ctx context.Context, code string) error {
	future, err := d.send(code, false)
	if err != nil {
		return err
	}
	_, err = future.Wait(ctx)
	return err
}

// SendRead queues a raw command and waits for the next frame from the device.
func (d *Device) SendRead(ctx context.Context, code string) (*Response, error) {
	future, err := d.send(code, true)
	if err != nil {
		return nil, err
	}
	frame, err := future.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return &Response{Frame: *frame, Code: code}, nil
}

// Poll reads the device's current response directly rather than waiting for a notification. The
// read is queued behind earlier commands like any other. The returned Response has an empty Code
// and Unsolicited is false.
func (d *Device) Poll(ctx context.Context) (*Response, error) {
	log.Debug("Queueing direct read")
	frame, err := d.dispatcher.Enqueue(dispatcher.WorkItem{Poll: true}).Wait(ctx)
	if err != nil {
		return nil, err
	}
	return &Response{Frame: *frame}, nil
}

// Send queues a raw command without waiting for it. If code is empty the returned Future is
// already settled with an error wrapping protocol.ErrInvalidArgument.
func (d *Device) Send(code string, expectsResponse bool) *Future {
	future, err := d.send(code, expectsResponse)
	if err != nil {
		return dispatcher.Failed(code, err)
	}
	return future
}

func (d *Device) send(code string, expectsResponse bool) (*Future, error) {
	if code == "" {
		return nil, protocol.InvalidArgument("empty command")
	}
	for _, l := range d.snapshot() {
		l.OnSend(code)
	}
	log.Debug("Sending %s", code)
	return d.dispatcher.Enqueue(dispatcher.WorkItem{Command: []byte(code), ExpectsResponse: expectsResponse}), nil
}
