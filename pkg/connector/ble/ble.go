package ble

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dreamscreen/dreamscreen-ble/internal/log"
	"github.com/dreamscreen/dreamscreen-ble/pkg/connector"
)

var ErrBeaconNotConnectable = errors.New("ble: beacon is not connectable")

const (
	defaultMTU    = 23
	maxBLEMTUSize = 512 + 3
)

const (
	ServiceUUID        = "0000ff60-0000-1000-8000-00805f9b34fb"
	CommandCharUUID    = "0000ff61-0000-1000-8000-00805f9b34fb"
	ResponseCharUUID   = "0000ff62-0000-1000-8000-00805f9b34fb"
	DeviceNameCharUUID = "0000ff63-0000-1000-8000-00805f9b34fb"

	DefaultLocalName = "DreamScreen"
)

// Connection is a connector.Connector backed by the DreamScreen GATT service.
type Connection struct {
	beacon   *Beacon
	device   Device
	command  Characteristic
	response Characteristic

	blockLength int

	// lock serializes writes to the command characteristic.
	lock sync.Mutex

	inbox     chan connector.Datagram
	inboxLock sync.Mutex
	inboxOpen bool

	subscribeLock sync.Mutex
	subscribed    bool

	closeOnce sync.Once
	done      chan struct{}
}

var _ connector.Reader = (*Connection)(nil)

// Filter returns the ScanFilter that matches a DreamScreen. An empty localName matches any
// peripheral advertising the DreamScreen service.
func Filter(discoverByName bool, localName string) ScanFilter {
	if !discoverByName {
		return ScanFilter{ServiceUUID: ServiceUUID}
	}
	if localName == "" {
		localName = DefaultLocalName
	}
	return ScanFilter{LocalName: localName}
}

// NewConnection scans for the first peripheral matching filter and connects to it.
func NewConnection(ctx context.Context, filter ScanFilter, adapter Adapter) (*Connection, error) {
	log.Debug("Scanning for %s...", filter)
	beacon, err := adapter.ScanBeacon(ctx, filter)
	if err != nil {
		return nil, err
	}
	return NewConnectionFromBeacon(ctx, beacon, adapter)
}

// NewConnectionFromBeacon connects to beacon and discovers the DreamScreen service. On failure
// the peripheral is disconnected before the error is returned.
func NewConnectionFromBeacon(ctx context.Context, beacon *Beacon, adapter Adapter) (*Connection, error) {
	if !beacon.Connectable {
		return nil, ErrBeaconNotConnectable
	}

	log.Debug("Connecting to %s (%s)...", beacon.Address, beacon.LocalName)
	device, err := adapter.Connect(ctx, beacon)
	if err != nil {
		return nil, fmt.Errorf("ble: failed to connect to %s: %w", beacon.Address, err)
	}

	conn, err := tryToConnect(ctx, beacon, device)
	if err != nil {
		if closeErr := device.Close(); closeErr != nil {
			log.Warning("ble: failed to close device: %s", closeErr)
		}
		return nil, err
	}

	go conn.watch()
	log.Info("Connected to %s", beacon.Address)
	return conn, nil
}

func tryToConnect(ctx context.Context, beacon *Beacon, device Device) (*Connection, error) {
	service, err := device.Service(ctx, ServiceUUID)
	if err != nil {
		return nil, err
	}

	command, err := service.Characteristic(CommandCharUUID)
	if err != nil {
		return nil, err
	}

	response, err := service.Characteristic(ResponseCharUUID)
	if err != nil {
		return nil, err
	}

	txMtu, err := command.MTU(maxBLEMTUSize)
	if err != nil {
		log.Debug("Failed to get TX MTU (using %d): %s", defaultMTU, err)
		txMtu = defaultMTU
	}

	return &Connection{
		beacon:   beacon,
		device:   device,
		command:  command,
		response: response,

		blockLength: txMtu - 3,

		inbox:     make(chan connector.Datagram, connector.BufferSize),
		inboxOpen: true,
		done:      make(chan struct{}),
	}, nil
}

// Beacon returns the advertisement the connection was established from.
func (c *Connection) Beacon() *Beacon {
	return c.beacon
}

// Subscribe enables notifications on the response characteristic. Subsequent calls return nil
// without resubscribing.
func (c *Connection) Subscribe(ctx context.Context) error {
	c.subscribeLock.Lock()
	defer c.subscribeLock.Unlock()
	if c.subscribed {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.response.Subscribe(func(p []byte) { c.rx(p, true) }); err != nil {
		return fmt.Errorf("ble: failed to subscribe to responses: %w", err)
	}
	c.subscribed = true
	log.Debug("Subscribed to responses")
	return nil
}

func (c *Connection) Receive() <-chan connector.Datagram {
	return c.inbox
}

// Send writes buffer to the command characteristic in a single write. Commands carry no length
// header, so a buffer that exceeds the negotiated MTU is rejected rather than split.
func (c *Connection) Send(ctx context.Context, buffer []byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(buffer) > c.blockLength {
		return fmt.Errorf("ble: command of %d bytes exceeds block length %d", len(buffer), c.blockLength)
	}

	n, err := c.command.Write(buffer)
	if err != nil {
		return err
	} else if n != len(buffer) {
		return fmt.Errorf("ble: failed to write %d bytes", len(buffer))
	}
	return nil
}

// Read performs an explicit read of the response characteristic. The value is delivered on the
// Receive channel like any other datagram, flagged as not being a notification.
func (c *Connection) Read() error {
	data, err := c.response.Read()
	if err != nil {
		return fmt.Errorf("ble: failed to read response: %w", err)
	}
	c.rx(data, false)
	return nil
}

func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.device.Close(); err != nil {
			log.Warning("ble: failed to close device: %s", err)
		}
		c.closeInbox()
	})
}

func (c *Connection) watch() {
	select {
	case <-c.device.Disconnected():
		log.Info("Lost connection to %s", c.beacon.Address)
		c.closeInbox()
	case <-c.done:
	}
}

func (c *Connection) closeInbox() {
	c.inboxLock.Lock()
	defer c.inboxLock.Unlock()
	if c.inboxOpen {
		c.inboxOpen = false
		close(c.inbox)
	}
}

func (c *Connection) rx(p []byte, notification bool) {
	// Backends may reuse the notification buffer.
	data := append([]byte(nil), p...)
	log.Debug("RX: %q", data)

	c.inboxLock.Lock()
	defer c.inboxLock.Unlock()
	if !c.inboxOpen {
		return
	}
	select {
	case c.inbox <- connector.Datagram{Data: data, Notification: notification}:
	default:
		log.Warning("ble: inbox full, dropped %q", data)
	}
}
