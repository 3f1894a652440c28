// Package connector defines the transport contract between the command pipeline and a connected
// device.
package connector

import "context"

// BufferSize is the number of inbound datagrams a Connector should be able to queue.
const BufferSize = 5

// Datagram is one chunk of bytes delivered by the device.
type Datagram struct {
	Data []byte
	// Notification is true if the device pushed the chunk (GATT notification/indication), false if
	// it was returned by an explicit read.
	Notification bool
}

// Connector sends and receives raw datagrams ([]byte) to and from a device.
type Connector interface {
	// Subscribe enables delivery of device datagrams on the Receive channel. It returns once the
	// device has confirmed the subscription. Commands must not be sent before Subscribe returns.
	Subscribe(ctx context.Context) error

	// Receive returns a read-only channel used to receive datagrams sent by the device. The channel
	// is closed when the device disconnects or Close is called.
	//
	// Implementations must be thread safe.
	Receive() <-chan Datagram

	// Send writes a buffer to the device. It returns once the transport has accepted the write.
	//
	// Implementations must be thread safe.
	Send(ctx context.Context, buffer []byte) error

	// Close terminates the connection to the device.
	//
	// Repeated calls to Close() must be idempotent.
	Close()
}

// Reader is implemented by connectors that can fetch the device's current response on demand.
// Read delivers the value on the Receive channel with Notification set to false.
type Reader interface {
	Read() error
}
