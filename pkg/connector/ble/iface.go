package ble

import (
	"context"
	"io"
)

type Beacon struct {
	Address     string
	LocalName   string
	RSSI        int16
	Connectable bool
}

// ScanFilter selects the advertisement to connect to. If LocalName is set, only the local name is
// compared; otherwise the advertisement must list ServiceUUID.
type ScanFilter struct {
	LocalName   string
	ServiceUUID string
}

func (f ScanFilter) String() string {
	if f.LocalName != "" {
		return "name " + f.LocalName
	}
	return "service " + f.ServiceUUID
}

type Adapter interface {
	ScanBeacon(ctx context.Context, filter ScanFilter) (*Beacon, error)
	Connect(ctx context.Context, beacon *Beacon) (Device, error)
	Close() error
}

type Device interface {
	// Service returns an error wrapping protocol.ErrServiceNotFound if the peripheral does not
	// expose uuid.
	Service(ctx context.Context, uuid string) (Service, error)
	// Disconnected returns a channel that is closed when the link drops.
	Disconnected() <-chan struct{}
	Close() error
}

type Service interface {
	// Characteristic returns an error wrapping protocol.ErrCharacteristicNotFound if the service
	// does not expose uuid.
	Characteristic(uuid string) (Characteristic, error)
}

type Characteristic interface {
	io.Writer
	MTU(rxMTU int) (txMTU int, err error)
	// Subscribe enables notifications and returns once the peripheral has accepted the
	// subscription.
	Subscribe(callback func(buf []byte)) error
	Read() ([]byte, error)
}
