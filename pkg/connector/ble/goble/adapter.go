// Package goble implements the ble interfaces on top of github.com/go-ble/ble, which talks to the
// controller over a raw HCI socket. It is only supported on Linux.
package goble

import (
	"context"
	"errors"
	"fmt"

	goble "github.com/go-ble/ble"

	"github.com/dreamscreen/dreamscreen-ble/internal/log"
	"github.com/dreamscreen/dreamscreen-ble/pkg/connector/ble"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

var ErrAdapterInvalidID = protocol.NewError("the bluetooth adapter ID is invalid", false, false)

func NewAdapter(id string) (ble.Adapter, error) {
	device, err := newAdapter(id)
	if err != nil {
		return nil, fmt.Errorf("ble: failed to create device: %w", err)
	}

	return &adapter{
		device: device,
	}, nil
}

type adapter struct {
	device goble.Device
}

func (s *adapter) ScanBeacon(ctx context.Context, filter ble.ScanFilter) (*ble.Beacon, error) {
	var serviceUUID goble.UUID
	if filter.LocalName == "" {
		var err error
		if serviceUUID, err = goble.Parse(filter.ServiceUUID); err != nil {
			return nil, fmt.Errorf("ble: invalid service UUID %q: %w", filter.ServiceUUID, err)
		}
	}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan goble.Advertisement, 1)
	fn := func(a goble.Advertisement) {
		if !matches(filter, serviceUUID, a) {
			return
		}
		select {
		case ch <- a:
			cancel()
		case <-scanCtx.Done():
		}
	}

	// Scan only returns once scanCtx is done, so a match is reported as context.Canceled.
	if err := s.device.Scan(scanCtx, false, fn); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	select {
	case a := <-ch:
		return advertisementToBeacon(a), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *adapter) Connect(ctx context.Context, beacon *ble.Beacon) (ble.Device, error) {
	client, err := s.device.Dial(ctx, goble.NewAddr(beacon.Address))
	if err != nil {
		return nil, err
	}

	return &device{client: client}, nil
}

func (s *adapter) Close() error {
	if s.device == nil {
		return nil
	}

	device := s.device
	s.device = nil
	if err := device.Stop(); err != nil {
		return fmt.Errorf("ble: failed to stop device: %w", err)
	}
	log.Debug("Closed BLE adapter")
	return nil
}

func matches(filter ble.ScanFilter, serviceUUID goble.UUID, a goble.Advertisement) bool {
	if filter.LocalName != "" {
		return a.LocalName() == filter.LocalName
	}
	for _, uuid := range a.Services() {
		if uuid.Equal(serviceUUID) {
			return true
		}
	}
	return false
}

func advertisementToBeacon(a goble.Advertisement) *ble.Beacon {
	return &ble.Beacon{
		Address:     a.Addr().String(),
		LocalName:   a.LocalName(),
		RSSI:        int16(a.RSSI()),
		Connectable: a.Connectable(),
	}
}
