// Package tinygo implements the ble interfaces on top of tinygo.org/x/bluetooth (BlueZ over D-Bus
// on Linux, CoreBluetooth on macOS, WinRT on Windows).
package tinygo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

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
	if err = device.Enable(); err != nil {
		return nil, fmt.Errorf("ble: failed to enable device: %w", err)
	}

	a := &adapter{
		device:    device,
		connected: make(map[string]*device),
	}
	device.SetConnectHandler(a.onConnectionEvent)
	return a, nil
}

type adapter struct {
	device *bluetooth.Adapter

	lock      sync.Mutex
	connected map[string]*device
}

func (s *adapter) ScanBeacon(ctx context.Context, filter ble.ScanFilter) (*ble.Beacon, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var serviceUUID bluetooth.UUID
	if filter.LocalName == "" {
		var err error
		if serviceUUID, err = bluetooth.ParseUUID(filter.ServiceUUID); err != nil {
			return nil, fmt.Errorf("ble: invalid service UUID %q: %w", filter.ServiceUUID, err)
		}
	}
	matches := func(result bluetooth.ScanResult) bool {
		if filter.LocalName != "" {
			return result.LocalName() == filter.LocalName
		}
		return result.HasServiceUUID(serviceUUID)
	}

	var scanLock sync.Mutex
	scanIsStopped := false
	stopScan := func() {
		scanLock.Lock()
		defer scanLock.Unlock()
		if scanIsStopped {
			return
		}
		scanIsStopped = true
		if err := s.device.StopScan(); err != nil && !strings.Contains(err.Error(), "no scan in progress") {
			log.Warning("ble: failed to stop scan: %s", err)
		}
	}

	errorCh := make(chan error, 1)
	foundCh := make(chan *ble.Beacon, 1)

	// Scan must return before the next one can start, and StopScan alone does not guarantee that.
	scanFinished := make(chan struct{})
	defer func() {
		<-scanFinished
	}()

	go func() {
		defer close(scanFinished)
		err := s.device.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !matches(result) {
				return
			}
			select {
			case foundCh <- advertisementToBeacon(result):
			default:
			}
			stopScan()
		})
		if err != nil {
			errorCh <- err
		}
	}()

	select {
	case result := <-foundCh:
		return result, nil
	case err := <-errorCh:
		// A failed scan may still be running.
		stopScan()
		return nil, err
	case <-ctx.Done():
		stopScan()
		return nil, ctx.Err()
	}
}

func (s *adapter) Connect(ctx context.Context, beacon *ble.Beacon) (ble.Device, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	addr, err := parseAddress(beacon.Address)
	if err != nil {
		return nil, err
	}

	// Connect does not take a context, so it runs in the background. If ctx expires first, the
	// peripheral is disconnected as soon as Connect returns.
	resultCh := make(chan connectResult, 1)
	go func() {
		params := bluetooth.ConnectionParams{}
		if deadline, ok := ctx.Deadline(); ok {
			params.ConnectionTimeout = bluetooth.NewDuration(time.Until(deadline))
		}
		client, err := s.device.Connect(addr, params)
		resultCh <- connectResult{client: client, err: err}
	}()

	select {
	case result := <-resultCh:
		if result.err != nil {
			return nil, result.err
		}
		d := newDevice(result.client)
		s.lock.Lock()
		s.connected[beacon.Address] = d
		s.lock.Unlock()
		return d, nil
	case <-ctx.Done():
		go abandonConnection(resultCh, disconnect)
		return nil, ctx.Err()
	}
}

type connectResult struct {
	client bluetooth.Device
	err    error
}

func disconnect(client bluetooth.Device) error {
	return client.Disconnect()
}

// abandonConnection disconnects a peripheral whose connection completed after the caller gave up.
func abandonConnection(resultCh <-chan connectResult, disconnect func(bluetooth.Device) error) {
	result := <-resultCh
	if result.err != nil {
		return
	}
	if err := disconnect(result.client); err != nil {
		log.Warning("ble: failed to disconnect: %s", err)
	}
}

func (s *adapter) onConnectionEvent(client bluetooth.Device, connected bool) {
	if connected {
		return
	}
	address := client.Address.String()
	s.lock.Lock()
	d, ok := s.connected[address]
	delete(s.connected, address)
	s.lock.Unlock()
	if ok {
		log.Debug("Peripheral %s disconnected", address)
		d.markDisconnected()
	}
}

func (s *adapter) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.connected = make(map[string]*device)
	return nil
}

func advertisementToBeacon(result bluetooth.ScanResult) *ble.Beacon {
	return &ble.Beacon{
		Address:     result.Address.String(),
		LocalName:   result.LocalName(),
		RSSI:        result.RSSI,
		Connectable: true,
	}
}

func mustParseUUID(uuid string) bluetooth.UUID {
	uuidParsed, err := bluetooth.ParseUUID(uuid)
	if err != nil {
		panic(err)
	}
	return uuidParsed
}
