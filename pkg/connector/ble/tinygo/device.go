package tinygo

import (
	"context"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/dreamscreen/dreamscreen-ble/pkg/connector/ble"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

type device struct {
	client bluetooth.Device

	once         sync.Once
	disconnected chan struct{}
}

func newDevice(client bluetooth.Device) *device {
	return &device{client: client, disconnected: make(chan struct{})}
}

func (c *device) Service(_ context.Context, uuid string) (ble.Service, error) {
	services, err := c.client.DiscoverServices([]bluetooth.UUID{mustParseUUID(uuid)})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", protocol.ErrServiceNotFound, err)
	}
	if len(services) == 0 {
		return nil, protocol.ErrServiceNotFound
	}

	return &service{service: services[0]}, nil
}

func (c *device) Disconnected() <-chan struct{} {
	return c.disconnected
}

func (c *device) markDisconnected() {
	c.once.Do(func() { close(c.disconnected) })
}

func (c *device) Close() error {
	defer c.markDisconnected()
	return c.client.Disconnect()
}
