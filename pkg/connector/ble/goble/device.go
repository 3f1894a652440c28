package goble

import (
	"context"
	"errors"
	"fmt"

	goble "github.com/go-ble/ble"

	"github.com/dreamscreen/dreamscreen-ble/pkg/connector/ble"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

type device struct {
	client goble.Client
}

func (c *device) Service(_ context.Context, uuid string) (ble.Service, error) {
	services, err := c.client.DiscoverServices([]goble.UUID{goble.MustParse(uuid)})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", protocol.ErrServiceNotFound, err)
	}
	if len(services) == 0 {
		return nil, protocol.ErrServiceNotFound
	}

	return &service{client: c.client, service: services[0]}, nil
}

func (c *device) Disconnected() <-chan struct{} {
	return c.client.Disconnected()
}

func (c *device) Close() error {
	err1 := c.client.ClearSubscriptions()
	err2 := c.client.CancelConnection()

	return errors.Join(err1, err2)
}
