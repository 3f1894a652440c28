package goble

import (
	"fmt"

	goble "github.com/go-ble/ble"

	"github.com/dreamscreen/dreamscreen-ble/pkg/connector/ble"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

type service struct {
	client  goble.Client
	service *goble.Service
}

func (s *service) Characteristic(uuidStr string) (ble.Characteristic, error) {
	uuid := goble.MustParse(uuidStr)
	characteristics, err := s.client.DiscoverCharacteristics([]goble.UUID{uuid}, s.service)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", protocol.ErrCharacteristicNotFound, uuidStr, err)
	}

	var found *goble.Characteristic
	for _, char := range characteristics {
		if char.UUID.Equal(uuid) {
			found = char
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", protocol.ErrCharacteristicNotFound, uuidStr)
	}

	if _, err := s.client.DiscoverDescriptors(nil, found); err != nil {
		return nil, fmt.Errorf("ble: couldn't fetch descriptors: %w", err)
	}

	return &characteristic{characteristic: found, client: s.client}, nil
}
