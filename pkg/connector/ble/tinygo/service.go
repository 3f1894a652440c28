package tinygo

import (
	"fmt"

	"tinygo.org/x/bluetooth"

	"github.com/dreamscreen/dreamscreen-ble/pkg/connector/ble"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

type service struct {
	service bluetooth.DeviceService
}

func (s *service) Characteristic(uuid string) (ble.Characteristic, error) {
	characteristics, err := s.service.DiscoverCharacteristics([]bluetooth.UUID{mustParseUUID(uuid)})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", protocol.ErrCharacteristicNotFound, uuid, err)
	}
	if len(characteristics) == 0 {
		return nil, fmt.Errorf("%w: %s", protocol.ErrCharacteristicNotFound, uuid)
	}

	return &characteristic{characteristic: characteristics[0]}, nil
}
