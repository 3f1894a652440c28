package tinygo

import (
	"fmt"

	"tinygo.org/x/bluetooth"
)

func IsAdapterError(_ error) bool {
	return false
}

func AdapterErrorHelpMessage(err error) string {
	return "Failed to open the Bluetooth adapter used to reach the DreamScreen (tinygo backend, CoreBluetooth):\n\t" + err.Error() + "\n" +
		"Turn Bluetooth on and allow this terminal under System Settings > Privacy & Security > Bluetooth."
}

func newAdapter(id string) (*bluetooth.Adapter, error) {
	if id != "" {
		return nil, ErrAdapterInvalidID
	}

	return bluetooth.DefaultAdapter, nil
}

var (
	deviceCharacteristicWrite = bluetooth.DeviceCharacteristic.WriteWithoutResponse
)

// CoreBluetooth identifies peripherals by UUID rather than MAC address.
func parseAddress(address string) (bluetooth.Address, error) {
	uuid, err := bluetooth.ParseUUID(address)
	if err != nil {
		return bluetooth.Address{}, fmt.Errorf("ble: failed to parse peripheral UUID: %w", err)
	}

	return bluetooth.Address{
		UUID: uuid,
	}, nil
}
