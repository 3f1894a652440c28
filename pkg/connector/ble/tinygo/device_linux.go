package tinygo

import (
	"fmt"
	"strings"

	"tinygo.org/x/bluetooth"
)

func IsAdapterError(err error) bool {
	// D-Bus not found
	if strings.Contains(err.Error(), "dbus") && strings.HasSuffix(err.Error(), "no such file or directory") {
		return true
	}
	// D-Bus is running but org.bluez is not found
	if strings.Contains(err.Error(), "The name org.bluez was not provided by any .service files") {
		return true
	}
	return false
}

// AdapterErrorHelpMessage explains how to make BlueZ reachable. The go-ble backend talks to the
// HCI socket directly and is offered as an alternative.
func AdapterErrorHelpMessage(err error) string {
	return "Failed to open the Bluetooth adapter used to reach the DreamScreen (tinygo backend, BlueZ over D-Bus):\n\t" + err.Error() + "\n" +
		"Start bluetoothd and the system D-Bus, e.g. `sudo systemctl start bluetooth`.\n" +
		"In a container, mount the host's D-Bus socket (-v /var/run/dbus:/var/run/dbus).\n" +
		"Without BlueZ, retry with -ble-backend goble (needs CAP_NET_ADMIN)."
}

func newAdapter(id string) (*bluetooth.Adapter, error) {
	if id != "" {
		return bluetooth.NewAdapter(id), nil
	}

	return bluetooth.DefaultAdapter, nil
}

var (
	deviceCharacteristicWrite = bluetooth.DeviceCharacteristic.WriteWithoutResponse
)

func parseAddress(address string) (bluetooth.Address, error) {
	mac, err := bluetooth.ParseMAC(address)
	if err != nil {
		return bluetooth.Address{}, fmt.Errorf("ble: failed to parse MAC address: %w", err)
	}

	return bluetooth.Address{
		MACAddress: bluetooth.MACAddress{
			MAC: mac,
		},
	}, nil
}
