package goble

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	goble "github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/cmd"
)

const bleTimeout = 20 * time.Second

var scanParams = cmd.LESetScanParameters{
	LEScanType:           1,    // Active scanning
	LEScanInterval:       0x10, // 10ms
	LEScanWindow:         0x10, // 10ms
	OwnAddressType:       0,    // Static
	ScanningFilterPolicy: 0,    // Accept all
}

// newAdapter opens the HCI device named by id ("hci0", "0", or "" for the default).
func newAdapter(id string) (goble.Device, error) {
	opts := []goble.Option{
		goble.OptListenerTimeout(bleTimeout),
		goble.OptDialerTimeout(bleTimeout),
		goble.OptScanParams(scanParams),
	}
	if id != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(id, "hci"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrAdapterInvalidID, id)
		}
		opts = append(opts, goble.OptDeviceID(n))
	}
	device, err := linux.NewDevice(opts...)
	if err != nil {
		return nil, err
	}
	return device, nil
}
