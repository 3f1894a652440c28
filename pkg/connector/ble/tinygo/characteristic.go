package tinygo

import (
	"fmt"

	"tinygo.org/x/bluetooth"
)

const maxReadSize = 512

type characteristic struct {
	characteristic bluetooth.DeviceCharacteristic
}

func (c *characteristic) Write(bytes []byte) (int, error) {
	return deviceCharacteristicWrite(c.characteristic, bytes)
}

func (c *characteristic) MTU(_ int) (txMTU int, err error) {
	mtu, err := c.characteristic.GetMTU()
	return int(mtu), err
}

func (c *characteristic) Subscribe(callback func(buf []byte)) error {
	if err := c.characteristic.EnableNotifications(callback); err != nil {
		return fmt.Errorf("ble: failed to enable notifications: %w", err)
	}
	return nil
}

func (c *characteristic) Read() ([]byte, error) {
	buf := make([]byte, maxReadSize)
	n, err := c.characteristic.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
