package goble

import (
	"fmt"

	goble "github.com/go-ble/ble"
)

type characteristic struct {
	characteristic *goble.Characteristic
	client         goble.Client
}

func (c *characteristic) Write(bytes []byte) (int, error) {
	noRsp := c.characteristic.Property&goble.CharWriteNR != 0
	if err := c.client.WriteCharacteristic(c.characteristic, bytes, noRsp); err != nil {
		return 0, err
	}

	return len(bytes), nil
}

func (c *characteristic) MTU(rxMTU int) (txMTU int, err error) {
	return c.client.ExchangeMTU(rxMTU)
}

func (c *characteristic) Subscribe(callback func(buf []byte)) error {
	indicate := c.characteristic.Property&goble.CharNotify == 0
	if err := c.client.Subscribe(c.characteristic, indicate, callback); err != nil {
		return fmt.Errorf("ble: failed to subscribe: %w", err)
	}
	return nil
}

func (c *characteristic) Read() ([]byte, error) {
	return c.client.ReadCharacteristic(c.characteristic)
}
