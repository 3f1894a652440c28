//go:build !linux

package goble

import (
	"errors"

	goble "github.com/go-ble/ble"
)

func newAdapter(_ string) (goble.Device, error) {
	return nil, errors.New("the go-ble backend is only supported on Linux")
}
