package protocol

import (
	"fmt"
	"strings"
)

const (
	commandPrefix = '#'
	opWrite       = 'w'
	opRead        = 'g'
)

// WriteCommand builds the ASCII command that sets the property identified by key to value.
// The value is appended verbatim.
//
//	WriteCommand('B', "1") // "#Bw1"
func WriteCommand(key byte, value string) string {
	var b strings.Builder
	b.Grow(3 + len(value))
	b.WriteByte(commandPrefix)
	b.WriteByte(key)
	b.WriteByte(opWrite)
	b.WriteString(value)
	return b.String()
}

// ReadCommand builds the ASCII command that asks the device to report the property identified by
// key.
//
//	ReadCommand('B') // "#Bg"
func ReadCommand(key byte) string {
	return string([]byte{commandPrefix, key, opRead})
}

// EncodeBrightness clamps value to [lower, upper] and encodes it as a zero-padded, 3-digit decimal.
func EncodeBrightness(value, lower, upper int) string {
	value = max(lower, min(upper, value))
	return fmt.Sprintf("%03d", value)
}
