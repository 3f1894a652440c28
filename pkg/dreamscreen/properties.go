package dreamscreen

import (
	"sort"

	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

const (
	PropMode       = "mode"
	PropBrightness = "brightness"
)

const (
	MinBrightness = 0
	MaxBrightness = 100
)

// propertyKeys maps property names to the key character used on the wire.
var propertyKeys = map[string]byte{
	PropMode:       'B',
	PropBrightness: 'C',
}

// modes maps display mode names to their opcode.
var modes = map[string]string{
	"idle":          "0",
	"video":         "1",
	"music":         "2",
	"ambientStatic": "3",
	"identify":      "4",
	"ambientShow":   "5",
}

// Modes returns the names accepted by SetMode, sorted by opcode.
func Modes() []string {
	names := make([]string, 0, len(modes))
	for name := range modes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return modes[names[i]] < modes[names[j]]
	})
	return names
}

// Properties returns the property names accepted by WriteProp and ReadProp.
func Properties() []string {
	names := make([]string, 0, len(propertyKeys))
	for name := range propertyKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func propertyKey(prop string) (byte, error) {
	key, ok := propertyKeys[prop]
	if !ok {
		return 0, protocol.InvalidArgument("unknown property %q", prop)
	}
	return key, nil
}
