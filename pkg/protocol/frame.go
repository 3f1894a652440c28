package protocol

import "strings"

// FrameTerminator ends every response frame sent by the device.
const FrameTerminator = '\r'

// Frame is one delimiter-stripped response from the device.
type Frame struct {
	Data string
	// Unsolicited is true when the transport delivered the frame as a notification rather than
	// as the reply to a direct read. Frames carry no correlation id, so the flag is informational:
	// a pending request consumes the next frame either way.
	Unsolicited bool
}

// ParseFrame decodes a chunk received from the device. Each chunk is assumed to carry exactly one
// frame. Anything from the first FrameTerminator onward is discarded; partial frames are not
// buffered across chunks.
func ParseFrame(chunk []byte, notification bool) Frame {
	data := string(chunk)
	if i := strings.IndexByte(data, FrameTerminator); i >= 0 {
		data = data[:i]
	}
	return Frame{Data: data, Unsolicited: notification}
}
