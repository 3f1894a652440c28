package dreamscreen

import "github.com/dreamscreen/dreamscreen-ble/pkg/protocol"

// Listener observes a Device. OnSend runs on the caller's goroutine. OnRead and OnDisconnect run
// on the goroutine that receives frames from the device and must not block on Device operations.
type Listener interface {
	// OnSend is invoked with each command as it is queued, before it is written.
	OnSend(code string)
	// OnRead is invoked with every frame received from the device, solicited or not.
	OnRead(frame protocol.Frame)
	// OnDisconnect is invoked once when the link to the device drops.
	OnDisconnect()
}

// ListenerFuncs adapts a set of functions to the Listener interface. Nil fields are ignored.
type ListenerFuncs struct {
	Send       func(code string)
	Read       func(frame protocol.Frame)
	Disconnect func()
}

func (l ListenerFuncs) OnSend(code string) {
	if l.Send != nil {
		l.Send(code)
	}
}

func (l ListenerFuncs) OnRead(frame protocol.Frame) {
	if l.Read != nil {
		l.Read(frame)
	}
}

func (l ListenerFuncs) OnDisconnect() {
	if l.Disconnect != nil {
		l.Disconnect()
	}
}
