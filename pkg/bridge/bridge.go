// Package bridge mirrors DreamScreen activity onto MQTT topics and accepts control commands from
// them.
//
// Events are published under the configured prefix:
//
//	<prefix>/send        {"code":"#Bw1"}
//	<prefix>/read        {"data":"#Bg1","unsolicited":true}
//	<prefix>/disconnect  {}
//
// Commands are accepted on:
//
//	<prefix>/set/mode        video
//	<prefix>/set/brightness  75
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dreamscreen/dreamscreen-ble/internal/log"
	"github.com/dreamscreen/dreamscreen-ble/pkg/dreamscreen"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

const (
	commandBufferSize = 16
	publishTimeout    = 5 * time.Second
)

// Publisher delivers messages to an MQTT broker. Publish must not wait for the broker to
// acknowledge the message.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, retain bool) error
}

type SendEvent struct {
	Code string `json:"code"`
}

type ReadEvent struct {
	Data        string `json:"data"`
	Unsolicited bool   `json:"unsolicited"`
}

type DisconnectEvent struct{}

type command struct {
	topic   string
	payload []byte
}

// Bridge implements dreamscreen.Listener.
type Bridge struct {
	prefix     string
	publisher  Publisher
	controller dreamscreen.Controller
	commands   chan command
}

var _ dreamscreen.Listener = (*Bridge)(nil)

func New(prefix string, publisher Publisher, controller dreamscreen.Controller) *Bridge {
	return &Bridge{
		prefix:     strings.TrimSuffix(prefix, "/"),
		publisher:  publisher,
		controller: controller,
		commands:   make(chan command, commandBufferSize),
	}
}

// Topic returns the full topic name for suffix.
func (b *Bridge) Topic(suffix string) string {
	return b.prefix + "/" + suffix
}

// CommandFilter returns the topic filter matching every command topic.
func (b *Bridge) CommandFilter() string {
	return b.Topic("set/+")
}

func (b *Bridge) OnSend(code string) {
	b.publish("send", SendEvent{Code: code}, false)
}

func (b *Bridge) OnRead(frame protocol.Frame) {
	b.publish("read", ReadEvent{Data: frame.Data, Unsolicited: frame.Unsolicited}, false)
}

func (b *Bridge) OnDisconnect() {
	b.publish("disconnect", DisconnectEvent{}, true)
}

func (b *Bridge) publish(suffix string, event interface{}, retain bool) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error("Failed to encode %s event: %s", suffix, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.publisher.Publish(ctx, b.Topic(suffix), payload, retain); err != nil {
		log.Warning("Failed to publish %s event: %s", suffix, err)
	}
}

// Submit queues a message received on a command topic. It never blocks; if the queue is full the
// message is dropped.
func (b *Bridge) Submit(topic string, payload []byte) {
	select {
	case b.commands <- command{topic: topic, payload: append([]byte(nil), payload...)}:
	default:
		log.Warning("Dropped MQTT command on %s: queue full", topic)
	}
}

// Run executes submitted commands in order until ctx is canceled.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case cmd := <-b.commands:
			if err := b.Handle(ctx, cmd.topic, cmd.payload); err != nil {
				log.Warning("MQTT command on %s failed: %s", cmd.topic, err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Handle executes the command carried by a message on a command topic.
func (b *Bridge) Handle(ctx context.Context, topic string, payload []byte) error {
	name, ok := strings.CutPrefix(topic, b.Topic("set/"))
	if !ok {
		return fmt.Errorf("not a command topic: %s", topic)
	}
	value := strings.TrimSpace(string(payload))
	log.Debug("MQTT command %s=%s", name, value)

	switch name {
	case dreamscreen.PropMode:
		return b.controller.SetMode(ctx, value)
	case dreamscreen.PropBrightness:
		n, err := strconv.Atoi(value)
		if err != nil {
			return protocol.InvalidArgument("brightness must be an integer: %q", value)
		}
		return b.controller.SetBrightness(ctx, n)
	default:
		return protocol.InvalidArgument("unknown command %q", name)
	}
}
