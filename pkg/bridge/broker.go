package bridge

import (
	"context"
	"sync"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"

	"github.com/dreamscreen/dreamscreen-ble/internal/log"
)

// Broker is an embedded MQTT broker. The bridge publishes and subscribes through the broker's
// inline client, so no network round trip is involved.
type Broker struct {
	server *mochi.Server

	lock           sync.Mutex
	subscriptionID int
}

// NewBroker creates a broker. If address is not empty, the broker also accepts TCP clients on it.
func NewBroker(address string) (*Broker, error) {
	server := mochi.New(&mochi.Options{
		InlineClient: true,
	})

	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, err
	}

	if address != "" {
		tcp := listeners.NewTCP(listeners.Config{ID: "tcp", Address: address})
		if err := server.AddListener(tcp); err != nil {
			return nil, err
		}
	}

	return &Broker{server: server, subscriptionID: 1}, nil
}

// Start begins accepting clients.
func (b *Broker) Start() error {
	log.Info("Starting embedded MQTT broker")
	return b.server.Serve()
}

func (b *Broker) Publish(_ context.Context, topic string, payload []byte, retain bool) error {
	return b.server.Publish(topic, payload, retain, 0)
}

// Subscribe invokes handler for every message published on topics matching filter.
func (b *Broker) Subscribe(filter string, handler func(topic string, payload []byte)) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	err := b.server.Subscribe(filter, b.subscriptionID, func(_ *mochi.Client, _ packets.Subscription, pk packets.Packet) {
		handler(pk.TopicName, pk.Payload)
	})
	if err != nil {
		return err
	}
	b.subscriptionID++
	return nil
}

func (b *Broker) Close() error {
	return b.server.Close()
}
