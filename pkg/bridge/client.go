package bridge

import (
	"context"
	"fmt"
	"net/url"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/dreamscreen/dreamscreen-ble/internal/log"
)

const keepAlive = 20

// Client is a connection to an external MQTT broker. It reconnects automatically until closed.
type Client struct {
	cm *autopaho.ConnectionManager
}

// Dial connects to the broker at brokerURL and subscribes to filter, passing matching messages to
// handler. Subscriptions are re-established after every reconnect.
func Dial(ctx context.Context, brokerURL, clientID, filter string, handler func(topic string, payload []byte)) (*Client, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MQTT broker url: %w", err)
	}

	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{u},
		KeepAlive:                     keepAlive,
		CleanStartOnInitialConnection: true,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			log.Info("MQTT connection up")
			if _, err := cm.Subscribe(context.Background(), &paho.Subscribe{
				Subscriptions: []paho.SubscribeOptions{
					{Topic: filter, QoS: 1},
				},
			}); err != nil {
				log.Warning("Failed to subscribe to %s: %s", filter, err)
			}
		},
		OnConnectError: func(err error) {
			log.Warning("MQTT connection attempt failed: %s", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: clientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					handler(pr.Packet.Topic, pr.Packet.Payload)
					return true, nil
				},
			},
			OnClientError: func(err error) {
				log.Warning("MQTT client error: %s", err)
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				if d.Properties != nil {
					log.Warning("MQTT server requested disconnect: %s", d.Properties.ReasonString)
				} else {
					log.Warning("MQTT server requested disconnect; reason code: %d", d.ReasonCode)
				}
			},
		},
	}

	cm, err := autopaho.NewConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := cm.AwaitConnection(ctx); err != nil {
		return nil, err
	}
	return &Client{cm: cm}, nil
}

// Publish queues a message for delivery at QoS 1 without waiting for the broker's acknowledgement.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	return c.cm.PublishViaQueue(ctx, &autopaho.QueuePublish{
		Publish: &paho.Publish{
			QoS:     1,
			Topic:   topic,
			Payload: payload,
			Retain:  retain,
		},
	})
}

func (c *Client) Close(ctx context.Context) error {
	return c.cm.Disconnect(ctx)
}
