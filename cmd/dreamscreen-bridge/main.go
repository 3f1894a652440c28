package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dreamscreen/dreamscreen-ble/internal/log"
	"github.com/dreamscreen/dreamscreen-ble/pkg/bridge"
	"github.com/dreamscreen/dreamscreen-ble/pkg/cli"
	"github.com/dreamscreen/dreamscreen-ble/pkg/dreamscreen"
	"github.com/dreamscreen/dreamscreen-ble/pkg/server"
)

const embeddedBroker = "embedded"

const nonLocalhostWarning = `
Do not listen on a network interface without adding client authentication. Any client that can
reach the server can control the DreamScreen.`

func Usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [OPTION...]\n", os.Args[0])
	fmt.Fprintf(out, "\nConnects to a DreamScreen and exposes it over a REST API and, optionally, MQTT.")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, nonLocalhostWarning)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	flag.PrintDefaults()
}

type mqttPublisher interface {
	bridge.Publisher
	close()
}

type publisherRef struct{ bridge.Publisher }

type embedded struct{ *bridge.Broker }

func (e embedded) close() {
	if err := e.Close(); err != nil {
		log.Warning("Failed to stop MQTT broker: %s", err)
	}
}

type remote struct{ *bridge.Client }

func (r remote) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		log.Warning("Failed to disconnect from MQTT broker: %s", err)
	}
}

// startMQTT connects b to the configured broker. Incoming commands are passed to b.Submit.
func startMQTT(ctx context.Context, config *cli.Config, brokerAddr string, b *bridge.Bridge) (mqttPublisher, error) {
	if config.MQTTURL == embeddedBroker {
		broker, err := bridge.NewBroker(brokerAddr)
		if err != nil {
			return nil, err
		}
		if err := broker.Subscribe(b.CommandFilter(), b.Submit); err != nil {
			return nil, err
		}
		if err := broker.Start(); err != nil {
			return nil, err
		}
		return embedded{broker}, nil
	}

	client, err := bridge.Dial(ctx, config.MQTTURL, config.MQTTClientID, b.CommandFilter(), b.Submit)
	if err != nil {
		return nil, err
	}
	return remote{client}, nil
}

func main() {
	var (
		err         error
		connTimeout time.Duration
		brokerAddr  string
	)
	defer func() {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	}()

	config := cli.NewConfig(cli.FlagAll)
	flag.Usage = Usage
	flag.DurationVar(&connTimeout, "connect-timeout", 20*time.Second, "Set timeout for establishing initial connection.")
	flag.StringVar(&brokerAddr, "broker-addr", "localhost:1883", "TCP `address` of the embedded MQTT broker. Leave empty to disable TCP clients.")
	config.RegisterCommandLineFlags()
	flag.Parse()
	config.ReadFromEnvironment()

	if config.Verbose {
		log.SetLevel(log.LevelDebug)
	}
	if !strings.HasPrefix(config.HTTPAddr, "localhost:") {
		fmt.Fprintln(os.Stderr, nonLocalhostWarning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, connTimeout)
	defer cancel()

	defer config.Close()
	var device *dreamscreen.Device
	device, err = config.Connect(connectCtx)
	if err != nil {
		if help, ok := config.AdapterErrorHelpMessage(err); ok {
			fmt.Fprintln(os.Stderr, help)
		}
		return
	}
	defer device.Disconnect()

	// Exit when the link drops; a supervisor is expected to restart the bridge.
	device.AddListener(dreamscreen.ListenerFuncs{
		Disconnect: func() {
			log.Error("Lost connection to DreamScreen")
			stop()
		},
	})

	if config.MQTTURL != "" {
		// Commands may arrive as soon as the subscription is up, so the bridge exists before the
		// publisher does. Events only flow once the bridge is registered as a listener below.
		ref := &publisherRef{}
		b := bridge.New(config.MQTTTopic, ref, device)
		var publisher mqttPublisher
		if publisher, err = startMQTT(ctx, config, brokerAddr, b); err != nil {
			return
		}
		defer publisher.close()
		ref.Publisher = publisher
		device.AddListener(b)
		go b.Run(ctx)
	}

	if err = server.New(device).ListenAndServe(ctx, config.HTTPAddr); err != nil {
		return
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		log.Info("Shutting down")
	}
}
