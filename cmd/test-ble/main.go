package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/dreamscreen/dreamscreen-ble/internal/log"
	"github.com/dreamscreen/dreamscreen-ble/pkg/cli"
)

var testScan = flag.Bool("testScan", false, "Also scan for a DreamScreen")

func main() {
	config := cli.NewConfig(cli.FlagBLE)
	config.RegisterCommandLineFlags()
	flag.Parse()
	config.ReadFromEnvironment()
	log.SetLevel(log.LevelDebug)

	if config.BtAdapterID != "" {
		log.Info("Trying to use BLE adapter: %s", config.BtAdapterID)
	} else {
		log.Info("Using first available BLE device")
	}

	adapter, err := config.Adapter()
	if err != nil {
		log.Error("Failed to initialize BLE device: %v", err)
		if help, ok := config.AdapterErrorHelpMessage(err); ok {
			log.Error("%s", help)
		}
		return
	}
	defer config.Close()

	log.Info("BLE adapter initialized (%s backend)", config.BLEBackend.String())

	if !*testScan {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	doneChan := make(chan struct{})
	go func() {
		defer close(doneChan)
		beacon, err := adapter.ScanBeacon(ctx, config.ScanFilter())
		if err != nil {
			if ctx.Err() == nil {
				log.Error("Scan failed: %v", err)
			}
			return
		}
		log.Info("Found %s (%s), RSSI %d dBm", beacon.LocalName, beacon.Address, beacon.RSSI)
	}()
	log.Info("Scanning for %s until found or interrupted", config.ScanFilter())

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	select {
	case <-signalChan:
		log.Info("Stopping scan")
		cancel()
	case <-doneChan:
	}
	<-doneChan
}
