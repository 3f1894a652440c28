/*
Package cli facilitates building command-line applications that control a DreamScreen. It defines a
[Config] type that can be used to register common command-line flags (using the Golang flag package)
and environment variable equivalents.

# Examples

	config := NewConfig(FlagAll)
	config.RegisterCommandLineFlags() // Adds command-line flags for device discovery, MQTT, etc.
	flag.Parse()
	config.ReadFromEnvironment() // Fills in missing fields using environment variables

	// Scans for the device, connects, and waits until it accepts commands.
	device, err := config.Connect(ctx)
	if err != nil {
		panic(err)
	}
	defer config.Close()
	defer device.Disconnect()

Use a [Flag] mask to control which [Config] fields are populated. Note that config.Flags must be set
before calling [flag.Parse] or [Config.ReadFromEnvironment]:

	config = NewConfig(FlagBLE)            // Device discovery only.
	config = NewConfig(FlagBLE | FlagHTTP) // Device discovery and HTTP listener.
*/
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dreamscreen/dreamscreen-ble/internal/log"
	"github.com/dreamscreen/dreamscreen-ble/pkg/connector/ble"
	"github.com/dreamscreen/dreamscreen-ble/pkg/connector/ble/goble"
	"github.com/dreamscreen/dreamscreen-ble/pkg/connector/ble/tinygo"
	"github.com/dreamscreen/dreamscreen-ble/pkg/dreamscreen"
)

// Environment variable names used are used by [Config.ReadFromEnvironment] to set common parameters.
const (
	EnvName           = "DREAMSCREEN_NAME"
	EnvDiscoverByName = "DREAMSCREEN_DISCOVER_BY_NAME"
	EnvAdapter        = "DREAMSCREEN_ADAPTER"
	EnvBLEBackend     = "DREAMSCREEN_BLE_BACKEND"
	EnvVerbose        = "DREAMSCREEN_VERBOSE"
	EnvMQTTURL        = "DREAMSCREEN_MQTT_URL"
	EnvMQTTTopic      = "DREAMSCREEN_MQTT_TOPIC"
	EnvMQTTClientID   = "DREAMSCREEN_MQTT_CLIENT_ID"
	EnvHTTPAddr       = "DREAMSCREEN_HTTP_ADDR"
)

const (
	DefaultMQTTTopic = "dreamscreen"
	DefaultHTTPAddr  = "localhost:8080"
)

// Flag controls what options should be scanned from the command line and/or environment variables.
type Flag int

func (f Flag) isSet(other Flag) bool {
	return (f & other) == other
}

const (
	FlagBLE  Flag = 1 // Enable device discovery options.
	FlagMQTT Flag = 2 // Enable MQTT bridge options.
	FlagHTTP Flag = 4 // Enable HTTP server options.
	FlagAll  Flag = FlagBLE | FlagMQTT | FlagHTTP
)

// Backend selects the Bluetooth stack.
type Backend string

const (
	BackendTinyGo Backend = "tinygo" // BlueZ over D-Bus, CoreBluetooth, or WinRT.
	BackendGoBLE  Backend = "goble"  // Raw HCI socket. Linux only.
)

// Set updates a Backend from a command-line argument.
func (b *Backend) Set(value string) error {
	switch Backend(strings.ToLower(value)) {
	case BackendTinyGo:
		*b = BackendTinyGo
	case BackendGoBLE:
		*b = BackendGoBLE
	default:
		return fmt.Errorf("unknown BLE backend '%s'", value)
	}
	return nil
}

func (b *Backend) String() string {
	return string(*b)
}

// Config fields determine how a client finds the device and which outer surfaces it exposes.
type Config struct {
	Flags Flag // Controls which set of environment variables/CLI flags to use.

	LocalName      string // Advertised name to match when DiscoverByName is set.
	DiscoverByName bool   // Match on the advertised name instead of the service UUID.
	BtAdapterID    string
	BLEBackend     Backend
	Verbose        bool

	MQTTURL      string
	MQTTTopic    string
	MQTTClientID string

	HTTPAddr string

	adapter ble.Adapter
}

func NewConfig(flags Flag) *Config {
	return &Config{Flags: flags}
}

// RegisterCommandLineFlags registers c's options with the default flag set.
func (c *Config) RegisterCommandLineFlags() {
	c.RegisterFlags(flag.CommandLine)
}

func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable verbose logging. Defaults to $"+EnvVerbose+".")
	if c.Flags.isSet(FlagBLE) {
		fs.StringVar(&c.LocalName, "name", "", "Advertised `name` of the DreamScreen. Implies -by-name. Defaults to $"+EnvName+".")
		fs.BoolVar(&c.DiscoverByName, "by-name", false, "Discover the device by advertised name instead of service UUID. Defaults to $"+EnvDiscoverByName+".")
		fs.StringVar(&c.BtAdapterID, "bt-adapter", "", "ID of the Bluetooth adapter to use. Defaults to $"+EnvAdapter+".")
		fs.Var(&c.BLEBackend, "ble-backend", "Bluetooth `backend` ("+string(BackendTinyGo)+"|"+string(BackendGoBLE)+"). Defaults to $"+EnvBLEBackend+".")
	}
	if c.Flags.isSet(FlagMQTT) {
		fs.StringVar(&c.MQTTURL, "mqtt-url", "", "MQTT broker `url` (e.g. mqtt://localhost:1883). Use 'embedded' to run a broker in-process. Defaults to $"+EnvMQTTURL+".")
		fs.StringVar(&c.MQTTTopic, "mqtt-topic", "", "MQTT topic `prefix`. Defaults to $"+EnvMQTTTopic+".")
		fs.StringVar(&c.MQTTClientID, "mqtt-client-id", "", "MQTT client `id`. Defaults to $"+EnvMQTTClientID+".")
	}
	if c.Flags.isSet(FlagHTTP) {
		fs.StringVar(&c.HTTPAddr, "http-addr", "", "HTTP listen `address`. Defaults to $"+EnvHTTPAddr+".")
	}
}

// ReadFromEnvironment populates c using environment variables. Values that are already populated
// are not overwritten.
//
// Calling ReadFromEnvironment after flag.Parse() (or other initialization method) will prevent the
// environment from overriding explicit command-line parameters and avoid potentially misleading
// debug log messages.
func (c *Config) ReadFromEnvironment() {
	if !c.Verbose {
		c.Verbose = envBool(EnvVerbose)
	}
	if c.Flags.isSet(FlagBLE) {
		if c.LocalName == "" {
			c.LocalName = os.Getenv(EnvName)
			log.Debug("Set local name to '%s'", c.LocalName)
		}
		if !c.DiscoverByName {
			c.DiscoverByName = c.LocalName != "" || envBool(EnvDiscoverByName)
			log.Debug("Set discover by name to %t", c.DiscoverByName)
		}
		if c.BtAdapterID == "" {
			c.BtAdapterID = os.Getenv(EnvAdapter)
			log.Debug("Set Bluetooth adapter to '%s'", c.BtAdapterID)
		}
		if c.BLEBackend == "" {
			if err := c.BLEBackend.Set(os.Getenv(EnvBLEBackend)); err != nil {
				c.BLEBackend = BackendTinyGo
			}
			log.Debug("Set BLE backend to '%s'", c.BLEBackend)
		}
	}
	if c.Flags.isSet(FlagMQTT) {
		if c.MQTTURL == "" {
			c.MQTTURL = os.Getenv(EnvMQTTURL)
			log.Debug("Set MQTT broker to '%s'", c.MQTTURL)
		}
		if c.MQTTTopic == "" {
			if c.MQTTTopic = os.Getenv(EnvMQTTTopic); c.MQTTTopic == "" {
				c.MQTTTopic = DefaultMQTTTopic
			}
			log.Debug("Set MQTT topic to '%s'", c.MQTTTopic)
		}
		if c.MQTTClientID == "" {
			c.MQTTClientID = os.Getenv(EnvMQTTClientID)
		}
	}
	if c.Flags.isSet(FlagHTTP) {
		if c.HTTPAddr == "" {
			if c.HTTPAddr = os.Getenv(EnvHTTPAddr); c.HTTPAddr == "" {
				c.HTTPAddr = DefaultHTTPAddr
			}
			log.Debug("Set HTTP address to '%s'", c.HTTPAddr)
		}
	}
}

func envBool(name string) bool {
	value, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	if value == "" {
		return true
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Warning("Ignoring $%s: %s", name, err)
	}
	return b
}

// ScanFilter returns the filter used to find the device.
func (c *Config) ScanFilter() ble.ScanFilter {
	return ble.Filter(c.DiscoverByName, c.LocalName)
}

// Adapter opens the configured Bluetooth adapter. The adapter is cached after it is first opened
// and released by Close.
func (c *Config) Adapter() (ble.Adapter, error) {
	if c.adapter != nil {
		return c.adapter, nil
	}
	var err error
	switch c.BLEBackend {
	case BackendGoBLE:
		c.adapter, err = goble.NewAdapter(c.BtAdapterID)
	case BackendTinyGo, "":
		c.adapter, err = tinygo.NewAdapter(c.BtAdapterID)
	default:
		err = fmt.Errorf("unknown BLE backend '%s'", c.BLEBackend)
	}
	if err != nil {
		return nil, err
	}
	return c.adapter, nil
}

// AdapterErrorHelpMessage returns installation hints if err indicates the Bluetooth stack is
// unavailable.
func (c *Config) AdapterErrorHelpMessage(err error) (string, bool) {
	if c.BLEBackend != BackendGoBLE && tinygo.IsAdapterError(err) {
		return tinygo.AdapterErrorHelpMessage(err), true
	}
	return "", false
}

// Connect scans for the configured device, connects to it, and waits until it accepts commands.
// On failure nothing is left connected.
func (c *Config) Connect(ctx context.Context) (*dreamscreen.Device, error) {
	if !c.Flags.isSet(FlagBLE) {
		return nil, fmt.Errorf("device discovery is not enabled")
	}
	adapter, err := c.Adapter()
	if err != nil {
		return nil, err
	}
	return ConnectWithAdapter(ctx, adapter, c.ScanFilter())
}

// ConnectWithAdapter performs discovery on adapter and returns a Device that is ready to accept
// commands.
func ConnectWithAdapter(ctx context.Context, adapter ble.Adapter, filter ble.ScanFilter) (*dreamscreen.Device, error) {
	log.Info("Scanning for DreamScreen (%s)...", filter)
	conn, err := ble.NewConnection(ctx, filter, adapter)
	if err != nil {
		return nil, err
	}

	device := dreamscreen.New(conn)
	if err := device.Connect(ctx); err != nil {
		device.Disconnect()
		return nil, err
	}
	log.Info("Ready")
	return device, nil
}

// Close releases the Bluetooth adapter opened by Connect.
func (c *Config) Close() {
	if c.adapter == nil {
		return
	}
	if err := c.adapter.Close(); err != nil {
		log.Warning("Failed to close Bluetooth adapter: %s", err)
	}
	c.adapter = nil
}
