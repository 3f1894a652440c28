package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dreamscreen/dreamscreen-ble/pkg/dreamscreen"
)

var (
	ErrCommandLineArgs = errors.New("invalid command line arguments")
	ErrUnknownCommand  = errors.New("unknown command")
)

type Argument struct {
	name string
	help string
}

type Handler func(ctx context.Context, device dreamscreen.Controller, args map[string]string) error

type Command struct {
	help     string
	args     []Argument
	optional []Argument
	handler  Handler
}

func execute(ctx context.Context, device dreamscreen.Controller, args []string) error {
	if len(args) == 0 {
		return errors.New("missing COMMAND")
	}

	info, ok := commands[args[0]]
	if !ok {
		writeErr("Unrecognized command: %s", args[0])
		return ErrUnknownCommand
	}

	var err error
	if len(args)-1 < len(info.args) || len(args)-1 > len(info.args)+len(info.optional) {
		writeErr("Invalid number of command line arguments: %d (%d required, %d optional).", len(args)-1, len(info.args), len(info.optional))
		err = ErrCommandLineArgs
	} else {
		keywords := make(map[string]string)
		for i, argInfo := range info.args {
			keywords[argInfo.name] = args[i+1]
		}
		index := len(info.args) + 1
		for _, argInfo := range info.optional {
			if index >= len(args) {
				break
			}
			keywords[argInfo.name] = args[index]
			index++
		}
		err = info.handler(ctx, device, keywords)
	}

	if errors.Is(err, ErrCommandLineArgs) {
		info.Usage(args[0])
	}
	return err
}

func (c *Command) Usage(name string) {
	fmt.Printf("Usage: %s", name)
	maxLength := 0
	for _, arg := range c.args {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	if len(c.optional) > 0 {
		fmt.Printf(" [")
	}
	for _, arg := range c.optional {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	if len(c.optional) > 0 {
		fmt.Printf(" ]")
	}
	fmt.Printf("\n%s\n", c.help)
	maxLength++
	for _, arg := range c.args {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
	for _, arg := range c.optional {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
}

func parseBrightness(value string) (int, error) {
	value = strings.TrimSuffix(value, "%")
	brightness, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: brightness must be an integer between %d and %d", ErrCommandLineArgs, dreamscreen.MinBrightness, dreamscreen.MaxBrightness)
	}
	return brightness, nil
}

func printResponse(r *dreamscreen.Response) {
	fmt.Printf("%s\n", r.Data)
}

var commands = map[string]*Command{
	"mode": &Command{
		help: "Switch the operating mode",
		args: []Argument{
			Argument{name: "MODE", help: "One of: " + strings.Join(dreamscreen.Modes(), ", ")},
		},
		handler: func(ctx context.Context, device dreamscreen.Controller, args map[string]string) error {
			return device.SetMode(ctx, args["MODE"])
		},
	},
	"modes": &Command{
		help: "List the supported modes",
		handler: func(ctx context.Context, device dreamscreen.Controller, args map[string]string) error {
			for _, mode := range dreamscreen.Modes() {
				fmt.Println(mode)
			}
			return nil
		},
	},
	"brightness": &Command{
		help: "Set the LED brightness",
		args: []Argument{
			Argument{name: "LEVEL", help: fmt.Sprintf("Brightness between %d and %d (out of range values are clamped)", dreamscreen.MinBrightness, dreamscreen.MaxBrightness)},
		},
		handler: func(ctx context.Context, device dreamscreen.Controller, args map[string]string) error {
			brightness, err := parseBrightness(args["LEVEL"])
			if err != nil {
				return err
			}
			return device.SetBrightness(ctx, brightness)
		},
	},
	"prop": &Command{
		help: "Write a raw value to a named property",
		args: []Argument{
			Argument{name: "PROP", help: "One of: " + strings.Join(dreamscreen.Properties(), ", ")},
			Argument{name: "VALUE", help: "Value as sent to the device"},
		},
		handler: func(ctx context.Context, device dreamscreen.Controller, args map[string]string) error {
			return device.WriteProp(ctx, args["PROP"], args["VALUE"])
		},
	},
	"read": &Command{
		help: "Read the current value of a named property",
		args: []Argument{
			Argument{name: "PROP", help: "One of: " + strings.Join(dreamscreen.Properties(), ", ")},
		},
		handler: func(ctx context.Context, device dreamscreen.Controller, args map[string]string) error {
			r, err := device.ReadProp(ctx, args["PROP"])
			if err != nil {
				return err
			}
			printResponse(r)
			return nil
		},
	},
	"send": &Command{
		help: "Write a raw command string without waiting for a response",
		args: []Argument{
			Argument{name: "CODE", help: "Command string, e.g. #Bw1"},
		},
		handler: func(ctx context.Context, device dreamscreen.Controller, args map[string]string) error {
			return device.SendWrite(ctx, args["CODE"])
		},
	},
	"poll": &Command{
		help: "Read the device's current response directly instead of waiting for a notification",
		handler: func(ctx context.Context, device dreamscreen.Controller, args map[string]string) error {
			r, err := device.Poll(ctx)
			if err != nil {
				return err
			}
			printResponse(r)
			return nil
		},
	},
	"raw": &Command{
		help: "Write a raw command string and print the next frame from the device",
		args: []Argument{
			Argument{name: "CODE", help: "Command string, e.g. #Bg"},
		},
		handler: func(ctx context.Context, device dreamscreen.Controller, args map[string]string) error {
			r, err := device.SendRead(ctx, args["CODE"])
			if err != nil {
				return err
			}
			printResponse(r)
			return nil
		},
	},
}
