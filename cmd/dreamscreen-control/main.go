package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"
	"golang.org/x/term"

	"github.com/dreamscreen/dreamscreen-ble/internal/log"
	"github.com/dreamscreen/dreamscreen-ble/pkg/cli"
	"github.com/dreamscreen/dreamscreen-ble/pkg/dreamscreen"
	"github.com/dreamscreen/dreamscreen-ble/pkg/protocol"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

const usage = `
 * With no COMMAND, commands are read from standard input, one per line.
 * Commands are sent to the device one at a time, in order.`

func Usage() {
	fmt.Printf("Usage: %s [OPTION...] COMMAND [ARG...]\n", os.Args[0])
	fmt.Printf("\nRun %s help COMMAND for more information. Valid COMMANDs are listed below.", os.Args[0])
	fmt.Println("")
	fmt.Println(usage)
	fmt.Println("")

	fmt.Printf("Available OPTIONs:\n")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Printf("Available COMMANDs:\n")
	maxLength := 0
	var labels []string
	for command := range commands {
		labels = append(labels, command)
		if len(command) > maxLength {
			maxLength = len(command)
		}
	}
	sort.Strings(labels)
	for _, command := range labels {
		info := commands[command]
		fmt.Printf("  %s%s %s\n", command, strings.Repeat(" ", maxLength-len(command)), info.help)
	}
}

func runCommand(device dreamscreen.Controller, args []string, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := execute(ctx, device, args); err != nil {
		if protocol.MayHaveSucceeded(err) {
			writeErr("Couldn't verify success: %s", err)
		} else {
			writeErr("Failed to execute command: %s", err)
		}
		return 1
	}
	return 0
}

func runInteractiveShell(device dreamscreen.Controller, timeout time.Duration) int {
	prompt := func() {}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		prompt = func() { fmt.Printf("> ") }
	}

	scanner := bufio.NewScanner(os.Stdin)
	for prompt(); scanner.Scan(); prompt() {
		args, err := shlex.Split(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			return 0
		}
		if err != nil {
			writeErr("Invalid command: %s", err)
			continue
		}
		if args[0] == "help" {
			printHelp(args[1:])
			continue
		}
		runCommand(device, args, timeout)
	}
	if err := scanner.Err(); err != nil {
		writeErr("Error reading command: %s", err)
		return 1
	}
	return 0
}

func printHelp(args []string) bool {
	if len(args) == 0 {
		Usage()
		return true
	}
	info, ok := commands[args[0]]
	if !ok {
		writeErr("Unrecognized command: %s", args[0])
		return false
	}
	info.Usage(args[0])
	return true
}

func main() {
	status := 1
	defer func() {
		os.Exit(status)
	}()

	var (
		debug          bool
		commandTimeout time.Duration
		connTimeout    time.Duration
	)
	config := cli.NewConfig(cli.FlagBLE)
	flag.Usage = Usage
	flag.BoolVar(&debug, "debug", false, "Enable verbose debugging messages")
	flag.DurationVar(&commandTimeout, "command-timeout", 5*time.Second, "Set timeout for commands sent to the device.")
	flag.DurationVar(&connTimeout, "connect-timeout", 20*time.Second, "Set timeout for establishing initial connection.")

	config.RegisterCommandLineFlags()
	flag.Parse()
	config.ReadFromEnvironment()
	if debug || config.Verbose {
		log.SetLevel(log.LevelDebug)
	}

	args := flag.Args()
	if len(args) > 0 && args[0] == "help" {
		if printHelp(args[1:]) {
			status = 0
		}
		return
	}
	if len(args) > 0 {
		if _, ok := commands[args[0]]; !ok {
			writeErr("Unrecognized command: %s", args[0])
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	defer config.Close()
	device, err := config.Connect(ctx)
	if err != nil {
		writeErr("Error: %s", err)
		if help, ok := config.AdapterErrorHelpMessage(err); ok {
			writeErr("\n%s", help)
		}
		// Error isn't wrapped so we have to check for a substring explicitly.
		if strings.Contains(err.Error(), "operation not permitted") {
			// The go-ble backend calls HCIDEVDOWN on the adapter before opening it.
			writeErr("\nTry again after granting this application CAP_NET_ADMIN:\n\n\tsudo setcap 'cap_net_admin=eip' \"$(which %s)\"\n", os.Args[0])
		}
		return
	}
	defer device.Disconnect()

	if len(args) > 0 {
		status = runCommand(device, args, commandTimeout)
	} else {
		status = runInteractiveShell(device, commandTimeout)
	}
}
