// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"equalizer/cmd"
	"equalizer/internal/app"
	"equalizer/internal/audio"
	"equalizer/internal/config"
	"equalizer/internal/log"
	"equalizer/internal/tui"
	"equalizer/pkg/build"
)

// main is the entry point for the equalizer.
//
// 1. Startup: build information, command line and configuration, logging.
// One-off commands (list, version) run and exit here.
//
// 2. Running: the app opens the input stream and drives the display until
// the user quits or a termination signal arrives.
//
// 3. Shutdown: the stream, worker, recorder and transports are closed in
// order.
func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run executes the command line and returns the process exit code. Every
// resource it opens is released by a deferred call before it returns.
func run(args []string, stdout io.Writer) int {
	if err := build.Initialize(); err != nil {
		log.Errorf("%v", err)
		return 1
	}

	inv, err := cmd.ParseArgs(args, stdout)
	if errors.Is(err, cmd.ErrHandled) {
		return 0
	}
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}

	switch inv.Command {
	case cmd.CommandVersion:
		fmt.Fprintln(stdout, build.Get())
		return 0
	case cmd.CommandList:
		if err := listDevices(stdout, inv.Interactive); err != nil {
			log.Errorf("%v", err)
			return 1
		}
		return 0
	}

	cfg := inv.Config
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	// The terminal UI owns the screen, so logs go to a file.
	headless := cfg.Display.Headless || !app.IsTerminal(stdout)
	if !headless {
		logFile := cfg.LogFile
		if logFile == "" {
			logFile = config.Default().LogFile
		}
		closer := log.ToFile(log.RotateOptions{Filename: logFile})
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eq, err := app.New(cfg, app.Options{Out: stdout})
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}

	runErr := eq.Run(ctx)
	if err := eq.Close(); err != nil {
		log.Errorf("Shutdown: %v", err)
	}
	if runErr != nil {
		log.Errorf("%v", runErr)
		return 1
	}
	if cfg.Recording.Enabled {
		fmt.Fprintf(stdout, "Recording saved to: %s\n", cfg.Recording.Output)
	}
	return 0
}

// listDevices prints every host and device, or lets the user pick an input
// device and prints the flags that select it.
func listDevices(w io.Writer, interactive bool) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	hosts, err := audio.Hosts()
	if err != nil {
		return err
	}

	if !interactive {
		audio.PrintHosts(w, hosts)
		return nil
	}

	sel, ok, err := tui.PickDevice(hosts)
	if err != nil || !ok {
		return err
	}
	fmt.Fprintf(w, "--host %q --device %q\n", sel.Host, sel.Device)
	return nil
}
