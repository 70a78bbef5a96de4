package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/muralwl/mural/cmd/murald/lifecycle"
	"github.com/muralwl/mural/internal/cache"
	"github.com/muralwl/mural/internal/compositor"
	"github.com/muralwl/mural/internal/ipc"
)

func main() {
	opts := parseCLI(os.Args[1:])
	if opts.quiet {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "murald: %v\n", err)
		os.Exit(1)
	}
}

func run(opts cliOptions) error {
	cacheDir, err := cache.Dir()
	if err != nil {
		return fmt.Errorf("resolve cache directory: %w", err)
	}

	pidFile := lifecycle.NewPIDFile(filepath.Join(cacheDir, "murald.pid"))
	if err := lifecycle.EnsureSingleInstance(pidFile); err != nil {
		return err
	}
	defer pidFile.Remove()

	comp, err := compositor.Connect()
	if err != nil {
		return fmt.Errorf("connect to compositor: %w", err)
	}

	if !opts.hasFormat {
		opts.format = defaultFormat()
	}

	ln, err := ipc.Listen()
	if err != nil {
		return fmt.Errorf("listen on IPC socket: %w", err)
	}

	state, err := cache.OpenStateStore(filepath.Join(cacheDir, "state.db"))
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer state.Close()

	daemon := NewDaemon(opts, comp, ln, state)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("murald: listening on %s", ipc.SocketPath())
	return daemon.Run(ctx)
}
