// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rtcrelay/lib/config"
	"github.com/bureau-foundation/rtcrelay/lib/process"
	"github.com/bureau-foundation/rtcrelay/lib/version"
	"github.com/bureau-foundation/rtcrelay/signaling"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		listen      string
		verbose     bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("rtcrelay-signal", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $RTCRELAY_CONFIG, else built-in defaults)")
	flagSet.StringVar(&listen, "listen", "", "address to listen on (overrides signal.listen)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print("rtcrelay-signal")
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, source, err := config.Resolve(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Signal.Listen = listen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rooms := signaling.NewWebSocketServer(logger)
	mux := http.NewServeMux()
	mux.Handle(cfg.Signal.Path, rooms)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok rooms=%d\n", rooms.Rooms())
	})

	listener, err := net.Listen("tcp", cfg.Signal.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Signal.Listen, err)
	}
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	logger.Info("signaling server started",
		"address", listener.Addr().String(),
		"path", cfg.Signal.Path,
		"config", source,
		"version", version.Info(),
	)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		_ = rooms.Close()
		return fmt.Errorf("serving: %w", err)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Hijacked websocket connections are not tracked by Shutdown, so
	// the rooms are closed explicitly.
	if err := rooms.Close(); err != nil {
		logger.Warn("closing signaling rooms failed", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
