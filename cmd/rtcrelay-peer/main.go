// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rtcrelay/lib/clock"
	"github.com/bureau-foundation/rtcrelay/lib/config"
	"github.com/bureau-foundation/rtcrelay/lib/process"
	"github.com/bureau-foundation/rtcrelay/lib/version"
	"github.com/bureau-foundation/rtcrelay/rtc"
	"github.com/bureau-foundation/rtcrelay/signaling"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		signalURL   string
		room        string
		offer       bool
		verbose     bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("rtcrelay-peer", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $RTCRELAY_CONFIG, else built-in defaults)")
	flagSet.StringVar(&signalURL, "signal", "", "signaling server url (overrides peer.signal_url)")
	flagSet.StringVar(&room, "room", "", "signaling room (overrides peer.room)")
	flagSet.BoolVar(&offer, "offer", false, "create the data channel and send the offer when the other peer joins")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print("rtcrelay-peer")
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
	if signalURL != "" {
		cfg.Peer.SignalURL = signalURL
	}
	if room != "" {
		cfg.Peer.Room = room
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Debug("configuration loaded", "source", source, "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runtime := rtc.NewRuntime(rtc.RuntimeConfig{
		Logger:                   logger,
		IncludeLoopbackCandidate: cfg.Loopback(),
		EphemeralUDPPortMin:      cfg.RTC.PortMin,
		EphemeralUDPPortMax:      cfg.RTC.PortMax,
	})
	if err := runtime.Start(); err != nil {
		return fmt.Errorf("starting webrtc runtime: %w", err)
	}
	defer runtime.Stop()

	endpoint, err := roomURL(cfg.Peer.SignalURL, cfg.Peer.Room)
	if err != nil {
		return err
	}
	signaler, err := signaling.DialWebSocket(ctx, endpoint, nil, logger)
	if err != nil {
		return err
	}
	defer signaler.Close()

	h, err := newHost(hostConfig{
		Label:    cfg.Peer.Channel,
		Nickname: cfg.Peer.Nickname,
		Offerer:  offer,
		Tick:     cfg.TickInterval(),
		RTC:      rtcConfiguration(cfg.RTC),
	}, runtime, signaler, clock.Real(), os.Stdout, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				h.SubmitLine(line)
			}
		}
	}()

	logger.Info("peer started",
		"room", cfg.Peer.Room,
		"signal", cfg.Peer.SignalURL,
		"offer", offer,
		"version", version.Info(),
	)
	err = h.Run(ctx)
	logger.Info("shutting down")
	return err
}

// roomURL adds the room query parameter to the signaling endpoint.
func roomURL(signalURL, room string) (string, error) {
	endpoint, err := url.Parse(signalURL)
	if err != nil {
		return "", fmt.Errorf("parsing signal url: %w", err)
	}
	query := endpoint.Query()
	query.Set("room", room)
	endpoint.RawQuery = query.Encode()
	return endpoint.String(), nil
}

func rtcConfiguration(rtcConfig config.RTCConfig) rtc.Configuration {
	servers := make([]rtc.ICEServer, 0, len(rtcConfig.ICEServers))
	for _, server := range rtcConfig.ICEServers {
		servers = append(servers, rtc.ICEServer{
			URLs:       server.URLs,
			Username:   server.Username,
			Credential: server.Credential,
		})
	}
	return rtc.Configuration{ICEServers: servers}
}
