// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rtc

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"

	"github.com/bureau-foundation/rtcrelay/relay"
)

// RuntimeConfig configures a Runtime.
type RuntimeConfig struct {
	// Logger receives lifecycle logs and, through LoggerFactory, pion's
	// internal logs. Required.
	Logger *slog.Logger

	// IncludeLoopbackCandidate gathers 127.0.0.1/::1 candidates. Needed
	// when both peers run on one machine with no other interface.
	IncludeLoopbackCandidate bool

	// EphemeralUDPPortMin and EphemeralUDPPortMax restrict the local
	// UDP ports used for ICE. Both zero means any port.
	EphemeralUDPPortMin uint16
	EphemeralUDPPortMax uint16
}

type runtimeState int

const (
	runtimeNew runtimeState = iota
	runtimeStarted
	runtimeStopped
)

// Runtime is the execution context shared by every PeerConnection and
// DataChannel the host creates. It owns the pion API (setting engine,
// media engine, interceptors) and the handle registries that engine
// callbacks resolve their owners through.
//
// The host creates one Runtime, calls Start before creating
// connections, and calls Stop at shutdown. Stop closes every
// connection and channel that is still open.
type Runtime struct {
	config RuntimeConfig
	logger *slog.Logger

	mu    sync.Mutex
	state runtimeState
	api   *webrtc.API

	peers    Registry[*peerBinding]
	channels Registry[*DataChannel]
}

// NewRuntime creates a stopped Runtime. Call Start before use.
func NewRuntime(config RuntimeConfig) *Runtime {
	return &Runtime{
		config: config,
		logger: config.Logger,
	}
}

// Start builds the pion API. Calling Start on a running Runtime is a
// no-op; a stopped Runtime cannot be restarted.
func (r *Runtime) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case runtimeStarted:
		return nil
	case runtimeStopped:
		return ErrClosed
	}

	settingEngine := webrtc.SettingEngine{
		LoggerFactory: NewLoggerFactory(r.logger),
	}
	settingEngine.SetIncludeLoopbackCandidate(r.config.IncludeLoopbackCandidate)
	if r.config.EphemeralUDPPortMin != 0 || r.config.EphemeralUDPPortMax != 0 {
		if err := settingEngine.SetEphemeralUDPPortRange(r.config.EphemeralUDPPortMin, r.config.EphemeralUDPPortMax); err != nil {
			return fmt.Errorf("%w: udp port range: %v", ErrInvalidParameter, err)
		}
	}

	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return fmt.Errorf("registering default codecs: %w", err)
	}
	interceptors := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, interceptors); err != nil {
		return fmt.Errorf("registering default interceptors: %w", err)
	}

	r.api = webrtc.NewAPI(
		webrtc.WithSettingEngine(settingEngine),
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(interceptors),
	)
	r.state = runtimeStarted
	r.logger.Info("webrtc runtime started",
		"loopback", r.config.IncludeLoopbackCandidate,
		"port_min", r.config.EphemeralUDPPortMin,
		"port_max", r.config.EphemeralUDPPortMax,
	)
	return nil
}

// Stop closes every live connection and channel and rejects further
// use. Queued signals and packets are discarded. Stop is idempotent.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	if r.state == runtimeStopped {
		r.mu.Unlock()
		return nil
	}
	r.state = runtimeStopped
	r.api = nil
	r.mu.Unlock()

	channels := r.channels.ReleaseAll()
	for _, channel := range channels {
		channel.closeNative()
	}
	peers := r.peers.ReleaseAll()
	for _, peer := range peers {
		peer.close()
	}

	r.logger.Info("webrtc runtime stopped",
		"connections_closed", len(peers),
		"channels_closed", len(channels),
	)
	return nil
}

// Running reports whether Start has succeeded and Stop has not been
// called.
func (r *Runtime) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == runtimeStarted
}

// NewPeerConnection returns an unbound PeerConnection whose signals are
// delivered to emitter when the host calls Poll. Call Initialize to
// bind it to a native connection.
func (r *Runtime) NewPeerConnection(emitter relay.Emitter) *PeerConnection {
	return &PeerConnection{
		runtime: r,
		emitter: emitter,
		logger:  r.logger,
	}
}

// newNativeConnection creates a pion PeerConnection through the
// runtime's API.
func (r *Runtime) newNativeConnection(config Configuration) (*webrtc.PeerConnection, error) {
	r.mu.Lock()
	state, api := r.state, r.api
	r.mu.Unlock()

	switch state {
	case runtimeNew:
		return nil, fmt.Errorf("%w: runtime not started", ErrUnconfigured)
	case runtimeStopped:
		return nil, ErrClosed
	}

	connection, err := api.NewPeerConnection(config.pion())
	if err != nil {
		return nil, fmt.Errorf("creating peer connection: %w", err)
	}
	return connection, nil
}
