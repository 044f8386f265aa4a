// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rtc

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	"github.com/bureau-foundation/rtcrelay/relay"
)

// Signal names emitted by a PeerConnection.
const (
	// SignalSessionDescriptionCreated carries (type string, sdp string).
	// The host applies it locally with SetLocalDescription and sends it
	// to the remote peer.
	SignalSessionDescriptionCreated = "session_description_created"

	// SignalICECandidateCreated carries (mid string, index int,
	// candidate string) for the remote peer's AddICECandidate.
	SignalICECandidateCreated = "ice_candidate_created"

	// SignalDataChannelReceived carries (*DataChannel) for channels
	// opened by the remote peer.
	SignalDataChannelReceived = "data_channel_received"

	// SignalConnectionStateChanged carries (ConnectionState).
	SignalConnectionStateChanged = "connection_state_changed"
)

// PeerConnection is the host-facing wrapper of one pion PeerConnection.
//
// Every method must be called from the host goroutine. Events raised by
// pion on its own goroutines are queued and reach the host's Emitter
// only from within Poll, in the order they were queued.
type PeerConnection struct {
	runtime *Runtime
	emitter relay.Emitter
	logger  *slog.Logger

	// binding is nil until Initialize and after Close.
	binding *peerBinding
}

// peerBinding is the state shared between a PeerConnection and the pion
// callbacks for one native connection. Callbacks reach it only through
// the runtime's peer registry.
type peerBinding struct {
	handle     Handle
	connection *webrtc.PeerConnection
	signals    relay.SignalRelay
	logger     *slog.Logger
	closed     atomic.Bool

	// channels lists every DataChannel created on or received from
	// this connection. Appended from pion goroutines.
	channelsMu sync.Mutex
	channels   []*DataChannel
}

func (b *peerBinding) addChannel(channel *DataChannel) {
	b.channelsMu.Lock()
	defer b.channelsMu.Unlock()
	b.channels = append(b.channels, channel)
}

// openChannels returns the channels that are still open and drops
// closed ones from the list.
func (b *peerBinding) openChannels() []*DataChannel {
	b.channelsMu.Lock()
	defer b.channelsMu.Unlock()

	open := b.channels[:0]
	for _, channel := range b.channels {
		if !channel.closed.Load() {
			open = append(open, channel)
		}
	}
	clear(b.channels[len(open):])
	b.channels = open
	return append([]*DataChannel(nil), open...)
}

// close shuts down the native connection and discards queued signals.
func (b *peerBinding) close() {
	if b.closed.Swap(true) {
		return
	}
	b.signals.Close()
	if err := b.connection.Close(); err != nil {
		b.logger.Warn("closing peer connection failed", "error", err)
	}
}

// Initialize binds the PeerConnection to a new native connection built
// from config. An existing binding is closed first.
func (p *PeerConnection) Initialize(config Configuration) error {
	if err := config.Validate(); err != nil {
		return err
	}
	p.Close()

	connection, err := p.runtime.newNativeConnection(config)
	if err != nil {
		return err
	}

	binding := &peerBinding{connection: connection}
	binding.handle = p.runtime.peers.Register(binding)
	binding.logger = p.logger.With("connection", uint64(binding.handle))

	runtime, handle := p.runtime, binding.handle
	connection.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return // Gathering complete.
		}
		owner, ok := runtime.peers.Lookup(handle)
		if !ok {
			return
		}
		owner.queueCandidate(candidate)
	})
	connection.OnDataChannel(func(channel *webrtc.DataChannel) {
		owner, ok := runtime.peers.Lookup(handle)
		if !ok {
			return
		}
		wrapped := runtime.bindChannel(channel)
		owner.addChannel(wrapped)
		owner.logger.Debug("data channel received", "label", channel.Label())
		owner.signals.Queue(SignalDataChannelReceived, wrapped)
	})
	connection.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		owner, ok := runtime.peers.Lookup(handle)
		if !ok {
			return
		}
		owner.logger.Info("peer connection state change", "state", state.String())
		owner.signals.Queue(SignalConnectionStateChanged, connectionStateFromPion(state))
	})

	p.binding = binding
	binding.logger.Debug("peer connection initialized", "ice_servers", len(config.ICEServers))
	return nil
}

func (b *peerBinding) queueCandidate(candidate *webrtc.ICECandidate) {
	init := candidate.ToJSON()
	mid := ""
	if init.SDPMid != nil {
		mid = *init.SDPMid
	}
	index := 0
	if init.SDPMLineIndex != nil {
		index = int(*init.SDPMLineIndex)
	}
	b.signals.Queue(SignalICECandidateCreated, mid, index, init.Candidate)
}

// bound returns the live binding or ErrUnconfigured.
func (p *PeerConnection) bound() (*peerBinding, error) {
	if p.binding == nil || p.binding.closed.Load() {
		return nil, ErrUnconfigured
	}
	return p.binding, nil
}

// CreateDataChannel opens a data channel on the connection. The config
// is validated before anything reaches the engine.
func (p *PeerConnection) CreateDataChannel(label string, config ChannelConfig) (*DataChannel, error) {
	binding, err := p.bound()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	native, err := binding.connection.CreateDataChannel(label, config.pion())
	if err != nil {
		return nil, fmt.Errorf("creating data channel %q: %w", label, err)
	}
	channel := p.runtime.bindChannel(native)
	binding.addChannel(channel)
	return channel, nil
}

// CreateOffer generates an SDP offer. The offer is delivered through
// session_description_created("offer", sdp) on the next Poll.
func (p *PeerConnection) CreateOffer() error {
	binding, err := p.bound()
	if err != nil {
		return err
	}
	offer, err := binding.connection.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("creating offer: %w", err)
	}
	binding.logger.Debug("offer created", "media", mediaSections(offer.SDP))
	binding.signals.Queue(SignalSessionDescriptionCreated, offer.Type.String(), offer.SDP)
	return nil
}

// SetRemoteDescription applies the remote peer's description. When it
// is an offer, an answer is created immediately and delivered through
// session_description_created("answer", sdp) on the next Poll.
func (p *PeerConnection) SetRemoteDescription(sdpType, body string) error {
	binding, err := p.bound()
	if err != nil {
		return err
	}
	description, err := ParseSessionDescription(sdpType, body)
	if err != nil {
		return err
	}
	if err := binding.connection.SetRemoteDescription(description); err != nil {
		return fmt.Errorf("setting remote description: %w", err)
	}
	if description.Type != webrtc.SDPTypeOffer {
		return nil
	}

	answer, err := binding.connection.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("creating answer: %w", err)
	}
	binding.logger.Debug("answer created", "media", mediaSections(answer.SDP))
	binding.signals.Queue(SignalSessionDescriptionCreated, answer.Type.String(), answer.SDP)
	return nil
}

// SetLocalDescription applies a description previously delivered by
// session_description_created. ICE gathering starts here; candidates
// arrive as ice_candidate_created signals.
func (p *PeerConnection) SetLocalDescription(sdpType, body string) error {
	binding, err := p.bound()
	if err != nil {
		return err
	}
	description, err := ParseSessionDescription(sdpType, body)
	if err != nil {
		return err
	}
	if err := binding.connection.SetLocalDescription(description); err != nil {
		return fmt.Errorf("setting local description: %w", err)
	}
	return nil
}

// AddICECandidate applies a candidate received from the remote peer.
func (p *PeerConnection) AddICECandidate(mid string, index int, candidate string) error {
	binding, err := p.bound()
	if err != nil {
		return err
	}
	init, err := ParseCandidate(mid, index, candidate)
	if err != nil {
		return err
	}
	if err := binding.connection.AddICECandidate(init); err != nil {
		return fmt.Errorf("adding ice candidate: %w", err)
	}
	return nil
}

// Poll emits every queued signal to the host's Emitter, then polls the
// connection's open data channels. Errors returned by the Emitter do not
// stop delivery of the remaining signals; they are joined and returned.
func (p *PeerConnection) Poll() error {
	binding, err := p.bound()
	if err != nil {
		return err
	}
	if err := binding.signals.Dispatch(p.emitter); err != nil {
		return err
	}
	for _, channel := range binding.openChannels() {
		if err := channel.Poll(); err != nil && !errors.Is(err, ErrUnconfigured) {
			return err
		}
	}
	return nil
}

// Close shuts down the native connection and every data channel on it.
// Queued signals are discarded. Close is idempotent, and the
// PeerConnection can be bound again with Initialize.
func (p *PeerConnection) Close() {
	binding := p.binding
	if binding == nil {
		return
	}
	p.binding = nil

	p.runtime.peers.Release(binding.handle)
	binding.channelsMu.Lock()
	channels := binding.channels
	binding.channels = nil
	binding.channelsMu.Unlock()
	for _, channel := range channels {
		channel.Close()
	}
	binding.close()
	binding.logger.Debug("peer connection closed", "channels", len(channels))
}

// ConnectionState returns the native connection state, or
// ConnectionStateClosed when unbound.
func (p *PeerConnection) ConnectionState() ConnectionState {
	binding, err := p.bound()
	if err != nil {
		return ConnectionStateClosed
	}
	return connectionStateFromPion(binding.connection.ConnectionState())
}
