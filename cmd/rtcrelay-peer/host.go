// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bureau-foundation/rtcrelay/lib/clock"
	"github.com/bureau-foundation/rtcrelay/lib/codec"
	"github.com/bureau-foundation/rtcrelay/relay"
	"github.com/bureau-foundation/rtcrelay/rtc"
	"github.com/bureau-foundation/rtcrelay/signaling"
)

const sendTimeout = 5 * time.Second

// hostConfig holds everything a host needs besides its collaborators.
type hostConfig struct {
	// Label names the chat data channel.
	Label string

	// Nickname is stamped on outgoing chat messages.
	Nickname string

	// Offerer makes this host create the channel and the offer when
	// the other peer joins the room.
	Offerer bool

	// Tick is the interval between polls.
	Tick time.Duration

	// RTC configures each native peer connection.
	RTC rtc.Configuration
}

// host drives one PeerConnection from a single goroutine, the way a
// game loop would: on every tick it applies queued signaling messages,
// polls the connection, prints inbound chat, and sends queued input
// lines. Only the signaling receive loop and the input reader run on
// other goroutines, and both hand their work over through relay
// queues.
type host struct {
	config   hostConfig
	logger   *slog.Logger
	clock    clock.Clock
	signaler signaling.Signaler
	output   io.Writer

	peer     *rtc.PeerConnection
	channel  *rtc.DataChannel
	offered  bool
	sequence uint64

	inbound       relay.Queue[signaling.Message]
	lines         relay.Queue[string]
	signalingDone chan error
}

// newHost creates a host and binds its PeerConnection. The runtime must
// be started.
func newHost(config hostConfig, runtime *rtc.Runtime, signaler signaling.Signaler, clk clock.Clock, output io.Writer, logger *slog.Logger) (*host, error) {
	h := &host{
		config:        config,
		logger:        logger,
		clock:         clk,
		signaler:      signaler,
		output:        output,
		signalingDone: make(chan error, 1),
	}
	h.peer = runtime.NewPeerConnection(h)
	if err := h.peer.Initialize(config.RTC); err != nil {
		return nil, fmt.Errorf("initializing peer connection: %w", err)
	}
	return h, nil
}

// SubmitLine queues a line of chat input. Safe to call from any
// goroutine.
func (h *host) SubmitLine(line string) {
	h.lines.Enqueue(line)
}

// Run receives signaling in the background and runs the tick loop
// until ctx is done or signaling fails.
func (h *host) Run(ctx context.Context) error {
	go h.receiveLoop(ctx)

	ticker := h.clock.NewTicker(h.config.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := h.step(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func (h *host) receiveLoop(ctx context.Context) {
	for {
		message, err := h.signaler.Receive(ctx)
		if err != nil {
			h.signalingDone <- err
			return
		}
		h.inbound.Enqueue(message)
	}
}

// step runs one tick. It returns an error only when the host cannot
// continue.
func (h *host) step() error {
	// The receive loop queues every message before reporting its
	// error, so checking first lets the drain below see them all.
	var signalingErr error
	select {
	case signalingErr = <-h.signalingDone:
	default:
	}
	if _, err := h.inbound.Drain(h.handleMessage); err != nil {
		h.logger.Warn("applying signaling messages failed", "error", err)
	}
	if signalingErr != nil {
		return fmt.Errorf("signaling: %w", signalingErr)
	}

	if err := h.peer.Poll(); err != nil {
		if errors.Is(err, rtc.ErrUnconfigured) {
			return err
		}
		h.logger.Warn("handling connection signals failed", "error", err)
	}

	h.readPackets()

	if _, err := h.lines.Drain(h.sendLine); err != nil {
		h.logger.Warn("sending chat failed", "error", err)
	}
	return nil
}

func (h *host) handleMessage(message signaling.Message) error {
	switch message.Type {
	case signaling.TypeHello:
		if message.From == "" {
			h.logger.Info("joined signaling room", "id", message.To)
			return nil
		}
		h.logger.Info("peer joined", "peer", message.From)
		if h.config.Offerer && !h.offered {
			return h.startOffer()
		}
		return nil

	case signaling.TypeOffer, signaling.TypeAnswer:
		return h.peer.SetRemoteDescription(string(message.Type), message.SDP)

	case signaling.TypeCandidate:
		return h.peer.AddICECandidate(message.Mid, message.Index, message.Candidate)

	case signaling.TypeBye:
		h.logger.Info("peer left", "peer", message.From)
		return h.reset()
	}
	return fmt.Errorf("%w: type %q", signaling.ErrInvalidMessage, message.Type)
}

func (h *host) startOffer() error {
	channel, err := h.peer.CreateDataChannel(h.config.Label, rtc.ChannelConfig{})
	if err != nil {
		return err
	}
	h.attach(channel)
	if err := h.peer.CreateOffer(); err != nil {
		return err
	}
	h.offered = true
	return nil
}

// reset replaces the connection with a fresh one so the next peer to
// join the room can connect.
func (h *host) reset() error {
	h.channel = nil
	h.offered = false
	return h.peer.Initialize(h.config.RTC)
}

func (h *host) attach(channel *rtc.DataChannel) {
	channel.SetWriteMode(rtc.WriteModeBinary)
	h.channel = channel
}

// EmitSignal receives the PeerConnection's signals during Poll.
func (h *host) EmitSignal(name string, args ...any) error {
	switch name {
	case rtc.SignalSessionDescriptionCreated:
		sdpType, body, ok := stringPair(args)
		if !ok {
			return fmt.Errorf("%s: unexpected arguments %v", name, args)
		}
		if err := h.peer.SetLocalDescription(sdpType, body); err != nil {
			return err
		}
		message, err := signaling.DescriptionMessage(sdpType, body)
		if err != nil {
			return err
		}
		return h.send(message)

	case rtc.SignalICECandidateCreated:
		if len(args) != 3 {
			return fmt.Errorf("%s: unexpected arguments %v", name, args)
		}
		mid, _ := args[0].(string)
		index, _ := args[1].(int)
		candidate, _ := args[2].(string)
		return h.send(signaling.CandidateMessage(mid, index, candidate))

	case rtc.SignalDataChannelReceived:
		channel, ok := args[0].(*rtc.DataChannel)
		if !ok {
			return fmt.Errorf("%s: unexpected arguments %v", name, args)
		}
		if channel.Label() != h.config.Label {
			h.logger.Warn("ignoring unexpected data channel", "label", channel.Label())
			channel.Close()
			return nil
		}
		h.attach(channel)

	case rtc.SignalConnectionStateChanged:
		if state, ok := args[0].(rtc.ConnectionState); ok {
			h.logger.Info("connection state", "state", state.String())
		}
	}
	return nil
}

func stringPair(args []any) (string, string, bool) {
	if len(args) != 2 {
		return "", "", false
	}
	first, firstOK := args[0].(string)
	second, secondOK := args[1].(string)
	return first, second, firstOK && secondOK
}

func (h *host) send(message signaling.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := h.signaler.Send(ctx, message); err != nil {
		return fmt.Errorf("sending %s: %w", message.Type, err)
	}
	return nil
}

// readPackets prints every queued inbound packet. Binary packets are
// chat messages; text packets are printed as they are.
func (h *host) readPackets() {
	if h.channel == nil {
		return
	}
	for {
		data, err := h.channel.GetPacket()
		if err != nil {
			if !errors.Is(err, rtc.ErrUnavailable) && !errors.Is(err, rtc.ErrUnconfigured) {
				h.logger.Warn("reading packet failed", "error", err)
			}
			return
		}
		if h.channel.WasStringPacket() {
			fmt.Fprintf(h.output, "%s\n", data)
			continue
		}
		message, err := codec.DecodeChat(data)
		if err != nil {
			diagnostic, _ := codec.Diagnose(data)
			h.logger.Warn("dropping undecodable packet", "error", err, "packet", diagnostic)
			continue
		}
		fmt.Fprintf(h.output, "<%s> %s\n", message.From, message.Text)
	}
}

func (h *host) sendLine(line string) error {
	if h.channel == nil || h.channel.ReadyState() != rtc.ChannelStateOpen {
		h.logger.Warn("chat channel not open, dropping input")
		return nil
	}
	h.sequence++
	packet, err := codec.MarshalPacket(codec.ChatMessage{
		From:          h.config.Nickname,
		Sequence:      h.sequence,
		SentUnixMilli: h.clock.Now().UnixMilli(),
		Text:          line,
	}, h.channel.MaxPacketSize())
	if err != nil {
		return err
	}
	return h.channel.PutPacket(packet)
}

// Close releases the connection and stops accepting input.
func (h *host) Close() {
	h.lines.Close()
	h.inbound.Close()
	h.peer.Close()
}
