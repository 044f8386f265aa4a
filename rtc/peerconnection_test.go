// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rtc

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bureau-foundation/rtcrelay/lib/testutil"
	"github.com/bureau-foundation/rtcrelay/relay"
)

func uint16Pointer(value uint16) *uint16 { return &value }

// recordingEmitter keeps every emitted signal in order.
type recordingEmitter struct {
	signals []relay.Signal
}

func (r *recordingEmitter) EmitSignal(name string, args ...any) error {
	r.signals = append(r.signals, relay.NewSignal(name, args...))
	return nil
}

func (r *recordingEmitter) named(name string) []relay.Signal {
	var matched []relay.Signal
	for _, signal := range r.signals {
		if signal.Name == name {
			matched = append(matched, signal)
		}
	}
	return matched
}

func TestPeerConnection_UnboundOperations(t *testing.T) {
	runtime := startedRuntime(t)
	peer := runtime.NewPeerConnection(discardEmitter)

	operations := map[string]func() error{
		"CreateOffer": peer.CreateOffer,
		"Poll":        peer.Poll,
		"SetRemoteDescription": func() error {
			return peer.SetRemoteDescription("offer", "v=0")
		},
		"SetLocalDescription": func() error {
			return peer.SetLocalDescription("offer", "v=0")
		},
		"AddICECandidate": func() error {
			return peer.AddICECandidate("0", 0, "")
		},
		"CreateDataChannel": func() error {
			_, err := peer.CreateDataChannel("chat", ChannelConfig{})
			return err
		},
	}
	for name, operation := range operations {
		if err := operation(); !errors.Is(err, ErrUnconfigured) {
			t.Errorf("%s on unbound connection = %v, want ErrUnconfigured", name, err)
		}
	}
	if state := peer.ConnectionState(); state != ConnectionStateClosed {
		t.Errorf("ConnectionState = %v, want closed", state)
	}
	peer.Close()
}

func TestPeerConnection_InitializeRejectsInvalidConfiguration(t *testing.T) {
	runtime := startedRuntime(t)
	peer := runtime.NewPeerConnection(discardEmitter)

	err := peer.Initialize(Configuration{ICEServers: []ICEServer{{URLs: []string{"http://example.com"}}}})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("Initialize = %v, want ErrInvalidParameter", err)
	}
	if runtime.peers.Len() != 0 {
		t.Errorf("registry holds %d peers after rejected Initialize", runtime.peers.Len())
	}
	if err := peer.Poll(); !errors.Is(err, ErrUnconfigured) {
		t.Errorf("Poll = %v, want ErrUnconfigured", err)
	}
}

func TestPeerConnection_ReinitializeReplacesBinding(t *testing.T) {
	runtime := startedRuntime(t)
	peer := runtime.NewPeerConnection(discardEmitter)

	if err := peer.Initialize(Configuration{}); err != nil {
		t.Fatalf("first Initialize: %v", err)
	}
	first := peer.binding
	if err := peer.Initialize(Configuration{}); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if !first.closed.Load() {
		t.Error("first binding still open after re-Initialize")
	}
	if _, ok := runtime.peers.Lookup(first.handle); ok {
		t.Error("first binding handle still registered")
	}
	if peer.binding.handle == first.handle {
		t.Error("handle reused across bindings")
	}
	if runtime.peers.Len() != 1 {
		t.Errorf("registry holds %d peers, want 1", runtime.peers.Len())
	}

	peer.Close()
	peer.Close()
	if runtime.peers.Len() != 0 {
		t.Errorf("registry holds %d peers after Close, want 0", runtime.peers.Len())
	}
}

func TestPeerConnection_OfferDeliveredOnPoll(t *testing.T) {
	runtime := startedRuntime(t)
	emitter := &recordingEmitter{}
	peer := runtime.NewPeerConnection(emitter)
	if err := peer.Initialize(Configuration{}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer peer.Close()

	if _, err := peer.CreateDataChannel("chat", ChannelConfig{}); err != nil {
		t.Fatalf("CreateDataChannel: %v", err)
	}
	if err := peer.CreateOffer(); err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}
	if len(emitter.signals) != 0 {
		t.Fatalf("signals emitted before Poll: %v", emitter.signals)
	}

	if err := peer.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	descriptions := emitter.named(SignalSessionDescriptionCreated)
	if len(descriptions) != 1 {
		t.Fatalf("got %d session descriptions, want 1", len(descriptions))
	}
	args := descriptions[0].Args
	if len(args) != 2 || args[0] != "offer" {
		t.Fatalf("session_description_created args = %v, want (offer, sdp)", args)
	}
	if _, err := ParseSessionDescription("offer", args[1].(string)); err != nil {
		t.Errorf("emitted offer does not parse: %v", err)
	}
}

func TestPeerConnection_RejectsMalformedInput(t *testing.T) {
	runtime := startedRuntime(t)
	peer := runtime.NewPeerConnection(discardEmitter)
	if err := peer.Initialize(Configuration{}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer peer.Close()

	if err := peer.SetRemoteDescription("offer", "not an sdp"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("SetRemoteDescription = %v, want ErrInvalidParameter", err)
	}
	if err := peer.AddICECandidate("0", -1, ""); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("AddICECandidate = %v, want ErrInvalidParameter", err)
	}
	_, err := peer.CreateDataChannel("chat", ChannelConfig{
		MaxPacketLifeTime: uint16Pointer(100),
		MaxRetransmits:    uint16Pointer(3),
	})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("CreateDataChannel = %v, want ErrInvalidParameter", err)
	}
}

func TestDataChannel_Properties(t *testing.T) {
	runtime := startedRuntime(t)
	peer := runtime.NewPeerConnection(discardEmitter)
	if err := peer.Initialize(Configuration{}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer peer.Close()

	unordered := false
	channel, err := peer.CreateDataChannel("state", ChannelConfig{
		Ordered:        &unordered,
		MaxRetransmits: uint16Pointer(3),
		Protocol:       "game-state",
		Negotiated:     true,
		ID:             uint16Pointer(5),
	})
	if err != nil {
		t.Fatalf("CreateDataChannel: %v", err)
	}

	if channel.Label() != "state" {
		t.Errorf("Label = %q, want state", channel.Label())
	}
	if channel.Ordered() {
		t.Error("Ordered = true, want false")
	}
	if channel.Protocol() != "game-state" {
		t.Errorf("Protocol = %q, want game-state", channel.Protocol())
	}
	if !channel.Negotiated() {
		t.Error("Negotiated = false, want true")
	}
	if channel.ID() != 5 {
		t.Errorf("ID = %d, want 5", channel.ID())
	}
	if channel.MaxRetransmits() != 3 {
		t.Errorf("MaxRetransmits = %d, want 3", channel.MaxRetransmits())
	}
	if channel.MaxPacketLifeTime() != -1 {
		t.Errorf("MaxPacketLifeTime = %d, want -1", channel.MaxPacketLifeTime())
	}
	if channel.MaxPacketSize() != MaxPacketSize {
		t.Errorf("MaxPacketSize = %d, want %d", channel.MaxPacketSize(), MaxPacketSize)
	}
	if channel.BufferedAmount() != 0 {
		t.Errorf("BufferedAmount = %d, want 0", channel.BufferedAmount())
	}
	if channel.ReadyState() != ChannelStateConnecting {
		t.Errorf("ReadyState = %v, want connecting", channel.ReadyState())
	}

	if channel.WriteMode() != WriteModeBinary {
		t.Errorf("default WriteMode = %v, want binary", channel.WriteMode())
	}
	channel.SetWriteMode(WriteModeText)
	if channel.WriteMode() != WriteModeText {
		t.Errorf("WriteMode = %v, want text", channel.WriteMode())
	}

	if _, err := channel.GetPacket(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("GetPacket on empty channel = %v, want ErrUnavailable", err)
	}
	if channel.AvailablePacketCount() != 0 {
		t.Errorf("AvailablePacketCount = %d, want 0", channel.AvailablePacketCount())
	}

	channel.Close()
	channel.Close()
	if channel.ReadyState() != ChannelStateClosed {
		t.Errorf("ReadyState after Close = %v, want closed", channel.ReadyState())
	}
	if err := channel.Poll(); !errors.Is(err, ErrUnconfigured) {
		t.Errorf("Poll after Close = %v, want ErrUnconfigured", err)
	}
	if err := channel.PutPacket([]byte("late")); !errors.Is(err, ErrUnconfigured) {
		t.Errorf("PutPacket after Close = %v, want ErrUnconfigured", err)
	}
	if runtime.channels.Len() != 0 {
		t.Errorf("registry holds %d channels after Close, want 0", runtime.channels.Len())
	}
}

// signalingHost routes one peer's signals to the other, the way a host
// forwards them over its signaling server.
type signalingHost struct {
	local    *PeerConnection
	remote   *PeerConnection
	received []*DataChannel
	states   []ConnectionState
}

func (h *signalingHost) EmitSignal(name string, args ...any) error {
	switch name {
	case SignalSessionDescriptionCreated:
		sdpType, body := args[0].(string), args[1].(string)
		if err := h.local.SetLocalDescription(sdpType, body); err != nil {
			return err
		}
		return h.remote.SetRemoteDescription(sdpType, body)
	case SignalICECandidateCreated:
		return h.remote.AddICECandidate(args[0].(string), args[1].(int), args[2].(string))
	case SignalDataChannelReceived:
		h.received = append(h.received, args[0].(*DataChannel))
	case SignalConnectionStateChanged:
		h.states = append(h.states, args[0].(ConnectionState))
	default:
		return fmt.Errorf("unexpected signal %q", name)
	}
	return nil
}

func TestPeerConnection_LoopbackExchange(t *testing.T) {
	runtime := startedRuntime(t)

	offererHost := &signalingHost{}
	answererHost := &signalingHost{}
	offerer := runtime.NewPeerConnection(offererHost)
	answerer := runtime.NewPeerConnection(answererHost)
	offererHost.local, offererHost.remote = offerer, answerer
	answererHost.local, answererHost.remote = answerer, offerer

	for _, peer := range []*PeerConnection{offerer, answerer} {
		if err := peer.Initialize(Configuration{}); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		defer peer.Close()
	}

	outbound, err := offerer.CreateDataChannel("chat", ChannelConfig{})
	if err != nil {
		t.Fatalf("CreateDataChannel: %v", err)
	}
	if err := offerer.CreateOffer(); err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}

	pollBoth := func() {
		t.Helper()
		if err := offerer.Poll(); err != nil {
			t.Fatalf("offerer Poll: %v", err)
		}
		if err := answerer.Poll(); err != nil {
			t.Fatalf("answerer Poll: %v", err)
		}
	}

	testutil.RequireEventually(t, 30*time.Second, 5*time.Millisecond, func() bool {
		pollBoth()
		return outbound.ReadyState() == ChannelStateOpen && len(answererHost.received) == 1
	}, "data channel open on both peers")

	inbound := answererHost.received[0]
	if inbound.Label() != "chat" {
		t.Errorf("received channel label = %q, want chat", inbound.Label())
	}

	outbound.SetWriteMode(WriteModeText)
	if err := outbound.PutPacket([]byte("hello")); err != nil {
		t.Fatalf("PutPacket text: %v", err)
	}
	outbound.SetWriteMode(WriteModeBinary)
	if err := outbound.PutPacket([]byte{1, 2, 3}); err != nil {
		t.Fatalf("PutPacket binary: %v", err)
	}

	testutil.RequireEventually(t, 10*time.Second, 5*time.Millisecond, func() bool {
		pollBoth()
		return inbound.AvailablePacketCount() == 2 &&
			containsState(offererHost.states, ConnectionStateConnected) &&
			containsState(answererHost.states, ConnectionStateConnected)
	}, "two packets received and both peers report connected")

	first, err := inbound.GetPacket()
	if err != nil {
		t.Fatalf("GetPacket: %v", err)
	}
	if string(first) != "hello" || !inbound.WasStringPacket() {
		t.Errorf("first packet = %q (string=%v), want hello as string", first, inbound.WasStringPacket())
	}
	second, err := inbound.GetPacket()
	if err != nil {
		t.Fatalf("GetPacket: %v", err)
	}
	if !bytes.Equal(second, []byte{1, 2, 3}) || inbound.WasStringPacket() {
		t.Errorf("second packet = %v (string=%v), want [1 2 3] as binary", second, inbound.WasStringPacket())
	}
	if _, err := inbound.GetPacket(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("third GetPacket = %v, want ErrUnavailable", err)
	}
}

func containsState(states []ConnectionState, want ConnectionState) bool {
	for _, state := range states {
		if state == want {
			return true
		}
	}
	return false
}
