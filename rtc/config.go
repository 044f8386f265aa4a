// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rtc

import (
	"fmt"

	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
)

// ICEServer is one STUN or TURN server entry.
type ICEServer struct {
	// URLs lists the server URIs, e.g. "stun:stun.l.google.com:19302"
	// or "turn:turn.example.net:3478?transport=udp".
	URLs []string `yaml:"urls" json:"urls"`

	// Username and Credential are required for turn: and turns: URIs.
	Username   string `yaml:"username,omitempty" json:"username,omitempty"`
	Credential string `yaml:"credential,omitempty" json:"credential,omitempty"`
}

// Configuration holds the ICE server list for a PeerConnection. An
// empty Configuration gathers host candidates only, which is enough
// for same-machine and same-LAN peers.
type Configuration struct {
	// ICEServers is tried in order during candidate gathering.
	ICEServers []ICEServer `yaml:"ice_servers" json:"ice_servers"`
}

// Validate checks every server URI and the credential requirements of
// TURN servers. The returned error wraps ErrInvalidParameter.
func (c Configuration) Validate() error {
	for serverIndex, server := range c.ICEServers {
		if len(server.URLs) == 0 {
			return fmt.Errorf("%w: ice server %d has no urls", ErrInvalidParameter, serverIndex)
		}
		for _, raw := range server.URLs {
			uri, err := stun.ParseURI(raw)
			if err != nil {
				return fmt.Errorf("%w: ice server %d: parsing %q: %v", ErrInvalidParameter, serverIndex, raw, err)
			}
			isTURN := uri.Scheme == stun.SchemeTypeTURN || uri.Scheme == stun.SchemeTypeTURNS
			if isTURN && (server.Username == "" || server.Credential == "") {
				return fmt.Errorf("%w: ice server %d: %q requires username and credential", ErrInvalidParameter, serverIndex, raw)
			}
		}
	}
	return nil
}

func (c Configuration) pion() webrtc.Configuration {
	servers := make([]webrtc.ICEServer, 0, len(c.ICEServers))
	for _, server := range c.ICEServers {
		entry := webrtc.ICEServer{
			URLs:     append([]string(nil), server.URLs...),
			Username: server.Username,
		}
		if server.Credential != "" {
			entry.Credential = server.Credential
		}
		servers = append(servers, entry)
	}
	return webrtc.Configuration{ICEServers: servers}
}

// ChannelConfig describes a data channel to create. The zero value is
// an ordered, reliable, in-band negotiated channel.
type ChannelConfig struct {
	// Ordered defaults to true when nil.
	Ordered *bool `yaml:"ordered,omitempty" json:"ordered,omitempty"`

	// MaxPacketLifeTime (milliseconds) and MaxRetransmits make the
	// channel partially reliable. At most one of them may be set.
	MaxPacketLifeTime *uint16 `yaml:"max_packet_life_time,omitempty" json:"max_packet_life_time,omitempty"`
	MaxRetransmits    *uint16 `yaml:"max_retransmits,omitempty" json:"max_retransmits,omitempty"`

	// Protocol is the optional sub-protocol name.
	Protocol string `yaml:"protocol,omitempty" json:"protocol,omitempty"`

	// Negotiated channels are agreed out of band: both peers create the
	// channel with the same ID and no data_channel_received signal is
	// raised. ID must be set exactly when Negotiated is true.
	Negotiated bool    `yaml:"negotiated,omitempty" json:"negotiated,omitempty"`
	ID         *uint16 `yaml:"id,omitempty" json:"id,omitempty"`
}

// Validate enforces the mutually exclusive fields. The returned error
// wraps ErrInvalidParameter.
func (c ChannelConfig) Validate() error {
	if c.MaxPacketLifeTime != nil && c.MaxRetransmits != nil {
		return fmt.Errorf("%w: max_packet_life_time and max_retransmits are mutually exclusive", ErrInvalidParameter)
	}
	if c.Negotiated && c.ID == nil {
		return fmt.Errorf("%w: negotiated channels require an id", ErrInvalidParameter)
	}
	if !c.Negotiated && c.ID != nil {
		return fmt.Errorf("%w: id is only meaningful for negotiated channels", ErrInvalidParameter)
	}
	return nil
}

func (c ChannelConfig) pion() *webrtc.DataChannelInit {
	init := &webrtc.DataChannelInit{
		Ordered:           c.Ordered,
		MaxPacketLifeTime: c.MaxPacketLifeTime,
		MaxRetransmits:    c.MaxRetransmits,
		ID:                c.ID,
	}
	if c.Protocol != "" {
		protocol := c.Protocol
		init.Protocol = &protocol
	}
	if c.Negotiated {
		negotiated := true
		init.Negotiated = &negotiated
	}
	return init
}
