// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rtc

import (
	"fmt"
	"math"
	"strings"

	"github.com/pion/ice/v4"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

// ParseSessionDescription checks that sdpType names an offer, answer,
// or provisional answer and that body parses as SDP. Malformed input
// is rejected here with ErrInvalidParameter rather than surfacing as
// an opaque failure from deep inside the engine.
func ParseSessionDescription(sdpType, body string) (webrtc.SessionDescription, error) {
	parsedType := webrtc.NewSDPType(sdpType)
	switch parsedType {
	case webrtc.SDPTypeOffer, webrtc.SDPTypeAnswer, webrtc.SDPTypePranswer:
	default:
		return webrtc.SessionDescription{}, fmt.Errorf("%w: session description type %q", ErrInvalidParameter, sdpType)
	}

	var parsed sdp.SessionDescription
	if err := parsed.Unmarshal([]byte(body)); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: parsing %s sdp: %v", ErrInvalidParameter, sdpType, err)
	}

	return webrtc.SessionDescription{Type: parsedType, SDP: body}, nil
}

// ParseCandidate builds an ICE candidate from the three values carried
// by an ice_candidate_created signal. An empty candidate string is the
// end-of-candidates marker and is accepted as is.
func ParseCandidate(mid string, index int, candidate string) (webrtc.ICECandidateInit, error) {
	if index < 0 || index > math.MaxUint16 {
		return webrtc.ICECandidateInit{}, fmt.Errorf("%w: m-line index %d out of range", ErrInvalidParameter, index)
	}

	if candidate != "" {
		if _, err := ice.UnmarshalCandidate(strings.TrimPrefix(candidate, "candidate:")); err != nil {
			return webrtc.ICECandidateInit{}, fmt.Errorf("%w: parsing candidate: %v", ErrInvalidParameter, err)
		}
	}

	lineIndex := uint16(index)
	init := webrtc.ICECandidateInit{
		Candidate:     candidate,
		SDPMLineIndex: &lineIndex,
	}
	if mid != "" {
		init.SDPMid = &mid
	}
	return init, nil
}

// mediaSections returns the media names ("application", "audio", ...)
// of every m= line in an SDP body, for logging.
func mediaSections(body string) []string {
	var parsed sdp.SessionDescription
	if err := parsed.Unmarshal([]byte(body)); err != nil {
		return nil
	}
	sections := make([]string, 0, len(parsed.MediaDescriptions))
	for _, media := range parsed.MediaDescriptions {
		sections = append(sections, media.MediaName.Media)
	}
	return sections
}
