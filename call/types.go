// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

import (
	"fmt"

	"github.com/carillon-foundation/carillon/media"
)

// CallID identifies one call for the lifetime of the engine. The
// engine assigns IDs for outbound calls; inbound signaling carries
// the originator's ID verbatim. Glare resolution compares the two
// colliding IDs numerically, so IDs must be drawn uniformly from the
// full 64-bit range.
type CallID uint64

// String renders the ID in hex, matching its wire representation in
// logs on both sides of a call.
func (id CallID) String() string { return fmt.Sprintf("%016x", uint64(id)) }

// DeviceID identifies one of the remote party's devices. An outbound
// offer fans out to every device; exactly one device's answer is
// latched for the rest of the call.
type DeviceID uint32

// RemoteHandle is the application's opaque reference to the remote
// party. The engine never inspects it; identity questions go through
// the ShouldCompareCalls oracle. The engine keeps the handle
// reachable from registration until OnCallConcluded, after which the
// application may release it.
type RemoteHandle any

// Direction distinguishes who initiated the call.
type Direction int

const (
	// Outbound calls are placed locally via Place.
	Outbound Direction = iota
	// Inbound calls arrive via ReceiveOffer.
	Inbound
)

// String returns the lowercase direction name.
func (d Direction) String() string {
	if d == Outbound {
		return "outbound"
	}
	return "inbound"
}

// IceCandidate is the engine's wire form of one ICE candidate,
// shared with the media plane.
type IceCandidate = media.IceCandidate

// CallConfig is the configuration the application supplies via
// Proceed, committing to media setup for a call.
type CallConfig struct {
	// ICEServers is the STUN/TURN set for candidate gathering.
	ICEServers []media.ICEServer

	// HideIP restricts gathering to relay candidates so local
	// addresses never reach the remote party.
	HideIP bool

	// DeviceList enumerates the remote devices an outbound offer
	// fans out to. Ignored for inbound calls.
	DeviceList []DeviceID

	// EnableVideo provisions a local video pipeline (source, track,
	// capturer) in the call context. Audio is always provisioned.
	EnableVideo bool
}
