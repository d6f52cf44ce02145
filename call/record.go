// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

import (
	"time"

	"github.com/carillon-foundation/carillon/lib/clock"
	"github.com/carillon-foundation/carillon/media"
)

// callRecord is the registry entry for one live CallID. Every field
// is owned by the state goroutine; nothing here is touched from
// outside a loopToken-bearing function.
type callRecord struct {
	id        CallID
	remote    RemoteHandle
	direction Direction
	state     State
	endReason EndReason

	createdAt   time.Time
	connectedAt time.Time

	// offerTimestamp is the wall time the remote composed the offer.
	// Inbound only; drives expiry.
	offerTimestamp time.Time
	// offerSDP holds the inbound offer until Proceed builds the
	// connection that consumes it.
	offerSDP string
	// srcDevice is the remote device that sent the inbound offer.
	srcDevice DeviceID

	// devices is the set of remote devices contacted by this call:
	// the fan-out list for outbound, the offering device for
	// inbound. Hangups broadcast here until a device is selected.
	devices []DeviceID

	// selectedDevice is latched from the first valid answer;
	// deviceSelected guards the zero value.
	selectedDevice DeviceID
	deviceSelected bool

	context *callContext
	conn    media.Connection

	// pendingIceIn buffers remote candidates that arrived before the
	// connection existed, in arrival order.
	pendingIceIn []IceCandidate
	// pendingIceOut buffers locally gathered candidates until the
	// dispatcher has a free slot after the offer or answer is
	// transported.
	pendingIceOut []IceCandidate
	// iceFlushReady is set once the offer/answer was reported sent;
	// before that, outbound candidates only accumulate.
	iceFlushReady bool

	// queue and inFlight implement the one-message-in-flight
	// discipline; see dispatcher.go.
	queue             []directive
	inFlight          bool
	inFlightDirective directive

	setupTimer     *clock.Timer
	reconnectTimer *clock.Timer

	// mediaReady records that remote media arrived while an inbound
	// call was still ringing; Accept completes the connect.
	mediaReady   bool
	remoteStream media.MediaStream

	// concluding marks a terminated record waiting for its trailing
	// signaling to drain; concluded guards double conclusion.
	concluding bool
	concluded  bool
}

// hangupTarget returns the addressing for a hangup: the latched
// device when one was selected, otherwise a broadcast to every
// contacted device.
func (c *callRecord) hangupTarget() (broadcast bool, dest DeviceID) {
	if c.deviceSelected {
		return false, c.selectedDevice
	}
	return true, 0
}

// stopTimers cancels any pending setup or reconnect deadline.
func (c *callRecord) stopTimers() {
	if c.setupTimer != nil {
		c.setupTimer.Stop()
		c.setupTimer = nil
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

// activeCall returns the unique record holding the active-call slot,
// or nil. Invariant I2 guarantees uniqueness; the linear scan is over
// a map that practically holds one or two entries.
func (m *Manager) activeCall(loopToken) *callRecord {
	for _, c := range m.calls {
		if c.state.active() {
			return c
		}
	}
	return nil
}

// lookup returns the record for id, or nil.
func (m *Manager) lookup(_ loopToken, id CallID) *callRecord {
	return m.calls[id]
}
