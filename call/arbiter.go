// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

import "time"

// offerDisposition is the arbiter's verdict on an inbound offer.
type offerDisposition int

const (
	// offerRegister admits the offer as a new Pending call.
	offerRegister offerDisposition = iota
	// offerDuplicate is a repeat of a known CallID; ignored.
	offerDuplicate
	// offerExpired is older than the expiry window; refused without
	// ringing.
	offerExpired
	// offerGlareLocalLoses: the offer collides with our outbound
	// call to the same party and wins the ID comparison. Our call
	// ends as RemoteGlare; the offer is then admitted.
	offerGlareLocalLoses
	// offerGlareRemoteLoses: the colliding offer lost the ID
	// comparison and is refused; our outbound call is untouched.
	offerGlareRemoteLoses
	// offerBusy: some unrelated call is active; the offer is refused
	// with a Busy message.
	offerBusy
	// offerSupersedes: the same remote party re-offered with a new
	// CallID while an earlier inbound offer was still pending. The
	// older call is dropped, the new offer admitted.
	offerSupersedes
)

// String returns the disposition name for logs.
func (d offerDisposition) String() string {
	switch d {
	case offerRegister:
		return "register"
	case offerDuplicate:
		return "duplicate"
	case offerExpired:
		return "expired"
	case offerGlareLocalLoses:
		return "glare-local-loses"
	case offerGlareRemoteLoses:
		return "glare-remote-loses"
	case offerBusy:
		return "busy"
	case offerSupersedes:
		return "supersedes"
	default:
		return "unknown"
	}
}

// glareEligible reports whether an outbound call is still in the
// window where a colliding inbound offer means glare rather than a
// busy peer: nothing answered yet, so both sides dialed each other.
func glareEligible(c *callRecord) bool {
	if c.direction != Outbound {
		return false
	}
	switch c.state {
	case Starting, Proceeding, Ringing:
		return true
	default:
		return false
	}
}

// assessOffer classifies an inbound offer against the registry. The
// returned record is the collision partner for glare and supersede
// verdicts, nil otherwise. Runs on the state goroutine; the identity
// oracle is consulted synchronously.
func (m *Manager) assessOffer(tok loopToken, id CallID, remote RemoteHandle, timestamp time.Time) (offerDisposition, *callRecord) {
	if _, known := m.calls[id]; known {
		return offerDuplicate, nil
	}

	if m.clock.Now().Sub(timestamp) > m.offerExpiry {
		return offerExpired, nil
	}

	if active := m.activeCall(tok); active != nil {
		if glareEligible(active) && m.callbacks.ShouldCompareCalls(active.remote, remote) {
			// Glare: both sides dialed each other. The numerically
			// greater CallID survives; ties favor the established
			// outbound call.
			if uint64(id) > uint64(active.id) {
				return offerGlareLocalLoses, active
			}
			return offerGlareRemoteLoses, active
		}
		return offerBusy, nil
	}

	for _, c := range m.calls {
		if c.direction == Inbound && c.state == Pending && m.callbacks.ShouldCompareCalls(c.remote, remote) {
			return offerSupersedes, c
		}
	}

	return offerRegister, nil
}
