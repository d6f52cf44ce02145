// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

// State is the per-call state machine position.
//
// Outbound calls move Starting → Proceeding → Ringing → Connected.
// Inbound calls are Pending until the application proceeds, then
// Proceeding → Ringing → Accepting → Connected. Connected calls drop
// to Reconnecting on ICE loss and return on recovery. Terminated is
// terminal; records linger there only until trailing signaling
// drains.
type State int

const (
	// Idle is the zero value; no registered record carries it.
	Idle State = iota

	// Pending is an inbound call between ReceiveOffer and Proceed.
	// Pending calls are not "active": a second inbound offer does
	// not bounce off them as busy.
	Pending

	// Starting is an outbound call between Place and Proceed.
	Starting

	// Proceeding means the peer connection exists and the offer or
	// answer is being signaled.
	Proceeding

	// Ringing means ICE completed end-to-end and the remote (for
	// outbound) or local (for inbound) user is being alerted.
	Ringing

	// Accepting is an inbound call after Accept, waiting for media.
	Accepting

	// Connected means media is flowing.
	Connected

	// Reconnecting is a Connected call that lost ICE connectivity
	// and is inside its reconnect budget.
	Reconnecting

	// Terminated is terminal; the record's EndReason says why.
	Terminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Pending:
		return "Pending"
	case Starting:
		return "Starting"
	case Proceeding:
		return "Proceeding"
	case Ringing:
		return "Ringing"
	case Accepting:
		return "Accepting"
	case Connected:
		return "Connected"
	case Reconnecting:
		return "Reconnecting"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// active reports whether a call in this state claims the single
// active-call slot. Pending and Terminated records do not.
func (s State) active() bool {
	switch s {
	case Starting, Proceeding, Ringing, Accepting, Connected, Reconnecting:
		return true
	default:
		return false
	}
}

// validNext enumerates the legal forward transitions. Terminated is
// reachable from every non-terminal state and is therefore omitted
// here; transitions to it go through terminate, or through resetAll's
// silent teardown.
var validNext = map[State][]State{
	Pending:      {Proceeding},
	Starting:     {Proceeding},
	Proceeding:   {Ringing},
	Ringing:      {Accepting, Connected},
	Accepting:    {Connected},
	Connected:    {Reconnecting},
	Reconnecting: {Connected},
}

// canTransition reports whether from → to is a legal non-terminal
// transition.
func canTransition(from, to State) bool {
	for _, next := range validNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EndReason says why a call reached Terminated.
type EndReason int

const (
	ReasonNone EndReason = iota
	ReasonLocalHangup
	ReasonRemoteHangup
	ReasonRemoteBusy
	ReasonRemoteGlare
	ReasonTimeout
	ReasonInternalFailure
	ReasonSignalingFailure
	ReasonConnectionFailure
	ReasonDropped
	ReasonReceivedOfferExpired
	ReasonReceivedOfferWhileActive
)

// String returns the reason name.
func (r EndReason) String() string {
	switch r {
	case ReasonNone:
		return "None"
	case ReasonLocalHangup:
		return "LocalHangup"
	case ReasonRemoteHangup:
		return "RemoteHangup"
	case ReasonRemoteBusy:
		return "RemoteBusy"
	case ReasonRemoteGlare:
		return "RemoteGlare"
	case ReasonTimeout:
		return "Timeout"
	case ReasonInternalFailure:
		return "InternalFailure"
	case ReasonSignalingFailure:
		return "SignalingFailure"
	case ReasonConnectionFailure:
		return "ConnectionFailure"
	case ReasonDropped:
		return "Dropped"
	case ReasonReceivedOfferExpired:
		return "ReceivedOfferExpired"
	case ReasonReceivedOfferWhileActive:
		return "ReceivedOfferWhileActive"
	default:
		return "Unknown"
	}
}

// event maps a terminal reason to the Ended event the application
// sees. Whether the event actually fires is the terminator's choice:
// Drop and Reset suppress it.
func (r EndReason) event() (Event, bool) {
	switch r {
	case ReasonLocalHangup:
		return EventEndedLocalHangup, true
	case ReasonRemoteHangup:
		return EventEndedRemoteHangup, true
	case ReasonRemoteBusy:
		return EventEndedRemoteBusy, true
	case ReasonRemoteGlare:
		return EventEndedRemoteGlare, true
	case ReasonTimeout:
		return EventEndedTimeout, true
	case ReasonInternalFailure:
		return EventEndedInternalFailure, true
	case ReasonSignalingFailure:
		return EventEndedSignalingFailure, true
	case ReasonConnectionFailure:
		return EventEndedConnectionFailure, true
	case ReasonDropped:
		return EventEndedDropped, true
	case ReasonReceivedOfferExpired:
		return EventEndedReceivedOfferExpired, true
	case ReasonReceivedOfferWhileActive:
		return EventEndedReceivedOfferWhileActive, true
	default:
		return 0, false
	}
}
