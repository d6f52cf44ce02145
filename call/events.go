// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

// Event is a call lifecycle notification delivered through
// Callbacks.OnEvent. The numeric values are stable on the engine/UI
// boundary: platform bindings map them by index, so existing values
// must never be renumbered.
type Event int32

const (
	EventRingingLocal                  Event = 0
	EventRingingRemote                 Event = 1
	EventConnectedLocal                Event = 2
	EventConnectedRemote               Event = 3
	EventEndedLocalHangup              Event = 4
	EventEndedRemoteHangup             Event = 5
	EventEndedRemoteBusy               Event = 6
	EventEndedRemoteGlare              Event = 7
	EventEndedTimeout                  Event = 8
	EventEndedInternalFailure          Event = 9
	EventEndedSignalingFailure         Event = 10
	EventEndedConnectionFailure        Event = 11
	EventEndedDropped                  Event = 12
	EventRemoteVideoEnable             Event = 13
	EventRemoteVideoDisable            Event = 14
	EventReconnecting                  Event = 15
	EventReconnected                   Event = 16
	EventEndedReceivedOfferExpired     Event = 17
	EventEndedReceivedOfferWhileActive Event = 18
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventRingingLocal:
		return "RingingLocal"
	case EventRingingRemote:
		return "RingingRemote"
	case EventConnectedLocal:
		return "ConnectedLocal"
	case EventConnectedRemote:
		return "ConnectedRemote"
	case EventEndedLocalHangup:
		return "EndedLocalHangup"
	case EventEndedRemoteHangup:
		return "EndedRemoteHangup"
	case EventEndedRemoteBusy:
		return "EndedRemoteBusy"
	case EventEndedRemoteGlare:
		return "EndedRemoteGlare"
	case EventEndedTimeout:
		return "EndedTimeout"
	case EventEndedInternalFailure:
		return "EndedInternalFailure"
	case EventEndedSignalingFailure:
		return "EndedSignalingFailure"
	case EventEndedConnectionFailure:
		return "EndedConnectionFailure"
	case EventEndedDropped:
		return "EndedDropped"
	case EventRemoteVideoEnable:
		return "RemoteVideoEnable"
	case EventRemoteVideoDisable:
		return "RemoteVideoDisable"
	case EventReconnecting:
		return "Reconnecting"
	case EventReconnected:
		return "Reconnected"
	case EventEndedReceivedOfferExpired:
		return "EndedReceivedOfferExpired"
	case EventEndedReceivedOfferWhileActive:
		return "EndedReceivedOfferWhileActive"
	default:
		return "Unknown"
	}
}
