// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

import "testing"

func TestEventValuesAreWireStable(t *testing.T) {
	// These values cross the engine/UI boundary by index. A failure
	// here means an incompatible renumbering, not a refactor.
	want := map[Event]int32{
		EventRingingLocal:                  0,
		EventRingingRemote:                 1,
		EventConnectedLocal:                2,
		EventConnectedRemote:               3,
		EventEndedLocalHangup:              4,
		EventEndedRemoteHangup:             5,
		EventEndedRemoteBusy:               6,
		EventEndedRemoteGlare:              7,
		EventEndedTimeout:                  8,
		EventEndedInternalFailure:          9,
		EventEndedSignalingFailure:         10,
		EventEndedConnectionFailure:        11,
		EventEndedDropped:                  12,
		EventRemoteVideoEnable:             13,
		EventRemoteVideoDisable:            14,
		EventReconnecting:                  15,
		EventReconnected:                   16,
		EventEndedReceivedOfferExpired:     17,
		EventEndedReceivedOfferWhileActive: 18,
	}
	for event, value := range want {
		if int32(event) != value {
			t.Errorf("%s = %d, want %d", event, int32(event), value)
		}
	}
}

func TestActiveStates(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{Idle, false},
		{Pending, false},
		{Starting, true},
		{Proceeding, true},
		{Ringing, true},
		{Accepting, true},
		{Connected, true},
		{Reconnecting, true},
		{Terminated, false},
	}
	for _, test := range tests {
		if got := test.state.active(); got != test.want {
			t.Errorf("%s.active() = %v, want %v", test.state, got, test.want)
		}
	}
}

func TestTransitionTable(t *testing.T) {
	allowed := []struct{ from, to State }{
		{Pending, Proceeding},
		{Starting, Proceeding},
		{Proceeding, Ringing},
		{Ringing, Accepting},
		{Ringing, Connected},
		{Accepting, Connected},
		{Connected, Reconnecting},
		{Reconnecting, Connected},
	}
	for _, transition := range allowed {
		if !canTransition(transition.from, transition.to) {
			t.Errorf("canTransition(%s, %s) = false, want true", transition.from, transition.to)
		}
	}

	forbidden := []struct{ from, to State }{
		{Pending, Ringing},
		{Starting, Ringing},
		{Starting, Connected},
		{Connected, Ringing},
		{Terminated, Connected},
		{Reconnecting, Ringing},
	}
	for _, transition := range forbidden {
		if canTransition(transition.from, transition.to) {
			t.Errorf("canTransition(%s, %s) = true, want false", transition.from, transition.to)
		}
	}
}

func TestEndReasonEvents(t *testing.T) {
	// Every terminal reason except the zero value maps to an event.
	reasons := []EndReason{
		ReasonLocalHangup, ReasonRemoteHangup, ReasonRemoteBusy,
		ReasonRemoteGlare, ReasonTimeout, ReasonInternalFailure,
		ReasonSignalingFailure, ReasonConnectionFailure, ReasonDropped,
		ReasonReceivedOfferExpired, ReasonReceivedOfferWhileActive,
	}
	for _, reason := range reasons {
		if _, ok := reason.event(); !ok {
			t.Errorf("%s has no event mapping", reason)
		}
	}
	if _, ok := ReasonNone.event(); ok {
		t.Error("ReasonNone maps to an event, want none")
	}
}
