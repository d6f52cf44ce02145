// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

import "github.com/carillon-foundation/carillon/media"

// Callbacks is the capability bundle the application installs once at
// engine construction. Each slot is one callback; the engine
// dispatches outbound signaling directives and lifecycle events
// through them.
//
// Every slot except ShouldCompareCalls is invoked asynchronously on
// the engine's emitter goroutine, in strict order per call, and may
// call back into the Manager façade. ShouldCompareCalls runs
// synchronously on the state goroutine while glare is being resolved;
// it must answer from memory and must not re-enter the façade.
//
// A broadcast directive (broadcast == true, dest == 0) addresses
// every remote device contacted so far; otherwise dest names the one
// recipient.
//
// All slots are required; NewManager rejects a bundle with nil slots.
type Callbacks struct {
	// ShouldStartCall asks the application to ring the UI (inbound)
	// or start call setup (outbound), then commit with Proceed or,
	// for an inbound call, discard with Drop. Always the first
	// callback for its CallID.
	ShouldStartCall func(callID CallID, remote RemoteHandle, outbound bool)

	// OnEvent reports a lifecycle event for the call with the given
	// remote party.
	OnEvent func(remote RemoteHandle, event Event)

	// ShouldSendOffer transports an offer to the remote party.
	ShouldSendOffer func(callID CallID, remote RemoteHandle, broadcast bool, dest DeviceID, sdp string)

	// ShouldSendAnswer transports an answer to the offering device.
	ShouldSendAnswer func(callID CallID, remote RemoteHandle, broadcast bool, dest DeviceID, sdp string)

	// ShouldSendIceCandidates transports a batch of local candidates.
	ShouldSendIceCandidates func(callID CallID, remote RemoteHandle, broadcast bool, dest DeviceID, candidates []IceCandidate)

	// ShouldSendHangup transports a hangup for the call.
	ShouldSendHangup func(callID CallID, remote RemoteHandle, broadcast bool, dest DeviceID)

	// ShouldSendBusy transports a busy rejection for the call.
	ShouldSendBusy func(callID CallID, remote RemoteHandle, broadcast bool, dest DeviceID)

	// ShouldCompareCalls is the remote-identity oracle: report
	// whether two handles refer to the same remote party.
	// Synchronous; see the bundle comment.
	ShouldCompareCalls func(remote1, remote2 RemoteHandle) bool

	// OnUpdateLocalVideoSession reports the local video pipeline
	// after SetLocalVideoEnabled: the session when enabled, nil when
	// disabled.
	OnUpdateLocalVideoSession func(remote RemoteHandle, session *media.VideoSession)

	// OnAddRemoteVideoTrack surfaces the first remote video track
	// once remote media arrives.
	OnAddRemoteVideoTrack func(remote RemoteHandle, track media.VideoTrack)

	// OnCallConcluded fires exactly once per registered call, after
	// the terminal event and once trailing signaling has drained.
	// The application may release the RemoteHandle afterwards.
	OnCallConcluded func(remote RemoteHandle)
}

// validate reports the first missing slot, if any.
func (c *Callbacks) validate() error {
	checks := []struct {
		name string
		ok   bool
	}{
		{"ShouldStartCall", c.ShouldStartCall != nil},
		{"OnEvent", c.OnEvent != nil},
		{"ShouldSendOffer", c.ShouldSendOffer != nil},
		{"ShouldSendAnswer", c.ShouldSendAnswer != nil},
		{"ShouldSendIceCandidates", c.ShouldSendIceCandidates != nil},
		{"ShouldSendHangup", c.ShouldSendHangup != nil},
		{"ShouldSendBusy", c.ShouldSendBusy != nil},
		{"ShouldCompareCalls", c.ShouldCompareCalls != nil},
		{"OnUpdateLocalVideoSession", c.OnUpdateLocalVideoSession != nil},
		{"OnAddRemoteVideoTrack", c.OnAddRemoteVideoTrack != nil},
		{"OnCallConcluded", c.OnCallConcluded != nil},
	}
	for _, check := range checks {
		if !check.ok {
			return &APIError{Op: "NewManager", Message: "callback slot " + check.name + " is nil"}
		}
	}
	return nil
}
