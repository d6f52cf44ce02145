// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"bytes"
	"testing"
	"time"

	"github.com/carillon-foundation/carillon/call"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	envelope := NewOffer(Offer{
		CallID:    0xdeadbeef,
		SDP:       "v=0...",
		Devices:   []uint32{1, 2, 3},
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
	})

	data, err := Encode(envelope)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.ID != envelope.ID {
		t.Errorf("ID = %v, want %v", decoded.ID, envelope.ID)
	}
	if decoded.Type != TypeOffer {
		t.Errorf("Type = %q, want offer", decoded.Type)
	}
	if decoded.Offer == nil {
		t.Fatal("Offer payload missing after round trip")
	}
	if decoded.Offer.CallID != 0xdeadbeef || decoded.Offer.SDP != "v=0..." {
		t.Errorf("Offer = %+v", decoded.Offer)
	}
	if len(decoded.Offer.Devices) != 3 {
		t.Errorf("Devices = %v, want three entries", decoded.Offer.Devices)
	}
	if !decoded.Offer.Time().Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Time() = %v", decoded.Offer.Time())
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	envelope := NewIceUpdate(IceUpdate{
		CallID:    7,
		SrcDevice: 2,
		Candidates: []IceCandidate{
			{Mid: "0", LineIndex: 0, SDP: "candidate:1"},
			{Mid: "0", LineIndex: 1, SDP: "candidate:2"},
		},
	})

	first, err := Encode(envelope)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	second, err := Encode(envelope)
	if err != nil {
		t.Fatalf("second Encode failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same envelope encoded to different bytes")
	}
}

func TestEncodeRejectsMismatchedPayload(t *testing.T) {
	broken := Envelope{Type: TypeOffer, Hangup: &Hangup{CallID: 1}}
	if _, err := Encode(broken); err == nil {
		t.Error("Encode accepted an envelope whose payload does not match its type")
	}
}

func TestUnknownTypeIsRejected(t *testing.T) {
	envelope := NewHangup(Hangup{CallID: 9})
	envelope.Type = "carrier-pigeon"
	if _, err := Encode(envelope); err == nil {
		t.Error("Encode accepted an unknown type tag")
	}
}

func TestCandidateConversion(t *testing.T) {
	engineCandidate := call.IceCandidate{SDPMid: "audio", SDPMLineIndex: 2, SDP: "candidate:42"}

	wire := CandidateFromCall(engineCandidate)
	back := wire.ToCall()

	if back != engineCandidate {
		t.Errorf("round trip = %+v, want %+v", back, engineCandidate)
	}
}

func TestFreshEnvelopesGetDistinctIDs(t *testing.T) {
	first := NewBusy(Busy{CallID: 1})
	second := NewBusy(Busy{CallID: 1})
	if first.ID == second.ID {
		t.Error("two envelopes share a message ID")
	}
}
