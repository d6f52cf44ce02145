// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryTransportDeliversInOrder(t *testing.T) {
	transport := NewMemoryTransport()
	defer transport.Close()

	const count = 100
	received := make(chan uint64, count)
	transport.EndpointB().OnReceive(func(envelope Envelope) {
		if envelope.Type != TypeHangup {
			t.Errorf("received type %q, want hangup", envelope.Type)
			return
		}
		received <- envelope.Hangup.CallID
	})

	for i := uint64(0); i < count; i++ {
		if err := transport.EndpointA().Send(NewHangup(Hangup{CallID: i})); err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
	}

	for i := uint64(0); i < count; i++ {
		select {
		case got := <-received:
			if got != i {
				t.Fatalf("delivery %d carried call %d, want %d", i, got, i)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for delivery %d", i)
		}
	}
}

func TestMemoryTransportIsBidirectional(t *testing.T) {
	transport := NewMemoryTransport()
	defer transport.Close()

	var wg sync.WaitGroup
	wg.Add(2)

	transport.EndpointA().OnReceive(func(envelope Envelope) {
		if envelope.Type == TypeBusy {
			wg.Done()
		}
	})
	transport.EndpointB().OnReceive(func(envelope Envelope) {
		if envelope.Type == TypeOffer {
			wg.Done()
		}
	})

	if err := transport.EndpointA().Send(NewOffer(Offer{CallID: 1, SDP: "s"})); err != nil {
		t.Fatalf("A→B Send failed: %v", err)
	}
	if err := transport.EndpointB().Send(NewBusy(Busy{CallID: 1})); err != nil {
		t.Fatalf("B→A Send failed: %v", err)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for bidirectional delivery")
	}
}

func TestMemoryTransportSendAfterCloseFails(t *testing.T) {
	transport := NewMemoryTransport()
	transport.Close()

	if err := transport.EndpointA().Send(NewHangup(Hangup{CallID: 1})); err == nil {
		t.Error("Send to a closed peer succeeded")
	}
}

func TestMemoryTransportRejectsInvalidEnvelope(t *testing.T) {
	transport := NewMemoryTransport()
	defer transport.Close()

	broken := Envelope{Type: TypeAnswer} // no payload
	if err := transport.EndpointA().Send(broken); err == nil {
		t.Error("Send accepted an envelope with no payload")
	}
}
