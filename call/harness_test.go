// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carillon-foundation/carillon/lib/clock"
	"github.com/carillon-foundation/carillon/media"
)

// harness wires a Manager to a scripted factory, a fake clock, and
// recording callbacks. Remote handles are plain strings compared by
// equality, and every callback is rendered to one line on the events
// channel so tests assert exact sequences.
type harness struct {
	t       *testing.T
	clock   *clock.FakeClock
	factory *scriptedFactory
	manager *Manager
	events  chan string

	nextID atomic.Uint64
}

// harnessConfig tweaks the engine deadlines per test.
type harnessConfig struct {
	setupTimeout     time.Duration
	reconnectTimeout time.Duration
	offerExpiry      time.Duration
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, harnessConfig{})
}

func newHarnessWith(t *testing.T, cfg harnessConfig) *harness {
	t.Helper()

	h := &harness{
		t:       t,
		clock:   clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		factory: &scriptedFactory{},
		events:  make(chan string, 1024),
	}
	h.nextID.Store(100)

	callbacks := Callbacks{
		ShouldStartCall: func(id CallID, remote RemoteHandle, outbound bool) {
			h.record("start id=%d remote=%s outbound=%v", uint64(id), remote, outbound)
		},
		OnEvent: func(remote RemoteHandle, event Event) {
			h.record("event remote=%s %s", remote, event)
		},
		ShouldSendOffer: func(id CallID, remote RemoteHandle, broadcast bool, dest DeviceID, sdp string) {
			h.record("send-offer id=%d broadcast=%v dest=%d sdp=%s", uint64(id), broadcast, dest, sdp)
		},
		ShouldSendAnswer: func(id CallID, remote RemoteHandle, broadcast bool, dest DeviceID, sdp string) {
			h.record("send-answer id=%d broadcast=%v dest=%d sdp=%s", uint64(id), broadcast, dest, sdp)
		},
		ShouldSendIceCandidates: func(id CallID, remote RemoteHandle, broadcast bool, dest DeviceID, candidates []IceCandidate) {
			h.record("send-ice id=%d broadcast=%v dest=%d n=%d", uint64(id), broadcast, dest, len(candidates))
		},
		ShouldSendHangup: func(id CallID, remote RemoteHandle, broadcast bool, dest DeviceID) {
			h.record("send-hangup id=%d broadcast=%v dest=%d", uint64(id), broadcast, dest)
		},
		ShouldSendBusy: func(id CallID, remote RemoteHandle, broadcast bool, dest DeviceID) {
			h.record("send-busy id=%d broadcast=%v dest=%d", uint64(id), broadcast, dest)
		},
		ShouldCompareCalls: func(remote1, remote2 RemoteHandle) bool {
			return remote1 == remote2
		},
		OnUpdateLocalVideoSession: func(remote RemoteHandle, session *media.VideoSession) {
			if session == nil {
				h.record("video-session remote=%s nil", remote)
			} else {
				h.record("video-session remote=%s set", remote)
			}
		},
		OnAddRemoteVideoTrack: func(remote RemoteHandle, track media.VideoTrack) {
			h.record("remote-video-track remote=%s id=%s", remote, track.ID())
		},
		OnCallConcluded: func(remote RemoteHandle) {
			h.record("concluded remote=%s", remote)
		},
	}

	manager, err := NewManager(ManagerConfig{
		Callbacks:        callbacks,
		Factory:          h.factory,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:            h.clock,
		NewCallID:        func() CallID { return CallID(h.nextID.Add(1) - 1) },
		SetupTimeout:     cfg.setupTimeout,
		ReconnectTimeout: cfg.reconnectTimeout,
		OfferExpiry:      cfg.offerExpiry,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	h.manager = manager
	t.Cleanup(func() { manager.Close() })

	return h
}

func (h *harness) record(format string, args ...any) {
	select {
	case h.events <- fmt.Sprintf(format, args...):
	default:
		h.t.Errorf("event channel overflow recording %q", fmt.Sprintf(format, args...))
	}
}

// setNextCallID pins the ID the next Place assigns.
func (h *harness) setNextCallID(id uint64) { h.nextID.Store(id) }

// expect asserts that the next recorded callbacks are exactly the
// given lines, in order.
func (h *harness) expect(want ...string) {
	h.t.Helper()
	for _, line := range want {
		select {
		case got := <-h.events:
			if got != line {
				h.t.Fatalf("callback = %q, want %q", got, line)
			}
		case <-time.After(5 * time.Second):
			h.t.Fatalf("timed out waiting for callback %q", line)
		}
	}
}

// expectSilence asserts that no callback arrives within a short
// settle window.
func (h *harness) expectSilence() {
	h.t.Helper()
	select {
	case got := <-h.events:
		h.t.Fatalf("unexpected callback %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}

// now returns the harness wall clock.
func (h *harness) now() time.Time { return h.clock.Now() }

// placeAndProceed runs the outbound setup preamble: Place, consume
// ShouldStartCall, Proceed, consume ShouldSendOffer, acknowledge it.
// Returns the CallID.
func (h *harness) placeAndProceed(remote string, devices ...DeviceID) CallID {
	h.t.Helper()

	id, err := h.manager.Place(remote)
	if err != nil {
		h.t.Fatalf("Place failed: %v", err)
	}
	h.expect(fmt.Sprintf("start id=%d remote=%s outbound=true", uint64(id), remote))

	if len(devices) == 0 {
		devices = []DeviceID{1}
	}
	if err := h.manager.Proceed(id, CallConfig{DeviceList: devices}); err != nil {
		h.t.Fatalf("Proceed failed: %v", err)
	}
	h.expect(fmt.Sprintf("send-offer id=%d broadcast=true dest=0 sdp=local-offer-sdp", uint64(id)))

	if err := h.manager.MessageSent(id); err != nil {
		h.t.Fatalf("MessageSent failed: %v", err)
	}
	return id
}

// connectOutbound takes an already-proceeded outbound call through
// answer, ICE, and media to Connected.
func (h *harness) connectOutbound(id CallID, remote string, device DeviceID) *scriptedConn {
	h.t.Helper()

	if err := h.manager.ReceiveAnswer(id, device, "remote-answer-sdp"); err != nil {
		h.t.Fatalf("ReceiveAnswer failed: %v", err)
	}

	conn := h.factory.conn(h.factory.connCount() - 1)
	conn.observer.OnIceConnectionChange(media.IceConnected)
	h.expect(fmt.Sprintf("event remote=%s RingingRemote", remote))

	conn.observer.OnRemoteStream(audioOnlyStream())
	h.expect(
		fmt.Sprintf("event remote=%s ConnectedRemote", remote),
		fmt.Sprintf("event remote=%s ConnectedLocal", remote),
	)
	return conn
}
