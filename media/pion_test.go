// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package media

import (
	"testing"

	"github.com/pion/webrtc/v4"
)

func TestConnectionConfigurationPolicy(t *testing.T) {
	tests := []struct {
		name   string
		hideIP bool
		want   webrtc.ICETransportPolicy
	}{
		{name: "direct", hideIP: false, want: webrtc.ICETransportPolicyAll},
		{name: "relay only", hideIP: true, want: webrtc.ICETransportPolicyRelay},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := connectionConfiguration(ConnectionConfig{
				ICEServers: []ICEServer{{URLs: []string{"stun:stun.example.org:3478"}}},
				HideIP:     test.hideIP,
			})

			if config.ICETransportPolicy != test.want {
				t.Errorf("ICETransportPolicy = %v, want %v", config.ICETransportPolicy, test.want)
			}
			if config.BundlePolicy != webrtc.BundlePolicyMaxBundle {
				t.Errorf("BundlePolicy = %v, want max-bundle", config.BundlePolicy)
			}
			if config.RTCPMuxPolicy != webrtc.RTCPMuxPolicyRequire {
				t.Errorf("RTCPMuxPolicy = %v, want require", config.RTCPMuxPolicy)
			}
			if len(config.ICEServers) != 1 {
				t.Fatalf("ICEServers count = %d, want 1", len(config.ICEServers))
			}
			if config.ICEServers[0].URLs[0] != "stun:stun.example.org:3478" {
				t.Errorf("ICE server URL = %q", config.ICEServers[0].URLs[0])
			}
		})
	}
}

func TestCandidateConversionToPion(t *testing.T) {
	original := IceCandidate{
		SDPMid:        "0",
		SDPMLineIndex: 1,
		SDP:           "candidate:842163049 1 udp 1677729535 198.51.100.7 51934 typ srflx",
	}

	init := candidateToPion(original)
	if init.Candidate != original.SDP {
		t.Errorf("Candidate = %q, want %q", init.Candidate, original.SDP)
	}
	if init.SDPMid == nil || *init.SDPMid != "0" {
		t.Errorf("SDPMid = %v, want \"0\"", init.SDPMid)
	}
	if init.SDPMLineIndex == nil || *init.SDPMLineIndex != 1 {
		t.Errorf("SDPMLineIndex = %v, want 1", init.SDPMLineIndex)
	}
}

func TestIceStateFromPion(t *testing.T) {
	tests := []struct {
		in     webrtc.ICEConnectionState
		want   IceConnectionState
		mapped bool
	}{
		{webrtc.ICEConnectionStateConnected, IceConnected, true},
		{webrtc.ICEConnectionStateCompleted, IceConnected, true},
		{webrtc.ICEConnectionStateDisconnected, IceDisconnected, true},
		{webrtc.ICEConnectionStateFailed, IceFailed, true},
		{webrtc.ICEConnectionStateClosed, IceClosed, true},
		{webrtc.ICEConnectionStateChecking, IceNew, false},
		{webrtc.ICEConnectionStateNew, IceNew, false},
	}

	for _, test := range tests {
		got, mapped := iceStateFromPion(test.in)
		if mapped != test.mapped {
			t.Errorf("iceStateFromPion(%v) mapped = %v, want %v", test.in, mapped, test.mapped)
			continue
		}
		if mapped && got != test.want {
			t.Errorf("iceStateFromPion(%v) = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestLocalTrackEnableGate(t *testing.T) {
	factory, err := NewPionFactory(PionConfig{})
	if err != nil {
		t.Fatalf("NewPionFactory failed: %v", err)
	}

	source, err := factory.CreateAudioSource()
	if err != nil {
		t.Fatalf("CreateAudioSource failed: %v", err)
	}
	track, err := factory.CreateAudioTrack(source)
	if err != nil {
		t.Fatalf("CreateAudioTrack failed: %v", err)
	}

	if !track.Enabled() {
		t.Error("new track starts disabled, want enabled")
	}
	track.SetEnabled(false)
	if track.Enabled() {
		t.Error("track still enabled after SetEnabled(false)")
	}
}

func TestCreateTrackRejectsForeignSource(t *testing.T) {
	factory, err := NewPionFactory(PionConfig{})
	if err != nil {
		t.Fatalf("NewPionFactory failed: %v", err)
	}

	if _, err := factory.CreateAudioTrack(foreignSource{}); err == nil {
		t.Error("CreateAudioTrack accepted a source from another factory")
	}
	if _, err := factory.CreateVideoTrack(foreignSource{}); err == nil {
		t.Error("CreateVideoTrack accepted a source from another factory")
	}
}

type foreignSource struct{}

func (foreignSource) Close() error { return nil }
