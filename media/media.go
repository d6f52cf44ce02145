// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package media

// ICEServer describes one STUN or TURN server handed to a connection
// during candidate gathering. Order matters: servers are tried in
// sequence.
type ICEServer struct {
	URLs       []string `yaml:"urls" json:"urls"`
	Username   string   `yaml:"username,omitempty" json:"username,omitempty"`
	Credential string   `yaml:"credential,omitempty" json:"credential,omitempty"`
}

// IceCandidate is one ICE candidate in SDP attribute form. Immutable
// once constructed.
type IceCandidate struct {
	SDPMid        string
	SDPMLineIndex int32
	SDP           string
}

// ConnectionConfig is the negotiated policy for a single peer
// connection. HideIP forces relay-only candidate gathering so the
// local addresses never appear on the wire.
type ConnectionConfig struct {
	ICEServers []ICEServer
	HideIP     bool
}

// IceConnectionState is the engine-facing view of ICE transport
// progress. Implementations collapse the WebRTC state zoo down to the
// transitions the call state machine cares about.
type IceConnectionState int

const (
	IceNew IceConnectionState = iota
	IceConnected
	IceDisconnected
	IceFailed
	IceClosed
)

// String returns the lowercase state name.
func (s IceConnectionState) String() string {
	switch s {
	case IceNew:
		return "new"
	case IceConnected:
		return "connected"
	case IceDisconnected:
		return "disconnected"
	case IceFailed:
		return "failed"
	case IceClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AudioSource produces local audio. Owned by the call context and
// closed with it.
type AudioSource interface {
	Close() error
}

// AudioTrack is a local audio track bound to a connection as a sender.
type AudioTrack interface {
	// SetEnabled mutes (false) or unmutes (true) the track.
	SetEnabled(enabled bool)
	// Enabled reports the current mute state.
	Enabled() bool
}

// VideoSource produces local video frames, normally fed by a Capturer.
type VideoSource interface {
	Close() error
}

// VideoTrack is a video track, either a local sender track or a
// remote track surfaced to the application for rendering.
type VideoTrack interface {
	// ID identifies the track within its stream.
	ID() string
	// SetEnabled pauses (false) or resumes (true) the track.
	SetEnabled(enabled bool)
	// Enabled reports whether the track is live.
	Enabled() bool
}

// Capturer drives the platform camera pipeline into a VideoSource.
// The concrete capture stack (AVFoundation, Camera2, V4L2) belongs to
// the embedding application; the engine only starts, stops, and
// switches it.
type Capturer interface {
	Start() error
	Stop() error
	// SetFrontFacing selects the front (true) or rear (false) camera.
	SetFrontFacing(front bool) error
}

// VideoSession bundles the local video pipeline handed to the
// application when local video is enabled. A nil *VideoSession in the
// update callback means local video is now disabled.
type VideoSession struct {
	Capturer Capturer
	Source   VideoSource
	Track    VideoTrack
}

// MediaStream is the remote media surfaced when a connection starts
// receiving. Track order is arrival order.
type MediaStream interface {
	AudioTracks() []AudioTrack
	VideoTracks() []VideoTrack
}

// ConnectionObserver receives connection progress. Callbacks may
// arrive on arbitrary goroutines and must not call back into the
// connection synchronously.
type ConnectionObserver interface {
	// OnIceCandidate delivers one locally gathered candidate for
	// trickle signaling.
	OnIceCandidate(candidate IceCandidate)

	// OnIceConnectionChange reports ICE transport transitions.
	OnIceConnectionChange(state IceConnectionState)

	// OnRemoteStream fires once when remote media first arrives.
	OnRemoteStream(stream MediaStream)

	// OnRemoteVideoStatus reports the remote side enabling or
	// disabling its camera, carried over the connection's status
	// channel.
	OnRemoteVideoStatus(enabled bool)
}

// Connection is one peer connection. All methods are callable from
// the engine's state goroutine; implementations must not invoke
// observer callbacks synchronously from within them.
type Connection interface {
	// CreateOffer produces and installs the local offer description,
	// returning its SDP.
	CreateOffer() (sdp string, err error)

	// AcceptAnswer installs the remote answer description on a
	// connection that previously created the offer.
	AcceptAnswer(sdp string) error

	// AcceptOffer installs the remote offer description, then
	// produces and installs the local answer, returning its SDP.
	AcceptOffer(sdp string) (answerSDP string, err error)

	// AddIceCandidate injects one remote candidate.
	AddIceCandidate(candidate IceCandidate) error

	// AddAudioSender binds a local audio track to the connection.
	AddAudioSender(track AudioTrack) error

	// AddVideoSender binds a local video track to the connection.
	AddVideoSender(track VideoTrack) error

	// SendVideoStatus tells the remote side whether local video is
	// flowing. Delivery is best-effort; errors are logged, not fatal.
	SendVideoStatus(enabled bool) error

	// Close tears the connection down. Idempotent.
	Close() error
}

// Factory builds the media plane for one call. The embedding
// application supplies one Factory per engine; it is consulted
// synchronously from the engine's state goroutine and must not call
// back into the engine.
type Factory interface {
	CreateAudioSource() (AudioSource, error)
	CreateAudioTrack(source AudioSource) (AudioTrack, error)
	CreateVideoSource() (VideoSource, error)
	CreateVideoTrack(source VideoSource) (VideoTrack, error)

	// CreateCapturer binds the platform camera to the given source.
	// frontFacing selects the initial camera.
	CreateCapturer(source VideoSource, frontFacing bool) (Capturer, error)

	// CreateConnection builds a peer connection configured per the
	// call's negotiated policy, delivering progress to observer.
	CreateConnection(config ConnectionConfig, observer ConnectionObserver) (Connection, error)
}
