// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package media

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	"github.com/carillon-foundation/carillon/lib/codec"
)

// Compile-time interface checks.
var (
	_ Factory    = (*PionFactory)(nil)
	_ Connection = (*pionConnection)(nil)
)

// statusChannelLabel is the data channel carrying video-status
// messages between the two sides of a call.
const statusChannelLabel = "status"

// videoStatus is the CBOR payload exchanged on the status channel.
type videoStatus struct {
	VideoEnabled bool `cbor:"video_enabled"`
}

// PionFactory implements Factory on top of pion/webrtc. One factory
// serves all calls of an engine; each CreateConnection call produces
// an independent PeerConnection.
type PionFactory struct {
	api    *webrtc.API
	logger *slog.Logger

	// newCapturer builds the platform camera pipeline. The capture
	// stack is the embedder's; pion only carries the encoded frames.
	newCapturer func(source VideoSource, frontFacing bool) (Capturer, error)

	trackCounter atomic.Uint64
}

// PionConfig configures a PionFactory.
type PionConfig struct {
	// Logger receives both factory and pion-internal log records.
	Logger *slog.Logger

	// NewCapturer builds the camera capturer for a video source. When
	// nil, CreateCapturer returns an inert capturer — calls are then
	// audio-only unless the application writes video samples to the
	// track's SampleWriter itself.
	NewCapturer func(source VideoSource, frontFacing bool) (Capturer, error)
}

// NewPionFactory creates a factory with default codecs registered and
// pion's internal logging routed into cfg.Logger.
func NewPionFactory(cfg PionConfig) (*PionFactory, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("registering default codecs: %w", err)
	}

	settingEngine := webrtc.SettingEngine{
		LoggerFactory: &slogLoggerFactory{logger: logger},
	}

	return &PionFactory{
		api: webrtc.NewAPI(
			webrtc.WithMediaEngine(mediaEngine),
			webrtc.WithSettingEngine(settingEngine),
		),
		logger:      logger,
		newCapturer: cfg.NewCapturer,
	}, nil
}

// connectionConfiguration maps the engine's negotiated policy onto a
// pion Configuration: max-bundle, required rtcp-mux, and relay-only
// candidate gathering when the caller asked to hide its IP. DTLS-SRTP
// key agreement is pion's only mode, so no explicit constraint is
// needed.
func connectionConfiguration(config ConnectionConfig) webrtc.Configuration {
	servers := make([]webrtc.ICEServer, 0, len(config.ICEServers))
	for _, server := range config.ICEServers {
		servers = append(servers, webrtc.ICEServer{
			URLs:       server.URLs,
			Username:   server.Username,
			Credential: server.Credential,
		})
	}

	policy := webrtc.ICETransportPolicyAll
	if config.HideIP {
		policy = webrtc.ICETransportPolicyRelay
	}

	return webrtc.Configuration{
		ICEServers:         servers,
		BundlePolicy:       webrtc.BundlePolicyMaxBundle,
		RTCPMuxPolicy:      webrtc.RTCPMuxPolicyRequire,
		ICETransportPolicy: policy,
	}
}

// candidateFromPion converts a gathered pion candidate into the
// engine's wire form.
func candidateFromPion(candidate *webrtc.ICECandidate) IceCandidate {
	init := candidate.ToJSON()
	converted := IceCandidate{SDP: init.Candidate}
	if init.SDPMid != nil {
		converted.SDPMid = *init.SDPMid
	}
	if init.SDPMLineIndex != nil {
		converted.SDPMLineIndex = int32(*init.SDPMLineIndex)
	}
	return converted
}

// candidateToPion converts an engine candidate into pion's init form.
func candidateToPion(candidate IceCandidate) webrtc.ICECandidateInit {
	mid := candidate.SDPMid
	index := uint16(candidate.SDPMLineIndex)
	return webrtc.ICECandidateInit{
		Candidate:     candidate.SDP,
		SDPMid:        &mid,
		SDPMLineIndex: &index,
	}
}

// iceStateFromPion collapses pion's ICE state space down to the four
// transitions the call state machine reacts to.
func iceStateFromPion(state webrtc.ICEConnectionState) (IceConnectionState, bool) {
	switch state {
	case webrtc.ICEConnectionStateConnected, webrtc.ICEConnectionStateCompleted:
		return IceConnected, true
	case webrtc.ICEConnectionStateDisconnected:
		return IceDisconnected, true
	case webrtc.ICEConnectionStateFailed:
		return IceFailed, true
	case webrtc.ICEConnectionStateClosed:
		return IceClosed, true
	default:
		return IceNew, false
	}
}

func (f *PionFactory) CreateAudioSource() (AudioSource, error) {
	return &pionSource{}, nil
}

func (f *PionFactory) CreateAudioTrack(source AudioSource) (AudioTrack, error) {
	if _, ok := source.(*pionSource); !ok {
		return nil, fmt.Errorf("audio source %T was not created by this factory", source)
	}
	id := f.trackCounter.Add(1)
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		fmt.Sprintf("audio-%d", id),
		"carillon",
	)
	if err != nil {
		return nil, fmt.Errorf("creating audio track: %w", err)
	}
	return &LocalSampleTrack{track: track, enabled: true}, nil
}

func (f *PionFactory) CreateVideoSource() (VideoSource, error) {
	return &pionSource{}, nil
}

func (f *PionFactory) CreateVideoTrack(source VideoSource) (VideoTrack, error) {
	if _, ok := source.(*pionSource); !ok {
		return nil, fmt.Errorf("video source %T was not created by this factory", source)
	}
	id := f.trackCounter.Add(1)
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		fmt.Sprintf("video-%d", id),
		"carillon",
	)
	if err != nil {
		return nil, fmt.Errorf("creating video track: %w", err)
	}
	return &LocalSampleTrack{track: track, enabled: true}, nil
}

func (f *PionFactory) CreateCapturer(source VideoSource, frontFacing bool) (Capturer, error) {
	if f.newCapturer == nil {
		f.logger.Warn("no capturer constructor configured, camera capture disabled")
		return &nullCapturer{}, nil
	}
	return f.newCapturer(source, frontFacing)
}

func (f *PionFactory) CreateConnection(config ConnectionConfig, observer ConnectionObserver) (Connection, error) {
	peerConnection, err := f.api.NewPeerConnection(connectionConfiguration(config))
	if err != nil {
		return nil, fmt.Errorf("creating PeerConnection: %w", err)
	}

	connection := &pionConnection{
		pc:       peerConnection,
		observer: observer,
		logger:   f.logger,
	}

	peerConnection.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		// nil marks the end of gathering; trickle signaling has no
		// use for it.
		if candidate == nil {
			return
		}
		observer.OnIceCandidate(candidateFromPion(candidate))
	})

	peerConnection.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		if mapped, ok := iceStateFromPion(state); ok {
			observer.OnIceConnectionChange(mapped)
		}
	})

	peerConnection.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		connection.addRemoteTrack(remote)
	})

	peerConnection.OnDataChannel(func(channel *webrtc.DataChannel) {
		if channel.Label() != statusChannelLabel {
			return
		}
		connection.bindStatusChannel(channel)
	})

	// Every connection opens its own status channel, whatever its
	// role, and also binds the peer's channel in OnDataChannel. With
	// negotiated=false the two channels are independent.
	statusChannel, err := peerConnection.CreateDataChannel(statusChannelLabel, nil)
	if err != nil {
		peerConnection.Close()
		return nil, fmt.Errorf("creating status channel: %w", err)
	}
	connection.bindStatusChannel(statusChannel)

	return connection, nil
}

// pionSource is a placeholder source handle. Sample data enters
// through the track writer, not the source, so the source itself only
// anchors lifetime.
type pionSource struct{}

func (*pionSource) Close() error { return nil }

// LocalSampleTrack wraps a TrackLocalStaticSample with a mute gate.
// Embedders feed encoded media through SampleWriter and should
// consult Enabled before pushing samples.
type LocalSampleTrack struct {
	track   *webrtc.TrackLocalStaticSample
	enabled bool
	mu      sync.Mutex
}

func (t *LocalSampleTrack) ID() string { return t.track.ID() }

func (t *LocalSampleTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

func (t *LocalSampleTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SampleWriter exposes the underlying pion track for the embedder's
// encoder loop.
func (t *LocalSampleTrack) SampleWriter() *webrtc.TrackLocalStaticSample { return t.track }

// pionRemoteTrack wraps a TrackRemote for the application's renderer.
type pionRemoteTrack struct {
	track   *webrtc.TrackRemote
	enabled atomic.Bool
}

func newPionRemoteTrack(track *webrtc.TrackRemote) *pionRemoteTrack {
	remote := &pionRemoteTrack{track: track}
	remote.enabled.Store(true)
	return remote
}

func (t *pionRemoteTrack) ID() string            { return t.track.ID() }
func (t *pionRemoteTrack) SetEnabled(value bool) { t.enabled.Store(value) }
func (t *pionRemoteTrack) Enabled() bool         { return t.enabled.Load() }

// Reader exposes the underlying pion track for the application's
// decoder loop.
func (t *pionRemoteTrack) Reader() *webrtc.TrackRemote { return t.track }

// nullCapturer satisfies Capturer when no camera pipeline is
// configured.
type nullCapturer struct{}

func (*nullCapturer) Start() error                { return nil }
func (*nullCapturer) Stop() error                 { return nil }
func (*nullCapturer) SetFrontFacing(_ bool) error { return nil }

// pionRemoteStream aggregates remote tracks as they arrive.
type pionRemoteStream struct {
	mu    sync.Mutex
	audio []AudioTrack
	video []VideoTrack
}

func (s *pionRemoteStream) AudioTracks() []AudioTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AudioTrack(nil), s.audio...)
}

func (s *pionRemoteStream) VideoTracks() []VideoTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]VideoTrack(nil), s.video...)
}

// pionConnection implements Connection over one PeerConnection.
type pionConnection struct {
	pc       *webrtc.PeerConnection
	observer ConnectionObserver
	logger   *slog.Logger

	mu            sync.Mutex
	remoteStream  *pionRemoteStream
	streamSignal  bool
	statusChannel *webrtc.DataChannel
	statusOpen    bool
	lastStatus    *videoStatus
	closed        bool
}

func (c *pionConnection) CreateOffer() (string, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("creating offer: %w", err)
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("setting local description: %w", err)
	}
	return offer.SDP, nil
}

func (c *pionConnection) AcceptAnswer(sdp string) error {
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}
	if err := c.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("setting remote answer: %w", err)
	}
	return nil
}

func (c *pionConnection) AcceptOffer(sdp string) (string, error) {
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}
	if err := c.pc.SetRemoteDescription(offer); err != nil {
		return "", fmt.Errorf("setting remote offer: %w", err)
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("creating answer: %w", err)
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("setting local answer: %w", err)
	}
	return answer.SDP, nil
}

func (c *pionConnection) AddIceCandidate(candidate IceCandidate) error {
	if err := c.pc.AddICECandidate(candidateToPion(candidate)); err != nil {
		return fmt.Errorf("adding remote candidate: %w", err)
	}
	return nil
}

func (c *pionConnection) AddAudioSender(track AudioTrack) error {
	local, ok := track.(*LocalSampleTrack)
	if !ok {
		return fmt.Errorf("audio track %T was not created by this factory", track)
	}
	if _, err := c.pc.AddTrack(local.track); err != nil {
		return fmt.Errorf("adding audio sender: %w", err)
	}
	return nil
}

func (c *pionConnection) AddVideoSender(track VideoTrack) error {
	local, ok := track.(*LocalSampleTrack)
	if !ok {
		return fmt.Errorf("video track %T was not created by this factory", track)
	}
	if _, err := c.pc.AddTrack(local.track); err != nil {
		return fmt.Errorf("adding video sender: %w", err)
	}
	return nil
}

func (c *pionConnection) SendVideoStatus(enabled bool) error {
	status := videoStatus{VideoEnabled: enabled}

	c.mu.Lock()
	channel := c.statusChannel
	open := c.statusOpen
	if !open {
		// Channel not open yet: remember the latest status and send
		// it on open.
		c.lastStatus = &status
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	payload, err := codec.Marshal(status)
	if err != nil {
		return fmt.Errorf("encoding video status: %w", err)
	}
	if err := channel.Send(payload); err != nil {
		return fmt.Errorf("sending video status: %w", err)
	}
	return nil
}

func (c *pionConnection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.pc.Close()
}

// addRemoteTrack records an incoming track and fires OnRemoteStream
// on the first one.
func (c *pionConnection) addRemoteTrack(track *webrtc.TrackRemote) {
	c.mu.Lock()
	if c.remoteStream == nil {
		c.remoteStream = &pionRemoteStream{}
	}
	stream := c.remoteStream
	switch track.Kind() {
	case webrtc.RTPCodecTypeAudio:
		stream.mu.Lock()
		stream.audio = append(stream.audio, newPionRemoteTrack(track))
		stream.mu.Unlock()
	case webrtc.RTPCodecTypeVideo:
		stream.mu.Lock()
		stream.video = append(stream.video, newPionRemoteTrack(track))
		stream.mu.Unlock()
	}
	first := !c.streamSignal
	c.streamSignal = true
	c.mu.Unlock()

	if first {
		c.observer.OnRemoteStream(stream)
	}
}

// bindStatusChannel wires one side's status channel: decode inbound
// messages into observer callbacks and flush any status queued before
// the channel opened.
func (c *pionConnection) bindStatusChannel(channel *webrtc.DataChannel) {
	channel.OnMessage(func(message webrtc.DataChannelMessage) {
		var status videoStatus
		if err := codec.Unmarshal(message.Data, &status); err != nil {
			c.logger.Warn("undecodable video status message", "error", err)
			return
		}
		c.observer.OnRemoteVideoStatus(status.VideoEnabled)
	})

	channel.OnOpen(func() {
		c.mu.Lock()
		c.statusChannel = channel
		c.statusOpen = true
		pending := c.lastStatus
		c.lastStatus = nil
		c.mu.Unlock()

		if pending != nil {
			if err := c.SendVideoStatus(pending.VideoEnabled); err != nil {
				c.logger.Warn("flushing queued video status failed", "error", err)
			}
		}
	})
}
