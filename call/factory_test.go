// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

import (
	"errors"
	"fmt"
	"sync"

	"github.com/carillon-foundation/carillon/media"
)

// scriptedFactory is the test media factory: it records every
// connection it builds and lets tests drive ICE and media progress
// through each connection's observer.
type scriptedFactory struct {
	mu          sync.Mutex
	conns       []*scriptedConn
	failConnect bool
}

var _ media.Factory = (*scriptedFactory)(nil)

func (f *scriptedFactory) CreateAudioSource() (media.AudioSource, error) {
	return &fakeSource{}, nil
}

func (f *scriptedFactory) CreateAudioTrack(source media.AudioSource) (media.AudioTrack, error) {
	return &fakeTrack{id: "local-audio", enabled: true}, nil
}

func (f *scriptedFactory) CreateVideoSource() (media.VideoSource, error) {
	return &fakeSource{}, nil
}

func (f *scriptedFactory) CreateVideoTrack(source media.VideoSource) (media.VideoTrack, error) {
	return &fakeTrack{id: "local-video", enabled: true}, nil
}

func (f *scriptedFactory) CreateCapturer(source media.VideoSource, frontFacing bool) (media.Capturer, error) {
	return &fakeCapturer{front: frontFacing}, nil
}

func (f *scriptedFactory) CreateConnection(config media.ConnectionConfig, observer media.ConnectionObserver) (media.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failConnect {
		return nil, errors.New("scripted connection failure")
	}
	conn := &scriptedConn{
		config:   config,
		observer: observer,
	}
	f.conns = append(f.conns, conn)
	return conn, nil
}

// conn returns the index-th connection the factory built.
func (f *scriptedFactory) conn(index int) *scriptedConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conns[index]
}

func (f *scriptedFactory) connCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

// scriptedConn is one fake peer connection. Tests inspect what the
// engine did to it and fire observer callbacks to script the media
// plane.
type scriptedConn struct {
	config   media.ConnectionConfig
	observer media.ConnectionObserver

	mu              sync.Mutex
	remoteOffer     string
	remoteAnswer    string
	addedCandidates []media.IceCandidate
	audioSenders    []media.AudioTrack
	videoSenders    []media.VideoTrack
	videoStatus     []bool
	closed          bool
}

var _ media.Connection = (*scriptedConn)(nil)

func (c *scriptedConn) CreateOffer() (string, error) {
	return "local-offer-sdp", nil
}

func (c *scriptedConn) AcceptAnswer(sdp string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remoteAnswer != "" {
		return fmt.Errorf("answer already accepted")
	}
	c.remoteAnswer = sdp
	return nil
}

func (c *scriptedConn) AcceptOffer(sdp string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remoteOffer = sdp
	return "local-answer-sdp", nil
}

func (c *scriptedConn) AddIceCandidate(candidate media.IceCandidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addedCandidates = append(c.addedCandidates, candidate)
	return nil
}

func (c *scriptedConn) AddAudioSender(track media.AudioTrack) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audioSenders = append(c.audioSenders, track)
	return nil
}

func (c *scriptedConn) AddVideoSender(track media.VideoTrack) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videoSenders = append(c.videoSenders, track)
	return nil
}

func (c *scriptedConn) SendVideoStatus(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videoStatus = append(c.videoStatus, enabled)
	return nil
}

func (c *scriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptedConn) candidates() []media.IceCandidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]media.IceCandidate(nil), c.addedCandidates...)
}

func (c *scriptedConn) acceptedAnswer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteAnswer
}

func (c *scriptedConn) acceptedOffer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteOffer
}

func (c *scriptedConn) statusSends() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bool(nil), c.videoStatus...)
}

func (c *scriptedConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeSource satisfies both source interfaces.
type fakeSource struct{}

func (*fakeSource) Close() error { return nil }

// fakeTrack satisfies AudioTrack and VideoTrack.
type fakeTrack struct {
	mu      sync.Mutex
	id      string
	enabled bool
}

func (t *fakeTrack) ID() string { return t.id }

func (t *fakeTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

func (t *fakeTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// fakeCapturer records start/stop/switch calls.
type fakeCapturer struct {
	mu      sync.Mutex
	front   bool
	started bool
}

func (c *fakeCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
	return nil
}

func (c *fakeCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	return nil
}

func (c *fakeCapturer) SetFrontFacing(front bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.front = front
	return nil
}

func (c *fakeCapturer) isStarted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// fakeStream is scripted remote media.
type fakeStream struct {
	audio []media.AudioTrack
	video []media.VideoTrack
}

var _ media.MediaStream = (*fakeStream)(nil)

func (s *fakeStream) AudioTracks() []media.AudioTrack { return s.audio }
func (s *fakeStream) VideoTracks() []media.VideoTrack { return s.video }

// audioVideoStream builds a stream with one audio and one video track.
func audioVideoStream() *fakeStream {
	return &fakeStream{
		audio: []media.AudioTrack{&fakeTrack{id: "remote-audio", enabled: true}},
		video: []media.VideoTrack{&fakeTrack{id: "remote-video", enabled: true}},
	}
}

// audioOnlyStream builds a stream with a single audio track.
func audioOnlyStream() *fakeStream {
	return &fakeStream{
		audio: []media.AudioTrack{&fakeTrack{id: "remote-audio", enabled: true}},
	}
}
