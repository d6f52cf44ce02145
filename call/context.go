// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

import (
	"fmt"
	"log/slog"

	"github.com/carillon-foundation/carillon/media"
)

// callContext owns a call's media plane handles and the negotiated
// connection policy. It is created by Proceed and destroyed with the
// record.
type callContext struct {
	iceServers []media.ICEServer
	hideIP     bool

	audioSource media.AudioSource
	audioTrack  media.AudioTrack
	videoSource media.VideoSource
	videoTrack  media.VideoTrack
	capturer    media.Capturer
}

// newCallContext builds the local media pipeline from the injected
// factory: always audio, optionally video with its capturer.
func newCallContext(factory media.Factory, cfg CallConfig) (*callContext, error) {
	ctx := &callContext{
		iceServers: cfg.ICEServers,
		hideIP:     cfg.HideIP,
	}

	var err error
	if ctx.audioSource, err = factory.CreateAudioSource(); err != nil {
		return nil, fmt.Errorf("creating audio source: %w", err)
	}
	if ctx.audioTrack, err = factory.CreateAudioTrack(ctx.audioSource); err != nil {
		ctx.close(nil)
		return nil, fmt.Errorf("creating audio track: %w", err)
	}

	if cfg.EnableVideo {
		if ctx.videoSource, err = factory.CreateVideoSource(); err != nil {
			ctx.close(nil)
			return nil, fmt.Errorf("creating video source: %w", err)
		}
		if ctx.videoTrack, err = factory.CreateVideoTrack(ctx.videoSource); err != nil {
			ctx.close(nil)
			return nil, fmt.Errorf("creating video track: %w", err)
		}
		if ctx.capturer, err = factory.CreateCapturer(ctx.videoSource, true); err != nil {
			ctx.close(nil)
			return nil, fmt.Errorf("creating capturer: %w", err)
		}
		// Video starts disabled; SetLocalVideoEnabled turns the
		// capturer on.
		ctx.videoTrack.SetEnabled(false)
	}

	return ctx, nil
}

// connectionConfig returns the policy for the call's peer connection.
func (ctx *callContext) connectionConfig() media.ConnectionConfig {
	return media.ConnectionConfig{
		ICEServers: ctx.iceServers,
		HideIP:     ctx.hideIP,
	}
}

// videoSession bundles the local video pipeline for the application.
// Returns nil when the context has no video plane.
func (ctx *callContext) videoSession() *media.VideoSession {
	if ctx.videoTrack == nil {
		return nil
	}
	return &media.VideoSession{
		Capturer: ctx.capturer,
		Source:   ctx.videoSource,
		Track:    ctx.videoTrack,
	}
}

// close releases the media pipeline. Safe on a partially constructed
// context; logger may be nil during construction cleanup.
func (ctx *callContext) close(logger *slog.Logger) {
	if ctx.capturer != nil {
		if err := ctx.capturer.Stop(); err != nil && logger != nil {
			logger.Warn("stopping capturer failed", "error", err)
		}
		ctx.capturer = nil
	}
	if ctx.videoSource != nil {
		if err := ctx.videoSource.Close(); err != nil && logger != nil {
			logger.Warn("closing video source failed", "error", err)
		}
		ctx.videoSource = nil
	}
	ctx.videoTrack = nil
	if ctx.audioSource != nil {
		if err := ctx.audioSource.Close(); err != nil && logger != nil {
			logger.Warn("closing audio source failed", "error", err)
		}
		ctx.audioSource = nil
	}
	ctx.audioTrack = nil
}
