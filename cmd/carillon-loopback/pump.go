// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"sync"
	"time"

	pionmedia "github.com/pion/webrtc/v4/pkg/media"

	"github.com/carillon-foundation/carillon/media"
)

// opusSilence is a single Opus frame of silence. The loopback has no
// microphone; pumping silence keeps RTP flowing so the far side's
// OnTrack fires and the call reaches Connected.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

// sampleInterval matches the 20 ms Opus frame duration.
const sampleInterval = 20 * time.Millisecond

// pumpedFactory wraps the pion factory and feeds every audio track it
// creates with silence frames from a background pump.
type pumpedFactory struct {
	*media.PionFactory

	logger *slog.Logger

	mu     sync.Mutex
	tracks []*media.LocalSampleTrack
	stopCh chan struct{}
	once   sync.Once
}

func newPumpedFactory(logger *slog.Logger) (*pumpedFactory, error) {
	pion, err := media.NewPionFactory(media.PionConfig{Logger: logger})
	if err != nil {
		return nil, err
	}
	factory := &pumpedFactory{
		PionFactory: pion,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
	go factory.pump()
	return factory, nil
}

func (f *pumpedFactory) CreateAudioTrack(source media.AudioSource) (media.AudioTrack, error) {
	track, err := f.PionFactory.CreateAudioTrack(source)
	if err != nil {
		return nil, err
	}
	local := track.(*media.LocalSampleTrack)
	f.mu.Lock()
	f.tracks = append(f.tracks, local)
	f.mu.Unlock()
	return track, nil
}

func (f *pumpedFactory) stop() {
	f.once.Do(func() { close(f.stopCh) })
}

// pump writes one silence frame per interval into every enabled
// track. Write errors are expected while a track is not yet bound to
// a connection; they only log at debug level.
func (f *pumpedFactory) pump() {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.stopCh:
			return
		case <-ticker.C:
			f.mu.Lock()
			tracks := append([]*media.LocalSampleTrack(nil), f.tracks...)
			f.mu.Unlock()

			for _, track := range tracks {
				if !track.Enabled() {
					continue
				}
				sample := pionmedia.Sample{Data: opusSilence, Duration: sampleInterval}
				if err := track.SampleWriter().WriteSample(sample); err != nil {
					f.logger.Debug("sample write failed", "track", track.ID(), "error", err)
				}
			}
		}
	}
}
