// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

import (
	"github.com/carillon-foundation/carillon/media"
)

// connObserver receives media-plane callbacks for one call and
// marshals each onto the state goroutine before touching the record.
// Callbacks racing a concluded call find no record and are dropped.
type connObserver struct {
	m  *Manager
	id CallID
}

// Compile-time interface check.
var _ media.ConnectionObserver = (*connObserver)(nil)

func (o *connObserver) OnIceCandidate(candidate media.IceCandidate) {
	o.m.post(func(tok loopToken) {
		c := o.m.lookup(tok, o.id)
		if c == nil || c.state == Terminated {
			return
		}
		c.pendingIceOut = append(c.pendingIceOut, candidate)
		o.m.pump(tok, c)
	})
}

func (o *connObserver) OnIceConnectionChange(state media.IceConnectionState) {
	o.m.post(func(tok loopToken) {
		c := o.m.lookup(tok, o.id)
		if c == nil || c.state == Terminated {
			return
		}
		o.m.handleIceState(tok, c, state)
	})
}

func (o *connObserver) OnRemoteStream(stream media.MediaStream) {
	o.m.post(func(tok loopToken) {
		c := o.m.lookup(tok, o.id)
		if c == nil || c.state == Terminated {
			return
		}
		o.m.handleRemoteStream(tok, c, stream)
	})
}

func (o *connObserver) OnRemoteVideoStatus(enabled bool) {
	o.m.post(func(tok loopToken) {
		c := o.m.lookup(tok, o.id)
		if c == nil || c.state == Terminated {
			return
		}
		event := EventRemoteVideoDisable
		if enabled {
			event = EventRemoteVideoEnable
		}
		o.m.emitEvent(tok, c, event)
	})
}

// buildConnection creates the peer connection for a record that just
// received its context, and binds the local senders. Runs on the
// state goroutine; CreateConnection is one of the two synchronous
// collaborator calls and must not re-enter the façade.
func (m *Manager) buildConnection(tok loopToken, c *callRecord) error {
	conn, err := m.factory.CreateConnection(c.context.connectionConfig(), &connObserver{m: m, id: c.id})
	if err != nil {
		return err
	}
	c.conn = conn

	if err := conn.AddAudioSender(c.context.audioTrack); err != nil {
		return err
	}
	if c.context.videoTrack != nil {
		if err := conn.AddVideoSender(c.context.videoTrack); err != nil {
			return err
		}
	}
	return nil
}

// injectBufferedCandidates replays remote candidates that arrived
// before the connection existed, in arrival order.
func (m *Manager) injectBufferedCandidates(_ loopToken, c *callRecord) {
	for _, candidate := range c.pendingIceIn {
		if err := c.conn.AddIceCandidate(candidate); err != nil {
			m.logger.Warn("injecting buffered candidate failed", "call", c.id, "error", err)
		}
	}
	c.pendingIceIn = nil
}

// handleIceState advances the state machine on ICE transport
// transitions.
func (m *Manager) handleIceState(tok loopToken, c *callRecord, state media.IceConnectionState) {
	m.logger.Debug("ice state", "call", c.id, "state", state.String())

	switch state {
	case media.IceConnected:
		switch c.state {
		case Proceeding:
			c.state = Ringing
			if c.direction == Outbound {
				m.emitEvent(tok, c, EventRingingRemote)
			} else {
				m.emitEvent(tok, c, EventRingingLocal)
			}
		case Reconnecting:
			if c.reconnectTimer != nil {
				c.reconnectTimer.Stop()
				c.reconnectTimer = nil
			}
			c.state = Connected
			m.emitEvent(tok, c, EventReconnected)
		}

	case media.IceDisconnected:
		if c.state != Connected {
			// Pre-connect glitches are the setup timer's problem.
			return
		}
		c.state = Reconnecting
		m.emitEvent(tok, c, EventReconnecting)
		id := c.id
		c.reconnectTimer = m.clock.AfterFunc(m.reconnectTimeout, func() {
			m.post(func(tok loopToken) {
				record := m.lookup(tok, id)
				if record == nil || record.state != Reconnecting {
					return
				}
				m.terminate(tok, record, ReasonConnectionFailure, terminateOptions{sendHangup: true})
			})
		})

	case media.IceFailed:
		m.terminate(tok, c, ReasonConnectionFailure, terminateOptions{sendHangup: true})

	case media.IceClosed:
		// Follows our own Close; nothing to do.
	}
}

// handleRemoteStream reacts to remote media arriving. Outbound calls
// connect immediately (the remote side only sends media once it
// accepted); inbound calls connect if already accepted, otherwise
// remember the stream until Accept.
func (m *Manager) handleRemoteStream(tok loopToken, c *callRecord, stream media.MediaStream) {
	c.remoteStream = stream
	c.mediaReady = true

	switch c.direction {
	case Outbound:
		if c.state == Proceeding || c.state == Ringing {
			m.connect(tok, c)
		}
	case Inbound:
		if c.state == Accepting {
			m.connect(tok, c)
		}
	}
}

// connect completes call setup: the record moves to Connected, the
// connected events fire, and the first remote video track (if any)
// is surfaced.
func (m *Manager) connect(tok loopToken, c *callRecord) {
	// Media can arrive before the ICE-connected notification; step
	// through Ringing silently so the transition stays legal.
	if c.state == Proceeding {
		c.state = Ringing
	}
	if !canTransition(c.state, Connected) {
		m.internalFailure(tok, c, "connect from state "+c.state.String())
		return
	}

	c.stopTimers()
	c.state = Connected
	c.connectedAt = m.clock.Now()

	if c.context != nil && c.context.audioTrack != nil {
		c.context.audioTrack.SetEnabled(true)
	}

	// Event order mirrors direction: the accepting side reports
	// itself connected first.
	if c.direction == Outbound {
		m.emitEvent(tok, c, EventConnectedRemote)
		m.emitEvent(tok, c, EventConnectedLocal)
	} else {
		m.emitEvent(tok, c, EventConnectedLocal)
		m.emitEvent(tok, c, EventConnectedRemote)
	}

	if c.remoteStream != nil {
		videos := c.remoteStream.VideoTracks()
		if len(videos) > 0 {
			remote, track := c.remote, videos[0]
			m.emitter.post(func() { m.callbacks.OnAddRemoteVideoTrack(remote, track) })
		} else {
			m.logger.Info("remote stream has no video track", "call", c.id)
		}
	}
}
