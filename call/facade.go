// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

// Place creates an outbound call to remote and returns its fresh
// CallID. The engine answers with ShouldStartCall; the application
// then commits with Proceed. Fails if another call already holds the
// active slot.
func (m *Manager) Place(remote RemoteHandle) (CallID, error) {
	var id CallID
	err := m.submit("Place", func(tok loopToken) error {
		if active := m.activeCall(tok); active != nil {
			return &APIError{Op: "Place", Message: "call " + active.id.String() + " is already active"}
		}

		id = m.freshCallID(tok)
		c := &callRecord{
			id:        id,
			remote:    remote,
			direction: Outbound,
			state:     Starting,
			createdAt: m.clock.Now(),
		}
		m.calls[id] = c
		m.startSetupTimer(tok, c)

		m.logger.Info("placing call", "call", id)
		remote := c.remote
		m.emitter.post(func() { m.callbacks.ShouldStartCall(id, remote, true) })
		return nil
	})
	return id, err
}

// Proceed supplies the negotiated configuration so the engine can
// build the call's media plane and peer connection. Valid in Starting
// (outbound, after ShouldStartCall) and Pending (inbound, after
// ShouldStartCall). An inbound offer that expired while the
// application deliberated terminates as ReceivedOfferExpired instead
// of proceeding.
func (m *Manager) Proceed(id CallID, cfg CallConfig) error {
	return m.submit("Proceed", func(tok loopToken) error {
		c := m.lookup(tok, id)
		if c == nil {
			return errUnknownCall("Proceed", id)
		}

		switch c.state {
		case Starting:
			if len(cfg.DeviceList) == 0 {
				return &APIError{Op: "Proceed", Message: "outbound call needs a non-empty device list"}
			}
		case Pending:
			if m.clock.Now().Sub(c.offerTimestamp) > m.offerExpiry {
				m.terminate(tok, c, ReasonReceivedOfferExpired, terminateOptions{})
				return nil
			}
		default:
			return errInvalidState("Proceed", id, c.state)
		}

		context, err := newCallContext(m.factory, cfg)
		if err != nil {
			m.logger.Error("media pipeline construction failed", "call", id, "error", err)
			m.terminate(tok, c, ReasonInternalFailure, terminateOptions{})
			return nil
		}
		c.context = context

		if err := m.buildConnection(tok, c); err != nil {
			m.logger.Error("peer connection construction failed", "call", id, "error", err)
			m.terminate(tok, c, ReasonInternalFailure, terminateOptions{})
			return nil
		}

		switch c.direction {
		case Outbound:
			c.devices = append([]DeviceID(nil), cfg.DeviceList...)
			sdp, err := c.conn.CreateOffer()
			if err != nil {
				m.logger.Error("creating offer failed", "call", id, "error", err)
				m.terminate(tok, c, ReasonInternalFailure, terminateOptions{})
				return nil
			}
			c.state = Proceeding
			m.enqueueDirective(tok, c, directive{
				kind:      dirOffer,
				broadcast: true,
				sdp:       sdp,
				essential: true,
			})

		case Inbound:
			answerSDP, err := c.conn.AcceptOffer(c.offerSDP)
			if err != nil {
				m.logger.Error("answering offer failed", "call", id, "error", err)
				m.terminate(tok, c, ReasonInternalFailure, terminateOptions{})
				return nil
			}
			c.offerSDP = ""
			c.state = Proceeding
			m.enqueueDirective(tok, c, directive{
				kind:      dirAnswer,
				dest:      c.srcDevice,
				sdp:       answerSDP,
				essential: true,
			})
			m.injectBufferedCandidates(tok, c)
		}
		return nil
	})
}

// Accept answers a ringing inbound call: media is enabled and the
// call connects as soon as remote media flows (immediately, if it
// already arrived while ringing).
func (m *Manager) Accept(id CallID) error {
	return m.submit("Accept", func(tok loopToken) error {
		c := m.lookup(tok, id)
		if c == nil {
			return errUnknownCall("Accept", id)
		}
		if c.direction != Inbound {
			return &APIError{Op: "Accept", Message: "call " + id.String() + " is outbound"}
		}
		if c.state != Ringing {
			return errInvalidState("Accept", id, c.state)
		}

		if c.mediaReady {
			m.connect(tok, c)
			return nil
		}
		c.state = Accepting
		return nil
	})
}

// Hangup ends the currently active call: a hangup is dispatched to
// the contacted devices and the call terminates as LocalHangup.
func (m *Manager) Hangup() error {
	return m.submit("Hangup", func(tok loopToken) error {
		c := m.activeCall(tok)
		if c == nil {
			return &APIError{Op: "Hangup", Message: "no active call"}
		}
		m.terminate(tok, c, ReasonLocalHangup, terminateOptions{sendHangup: true})
		return nil
	})
}

// Drop silently tears down an inbound call the application chose not
// to surface: no event, no signaling to the remote party.
func (m *Manager) Drop(id CallID) error {
	return m.submit("Drop", func(tok loopToken) error {
		c := m.lookup(tok, id)
		if c == nil {
			return errUnknownCall("Drop", id)
		}
		if c.direction != Inbound {
			return &APIError{Op: "Drop", Message: "call " + id.String() + " is outbound"}
		}
		m.terminate(tok, c, ReasonDropped, terminateOptions{silent: true})
		return nil
	})
}

// MessageSent acknowledges that the transport delivered the in-flight
// message for id, releasing the next queued directive. Acknowledging
// a call that has already concluded is not an error — transport
// completions legitimately trail termination.
func (m *Manager) MessageSent(id CallID) error {
	return m.submit("MessageSent", func(tok loopToken) error {
		c := m.lookup(tok, id)
		if c == nil {
			m.logger.Debug("message-sent for concluded call", "call", id)
			return nil
		}
		if !c.inFlight {
			return &APIError{Op: "MessageSent", Message: "call " + id.String() + " has no message in flight"}
		}
		m.handleMessageSent(tok, c)
		return nil
	})
}

// MessageSendFailure reports that the transport could not deliver the
// in-flight message. Essential messages (offer, answer) terminate the
// call as SignalingFailure; optional ones log and continue.
func (m *Manager) MessageSendFailure(id CallID) error {
	return m.submit("MessageSendFailure", func(tok loopToken) error {
		c := m.lookup(tok, id)
		if c == nil {
			m.logger.Debug("message-send-failure for concluded call", "call", id)
			return nil
		}
		if !c.inFlight {
			return &APIError{Op: "MessageSendFailure", Message: "call " + id.String() + " has no message in flight"}
		}
		m.handleMessageSendFailure(tok, c)
		return nil
	})
}

// Reset hard-tears-down every call: media closed, queues discarded,
// handles released through OnCallConcluded, no Ended events. The
// escape hatch after an error the application cannot diagnose.
func (m *Manager) Reset() error {
	return m.submit("Reset", func(tok loopToken) error {
		m.resetAll(tok)
		return nil
	})
}

// SetLocalAudioEnabled mutes or unmutes the active call's microphone
// track.
func (m *Manager) SetLocalAudioEnabled(enabled bool) error {
	return m.submit("SetLocalAudioEnabled", func(tok loopToken) error {
		c := m.activeCall(tok)
		if c == nil || c.context == nil {
			return &APIError{Op: "SetLocalAudioEnabled", Message: "no active call with media"}
		}
		c.context.audioTrack.SetEnabled(enabled)
		return nil
	})
}

// SetLocalVideoEnabled starts or stops the call's local video: the
// capturer, the sender track, the remote-side status message, and
// the OnUpdateLocalVideoSession notification.
func (m *Manager) SetLocalVideoEnabled(id CallID, enabled bool) error {
	return m.submit("SetLocalVideoEnabled", func(tok loopToken) error {
		c := m.lookup(tok, id)
		if c == nil {
			return errUnknownCall("SetLocalVideoEnabled", id)
		}
		if c.context == nil || c.context.videoTrack == nil {
			return &APIError{Op: "SetLocalVideoEnabled", Message: "call " + id.String() + " has no video pipeline"}
		}

		if enabled {
			if err := c.context.capturer.Start(); err != nil {
				m.logger.Error("starting capturer failed", "call", id, "error", err)
				return &APIError{Op: "SetLocalVideoEnabled", Message: "capturer failed to start"}
			}
		} else {
			if err := c.context.capturer.Stop(); err != nil {
				m.logger.Warn("stopping capturer failed", "call", id, "error", err)
			}
		}
		c.context.videoTrack.SetEnabled(enabled)

		if c.conn != nil {
			if err := c.conn.SendVideoStatus(enabled); err != nil {
				m.logger.Warn("sending video status failed", "call", id, "error", err)
			}
		}

		remote := c.remote
		session := c.context.videoSession()
		if !enabled {
			session = nil
		}
		m.emitter.post(func() { m.callbacks.OnUpdateLocalVideoSession(remote, session) })
		return nil
	})
}

// SetCameraSource switches the active call's capturer between the
// front and rear camera.
func (m *Manager) SetCameraSource(front bool) error {
	return m.submit("SetCameraSource", func(tok loopToken) error {
		c := m.activeCall(tok)
		if c == nil || c.context == nil || c.context.capturer == nil {
			return &APIError{Op: "SetCameraSource", Message: "no active call with a capturer"}
		}
		if err := c.context.capturer.SetFrontFacing(front); err != nil {
			m.logger.Warn("switching camera failed", "call", c.id, "error", err)
			return &APIError{Op: "SetCameraSource", Message: "camera switch failed"}
		}
		return nil
	})
}
