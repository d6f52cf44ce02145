// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

import "time"

// ReceiveOffer delivers an inbound call offer from the signaling
// transport. The arbiter decides whether it rings, collides with an
// in-flight outbound call (glare), bounces off an active call
// (busy), or is too old to surface.
//
// remote is the application's handle for the originating party;
// srcDevice identifies which of their devices sent the offer;
// timestamp is the wall time the offer was composed, used for
// expiry.
func (m *Manager) ReceiveOffer(id CallID, remote RemoteHandle, srcDevice DeviceID, sdp string, timestamp time.Time) error {
	return m.submit("ReceiveOffer", func(tok loopToken) error {
		disposition, partner := m.assessOffer(tok, id, remote, timestamp)
		m.logger.Info("inbound offer", "call", id, "device", srcDevice,
			"disposition", disposition.String())

		switch disposition {
		case offerDuplicate:
			return nil

		case offerExpired:
			// Refused before registration: the event fires, no
			// ShouldStartCall, no handle retained.
			m.emitter.post(func() { m.callbacks.OnEvent(remote, EventEndedReceivedOfferExpired) })
			return nil

		case offerBusy:
			// Register an already-terminated record so the Busy
			// directive obeys the in-flight discipline, then let it
			// conclude once the transport acknowledges.
			c := &callRecord{
				id:        id,
				remote:    remote,
				direction: Inbound,
				state:     Terminated,
				endReason: ReasonReceivedOfferWhileActive,
				createdAt: m.clock.Now(),
				srcDevice: srcDevice,
				devices:   []DeviceID{srcDevice},
			}
			m.calls[id] = c
			c.concluding = true
			c.queue = append(c.queue, directive{kind: dirBusy, dest: srcDevice})
			m.pump(tok, c)
			m.emitEvent(tok, c, EventEndedReceivedOfferWhileActive)
			return nil

		case offerGlareRemoteLoses:
			m.emitter.post(func() { m.callbacks.OnEvent(remote, EventEndedRemoteGlare) })
			return nil

		case offerGlareLocalLoses:
			m.terminate(tok, partner, ReasonRemoteGlare, terminateOptions{sendHangup: true})

		case offerSupersedes:
			// The older pending offer was already surfaced to the
			// UI, so its disappearance must be.
			m.terminate(tok, partner, ReasonDropped, terminateOptions{})
		}

		c := &callRecord{
			id:             id,
			remote:         remote,
			direction:      Inbound,
			state:          Pending,
			createdAt:      m.clock.Now(),
			offerTimestamp: timestamp,
			offerSDP:       sdp,
			srcDevice:      srcDevice,
			devices:        []DeviceID{srcDevice},
		}
		m.calls[id] = c
		m.startSetupTimer(tok, c)

		m.emitter.post(func() { m.callbacks.ShouldStartCall(id, remote, false) })
		return nil
	})
}

// ReceiveAnswer delivers the remote answer for an outbound call. The
// first valid answer latches its source device; later answers from
// other devices are ignored.
func (m *Manager) ReceiveAnswer(id CallID, srcDevice DeviceID, sdp string) error {
	return m.submit("ReceiveAnswer", func(tok loopToken) error {
		c := m.lookup(tok, id)
		if c == nil || c.state == Terminated {
			m.logger.Debug("answer for unknown or ended call", "call", id)
			return nil
		}
		if c.direction != Outbound {
			m.logger.Warn("answer for inbound call ignored", "call", id)
			return nil
		}
		if c.deviceSelected {
			// Another device answered first.
			return nil
		}
		if c.state != Proceeding && c.state != Ringing {
			m.logger.Warn("answer in unexpected state ignored", "call", id, "state", c.state.String())
			return nil
		}

		if err := c.conn.AcceptAnswer(sdp); err != nil {
			m.logger.Error("applying remote answer failed", "call", id, "error", err)
			m.terminate(tok, c, ReasonInternalFailure, terminateOptions{sendHangup: true})
			return nil
		}

		c.selectedDevice = srcDevice
		c.deviceSelected = true
		m.logger.Info("answer latched", "call", id, "device", srcDevice)
		return nil
	})
}

// ReceiveIceCandidates delivers remote ICE candidates. Candidates
// arriving before the peer connection exists are buffered and
// replayed in arrival order once Proceed builds it. After an answer
// latches a device, candidates from other devices are discarded.
func (m *Manager) ReceiveIceCandidates(id CallID, srcDevice DeviceID, candidates []IceCandidate) error {
	return m.submit("ReceiveIceCandidates", func(tok loopToken) error {
		c := m.lookup(tok, id)
		if c == nil || c.state == Terminated {
			m.logger.Debug("candidates for unknown or ended call", "call", id)
			return nil
		}
		if c.direction == Outbound && c.deviceSelected && srcDevice != c.selectedDevice {
			return nil
		}

		if c.conn == nil {
			c.pendingIceIn = append(c.pendingIceIn, candidates...)
			return nil
		}
		for _, candidate := range candidates {
			if err := c.conn.AddIceCandidate(candidate); err != nil {
				m.logger.Warn("adding remote candidate failed", "call", id, "error", err)
			}
		}
		return nil
	})
}

// ReceiveHangup delivers a remote hangup: the call terminates as
// RemoteHangup with no signaling in response.
func (m *Manager) ReceiveHangup(id CallID, srcDevice DeviceID) error {
	return m.submit("ReceiveHangup", func(tok loopToken) error {
		c := m.lookup(tok, id)
		if c == nil || c.state == Terminated {
			m.logger.Debug("hangup for unknown or ended call", "call", id)
			return nil
		}
		m.terminate(tok, c, ReasonRemoteHangup, terminateOptions{})
		return nil
	})
}

// ReceiveBusy delivers a remote busy rejection: the addressed call
// terminates as RemoteBusy.
func (m *Manager) ReceiveBusy(id CallID, srcDevice DeviceID) error {
	return m.submit("ReceiveBusy", func(tok loopToken) error {
		c := m.lookup(tok, id)
		if c == nil || c.state == Terminated {
			m.logger.Debug("busy for unknown or ended call", "call", id)
			return nil
		}
		m.terminate(tok, c, ReasonRemoteBusy, terminateOptions{})
		return nil
	})
}
