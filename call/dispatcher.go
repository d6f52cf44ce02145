// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package call

// directiveKind enumerates every outbound signaling directive the
// state machine can produce, so dispatch is a single exhaustive
// switch rather than a method per message.
type directiveKind int

const (
	dirOffer directiveKind = iota
	dirAnswer
	dirIce
	dirHangup
	dirBusy
)

// String returns the directive name for logs.
func (k directiveKind) String() string {
	switch k {
	case dirOffer:
		return "offer"
	case dirAnswer:
		return "answer"
	case dirIce:
		return "ice"
	case dirHangup:
		return "hangup"
	case dirBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// directive is one queued outbound signaling message. essential
// marks the messages whose send failure terminates the call (the
// offer, and the answer); candidates, busy, and trailing hangups are
// best-effort.
type directive struct {
	kind       directiveKind
	broadcast  bool
	dest       DeviceID
	sdp        string
	candidates []IceCandidate
	essential  bool
}

// enqueueDirective appends a directive to the call's FIFO and pumps.
func (m *Manager) enqueueDirective(tok loopToken, c *callRecord, d directive) {
	c.queue = append(c.queue, d)
	m.pump(tok, c)
}

// pump releases the next directive when no message is in flight. It
// also flushes buffered local ICE candidates once the offer/answer
// has been transported, and concludes a terminated record once its
// queue drains.
func (m *Manager) pump(tok loopToken, c *callRecord) {
	if c.inFlight || c.concluded {
		return
	}

	if len(c.queue) == 0 {
		if !c.concluding && c.iceFlushReady && len(c.pendingIceOut) > 0 {
			broadcast, dest := c.hangupTarget()
			c.queue = append(c.queue, directive{
				kind:       dirIce,
				broadcast:  broadcast,
				dest:       dest,
				candidates: c.pendingIceOut,
			})
			c.pendingIceOut = nil
		} else {
			if c.concluding {
				m.conclude(tok, c)
			}
			return
		}
	}

	d := c.queue[0]
	c.queue = c.queue[1:]
	c.inFlight = true
	c.inFlightDirective = d

	id, remote := c.id, c.remote
	switch d.kind {
	case dirOffer:
		m.emitter.post(func() { m.callbacks.ShouldSendOffer(id, remote, d.broadcast, d.dest, d.sdp) })
	case dirAnswer:
		m.emitter.post(func() { m.callbacks.ShouldSendAnswer(id, remote, d.broadcast, d.dest, d.sdp) })
	case dirIce:
		m.emitter.post(func() { m.callbacks.ShouldSendIceCandidates(id, remote, d.broadcast, d.dest, d.candidates) })
	case dirHangup:
		m.emitter.post(func() { m.callbacks.ShouldSendHangup(id, remote, d.broadcast, d.dest) })
	case dirBusy:
		m.emitter.post(func() { m.callbacks.ShouldSendBusy(id, remote, d.broadcast, d.dest) })
	}
}

// handleMessageSent clears the in-flight slot and releases the next
// directive.
func (m *Manager) handleMessageSent(tok loopToken, c *callRecord) {
	d := c.inFlightDirective
	c.inFlight = false
	c.inFlightDirective = directive{}

	if d.kind == dirOffer || d.kind == dirAnswer {
		c.iceFlushReady = true
	}
	m.pump(tok, c)
}

// handleMessageSendFailure clears the in-flight slot. An essential
// failure terminates the call as SignalingFailure and discards the
// rest of the queue; optional failures log and continue.
func (m *Manager) handleMessageSendFailure(tok loopToken, c *callRecord) {
	d := c.inFlightDirective
	c.inFlight = false
	c.inFlightDirective = directive{}

	if d.essential && !c.concluding {
		m.logger.Warn("essential signaling message failed",
			"call", c.id, "kind", d.kind.String())
		c.queue = nil
		c.pendingIceOut = nil
		m.terminate(tok, c, ReasonSignalingFailure, terminateOptions{})
		return
	}

	m.logger.Warn("signaling message failed, continuing",
		"call", c.id, "kind", d.kind.String())
	m.pump(tok, c)
}
