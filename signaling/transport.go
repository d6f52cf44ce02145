// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"fmt"
	"sync"
)

// MemoryTransport joins two endpoints in process, bypassing any
// network. Each Send runs the full Encode/Decode path before
// delivery, so tests and demos exercise the real wire encoding. The
// loopback demo holds endpoint A for the caller and endpoint B for
// the callee.
type MemoryTransport struct {
	a, b *MemoryEndpoint
}

// NewMemoryTransport creates a connected endpoint pair.
func NewMemoryTransport() *MemoryTransport {
	a := newMemoryEndpoint()
	b := newMemoryEndpoint()
	a.peer = b
	b.peer = a
	return &MemoryTransport{a: a, b: b}
}

// EndpointA returns the first endpoint.
func (t *MemoryTransport) EndpointA() *MemoryEndpoint { return t.a }

// EndpointB returns the second endpoint.
func (t *MemoryTransport) EndpointB() *MemoryEndpoint { return t.b }

// Close shuts both endpoints down.
func (t *MemoryTransport) Close() {
	t.a.close()
	t.b.close()
}

// MemoryEndpoint is one side of a MemoryTransport. Envelopes sent
// here arrive at the peer's receive handler, in order, on the peer's
// delivery goroutine.
type MemoryEndpoint struct {
	peer *MemoryEndpoint

	mu      sync.Mutex
	handler func(Envelope)
	queue   [][]byte
	wake    chan struct{}
	closed  bool
	done    chan struct{}
}

func newMemoryEndpoint() *MemoryEndpoint {
	e := &MemoryEndpoint{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go e.deliver()
	return e
}

// OnReceive installs the handler for inbound envelopes. Must be set
// before the peer sends; envelopes arriving with no handler are
// dropped.
func (e *MemoryEndpoint) OnReceive(handler func(Envelope)) {
	e.mu.Lock()
	e.handler = handler
	e.mu.Unlock()
}

// Send encodes the envelope and enqueues it for the peer. Returns an
// encoding error, or an error when the peer endpoint is closed; once
// enqueued, delivery itself cannot fail.
func (e *MemoryEndpoint) Send(envelope Envelope) error {
	data, err := Encode(envelope)
	if err != nil {
		return err
	}

	peer := e.peer
	peer.mu.Lock()
	if peer.closed {
		peer.mu.Unlock()
		return fmt.Errorf("signaling: peer endpoint is closed")
	}
	peer.queue = append(peer.queue, data)
	peer.mu.Unlock()

	select {
	case peer.wake <- struct{}{}:
	default:
	}
	return nil
}

func (e *MemoryEndpoint) close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.done
		return
	}
	e.closed = true
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	<-e.done
}

// deliver decodes and hands queued envelopes to the handler in FIFO
// order.
func (e *MemoryEndpoint) deliver() {
	defer close(e.done)

	for {
		e.mu.Lock()
		batch := e.queue
		e.queue = nil
		handler := e.handler
		closed := e.closed
		e.mu.Unlock()

		for _, data := range batch {
			envelope, err := Decode(data)
			if err != nil {
				// Send validated the envelope, so this indicates a
				// codec bug; the envelope is dropped without being
				// reported.
				continue
			}
			if handler != nil {
				handler(envelope)
			}
		}

		if closed {
			return
		}
		if len(batch) == 0 {
			<-e.wake
		}
	}
}
