// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

// Package signaling defines the semantic call-signaling messages —
// Offer, Answer, IceUpdate, Hangup, Busy — and a canonical CBOR
// envelope encoding for applications that want a ready-made byte
// representation.
//
// The engine itself never sees these types: it speaks ShouldSend*
// directives and Receive* operations, and the application's transport
// carries the bytes. This package is the glue an application can use
// between the two: wrap a directive in an [Envelope], Encode it, move
// it however you like, Decode on the far side, and feed the matching
// Receive* operation. Encoding is deterministic (lib/codec), so equal
// envelopes produce equal bytes.
//
// [MemoryTransport] is an in-process implementation of that movement
// for tests and demos: two endpoints, each delivering envelopes to
// the other through the full encode/decode path on a dedicated
// goroutine.
//
// Framing, retries, and authentication remain the application's
// business; nothing here touches a network.
package signaling
