// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

// Package call implements the core of a 1:1 real-time call signaling
// engine: the per-call state machine, call identifier and remote-party
// lifetimes, outbound signaling dispatch with glare and busy
// arbitration, and orchestration of peer-connection setup and media
// enable/disable.
//
// The engine sits between the embedding application (UI, signaling
// transport, media factory) and the WebRTC media plane. The
// application installs a [Callbacks] bundle once at construction and
// drives the engine through the [Manager] façade: Place, Proceed,
// Accept, Hangup, and the Receive* entrypoints for inbound signaling.
// The engine answers with callbacks — ShouldSend* directives that the
// application transports, and OnEvent notifications that the UI
// renders.
//
// # Threading model
//
// A single state goroutine owns every call record. Façade operations
// are thread-safe entry wrappers: they hop onto the state goroutine,
// run their transition, and return a synchronous Ok/ApiFailed
// outcome. Media-plane and timer callbacks hop the same way. All
// asynchronous application callbacks are serialized through one
// emitter goroutine in strict order, so per-call event order matches
// transition order and applications may call back into the façade
// from within a callback. The two synchronous callbacks —
// ShouldCompareCalls and the media factory's CreateConnection — run
// on the state goroutine itself and must not re-enter the façade.
//
// Internal mutation functions demand an unexported loop token, making
// off-goroutine state access a compile-time error rather than a
// runtime assertion.
//
// # Signaling discipline
//
// Outbound directives for a call form a FIFO with at most one message
// in flight; the application acknowledges transport completion with
// MessageSent or MessageSendFailure. Failure of an essential message
// (the offer, or the answer) terminates the call as SignalingFailure;
// failures of candidates, busy, and trailing hangups only log.
//
// The engine holds no persistent state; Reset returns it to a clean
// slate after any error the application cannot diagnose.
package call
