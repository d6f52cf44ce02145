// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for the call engine so that setup,
// reconnect, and offer-expiry deadlines are deterministic under test.
//
// Production code injects Real(); tests inject Fake() and drive it
// with Advance. The engine only needs the current time and one-shot
// scheduled callbacks, so the interface is deliberately smaller than
// the time package: Now and AfterFunc.
package clock
