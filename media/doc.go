// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

// Package media defines the contract between the call engine and the
// WebRTC media plane.
//
// The engine never touches pion directly: it asks an injected
// [Factory] for audio/video sources and tracks, a camera capturer,
// and peer connections, and observes connection progress through
// [ConnectionObserver]. Tests substitute a scripted factory and drive
// ICE and media events deterministically; production embeds
// [PionFactory], which maps the engine's connection policy onto
// pion/webrtc.
//
// All observer callbacks may be delivered from media-plane goroutines;
// the engine marshals them onto its own state goroutine before
// touching any call record.
package media
