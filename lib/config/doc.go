// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads call-engine configuration from a single file.
//
// The file names the ICE servers, the IP-hiding policy, and optional
// deadline overrides. YAML (.yaml/.yml) and JSONC (.json/.jsonc,
// comments and trailing commas allowed) are supported, selected by
// extension. There is no discovery, no merging, and no environment
// fallback: one path in, one config out.
package config
