// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "engine.yaml", `
ice_servers:
  - urls: ["stun:stun.example.org:3478"]
  - urls: ["turn:turn.example.org:3478"]
    username: caller
    credential: hunter2
hide_ip: true
setup_timeout_seconds: 45
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.ICEServers) != 2 {
		t.Fatalf("ICEServers count = %d, want 2", len(cfg.ICEServers))
	}
	if cfg.ICEServers[1].Username != "caller" || cfg.ICEServers[1].Credential != "hunter2" {
		t.Errorf("TURN credentials = %+v", cfg.ICEServers[1])
	}
	if !cfg.HideIP {
		t.Error("HideIP = false, want true")
	}
	if cfg.SetupTimeout() != 45*time.Second {
		t.Errorf("SetupTimeout = %v, want 45s", cfg.SetupTimeout())
	}
	if cfg.ReconnectTimeout() != 0 {
		t.Errorf("ReconnectTimeout = %v, want 0 (engine default)", cfg.ReconnectTimeout())
	}
}

func TestLoadJSONCWithComments(t *testing.T) {
	path := writeFile(t, "engine.jsonc", `{
  // local STUN for development
  "ice_servers": [
    {"urls": ["stun:stun.local:3478"]},
  ],
  "offer_expiry_seconds": 90,
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.ICEServers) != 1 {
		t.Fatalf("ICEServers count = %d, want 1", len(cfg.ICEServers))
	}
	if cfg.OfferExpiry() != 90*time.Second {
		t.Errorf("OfferExpiry = %v, want 90s", cfg.OfferExpiry())
	}
}

func TestLoadRejectsUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "engine.toml", `ice_servers = []`)
	if _, err := Load(path); err == nil {
		t.Error("Load accepted a .toml file")
	}
}

func TestLoadRejectsServerWithoutURLs(t *testing.T) {
	path := writeFile(t, "engine.yaml", `
ice_servers:
  - username: nobody
`)
	if _, err := Load(path); err == nil {
		t.Error("Load accepted an ICE server with no urls")
	}
}

func TestLoadRejectsNonIceURL(t *testing.T) {
	path := writeFile(t, "engine.yaml", `
ice_servers:
  - urls: ["https://example.org"]
`)
	if _, err := Load(path); err == nil {
		t.Error("Load accepted a non-stun/turn URL")
	}
}

func TestLoadRejectsHideIPWithoutTURN(t *testing.T) {
	path := writeFile(t, "engine.yaml", `
ice_servers:
  - urls: ["stun:stun.example.org:3478"]
hide_ip: true
`)
	if _, err := Load(path); err == nil {
		t.Error("Load accepted hide_ip with no TURN server")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
