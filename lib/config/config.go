// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/carillon-foundation/carillon/media"
)

// Config is the engine configuration an embedder loads at startup.
// Zero durations mean "use the engine default".
type Config struct {
	// ICEServers is the STUN/TURN set handed to every call's
	// Proceed. Order matters.
	ICEServers []media.ICEServer `yaml:"ice_servers" json:"ice_servers"`

	// HideIP restricts candidate gathering to relay candidates.
	HideIP bool `yaml:"hide_ip" json:"hide_ip"`

	// SetupTimeoutSeconds bounds call setup.
	SetupTimeoutSeconds int `yaml:"setup_timeout_seconds" json:"setup_timeout_seconds"`

	// ReconnectTimeoutSeconds bounds the reconnecting window of an
	// established call.
	ReconnectTimeoutSeconds int `yaml:"reconnect_timeout_seconds" json:"reconnect_timeout_seconds"`

	// OfferExpirySeconds bounds the acceptable wall-clock age of an
	// inbound offer.
	OfferExpirySeconds int `yaml:"offer_expiry_seconds" json:"offer_expiry_seconds"`
}

// SetupTimeout returns the configured setup deadline, or zero when
// the engine default should apply.
func (c *Config) SetupTimeout() time.Duration {
	return time.Duration(c.SetupTimeoutSeconds) * time.Second
}

// ReconnectTimeout returns the configured reconnect deadline, or
// zero for the engine default.
func (c *Config) ReconnectTimeout() time.Duration {
	return time.Duration(c.ReconnectTimeoutSeconds) * time.Second
}

// OfferExpiry returns the configured offer-age bound, or zero for
// the engine default.
func (c *Config) OfferExpiry() time.Duration {
	return time.Duration(c.OfferExpirySeconds) * time.Second
}

// Load reads and validates the config file at path. The format is
// chosen by extension: .yaml/.yml, or .json/.jsonc.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config %s: %w", path, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSONC config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension (want .yaml, .yml, .json, or .jsonc)", path)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// validate rejects configurations the engine would silently misuse.
func (c *Config) validate() error {
	for i, server := range c.ICEServers {
		if len(server.URLs) == 0 {
			return fmt.Errorf("ice_servers[%d] has no urls", i)
		}
		for _, url := range server.URLs {
			if !strings.HasPrefix(url, "stun:") && !strings.HasPrefix(url, "stuns:") &&
				!strings.HasPrefix(url, "turn:") && !strings.HasPrefix(url, "turns:") {
				return fmt.Errorf("ice_servers[%d]: %q is not a stun/turn URL", i, url)
			}
		}
	}
	if c.SetupTimeoutSeconds < 0 || c.ReconnectTimeoutSeconds < 0 || c.OfferExpirySeconds < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.HideIP {
		hasTURN := false
		for _, server := range c.ICEServers {
			for _, url := range server.URLs {
				if strings.HasPrefix(url, "turn:") || strings.HasPrefix(url, "turns:") {
					hasTURN = true
				}
			}
		}
		if !hasTURN {
			return fmt.Errorf("hide_ip requires at least one TURN server")
		}
	}
	return nil
}
