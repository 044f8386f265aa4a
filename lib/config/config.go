// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "RTCRELAY_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for peers on one machine or LAN.
	Development Environment = "development"
	// Staging is for testing across networks.
	Staging Environment = "staging"
	// Production is for deployments behind NAT that need STUN/TURN.
	Production Environment = "production"
)

// Config is the configuration shared by rtcrelay-signal and
// rtcrelay-peer.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment" json:"environment"`

	// Signal configures the signaling server.
	Signal SignalConfig `yaml:"signal" json:"signal"`

	// Peer configures the reference host.
	Peer PeerConfig `yaml:"peer" json:"peer"`

	// RTC configures the WebRTC runtime and ICE servers.
	RTC RTCConfig `yaml:"rtc" json:"rtc"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty" json:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty" json:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty" json:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Signal *SignalConfig `yaml:"signal,omitempty" json:"signal,omitempty"`
	Peer   *PeerConfig   `yaml:"peer,omitempty" json:"peer,omitempty"`
	RTC    *RTCConfig    `yaml:"rtc,omitempty" json:"rtc,omitempty"`
}

// SignalConfig configures the websocket signaling server.
type SignalConfig struct {
	// Listen is the TCP address to serve on.
	// Default: 127.0.0.1:8089
	Listen string `yaml:"listen" json:"listen"`

	// Path is the websocket endpoint.
	// Default: /ws
	Path string `yaml:"path" json:"path"`
}

// PeerConfig configures the reference host.
type PeerConfig struct {
	// SignalURL is the signaling endpoint without the room parameter.
	// Default: ws://127.0.0.1:8089/ws
	SignalURL string `yaml:"signal_url" json:"signal_url"`

	// Room is the signaling room to join.
	// Default: lobby
	Room string `yaml:"room" json:"room"`

	// Nickname is attached to outgoing chat messages.
	// Default: the host name
	Nickname string `yaml:"nickname" json:"nickname"`

	// Channel is the label of the chat data channel.
	// Default: chat
	Channel string `yaml:"channel" json:"channel"`

	// TickInterval is how often the host loop polls the connection.
	// Default: 16ms
	TickInterval string `yaml:"tick_interval" json:"tick_interval"`
}

// RTCConfig configures the WebRTC runtime.
type RTCConfig struct {
	// ICEServers lists STUN and TURN servers. Empty gathers host
	// candidates only.
	ICEServers []ICEServer `yaml:"ice_servers" json:"ice_servers"`

	// IncludeLoopback gathers loopback candidates, for peers on one
	// machine. Default: true (development), false (production)
	IncludeLoopback *bool `yaml:"include_loopback,omitempty" json:"include_loopback,omitempty"`

	// PortMin and PortMax restrict the local UDP ports used for ICE.
	// Both zero means any port.
	PortMin uint16 `yaml:"port_min" json:"port_min"`
	PortMax uint16 `yaml:"port_max" json:"port_max"`
}

// ICEServer is one STUN or TURN server entry.
type ICEServer struct {
	URLs       []string `yaml:"urls" json:"urls"`
	Username   string   `yaml:"username,omitempty" json:"username,omitempty"`
	Credential string   `yaml:"credential,omitempty" json:"credential,omitempty"`
}

// Default returns the default configuration. Files are loaded on top of
// it, and binaries started without a file run on it directly.
func Default() *Config {
	nickname, err := os.Hostname()
	if err != nil || nickname == "" {
		nickname = "peer"
	}
	includeLoopback := true

	return &Config{
		Environment: Development,
		Signal: SignalConfig{
			Listen: "127.0.0.1:8089",
			Path:   "/ws",
		},
		Peer: PeerConfig{
			SignalURL:    "ws://127.0.0.1:8089/ws",
			Room:         "lobby",
			Nickname:     nickname,
			Channel:      "chat",
			TickInterval: "16ms",
		},
		RTC: RTCConfig{
			IncludeLoopback: &includeLoopback,
		},
	}
}

// Load loads configuration from the RTCRELAY_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if RTCRELAY_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your rtcrelay.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Files ending
// in .json or .jsonc are parsed as JSON with comments and trailing
// commas; everything else is parsed as YAML.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in addresses and names.
	cfg.expandVariables()

	return cfg, nil
}

// Resolve picks the configuration source for a binary: the --config
// path when given, else RTCRELAY_CONFIG when set, else Default(). The
// returned string names the source for logging.
func Resolve(path string) (*Config, string, error) {
	if path != "" {
		cfg, err := LoadFile(path)
		return cfg, path, err
	}
	if envPath := os.Getenv(EnvironmentVariable); envPath != "" {
		cfg, err := LoadFile(envPath)
		return cfg, envPath, err
	}
	return Default(), "defaults", nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: no loopback candidates.
		if overrides == nil {
			excludeLoopback := false
			overrides = &ConfigOverrides{
				RTC: &RTCConfig{IncludeLoopback: &excludeLoopback},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Signal != nil {
		if overrides.Signal.Listen != "" {
			c.Signal.Listen = overrides.Signal.Listen
		}
		if overrides.Signal.Path != "" {
			c.Signal.Path = overrides.Signal.Path
		}
	}

	if overrides.Peer != nil {
		if overrides.Peer.SignalURL != "" {
			c.Peer.SignalURL = overrides.Peer.SignalURL
		}
		if overrides.Peer.Room != "" {
			c.Peer.Room = overrides.Peer.Room
		}
		if overrides.Peer.Nickname != "" {
			c.Peer.Nickname = overrides.Peer.Nickname
		}
		if overrides.Peer.Channel != "" {
			c.Peer.Channel = overrides.Peer.Channel
		}
		if overrides.Peer.TickInterval != "" {
			c.Peer.TickInterval = overrides.Peer.TickInterval
		}
	}

	if overrides.RTC != nil {
		if len(overrides.RTC.ICEServers) > 0 {
			c.RTC.ICEServers = overrides.RTC.ICEServers
		}
		if overrides.RTC.IncludeLoopback != nil {
			c.RTC.IncludeLoopback = overrides.RTC.IncludeLoopback
		}
		if overrides.RTC.PortMin != 0 || overrides.RTC.PortMax != 0 {
			c.RTC.PortMin = overrides.RTC.PortMin
			c.RTC.PortMax = overrides.RTC.PortMax
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// addresses and names.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Signal.Listen = expandVars(c.Signal.Listen, vars)
	c.Peer.SignalURL = expandVars(c.Peer.SignalURL, vars)
	c.Peer.Room = expandVars(c.Peer.Room, vars)
	c.Peer.Nickname = expandVars(c.Peer.Nickname, vars)
	for serverIndex := range c.RTC.ICEServers {
		server := &c.RTC.ICEServers[serverIndex]
		server.Username = expandVars(server.Username, vars)
		server.Credential = expandVars(server.Credential, vars)
	}
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Signal.Listen == "" {
		errs = append(errs, fmt.Errorf("signal.listen is required"))
	}
	if !strings.HasPrefix(c.Signal.Path, "/") {
		errs = append(errs, fmt.Errorf("signal.path must start with /"))
	}

	if !strings.HasPrefix(c.Peer.SignalURL, "ws://") && !strings.HasPrefix(c.Peer.SignalURL, "wss://") {
		errs = append(errs, fmt.Errorf("peer.signal_url must be a ws:// or wss:// url"))
	}
	if c.Peer.Room == "" {
		errs = append(errs, fmt.Errorf("peer.room is required"))
	}
	if c.Peer.Channel == "" {
		errs = append(errs, fmt.Errorf("peer.channel is required"))
	}
	if tick, err := time.ParseDuration(c.Peer.TickInterval); err != nil || tick <= 0 {
		errs = append(errs, fmt.Errorf("peer.tick_interval must be a positive duration, got %q", c.Peer.TickInterval))
	}

	if c.RTC.PortMax < c.RTC.PortMin {
		errs = append(errs, fmt.Errorf("rtc.port_max %d is below rtc.port_min %d", c.RTC.PortMax, c.RTC.PortMin))
	}
	for serverIndex, server := range c.RTC.ICEServers {
		if len(server.URLs) == 0 {
			errs = append(errs, fmt.Errorf("rtc.ice_servers[%d] has no urls", serverIndex))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// TickInterval returns the parsed peer tick interval. Call Validate
// first; an unparseable value yields 16ms.
func (c *Config) TickInterval() time.Duration {
	tick, err := time.ParseDuration(c.Peer.TickInterval)
	if err != nil || tick <= 0 {
		return 16 * time.Millisecond
	}
	return tick
}

// Loopback reports whether loopback candidates are gathered.
func (c *Config) Loopback() bool {
	return c.RTC.IncludeLoopback != nil && *c.RTC.IncludeLoopback
}
