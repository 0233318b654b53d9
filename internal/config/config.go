// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

// Package config handles waylayoutd configuration using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the top-level waylayoutd configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Labels  LabelsConfig  `mapstructure:"labels"`
	Wayland WaylandConfig `mapstructure:"wayland"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LabelsConfig controls label-map override loading (the label lookup table
// itself lives in internal/labelmap; this only names where to find the
// user's overrides).
type LabelsConfig struct {
	OverridesPath string `mapstructure:"overrides_path"`
}

// WaylandConfig controls how the core client reaches the compositor.
type WaylandConfig struct {
	// SocketOverride, when set, is dialed verbatim instead of resolving
	// WAYLAND_DISPLAY/XDG_RUNTIME_DIR. Useful for nested compositors and
	// tests that stand up their own socket.
	SocketOverride string `mapstructure:"socket_override"`
}

// DefaultConfig provides sensible defaults, used both as Viper defaults and
// as the fallback returned by Get before Init runs.
var DefaultConfig = Config{
	Log: LogConfig{
		Level: "info",
	},
	Labels: LabelsConfig{
		OverridesPath: "",
	},
	Wayland: WaylandConfig{
		SocketOverride: "",
	},
}

var cfg *Config

// Init loads built-in defaults, overlaid by the first waylayout.toml found
// when searching $XDG_CONFIG_HOME/waylayout (or ~/.config/waylayout) and
// then the current directory. Only one file is read: a file in the config
// directory takes precedence over one in the current directory.
func Init() error {
	viper.SetConfigName("waylayout")
	viper.SetConfigType("toml")

	if dir := configDir(); dir != "" {
		viper.AddConfigPath(dir)
	}
	viper.AddConfigPath(".")

	viper.SetDefault("log", DefaultConfig.Log)
	viper.SetDefault("labels", DefaultConfig.Labels)
	viper.SetDefault("wayland", DefaultConfig.Wayland)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: reading waylayout.toml: %w", err)
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshaling: %w", err)
	}
	return nil
}

// Get returns the current configuration, or DefaultConfig if Init has not
// run (used by tests and by callers that accept built-in defaults).
func Get() *Config {
	if cfg == nil {
		return &DefaultConfig
	}
	return cfg
}

// LabelsPath resolves the effective label-overrides file path: the
// configured override if set, otherwise $XDG_CONFIG_HOME/waylayout/labels.toml.
func LabelsPath() string {
	if p := Get().Labels.OverridesPath; p != "" {
		return p
	}
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "labels.toml")
	}
	return ""
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "waylayout")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "waylayout")
}
