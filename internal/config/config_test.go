// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInit(t *testing.T) {
	t.Run("initializes with defaults when no config exists", func(t *testing.T) {
		viper.Reset()

		if err := Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}

		cfg := Get()
		if cfg.Log.Level != "info" {
			t.Errorf("expected default log level %q, got %q", "info", cfg.Log.Level)
		}
	})

	t.Run("handles invalid TOML gracefully", func(t *testing.T) {
		tmpDir := t.TempDir()
		invalidTOML := "[log\nlevel = \"debug\""
		if err := os.WriteFile(filepath.Join(tmpDir, "waylayout.toml"), []byte(invalidTOML), 0o644); err != nil {
			t.Fatal(err)
		}

		oldWd, _ := os.Getwd()
		if err := os.Chdir(tmpDir); err != nil {
			t.Fatal(err)
		}
		defer os.Chdir(oldWd)

		viper.Reset()
		if err := Init(); err == nil {
			t.Error("expected an error for invalid TOML")
		}
	})

	t.Run("reads a valid override file", func(t *testing.T) {
		tmpDir := t.TempDir()
		content := "[log]\nlevel = \"debug\"\n\n[labels]\noverrides_path = \"/tmp/labels.toml\"\n\n[wayland]\nsocket_override = \"/tmp/test-wayland-0\"\n"
		if err := os.WriteFile(filepath.Join(tmpDir, "waylayout.toml"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		oldWd, _ := os.Getwd()
		if err := os.Chdir(tmpDir); err != nil {
			t.Fatal(err)
		}
		defer os.Chdir(oldWd)

		viper.Reset()
		if err := Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}

		cfg := Get()
		if cfg.Log.Level != "debug" {
			t.Errorf("expected level %q, got %q", "debug", cfg.Log.Level)
		}
		if got := LabelsPath(); got != "/tmp/labels.toml" {
			t.Errorf("expected overrides path to win, got %q", got)
		}
		if cfg.Wayland.SocketOverride != "/tmp/test-wayland-0" {
			t.Errorf("expected socket override %q, got %q", "/tmp/test-wayland-0", cfg.Wayland.SocketOverride)
		}
	})
}

func TestGetReturnsDefaultBeforeInit(t *testing.T) {
	cfg = nil
	if Get().Log.Level != DefaultConfig.Log.Level {
		t.Errorf("expected default config before Init")
	}
}
