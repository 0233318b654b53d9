// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

// Command waylayoutd connects to the Wayland compositor, tracks the active
// keyboard layout group, and prints label changes to its configured
// indicator surface.
package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"

	"github.com/waylayout/waylayout/internal/config"
	"github.com/waylayout/waylayout/internal/indicator"
	"github.com/waylayout/waylayout/internal/labelmap"
	"github.com/waylayout/waylayout/internal/logger"
	"github.com/waylayout/waylayout/internal/wl"
)

// version is set at build time via -ldflags.
var version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:          "waylayoutd",
	Short:        "Wayland keyboard layout indicator daemon",
	SilenceUsage: true,
}

var logLevelFlag string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the compositor and watch for keyboard layout changes",
	RunE:  runDaemon,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("waylayoutd %s\n", version)
	},
}

var previewOut string

var previewCmd = &cobra.Command{
	Use:   "preview LABEL",
	Short: "Render a LABEL as a tray-icon preview PNG, without connecting to a compositor",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	runCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "override the configured log level")
	if err := viper.BindPFlag("log.level", runCmd.Flags().Lookup("log-level")); err != nil {
		logger.Errorf("binding --log-level flag: %v", err)
	}

	previewCmd.Flags().StringVar(&previewOut, "out", "preview.png", "output PNG path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	img := indicator.RenderPreview(args[0])

	f, err := os.Create(previewOut)
	if err != nil {
		return fmt.Errorf("waylayoutd: creating %s: %w", previewOut, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("waylayoutd: encoding preview: %w", err)
	}
	fmt.Printf("wrote %s\n", previewOut)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if err := config.Init(); err != nil {
		return fmt.Errorf("waylayoutd: %w", err)
	}
	cfg := config.Get()
	if logLevelFlag != "" {
		logger.SetLevel(logLevelFlag)
	} else {
		logger.SetLevel(cfg.Log.Level)
	}

	labels := labelmap.New()
	if err := labels.LoadOverrides(config.LabelsPath()); err != nil {
		logger.Warnf("labelmap: %v", err)
	}

	surface := indicator.NewConsoleSurface(os.Stdout)
	defer surface.Close()

	var clientOpts []wl.Option
	if override := cfg.Wayland.SocketOverride; override != "" {
		clientOpts = append(clientOpts, wl.WithSocketOverride(override))
	}

	client := wl.NewClient(func(name string, group uint32) {
		label := labels.Resolve(name)
		if err := surface.Update(label, group, name); err != nil {
			logger.Errorf("indicator update: %v", err)
		}
	}, logger.Adapter{}, clientOpts...)

	fd, err := client.Connect()
	if err != nil {
		return fmt.Errorf("waylayoutd: connect: %w", err)
	}
	defer client.Disconnect()
	logger.Infof("connected to compositor, watching for layout changes")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchFd(ctx, fd, client)
}

// watchFd drives Dispatch whenever the client's socket is readable. It
// returns when ctx is cancelled or the connection is lost.
func watchFd(ctx context.Context, fd uintptr, client *wl.Client) error {
	pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}

	for {
		select {
		case <-ctx.Done():
			logger.Infof("shutting down")
			return nil
		default:
		}

		n, err := unix.Poll(pollFds, 1000)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("waylayoutd: poll: %w", err)
		}
		if n == 0 {
			continue
		}
		if pollFds[0].Revents&unix.POLLIN != 0 {
			if err := client.Dispatch(); err != nil {
				return fmt.Errorf("waylayoutd: dispatch: %w", err)
			}
		}
	}
}
