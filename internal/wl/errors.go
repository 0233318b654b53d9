// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

package wl

import (
	"errors"
	"strconv"
)

// Sentinel errors for the transport and protocol layers. Wrap these with
// fmt.Errorf("...: %w", ...) when adding context; callers should compare
// with errors.Is.
var (
	// ErrEnvMissing means WAYLAND_DISPLAY is relative and XDG_RUNTIME_DIR is unset.
	ErrEnvMissing = errors.New("wl: WAYLAND_DISPLAY is relative and XDG_RUNTIME_DIR is unset")
	// ErrConnectFailed means the socket connect syscall failed.
	ErrConnectFailed = errors.New("wl: failed to connect to compositor")
	// ErrProtocolError means a frame was malformed or had an impossible size.
	ErrProtocolError = errors.New("wl: protocol error")
	// ErrConnectionLost means the compositor closed the connection.
	ErrConnectionLost = errors.New("wl: connection lost")
)

// CompositorError wraps a wl_display.error event. It is logged, not fatal.
type CompositorError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (e *CompositorError) Error() string {
	return "wl: compositor error on object " + strconv.FormatUint(uint64(e.ObjectID), 10) +
		": code " + strconv.FormatUint(uint64(e.Code), 10) + ": " + e.Message
}
