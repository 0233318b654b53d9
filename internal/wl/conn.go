// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

package wl

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// maxFdsPerRead is the ancillary-data capacity budgeted per receive.
const maxFdsPerRead = 4

// conn is a Unix-domain stream socket to the compositor, read and written
// with SCM_RIGHTS ancillary data for file-descriptor passing.
type conn struct {
	uc *net.UnixConn
}

// dialCompositor resolves the compositor socket path and connects to it.
// override, when non-empty, is used verbatim and skips environment
// resolution entirely; otherwise WAYLAND_DISPLAY is used verbatim if
// absolute, otherwise joined to XDG_RUNTIME_DIR (default name "wayland-0").
func dialCompositor(override string) (*conn, error) {
	path, err := compositorSocketPath(override)
	if err != nil {
		return nil, err
	}

	uc, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	return &conn{uc: uc}, nil
}

func compositorSocketPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	name := os.Getenv("WAYLAND_DISPLAY")
	if name == "" {
		name = "wayland-0"
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", ErrEnvMissing
	}
	return filepath.Join(runtimeDir, name), nil
}

// setBlocking switches the socket between blocking mode (used for the two
// bounded roundtrips in Connect) and non-blocking mode (the steady-state
// Dispatch loop).
func (c *conn) setBlocking(blocking bool) error {
	raw, err := c.uc.SyscallConn()
	if err != nil {
		return err
	}
	var setErr error
	err = raw.Control(func(fd uintptr) {
		setErr = unix.SetNonblock(int(fd), !blocking)
	})
	if err != nil {
		return err
	}
	return setErr
}

// fd returns the underlying descriptor, for integration into an external
// event loop.
func (c *conn) fd() (uintptr, error) {
	raw, err := c.uc.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd uintptr
	err = raw.Control(func(f uintptr) { fd = f })
	return fd, err
}

// send writes buf in full, attaching fds as a single SCM_RIGHTS ancillary
// message when present.
func (c *conn) send(buf []byte, fds []int) error {
	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}

	for len(buf) > 0 || oob != nil {
		n, oobn, err := c.uc.WriteMsgUnix(buf, oob, nil)
		if err != nil {
			return fmt.Errorf("wl: write: %w", err)
		}
		buf = buf[n:]
		if oobn > 0 {
			oob = nil
		}
		if len(buf) == 0 {
			break
		}
	}
	return nil
}

// receive reads one recvmsg's worth of bytes and ancillary file
// descriptors. A zero-length, zero-fd result with a nil error means the
// non-blocking socket had nothing to offer.
func (c *conn) receive() ([]byte, []int, error) {
	buf := make([]byte, 65536)
	oob := make([]byte, unix.CmsgSpace(maxFdsPerRead*4))

	n, oobn, _, _, err := c.uc.ReadMsgUnix(buf, oob)
	if err != nil {
		if errIsWouldBlock(err) {
			return nil, nil, nil
		}
		if errIsClosed(err) {
			return nil, nil, ErrConnectionLost
		}
		return nil, nil, fmt.Errorf("wl: read: %w", err)
	}
	if n == 0 && oobn == 0 {
		return nil, nil, ErrConnectionLost
	}

	fds, err := decodeFds(oob[:oobn])
	if err != nil {
		return nil, nil, fmt.Errorf("wl: decoding ancillary fds: %w", err)
	}
	return buf[:n], fds, nil
}

func decodeFds(oob []byte) ([]int, error) {
	if len(oob) == 0 {
		return nil, nil
	}
	scms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, err
	}
	var fds []int
	for _, scm := range scms {
		got, err := unix.ParseUnixRights(&scm)
		if err != nil {
			return nil, err
		}
		fds = append(fds, got...)
	}
	return fds, nil
}

func errIsWouldBlock(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}

func errIsClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE)
}

func (c *conn) close() error {
	return c.uc.Close()
}
