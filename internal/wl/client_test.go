// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

package wl

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/waylayout/waylayout/internal/wire"
)

// socketpairConns builds two *conn values backed by a connected Unix
// socketpair, standing in for the compositor and the client transport
// without touching a real Wayland socket.
func socketpairConns(t *testing.T) (clientSide, serverSide *conn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)

	toConn := func(fd int) *conn {
		f := os.NewFile(uintptr(fd), "socketpair")
		nc, err := net.FileConn(f)
		require.NoError(t, err)
		require.NoError(t, f.Close())
		uc, ok := nc.(*net.UnixConn)
		require.True(t, ok)
		return &conn{uc: uc}
	}
	return toConn(fds[0]), toConn(fds[1])
}

type wireMsg struct {
	objID   uint32
	opcode  uint16
	payload []byte
}

// readMessages blocks until n complete messages have arrived on srv,
// mirroring the greedy framing rule the client itself implements.
func readMessages(t *testing.T, srv *conn, n int) []wireMsg {
	t.Helper()
	var buf []byte
	var msgs []wireMsg
	for len(msgs) < n {
		data, _, err := srv.receive()
		require.NoError(t, err)
		buf = append(buf, data...)
		for len(buf) >= wire.HeaderSize {
			objID, opcode, size, err := wire.ParseHeader(buf)
			require.NoError(t, err)
			if uint32(len(buf)) < size {
				break
			}
			msgs = append(msgs, wireMsg{objID, opcode, append([]byte(nil), buf[wire.HeaderSize:size]...)})
			buf = buf[size:]
		}
	}
	return msgs
}

func keymapTempFD(t *testing.T, content string) int {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "keymap")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	fd, err := unix.Dup(int(f.Fd()))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return fd
}

// TestConnectHandshakeBindsSeatAndKeyboard drives a fake compositor through
// the full handshake and one layout change, exercising the happy path.
func TestConnectHandshakeBindsSeatAndKeyboard(t *testing.T) {
	clientSide, serverSide := socketpairConns(t)
	require.NoError(t, serverSide.setBlocking(true))

	var changes [][2]any
	cl := NewClient(func(name string, group uint32) {
		changes = append(changes, [2]any{name, group})
	}, nil)

	serverDone := make(chan struct{})
	var keyboardID uint32

	go func() {
		defer close(serverDone)

		msgs := readMessages(t, serverSide, 2) // get_registry, sync #1
		syncID1 := wire.Uint32(msgs[1].payload[0:4])

		globalPayload := wire.AppendUint32(nil, 7)
		globalPayload = wire.AppendString(globalPayload, "wl_seat")
		globalPayload = wire.AppendUint32(globalPayload, 5)
		require.NoError(t, serverSide.send(wire.BuildMessage(2, opRegistryEventGlobal, globalPayload), nil))
		require.NoError(t, serverSide.send(wire.BuildMessage(syncID1, opCallbackEventDone, wire.AppendUint32(nil, 0)), nil))

		msgs2 := readMessages(t, serverSide, 2) // bind, sync #2
		bind := msgs2[0].payload
		_, next, err := wire.ReadString(bind, 4)
		require.NoError(t, err)
		seatID := wire.Uint32(bind[next+4 : next+8])
		syncID2 := wire.Uint32(msgs2[1].payload[0:4])

		require.NoError(t, serverSide.send(wire.BuildMessage(seatID, opSeatEventCapabilities, wire.AppendUint32(nil, seatCapabilityKeyboard)), nil))
		require.NoError(t, serverSide.send(wire.BuildMessage(syncID2, opCallbackEventDone, wire.AppendUint32(nil, 0)), nil))

		msgs3 := readMessages(t, serverSide, 1) // get_keyboard
		keyboardID = wire.Uint32(msgs3[0].payload[0:4])
	}()

	fd, err := cl.connectOver(clientSide)
	require.NoError(t, err)
	require.NotZero(t, fd)
	<-serverDone
	require.Equal(t, stateRunning, cl.state)

	keymapText := `xkb_layout { "English (US)" };`
	keymapFD := keymapTempFD(t, keymapText)
	keymapPayload := wire.AppendUint32(wire.AppendUint32(nil, 1), uint32(len(keymapText)))
	require.NoError(t, serverSide.send(wire.BuildMessage(keyboardID, opKeyboardEventKeymap, keymapPayload), []int{keymapFD}))

	require.Eventually(t, func() bool {
		_ = cl.Dispatch()
		return len(changes) >= 1
	}, time.Second, time.Millisecond)

	require.Equal(t, "English (US)", changes[0][0])
	require.Equal(t, uint32(0), changes[0][1])

	modPayload := make([]byte, 20)
	wire.PutUint32(modPayload[16:20], 1)
	require.NoError(t, serverSide.send(wire.BuildMessage(keyboardID, opKeyboardEventModifiers, modPayload), nil))

	require.Eventually(t, func() bool {
		_ = cl.Dispatch()
		return len(changes) >= 2
	}, time.Second, time.Millisecond)

	require.Equal(t, "English (US)", changes[1][0])
	require.Equal(t, uint32(1), changes[1][1])

	require.NoError(t, cl.Disconnect())
	require.NoError(t, cl.Disconnect())
}

func TestDisconnectBeforeConnectIsSafe(t *testing.T) {
	cl := NewClient(nil, nil)
	require.NoError(t, cl.Disconnect())
	require.NoError(t, cl.Disconnect())
}
