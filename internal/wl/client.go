// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

// Package wl is a from-scratch Wayland client: just enough of the wire
// protocol, registry handshake, and seat/keyboard plumbing to observe
// keyboard layout changes. It is not a general-purpose Wayland binding.
package wl

import (
	"fmt"

	"github.com/waylayout/waylayout/internal/layout"
	"github.com/waylayout/waylayout/internal/wire"
	"github.com/waylayout/waylayout/internal/xkb"
)

// Wire opcodes for the handful of interfaces this client speaks. These are
// fixed by the public Wayland core protocol, not chosen by this package.
const (
	displayID uint32 = 1

	opDisplayRequestSync        uint16 = 0
	opDisplayRequestGetRegistry uint16 = 1
	opDisplayEventError         uint16 = 0
	opDisplayEventDeleteID      uint16 = 1

	opRegistryRequestBind       uint16 = 0
	opRegistryEventGlobal       uint16 = 0
	opRegistryEventGlobalRemove uint16 = 1

	opCallbackEventDone uint16 = 0

	opSeatRequestGetKeyboard uint16 = 1
	opSeatEventCapabilities  uint16 = 0
	opSeatEventName          uint16 = 1

	opKeyboardEventKeymap     uint16 = 0
	opKeyboardEventEnter      uint16 = 1
	opKeyboardEventLeave      uint16 = 2
	opKeyboardEventKey        uint16 = 3
	opKeyboardEventModifiers  uint16 = 4
	opKeyboardEventRepeatInfo uint16 = 5

	seatCapabilityKeyboard uint32 = 2

	// maxSeatVersion is the client's self-imposed ceiling on wl_seat: clamp
	// to min(advertised, 5) rather than requesting a fixed 5 regardless of
	// what the compositor offers.
	maxSeatVersion uint32 = 5
)

// state tracks the handshake/run phase of the client.
type state int

const (
	stateInitial state = iota
	stateRegistryRequested
	stateGlobalsEnumerated
	stateRunning
	stateClosed
)

// Logger is the minimal logging surface the core needs. It is satisfied by
// internal/logger.Logger; a nil Logger passed to NewClient is replaced with
// a no-op implementation.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Client owns the socket, the object table, and the handshake state
// machine, and drives the layout tracker from keymap and modifiers events.
type Client struct {
	conn    *conn
	objects *objectTable
	state   state
	log     Logger

	registryID uint32
	seatID     uint32
	keyboardID uint32

	seatGlobalSeen    bool
	seatGlobalName    uint32
	seatGlobalVersion uint32

	pendingSyncID uint32
	syncDone      bool

	recvBuf []byte
	fdQueue []int

	decoder *xkb.Decoder
	tracker layout.Tracker

	socketOverride string
	onLayoutChange func(name string, group uint32)
}

// Option configures optional Client behaviour at construction time.
type Option func(*Client)

// WithSocketOverride bypasses WAYLAND_DISPLAY/XDG_RUNTIME_DIR resolution and
// dials path directly.
func WithSocketOverride(path string) Option {
	return func(cl *Client) { cl.socketOverride = path }
}

// NewClient builds a Client. onLayoutChange is invoked synchronously from
// Dispatch whenever the resolved layout name or group changes. A nil logger
// is replaced with a no-op.
func NewClient(onLayoutChange func(name string, group uint32), logger Logger, opts ...Option) *Client {
	if logger == nil {
		logger = nopLogger{}
	}
	cl := &Client{
		log:            logger,
		onLayoutChange: onLayoutChange,
	}
	for _, opt := range opts {
		opt(cl)
	}
	cl.decoder = xkb.NewDecoder(func(err error) {
		cl.log.Warnf("xkb: %v, falling back to text-scan decoding", err)
	})
	return cl
}

// Connect dials the compositor, requests the registry, and performs one
// blocking sync roundtrip, plus a second one when a wl_seat is advertised,
// so that the seat is bound and its keyboard requested before Connect
// returns. The returned fd is safe
// to register in an external event loop; callers drive the rest via
// Dispatch.
func (cl *Client) Connect() (fd uintptr, err error) {
	if cl.state != stateInitial {
		return 0, fmt.Errorf("wl: Connect called out of order")
	}

	c, err := dialCompositor(cl.socketOverride)
	if err != nil {
		return 0, err
	}
	return cl.connectOver(c)
}

// connectOver runs the handshake over an already-dialed transport. Split
// out from Connect so tests can substitute a socketpair for the real
// compositor socket.
func (cl *Client) connectOver(c *conn) (fd uintptr, err error) {
	cl.conn = c
	cl.objects = newObjectTable()
	cl.objects.register(displayID, cl.handleDisplayEvent)

	if err := cl.conn.setBlocking(true); err != nil {
		cl.conn.close()
		return 0, fmt.Errorf("wl: set blocking for handshake: %w", err)
	}

	if err := cl.requestRegistryAndSync(); err != nil {
		cl.conn.close()
		return 0, err
	}
	cl.state = stateRegistryRequested

	if err := cl.blockUntilSyncDone(); err != nil {
		cl.conn.close()
		return 0, err
	}
	cl.state = stateGlobalsEnumerated

	if cl.seatGlobalSeen {
		if err := cl.bindSeatAndSync(); err != nil {
			cl.conn.close()
			return 0, err
		}
		if err := cl.blockUntilSyncDone(); err != nil {
			cl.conn.close()
			return 0, err
		}
	}

	if err := cl.conn.setBlocking(false); err != nil {
		cl.conn.close()
		return 0, fmt.Errorf("wl: set non-blocking for run loop: %w", err)
	}
	cl.state = stateRunning

	return cl.conn.fd()
}

func (cl *Client) requestRegistryAndSync() error {
	cl.registryID = cl.objects.alloc("wl_registry")
	cl.objects.register(cl.registryID, cl.handleRegistryEvent)
	getRegistry := wire.BuildMessage(displayID, opDisplayRequestGetRegistry, wire.AppendUint32(nil, cl.registryID))
	if err := cl.conn.send(getRegistry, nil); err != nil {
		return err
	}
	return cl.sync()
}

// sync issues display.sync and records the new callback as the single
// outstanding pending sync. Any previous pending callback is orphaned
// client-side.
func (cl *Client) sync() error {
	if cl.pendingSyncID != 0 {
		cl.objects.unregister(cl.pendingSyncID)
	}
	cl.pendingSyncID = cl.objects.alloc("wl_callback")
	cl.objects.register(cl.pendingSyncID, cl.handleCallbackEvent)
	cl.syncDone = false
	msg := wire.BuildMessage(displayID, opDisplayRequestSync, wire.AppendUint32(nil, cl.pendingSyncID))
	return cl.conn.send(msg, nil)
}

func (cl *Client) bindSeatAndSync() error {
	cl.seatID = cl.objects.alloc("wl_seat")
	cl.objects.register(cl.seatID, cl.handleSeatEvent)

	version := cl.seatGlobalVersion
	if version > maxSeatVersion {
		version = maxSeatVersion
	}

	payload := wire.AppendUint32(nil, cl.seatGlobalName)
	payload = wire.AppendString(payload, "wl_seat")
	payload = wire.AppendUint32(payload, version)
	payload = wire.AppendUint32(payload, cl.seatID)
	msg := wire.BuildMessage(cl.registryID, opRegistryRequestBind, payload)
	if err := cl.conn.send(msg, nil); err != nil {
		return err
	}
	return cl.sync()
}

// blockUntilSyncDone drives blocking receive/dispatch cycles until the
// outstanding sync callback fires. Used only during Connect's two
// handshake roundtrips.
func (cl *Client) blockUntilSyncDone() error {
	for !cl.syncDone {
		data, fds, err := cl.conn.receive()
		if err != nil {
			return err
		}
		if err := cl.processInbound(data, fds); err != nil {
			return err
		}
	}
	return nil
}

// Dispatch drains whatever is currently buffered on the non-blocking
// socket and routes it to handlers, updating the layout tracker along the
// way. It is idempotent when the socket is not readable.
func (cl *Client) Dispatch() error {
	if cl.state == stateClosed {
		return nil
	}
	for {
		data, fds, err := cl.conn.receive()
		if err != nil {
			return err
		}
		if data == nil && fds == nil {
			return nil
		}
		if err := cl.processInbound(data, fds); err != nil {
			return err
		}
	}
}

// processInbound appends newly-received bytes and fds to the client's
// buffers and greedily slices off and routes complete messages.
func (cl *Client) processInbound(data []byte, fds []int) error {
	cl.recvBuf = append(cl.recvBuf, data...)
	cl.fdQueue = append(cl.fdQueue, fds...)

	for {
		if len(cl.recvBuf) < wire.HeaderSize {
			return nil
		}
		objID, opcode, size, err := wire.ParseHeader(cl.recvBuf)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrProtocolError, err)
		}
		if uint32(len(cl.recvBuf)) < size {
			return nil
		}
		payload := cl.recvBuf[wire.HeaderSize:size]
		rest := cl.recvBuf[size:]
		cl.recvBuf = append([]byte(nil), rest...)

		if err := cl.objects.dispatch(objID, opcode, payload); err != nil {
			return err
		}
	}
}

// popFd removes and returns the oldest queued ancillary fd, or -1 if none
// is available.
func (cl *Client) popFd() int {
	if len(cl.fdQueue) == 0 {
		return -1
	}
	fd := cl.fdQueue[0]
	cl.fdQueue = cl.fdQueue[1:]
	return fd
}

func (cl *Client) handleDisplayEvent(opcode uint16, payload []byte) error {
	switch opcode {
	case opDisplayEventError:
		if len(payload) < 8 {
			return fmt.Errorf("%w: truncated display.error", ErrProtocolError)
		}
		objID := wire.Uint32(payload[0:4])
		code := wire.Uint32(payload[4:8])
		message, _, err := wire.ReadString(payload, 8)
		if err != nil {
			return err
		}
		cl.log.Errorf("compositor error: %v", &CompositorError{ObjectID: objID, Code: code, Message: message})
		return nil
	case opDisplayEventDeleteID:
		// Ignored: the client allocates monotonically and never recycles
		// IDs.
		return nil
	default:
		return nil
	}
}

func (cl *Client) handleRegistryEvent(opcode uint16, payload []byte) error {
	switch opcode {
	case opRegistryEventGlobal:
		if len(payload) < 4 {
			return fmt.Errorf("%w: truncated registry.global", ErrProtocolError)
		}
		name := wire.Uint32(payload[0:4])
		iface, next, err := wire.ReadString(payload, 4)
		if err != nil {
			return err
		}
		if len(payload) < next+4 {
			return fmt.Errorf("%w: truncated registry.global version", ErrProtocolError)
		}
		version := wire.Uint32(payload[next : next+4])
		if iface == "wl_seat" && !cl.seatGlobalSeen {
			cl.seatGlobalSeen = true
			cl.seatGlobalName = name
			cl.seatGlobalVersion = version
		}
		return nil
	case opRegistryEventGlobalRemove:
		// Ignored: no hot-unplug support for the seat.
		return nil
	default:
		return nil
	}
}

func (cl *Client) handleCallbackEvent(opcode uint16, payload []byte) error {
	if opcode != opCallbackEventDone {
		return nil
	}
	cl.syncDone = true
	return nil
}

func (cl *Client) handleSeatEvent(opcode uint16, payload []byte) error {
	switch opcode {
	case opSeatEventCapabilities:
		if len(payload) < 4 {
			return fmt.Errorf("%w: truncated seat.capabilities", ErrProtocolError)
		}
		caps := wire.Uint32(payload[0:4])
		if caps&seatCapabilityKeyboard != 0 && cl.keyboardID == 0 {
			return cl.requestKeyboard()
		}
		return nil
	case opSeatEventName:
		return nil
	default:
		return nil
	}
}

func (cl *Client) requestKeyboard() error {
	cl.keyboardID = cl.objects.alloc("wl_keyboard")
	cl.objects.register(cl.keyboardID, cl.handleKeyboardEvent)
	msg := wire.BuildMessage(cl.seatID, opSeatRequestGetKeyboard, wire.AppendUint32(nil, cl.keyboardID))
	return cl.conn.send(msg, nil)
}

func (cl *Client) handleKeyboardEvent(opcode uint16, payload []byte) error {
	switch opcode {
	case opKeyboardEventKeymap:
		return cl.handleKeymap(payload)
	case opKeyboardEventModifiers:
		return cl.handleModifiers(payload)
	case opKeyboardEventEnter, opKeyboardEventLeave, opKeyboardEventKey, opKeyboardEventRepeatInfo:
		// Consumed by size, intentionally ignored.
		return nil
	default:
		return nil
	}
}

func (cl *Client) handleKeymap(payload []byte) error {
	if len(payload) < 8 {
		return fmt.Errorf("%w: truncated keyboard.keymap", ErrProtocolError)
	}
	format := wire.Uint32(payload[0:4])
	size := wire.Uint32(payload[4:8])

	fd := cl.popFd()
	if fd < 0 {
		cl.log.Warnf("wl: keymap event with no fd, ignoring")
		return nil
	}

	names, err := cl.decoder.Decode(format, fd, size)
	if err != nil {
		cl.log.Warnf("wl: keymap decode: %v", err)
		return nil
	}

	name, group := cl.tracker.OnKeymap(names)
	cl.notify(name, group)
	return nil
}

func (cl *Client) handleModifiers(payload []byte) error {
	if len(payload) < 20 {
		return fmt.Errorf("%w: truncated keyboard.modifiers", ErrProtocolError)
	}
	group := wire.Uint32(payload[16:20])
	name, resolvedGroup, changed := cl.tracker.OnModifiers(group)
	if changed {
		cl.notify(name, resolvedGroup)
	}
	return nil
}

func (cl *Client) notify(name string, group uint32) {
	if cl.onLayoutChange != nil {
		cl.onLayoutChange(name, group)
	}
}

// Disconnect closes the compositor connection. It is safe to call more than
// once. The decoder's xkb context is not released, and ancillary fds still
// queued for a handler are not closed.
func (cl *Client) Disconnect() error {
	if cl.state == stateClosed {
		return nil
	}
	cl.state = stateClosed
	if cl.conn == nil {
		return nil
	}
	return cl.conn.close()
}

// LayoutNames returns the currently known layout set, for diagnostics.
func (cl *Client) LayoutNames() []string {
	return cl.tracker.Layouts()
}

// CurrentGroup returns the currently active group index, for diagnostics.
func (cl *Client) CurrentGroup() uint32 {
	return cl.tracker.Group()
}
