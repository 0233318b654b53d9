// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

package wl

// handler processes one inbound event for the object it is registered
// against. Handlers that need an ancillary file descriptor (only
// wl_keyboard.keymap does, in this client) pop one from the client's fd
// queue themselves rather than receiving it as an argument here, since fds
// are popped at handler time and not at receive time.
type handler func(opcode uint16, payload []byte) error

// objectTable allocates client-side object IDs and routes inbound events to
// per-object handlers.
//
// This is distinct from the wl_registry protocol object (requested by
// Client.requestRegistryAndSync via wl_display.get_registry) even though the
// Wayland protocol itself overloads "registry" for both concepts.
type objectTable struct {
	nextID    uint32
	handlers  map[uint32]handler
	ifaceName map[uint32]string
}

func newObjectTable() *objectTable {
	return &objectTable{
		nextID:    2, // 1 is reserved for wl_display
		handlers:  make(map[uint32]handler),
		ifaceName: make(map[uint32]string),
	}
}

// alloc returns a fresh client object ID, monotonically increasing from 2
// and never reused within the connection.
func (t *objectTable) alloc(iface string) uint32 {
	id := t.nextID
	t.nextID++
	t.ifaceName[id] = iface
	return id
}

// register installs h as the event handler for id. It overwrites any prior
// handler for id; each sync callback gets a fresh ID, so overwrites only
// happen when a display/registry/seat/keyboard singleton slot is rebound.
func (t *objectTable) register(id uint32, h handler) {
	t.handlers[id] = h
}

// unregister removes the handler for id, if any, dropping its slot.
func (t *objectTable) unregister(id uint32) {
	delete(t.handlers, id)
	delete(t.ifaceName, id)
}

// dispatch routes one event to its handler. Unknown object IDs are
// silently dropped, protecting against late events for destroyed objects.
func (t *objectTable) dispatch(id uint32, opcode uint16, payload []byte) error {
	h, ok := t.handlers[id]
	if !ok {
		return nil
	}
	return h(opcode, payload)
}
