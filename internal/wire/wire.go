// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

// Package wire implements the Wayland wire format: little-endian integers,
// length-prefixed NUL-terminated padded strings, and the 8-byte message
// header every request and event is framed with.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedMessage is returned when a buffer does not contain a
// well-formed wire value at the requested offset.
var ErrMalformedMessage = errors.New("wire: malformed message")

// HeaderSize is the size in bytes of a Wayland message header.
const HeaderSize = 8

// PutUint32 writes v to buf[0:4] in little-endian order.
func PutUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// Uint32 reads a little-endian uint32 from buf[0:4].
func Uint32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

// PutInt32 writes v to buf[0:4] in little-endian order.
func PutInt32(buf []byte, v int32) {
	binary.LittleEndian.PutUint32(buf, uint32(v))
}

// Int32 reads a little-endian int32 from buf[0:4].
func Int32(buf []byte) int32 {
	return int32(binary.LittleEndian.Uint32(buf))
}

// AppendUint32 appends v to buf in little-endian order.
func AppendUint32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

// AppendInt32 appends v to buf in little-endian order.
func AppendInt32(buf []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(buf, uint32(v))
}

// paddedLen rounds n up to the next multiple of 4.
func paddedLen(n int) int {
	return (n + 3) &^ 3
}

// AppendString appends s to buf as a Wayland string argument: a u32 byte
// length including the terminating NUL, the UTF-8 bytes, the NUL, and
// zero padding out to a 4-byte boundary.
func AppendString(buf []byte, s string) []byte {
	n := len(s) + 1
	buf = AppendUint32(buf, uint32(n))
	buf = append(buf, s...)
	buf = append(buf, 0)
	for i := n; i < paddedLen(n); i++ {
		buf = append(buf, 0)
	}
	return buf
}

// ReadString reads a Wayland string argument from buf at offset, returning
// the decoded string and the offset of the next argument. It fails with
// ErrMalformedMessage if the declared length exceeds what remains in buf or
// the bytes are not NUL-terminated where expected.
func ReadString(buf []byte, offset int) (string, int, error) {
	if offset+4 > len(buf) {
		return "", 0, fmt.Errorf("%w: truncated string length", ErrMalformedMessage)
	}
	n := int(Uint32(buf[offset:]))
	start := offset + 4
	if n < 1 || start+n > len(buf) {
		return "", 0, fmt.Errorf("%w: string length %d exceeds buffer", ErrMalformedMessage, n)
	}
	if buf[start+n-1] != 0 {
		return "", 0, fmt.Errorf("%w: string not NUL-terminated", ErrMalformedMessage)
	}
	s := string(buf[start : start+n-1])
	next := start + paddedLen(n)
	if next > len(buf) {
		return "", 0, fmt.Errorf("%w: string padding exceeds buffer", ErrMalformedMessage)
	}
	return s, next, nil
}

// BuildMessage frames payload as a single Wayland message addressed to
// objID with the given opcode: an 8-byte header (obj_id, (size<<16)|opcode)
// followed by payload. The result's length is HeaderSize plus len(payload);
// payload is not padded, so the result is a multiple of 4 only when
// payload is (as every payload built with this package's Append helpers is).
func BuildMessage(objID uint32, opcode uint16, payload []byte) []byte {
	size := HeaderSize + len(payload)
	msg := make([]byte, 0, size)
	msg = AppendUint32(msg, objID)
	msg = AppendUint32(msg, uint32(size)<<16|uint32(opcode))
	msg = append(msg, payload...)
	return msg
}

// ParseHeader decodes the 8-byte header at the front of buf, returning the
// target object ID, opcode, and total message size (header included).
// ErrMalformedMessage is returned if buf is shorter than HeaderSize or the
// declared size is not a valid frame size (< HeaderSize, or not a multiple
// of 4).
func ParseHeader(buf []byte) (objID uint32, opcode uint16, size uint32, err error) {
	if len(buf) < HeaderSize {
		return 0, 0, 0, fmt.Errorf("%w: header truncated", ErrMalformedMessage)
	}
	objID = Uint32(buf[0:4])
	sizeAndOpcode := Uint32(buf[4:8])
	size = sizeAndOpcode >> 16
	opcode = uint16(sizeAndOpcode & 0xffff)
	if size < HeaderSize || size%4 != 0 {
		return 0, 0, 0, fmt.Errorf("%w: impossible message size %d", ErrMalformedMessage, size)
	}
	return objID, opcode, size, nil
}
