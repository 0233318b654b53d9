// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendStringRoundTrip(t *testing.T) {
	cases := []string{"", "a", "wl_seat", "German (no dead keys)", "unicode: héllo"}
	for _, s := range cases {
		buf := AppendString(nil, s)
		assert.Equal(t, 0, len(buf)%4, "padded length must be a multiple of 4")

		got, next, err := ReadString(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, s, got)
		assert.Equal(t, len(buf), next)
	}
}

func TestReadStringRejectsTruncatedLength(t *testing.T) {
	buf := AppendUint32(nil, 100)
	_, _, err := ReadString(buf, 0)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestReadStringRejectsMissingTerminator(t *testing.T) {
	buf := AppendUint32(nil, 3)
	buf = append(buf, 'a', 'b', 'c')
	_, _, err := ReadString(buf, 0)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestBuildMessageSizeInvariant(t *testing.T) {
	payload := AppendString(AppendUint32(nil, 7), "wl_seat")
	msg := BuildMessage(2, 0, payload)

	assert.Equal(t, 0, len(msg)%4)
	assert.GreaterOrEqual(t, len(msg), HeaderSize)

	objID, opcode, size, err := ParseHeader(msg)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), objID)
	assert.Equal(t, uint16(0), opcode)
	assert.Equal(t, uint32(len(msg)), size)
}

func TestBuildMessageRoundTrip(t *testing.T) {
	payload := AppendInt32(AppendUint32(nil, 42), -7)
	msg := BuildMessage(5, 3, payload)

	objID, opcode, size, err := ParseHeader(msg)
	require.NoError(t, err)
	require.Equal(t, uint32(len(msg)), size)

	gotPayload := msg[HeaderSize:size]
	assert.Equal(t, uint32(5), objID)
	assert.Equal(t, uint16(3), opcode)
	assert.Equal(t, uint32(42), Uint32(gotPayload[0:4]))
	assert.Equal(t, int32(-7), Int32(gotPayload[4:8]))
}

func TestParseHeaderRejectsImpossibleSize(t *testing.T) {
	buf := AppendUint32(AppendUint32(nil, 1), 5<<16) // size=5, not a multiple of 4
	_, _, _, err := ParseHeader(buf)
	assert.ErrorIs(t, err, ErrMalformedMessage)

	buf2 := AppendUint32(AppendUint32(nil, 1), 4<<16) // size=4, smaller than HeaderSize
	_, _, _, err = ParseHeader(buf2)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestParseHeaderRejectsTruncatedBuffer(t *testing.T) {
	_, _, _, err := ParseHeader([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrMalformedMessage)
}
