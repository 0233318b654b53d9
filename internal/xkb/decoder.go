// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

// Package xkb turns a compositor-supplied XKB keymap blob into an ordered
// list of layout names. It prefers a native libxkbcommon binding loaded at
// runtime via purego and falls back to a text scan when the library is not
// present.
package xkb

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// FormatXKBV1 is the only keymap format this decoder accepts.
const FormatXKBV1 = 1

var (
	// ErrUnsupportedFormat means the keymap event declared a format other
	// than FormatXKBV1.
	ErrUnsupportedFormat = errors.New("xkb: unsupported keymap format")
	// ErrDecoderUnavailable is recorded, once, when no native libxkbcommon
	// binding could be loaded and the text-scan fallback is in use. It is
	// never returned from Decode: the fallback always produces a result.
	ErrDecoderUnavailable = errors.New("xkb: native decoder unavailable")
)

// compiler is the native-library strategy: compile keymap text and
// enumerate its layout names. Implementations live in native_linux.go
// (purego-backed) and native_other.go (always unavailable).
type compiler interface {
	Available() bool
	Layouts(text []byte) ([]string, error)
}

// Decoder decodes a keymap fd into an ordered list of layout names. The
// zero value is not usable; construct with NewDecoder.
type Decoder struct {
	native compiler

	warnedOnce     bool
	onFallbackWarn func(error)
}

// NewDecoder builds a Decoder, probing for a native libxkbcommon binding.
// Probing happens once per Decoder and the result (and any compiled
// context) is cached for the Decoder's lifetime. onFallbackWarn, if
// non-nil, is invoked exactly once the first time the text-scan fallback is
// used because no native library was found; callers typically wire this to
// their logger at warn severity.
func NewDecoder(onFallbackWarn func(error)) *Decoder {
	return &Decoder{
		native:         newNativeCompiler(),
		onFallbackWarn: onFallbackWarn,
	}
}

// Decode always closes fd before returning, on every path. format must
// equal FormatXKBV1 or the fd is closed and ErrUnsupportedFormat is
// returned with no layout names.
func (d *Decoder) Decode(format uint32, fd int, size uint32) ([]string, error) {
	defer unix.Close(fd)

	if format != FormatXKBV1 {
		return nil, ErrUnsupportedFormat
	}

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("xkb: mmap keymap: %w", err)
	}
	defer unix.Munmap(data)

	text := bytes.TrimRight(data, "\x00")

	if d.native != nil && d.native.Available() {
		names, err := d.native.Layouts(text)
		if err == nil && len(names) > 0 {
			return names, nil
		}
	} else if !d.warnedOnce {
		d.warnedOnce = true
		if d.onFallbackWarn != nil {
			d.onFallbackWarn(ErrDecoderUnavailable)
		}
	}

	names := decodeFallback(text)
	if len(names) == 0 {
		return []string{"Unknown"}, nil
	}
	return names, nil
}
