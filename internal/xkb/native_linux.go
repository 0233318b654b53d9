// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

//go:build linux

package xkb

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

type xkbContext uintptr
type xkbKeymap uintptr

const (
	xkbContextNoFlags       int32 = 0
	xkbKeymapFormatTextV1   int32 = 1
	xkbKeymapCompileNoFlags int32 = 0
)

var (
	libxkbcommon uintptr

	xkbContextNew          func(flags int32) xkbContext
	xkbContextUnref        func(ctx xkbContext)
	xkbKeymapNewFromString func(ctx xkbContext, str *byte, format int32, flags int32) xkbKeymap
	xkbKeymapUnref         func(km xkbKeymap)
	xkbKeymapNumLayouts    func(km xkbKeymap) uint32
	xkbKeymapLayoutGetName func(km xkbKeymap, idx uint32) *byte
)

// nativeLinux is the purego-backed compiler: it dlopen's libxkbcommon on
// first use and keeps one xkb_context for the life of the process.
type nativeLinux struct {
	once    sync.Once
	ctx     xkbContext
	loadErr error
}

func newNativeCompiler() compiler {
	return &nativeLinux{}
}

func (n *nativeLinux) load() {
	var err error
	libxkbcommon, err = purego.Dlopen("libxkbcommon.so.0", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		libxkbcommon, err = purego.Dlopen("libxkbcommon.so", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			n.loadErr = fmt.Errorf("%w: libxkbcommon: %v", ErrDecoderUnavailable, err)
			return
		}
	}

	purego.RegisterLibFunc(&xkbContextNew, libxkbcommon, "xkb_context_new")
	purego.RegisterLibFunc(&xkbContextUnref, libxkbcommon, "xkb_context_unref")
	purego.RegisterLibFunc(&xkbKeymapNewFromString, libxkbcommon, "xkb_keymap_new_from_string")
	purego.RegisterLibFunc(&xkbKeymapUnref, libxkbcommon, "xkb_keymap_unref")
	purego.RegisterLibFunc(&xkbKeymapNumLayouts, libxkbcommon, "xkb_keymap_num_layouts")
	purego.RegisterLibFunc(&xkbKeymapLayoutGetName, libxkbcommon, "xkb_keymap_layout_get_name")

	n.ctx = xkbContextNew(xkbContextNoFlags)
	if n.ctx == 0 {
		n.loadErr = fmt.Errorf("%w: xkb_context_new returned NULL", ErrDecoderUnavailable)
	}
}

func (n *nativeLinux) Available() bool {
	n.once.Do(n.load)
	return n.loadErr == nil
}

func (n *nativeLinux) Layouts(text []byte) ([]string, error) {
	if !n.Available() {
		return nil, n.loadErr
	}

	cstr := append(append([]byte(nil), text...), 0)
	keymap := xkbKeymapNewFromString(n.ctx, &cstr[0], xkbKeymapFormatTextV1, xkbKeymapCompileNoFlags)
	if keymap == 0 {
		return nil, fmt.Errorf("xkb: xkb_keymap_new_from_string returned NULL")
	}
	defer xkbKeymapUnref(keymap)

	count := xkbKeymapNumLayouts(keymap)
	names := make([]string, count)
	for i := uint32(0); i < count; i++ {
		name := ptrToString(xkbKeymapLayoutGetName(keymap, i))
		if name == "" {
			name = fmt.Sprintf("Group%d", i)
		}
		names[i] = name
	}
	return names, nil
}

func ptrToString(ptr *byte) string {
	if ptr == nil {
		return ""
	}
	var buf []byte
	for i := uintptr(0); ; i++ {
		b := *(*byte)(unsafe.Pointer(uintptr(unsafe.Pointer(ptr)) + i))
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}
