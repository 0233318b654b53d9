// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

// Package indicator turns a resolved layout label into something visible.
// The core Wayland client never imports this package; it only ever
// produces (name, group) tuples for whatever Surface the embedder wires up.
package indicator

import (
	"fmt"
	"image"
	"image/draw"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Surface is anything that can display the current layout label. The
// Wayland core (internal/wl) is unaware of this interface; it lives
// entirely downstream of the on_layout_change callback.
type Surface interface {
	Update(label string, group uint32, xkbName string) error
	Close() error
}

// ConsoleSurface is a Surface that prints one line per change. It stands in
// for the system-tray pixmap surface the full desktop indicator would use,
// and is what cmd/waylayoutd wires up by default.
type ConsoleSurface struct {
	w io.Writer
}

// NewConsoleSurface returns a ConsoleSurface writing to w.
func NewConsoleSurface(w io.Writer) *ConsoleSurface {
	return &ConsoleSurface{w: w}
}

// Update writes "label\tgroup\txkb-name" to the underlying writer.
func (c *ConsoleSurface) Update(label string, group uint32, xkbName string) error {
	_, err := fmt.Fprintf(c.w, "%s\t%d\t%s\n", label, group, xkbName)
	return err
}

// Close is a no-op; ConsoleSurface owns no resources.
func (c *ConsoleSurface) Close() error { return nil }

// previewWidth and previewHeight size the raster preview a hypothetical
// tray icon renderer would hand to the compositor.
const (
	previewWidth  = 24
	previewHeight = 16
)

// RenderPreview rasterizes label onto a small grayscale bitmap using a
// fixed bitmap font, for local preview of what a tray icon would show
// before a real icon-theme renderer is wired in.
func RenderPreview(label string) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, previewWidth, previewHeight))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(1, previewHeight-4),
	}
	drawer.DrawString(truncate(label, 3))
	return img
}

// truncate keeps a label to at most n runes, since the preview bitmap has
// room for only a couple of characters.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
