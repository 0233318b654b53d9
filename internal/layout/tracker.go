// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

// Package layout owns the current keyboard layout set and active group
// index, and decides when a change is worth reporting upstream.
package layout

// unresolved is the name reported when no layout set has been decoded yet.
const unresolved = "??"

// Tracker holds the most recent layout set and group index, and resolves
// the pair to a display name.
//
// A zero-value Tracker is ready to use.
type Tracker struct {
	layouts []string
	group   uint32
}

// OnKeymap replaces the known layout set. Group is left untouched, matching
// the compositor's own semantics: a new keymap does not imply group 0.
// It always reports, since the set of available layouts may have changed
// even when the resolved name did not.
func (t *Tracker) OnKeymap(layouts []string) (name string, group uint32) {
	t.layouts = layouts
	return t.resolvedName(), t.group
}

// OnModifiers updates the active group. changed is false, and no report
// should be made, when group equals the value already stored.
func (t *Tracker) OnModifiers(group uint32) (name string, resolvedGroup uint32, changed bool) {
	if group == t.group {
		return t.resolvedName(), t.group, false
	}
	t.group = group
	return t.resolvedName(), t.group, true
}

// resolvedName indexes by group when in range, falls back to layouts[0],
// or reports unresolved when the layout set is empty.
func (t *Tracker) resolvedName() string {
	if len(t.layouts) == 0 {
		return unresolved
	}
	if t.group < uint32(len(t.layouts)) {
		return t.layouts[t.group]
	}
	return t.layouts[0]
}

// Layouts returns the current layout set, for diagnostics. The returned
// slice is a copy; callers must not assume it aliases internal state.
func (t *Tracker) Layouts() []string {
	return append([]string(nil), t.layouts...)
}

// Group returns the current group index, for diagnostics.
func (t *Tracker) Group() uint32 {
	return t.group
}
