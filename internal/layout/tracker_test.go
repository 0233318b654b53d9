// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerResolvesUnresolvedBeforeAnyKeymap(t *testing.T) {
	var tr Tracker
	name, group, changed := tr.OnModifiers(0)
	assert.Equal(t, "??", name)
	assert.Equal(t, uint32(0), group)
	assert.False(t, changed)
}

func TestOnKeymapAlwaysReportsAndKeepsGroup(t *testing.T) {
	var tr Tracker
	tr.OnModifiers(1) // no layouts yet, group set to 1, no report expected by itself

	name, group := tr.OnKeymap([]string{"English (US)", "German"})
	assert.Equal(t, "German", name)
	assert.Equal(t, uint32(1), group)
}

func TestOnModifiersIdempotentOnSameGroup(t *testing.T) {
	var tr Tracker
	tr.OnKeymap([]string{"English (US)"})

	_, _, changed := tr.OnModifiers(0)
	assert.False(t, changed, "on_modifiers with the same group must not report")
}

func TestOnModifiersGroupOutOfRangeFallsBackToFirstLayout(t *testing.T) {
	var tr Tracker
	tr.OnKeymap([]string{"English (US)", "German"})

	name, group, changed := tr.OnModifiers(3)
	assert.True(t, changed)
	assert.Equal(t, uint32(3), group)
	assert.Equal(t, "English (US)", name, "group beyond len(layouts) resolves to layouts[0]")
}

func TestMultiLayoutGroupSwitch(t *testing.T) {
	var tr Tracker
	name, group := tr.OnKeymap([]string{"English (US)", "German"})
	assert.Equal(t, "English (US)", name)
	assert.Equal(t, uint32(0), group)

	name, group, changed := tr.OnModifiers(1)
	assert.True(t, changed)
	assert.Equal(t, "German", name)
	assert.Equal(t, uint32(1), group)
}

func TestEmptyLayoutsResolveToSentinel(t *testing.T) {
	var tr Tracker
	name, _ := tr.OnKeymap(nil)
	assert.Equal(t, "??", name)
}

func TestLayoutsReturnsCopyNotAlias(t *testing.T) {
	var tr Tracker
	tr.OnKeymap([]string{"English (US)"})

	got := tr.Layouts()
	got[0] = "mutated"

	assert.Equal(t, "English (US)", tr.Layouts()[0])
}
