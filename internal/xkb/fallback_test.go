// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

package xkb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeFallbackPrefersXkbLayoutBlock(t *testing.T) {
	text := []byte(`xkb_layout { "English (US)" };`)
	assert.Equal(t, []string{"English (US)"}, decodeFallback(text))
}

func TestDecodeFallbackSortsGroupNamesByIndex(t *testing.T) {
	text := []byte(`name[Group2]="DE"; name[Group1]="FR";`)
	assert.Equal(t, []string{"FR", "DE"}, decodeFallback(text))
}

func TestDecodeFallbackReturnsNilWhenNoPatternMatches(t *testing.T) {
	assert.Nil(t, decodeFallback([]byte(`xkb_keycodes "whatever" { };`)))
}
