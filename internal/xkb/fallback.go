// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

package xkb

import (
	"regexp"
	"sort"
	"strconv"
)

var (
	reXkbLayoutName = regexp.MustCompile(`xkb_layout\s*\{\s*"([^"]+)"`)
	reGroupName     = regexp.MustCompile(`name\[Group(\d+)\]\s*=\s*"([^"]+)"`)
)

// decodeFallback scans raw keymap text for layout names without compiling
// it. It tries xkb_layout blocks first; if none match, it falls back to
// name[GroupN] assignments, sorted by group index. A nil slice means
// neither pattern matched anything.
func decodeFallback(text []byte) []string {
	if matches := reXkbLayoutName.FindAllSubmatch(text, -1); len(matches) > 0 {
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, string(m[1]))
		}
		return names
	}

	matches := reGroupName.FindAllSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	type indexed struct {
		group int
		name  string
	}
	entries := make([]indexed, 0, len(matches))
	for _, m := range matches {
		group, err := strconv.Atoi(string(m[1]))
		if err != nil {
			continue
		}
		entries = append(entries, indexed{group: group, name: string(m[2])})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].group < entries[j].group })

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names
}
