// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strings"

	"github.com/thepilgrim/pilgrim-go/internal/model"
)

// WordCount counts whitespace-separated tokens in a text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ReadingTime estimates reading time in whole minutes at 200 words per
// minute, rounding up. Empty text reads in zero minutes.
func ReadingTime(text string) int {
	words := WordCount(text)
	if words == 0 {
		return 0
	}
	return (words + model.WordsPerMinute - 1) / model.WordsPerMinute
}

// Truncate shortens a string to at most n runes, appending an ellipsis when
// anything was cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}
