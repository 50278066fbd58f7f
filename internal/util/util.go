// internal/util/util.go

// Package util holds rune-aware string helpers for the terminal views.
package util

import (
	"math"
	"strings"
	"unicode/utf8"
)

// TruncateRunes truncates a string to a maximum number of runes,
// appending an ellipsis if truncated.
func TruncateRunes(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes-1]) + "…"
}

// PadRight fits text into exactly width runes, truncating or space-padding.
func PadRight(text string, width int) string {
	text = TruncateRunes(text, width)
	if n := utf8.RuneCountInString(text); n < width {
		text += strings.Repeat(" ", width-n)
	}
	return text
}

// LongestRunes returns the rune length of the longest string, capped at limit.
func LongestRunes(items []string, limit int) int {
	longest := 0
	for _, s := range items {
		if n := utf8.RuneCountInString(s); n > longest {
			longest = n
		}
	}
	if limit > 0 && longest > limit {
		return limit
	}
	return longest
}

// ScaleBar converts value into a bar length out of width cells, relative to max.
// Positive values always get at least one cell.
func ScaleBar(value, max float64, width int) int {
	if value <= 0 || max <= 0 || width <= 0 {
		return 0
	}
	n := int(math.Round(value / max * float64(width)))
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return n
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
