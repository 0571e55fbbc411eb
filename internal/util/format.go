// Package util provides utility functions for formatting and common operations.
package util

import (
	"fmt"
	"math"
)

// FormatDuration formats seconds as HH:MM:SS.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		return "??:??:??"
	}
	return FormatDurationFromSecs(int64(seconds))
}

// FormatDurationFromSecs formats seconds as HH:MM:SS from an int64.
func FormatDurationFromSecs(secs int64) string {
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatSeconds formats a clip time with millisecond precision (e.g. "1.250s").
func FormatSeconds(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "?s"
	}
	return fmt.Sprintf("%.3fs", seconds)
}

// FormatInterval formats a loop interval as "start-end (duration)".
func FormatInterval(start, end float64) string {
	return fmt.Sprintf("%s-%s (%s)", FormatSeconds(start), FormatSeconds(end), FormatSeconds(end-start))
}

// FormatPercent formats a [0,1] ratio as a percentage with one decimal.
func FormatPercent(ratio float64) string {
	if math.IsNaN(ratio) {
		return "?%"
	}
	return fmt.Sprintf("%.1f%%", ratio*100)
}
