// Package util holds small formatting helpers shared by the CLI and the TUI.
package util

import (
	"fmt"
	"time"

	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// FormatSize returns a human-readable size string in binary units.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}

	const (
		_          = iota
		kB float64 = 1 << (10 * iota)
		mB
		gB
		tB
		pB
	)

	b := float64(bytes)
	switch {
	case b >= pB:
		return fmt.Sprintf("%.1f PiB", b/pB)
	case b >= tB:
		return fmt.Sprintf("%.1f TiB", b/tB)
	case b >= gB:
		return fmt.Sprintf("%.1f GiB", b/gB)
	case b >= mB:
		return fmt.Sprintf("%.1f MiB", b/mB)
	case b >= kB:
		return fmt.Sprintf("%.1f KiB", b/kB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatCount abbreviates large counts ("1.5K", "2.0M").
func FormatCount(n int64) string {
	switch {
	case n < 1000:
		return fmt.Sprintf("%d", n)
	case n < 1_000_000:
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	case n < 1_000_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	default:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	}
}

// FormatDuration rounds d for display: milliseconds below a second,
// tenths of a second below a minute, whole seconds above.
func FormatDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

// Percent returns part as a percentage of total.
func Percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Truncate cuts s to width terminal cells, ending in "..." when cut.
// Escape sequences in s are preserved and not counted.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	if width <= len(ellipsis) {
		return ansi.Truncate(s, width, "")
	}
	return ansi.Truncate(s, width, ellipsis)
}

// TruncatePath cuts s to width cells from the left, so the file name at
// the end of a path stays visible.
func TruncatePath(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := ansi.StringWidth(s)
	if w <= width {
		return s
	}
	if width <= len(ellipsis) {
		return ansi.TruncateLeft(s, w-width, "")
	}
	return ansi.TruncateLeft(s, w-width+len(ellipsis), ellipsis)
}
