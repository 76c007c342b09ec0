package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Layout manages the arrangement of UI components within terminal dimensions.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a layout for the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentHeight returns the height available for the group list.
func (l Layout) ContentHeight() int {
	h := l.Height - 3 // header + sort bar + status bar
	if h < 1 {
		h = 1
	}
	return h
}

// ContentWidth returns the width available for the main content area.
func (l Layout) ContentWidth() int {
	if l.Width < 20 {
		return 20
	}
	return l.Width
}

// BarWidth returns the width of the wasted-share bar in a group row. The
// bar takes a third of the free space so the path keeps most of it.
func (l Layout) BarWidth() int {
	bar := (l.ContentWidth() - l.rowOverhead()) / 3
	if bar < 5 {
		bar = 5
	}
	if bar > 24 {
		bar = 24
	}
	return bar
}

// NameWidth returns the width left for the first path of a group row.
func (l Layout) NameWidth() int {
	w := l.ContentWidth() - l.rowOverhead() - l.BarWidth()
	if w < 8 {
		w = 8
	}
	return w
}

// PathWidth returns the width for a member path under an expanded group.
func (l Layout) PathWidth() int {
	w := l.ContentWidth() - PathIndent
	if w < 8 {
		w = 8
	}
	return w
}

// PathIndent is the width of the prefix before a member path: six spaces
// and a two-cell tree glyph.
const PathIndent = 8

// rowOverhead returns the fixed-width portion of each group row
// (everything except the bar and the path).
//
// Layout: " >" mark + " 99.9%" pct(6) + " [" + bar + "] " + "99×" count(4) + " " + "  9.9 GiB" size(10) + "  " + path
// Fixed:    2        + 6               + 2    +     + 2    + 4              + 1   + 10                 + 2 = 29
func (l Layout) rowOverhead() int {
	return 29
}

// Center centers content in the available width.
func (l Layout) Center(content string) string {
	return lipgloss.PlaceHorizontal(l.Width, lipgloss.Center, content)
}

// FullWidth pads a string with spaces to reach exactly the target visual width.
// If the string is already wider, it is returned as-is (no truncation).
func FullWidth(s string, width int) string {
	visLen := lipgloss.Width(s)
	if visLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visLen)
}
