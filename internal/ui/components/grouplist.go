package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/godupes/internal/model"
	"github.com/sadopc/godupes/internal/ui/style"
	"github.com/sadopc/godupes/internal/util"
)

// GroupList renders duplicate groups one row each, with the member paths of
// expanded groups listed underneath. Offset counts screen lines, not groups.
type GroupList struct {
	Theme  style.Theme
	Layout style.Layout
	Groups []model.Group
	Cursor int
	Offset int
	// Expanded is keyed by GroupKey.
	Expanded    map[string]bool
	TotalWasted int64
}

// GroupKey identifies a group across re-sorts.
func GroupKey(g model.Group) string {
	if len(g.Paths) == 0 {
		return ""
	}
	return g.Paths[0]
}

func (gl *GroupList) expanded(i int) bool {
	return gl.Expanded[GroupKey(gl.Groups[i])]
}

func (gl *GroupList) height(i int) int {
	if gl.expanded(i) {
		return 1 + len(gl.Groups[i].Paths)
	}
	return 1
}

// lineOf returns the screen line of group i's row.
func (gl *GroupList) lineOf(i int) int {
	line := 0
	for j := 0; j < i && j < len(gl.Groups); j++ {
		line += gl.height(j)
	}
	return line
}

// EnsureVisible adjusts Offset so the cursor row is on screen, and its
// member paths too when they fit.
func (gl *GroupList) EnsureVisible() {
	if len(gl.Groups) == 0 {
		gl.Offset = 0
		return
	}
	contentHeight := gl.Layout.ContentHeight()
	top := gl.lineOf(gl.Cursor)
	bottom := top + gl.height(gl.Cursor) - 1

	if bottom >= gl.Offset+contentHeight {
		gl.Offset = bottom - contentHeight + 1
	}
	if top < gl.Offset {
		gl.Offset = top
	}
	if gl.Offset < 0 {
		gl.Offset = 0
	}
}

// Render renders the visible part of the list.
func (gl *GroupList) Render() string {
	width := gl.Layout.ContentWidth()
	contentHeight := gl.Layout.ContentHeight()

	var lines []string
	if len(gl.Groups) == 0 {
		empty := lipgloss.NewStyle().Foreground(gl.Theme.TextMuted).Render("  (no duplicate files found)")
		lines = append(lines, style.FullWidth(empty, width))
	}

	barWidth := gl.Layout.BarWidth()
	nameWidth := gl.Layout.NameWidth()
	end := gl.Offset + contentHeight

	line := 0
	for i := 0; i < len(gl.Groups) && line < end; i++ {
		if line >= gl.Offset {
			lines = append(lines, gl.renderRow(i, barWidth, nameWidth, width))
		}
		line++
		if !gl.expanded(i) {
			continue
		}
		paths := gl.Groups[i].Paths
		for j, p := range paths {
			if line >= end {
				break
			}
			if line >= gl.Offset {
				lines = append(lines, gl.renderMember(p, j == len(paths)-1, width))
			}
			line++
		}
	}

	for len(lines) < contentHeight {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

func (gl *GroupList) renderRow(i, barWidth, nameWidth, totalWidth int) string {
	g := gl.Groups[i]
	selected := i == gl.Cursor

	pct := util.Percent(g.Wasted(), gl.TotalWasted)
	ratio := pct / 100

	glyph := "▸"
	if gl.expanded(i) {
		glyph = "▾"
	}
	indicator := " " + gl.Theme.ExpandIndicator.Render(glyph)
	if selected {
		indicator = gl.Theme.CursorIndicator.Render(">") + gl.Theme.ExpandIndicator.Render(glyph)
	}

	var note string
	if g.Links > 0 {
		note = gl.Theme.LinkText.Render(fmt.Sprintf(" (%d linked)", g.Links))
	}
	name := util.TruncatePath(GroupKey(g), nameWidth-lipgloss.Width(note))

	row := fmt.Sprintf("%s%s [%s] %s %s  %s%s",
		indicator,
		gl.Theme.PercentText.Foreground(gl.Theme.GradientColor(ratio)).Render(fmt.Sprintf("%5.1f%%", pct)),
		gl.Theme.BarGradient(barWidth, ratio),
		gl.Theme.CountText.Render(fmt.Sprintf("%d×", g.Count())),
		gl.Theme.SizeText.Render(util.FormatSize(g.Size)),
		gl.Theme.GroupPath.Render(name),
		note,
	)
	row = style.FullWidth(row, totalWidth)

	if selected {
		return gl.Theme.SelectedRow.Width(totalWidth).Render(row)
	}
	return row
}

func (gl *GroupList) renderMember(path string, last bool, totalWidth int) string {
	glyph := "├ "
	if last {
		glyph = "└ "
	}
	prefix := strings.Repeat(" ", style.PathIndent-2) + gl.Theme.TreeGlyph.Render(glyph)
	path = util.TruncatePath(path, gl.Layout.PathWidth())
	return style.FullWidth(prefix+gl.Theme.MemberPath.Render(path), totalWidth)
}
