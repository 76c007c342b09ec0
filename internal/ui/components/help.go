package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/godupes/internal/ui/style"
)

type helpBind struct{ key, desc string }

var helpSections = []struct {
	name  string
	binds []helpBind
}{
	{
		name: "Navigation",
		binds: []helpBind{
			{"j/k", "Move up/down"},
			{"g/G", "First / last group"},
			{"Enter/l", "Expand or collapse group"},
			{"h", "Collapse group"},
		},
	},
	{
		name: "Sorting (again to reverse)",
		binds: []helpBind{
			{"w", "Sort by wasted space"},
			{"s", "Sort by file size"},
			{"C", "Sort by member count"},
			{"n", "Sort by path"},
		},
	},
	{
		name: "Actions",
		binds: []helpBind{
			{"E", "Export report"},
			{"r", "Search again"},
		},
	},
	{
		name: "General",
		binds: []helpBind{
			{"?", "Toggle help"},
			{"q", "Quit"},
		},
	},
}

// RenderHelp renders the help overlay.
func RenderHelp(theme style.Theme, width, height int) string {
	boxWidth := 60
	if boxWidth > width-4 {
		boxWidth = width - 4
	}

	var lines []string
	lines = append(lines, theme.ModalTitle.Render("  godupes - Keyboard Shortcuts"), "")

	for _, sec := range helpSections {
		secTitle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent).
			Render("  " + sec.name)
		lines = append(lines, secTitle)

		for _, b := range sec.binds {
			key := lipgloss.NewStyle().
				Foreground(theme.Primary).
				Bold(true).
				Width(14).
				Render("    " + b.key)
			desc := lipgloss.NewStyle().
				Foreground(theme.TextSecondary).
				Render(b.desc)
			lines = append(lines, fmt.Sprintf("%s %s", key, desc))
		}
		lines = append(lines, "")
	}

	lines = append(lines, lipgloss.NewStyle().
		Foreground(theme.TextMuted).
		Render("  Press ? or Esc to close"))

	box := theme.ModalStyle.
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
