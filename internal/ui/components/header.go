package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/godupes/internal/model"
	"github.com/sadopc/godupes/internal/ui/style"
	"github.com/sadopc/godupes/internal/util"
)

// RenderHeader renders the top header bar: tool name, root and totals.
func RenderHeader(theme style.Theme, result *model.Result, width int) string {
	if result == nil || width < 10 {
		return ""
	}

	titleStyled := lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Render(" godupes")

	stats := fmt.Sprintf("%s groups  %s wasted ",
		util.FormatCount(int64(len(result.Groups))),
		util.FormatSize(result.TotalWasted()),
	)
	statsStyled := lipgloss.NewStyle().Foreground(theme.TextMuted).Render(stats)

	titleW := lipgloss.Width(titleStyled)
	statsW := lipgloss.Width(statsStyled)

	// The root gets whatever space remains.
	pathMaxW := width - titleW - statsW - 3
	pathStr := ""
	if pathMaxW > 5 {
		pathStr = util.TruncatePath(result.Root, pathMaxW)
	}

	pathStyled := lipgloss.NewStyle().Foreground(theme.TextPrimary).Render("  " + pathStr)
	pathW := lipgloss.Width(pathStyled)

	gap := width - titleW - pathW - statsW
	if gap < 1 {
		gap = 1
	}

	line := titleStyled + pathStyled + strings.Repeat(" ", gap) + statsStyled
	return theme.HeaderStyle.Width(width).Render(line)
}

var sortTabs = []struct {
	field model.SortField
	label string
}{
	{model.SortByWasted, "Wasted"},
	{model.SortBySize, "Size"},
	{model.SortByCount, "Count"},
	{model.SortByPath, "Path"},
}

// RenderSortBar renders the sort tabs and the detection method in use.
func RenderSortBar(theme style.Theme, sort model.SortConfig, result *model.Result, width int) string {
	var tabs []string
	for _, tab := range sortTabs {
		if tab.field != sort.Field {
			tabs = append(tabs, theme.TabInactiveStyle.Render(tab.label))
			continue
		}
		arrow := "↓"
		if sort.Order == model.SortAsc {
			arrow = "↑"
		}
		tabs = append(tabs, theme.TabActiveStyle.Render(tab.label+" "+arrow))
	}
	left := " " + strings.Join(tabs, " ")

	method := ""
	if result != nil {
		method = string(result.Method)
		if result.Algorithm != "" {
			method += " · " + result.Algorithm
		}
	}
	methodStyled := lipgloss.NewStyle().Foreground(theme.TextMuted).Render(method + " ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(methodStyled)
	if gap < 1 {
		gap = 1
	}

	line := left + strings.Repeat(" ", gap) + methodStyled
	return theme.SortBarStyle.Width(width).Render(line)
}
