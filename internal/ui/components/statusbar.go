package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/godupes/internal/model"
	"github.com/sadopc/godupes/internal/ui/style"
	"github.com/sadopc/godupes/internal/util"
)

// StatusInfo holds the current state for the status bar.
type StatusInfo struct {
	Result   *model.Result
	Imported bool
	Message  string
}

// RenderStatusBar renders the bottom status bar. A pending message replaces
// the totals until the next key press.
func RenderStatusBar(theme style.Theme, info StatusInfo, width int) string {
	if info.Message != "" {
		msgLine := " " + lipgloss.NewStyle().Foreground(theme.Warning).Bold(true).Render(info.Message)
		return theme.StatusBarStyle.Width(width).Render(msgLine)
	}

	var parts []string
	if r := info.Result; r != nil {
		parts = append(parts,
			fmt.Sprintf("%s duplicates", util.FormatCount(int64(r.DuplicateCount()))),
			fmt.Sprintf("%s reclaimable", util.FormatSize(r.TotalWasted())),
			fmt.Sprintf("%s files in %s", util.FormatCount(r.Stats.FilesScanned), util.FormatDuration(r.Stats.Duration)),
		)
		if skipped := r.Stats.Skipped + r.Stats.ScanErrors; skipped > 0 {
			parts = append(parts, theme.ErrorText.Render(fmt.Sprintf("%d skipped", skipped)))
		}
	}
	if info.Imported {
		parts = append(parts, "imported")
	}

	left := " " + strings.Join(parts, " | ")

	hints := []struct{ key, desc string }{
		{"?", "help"},
		{"enter", "expand"},
		{"E", "export"},
		{"q", "quit"},
	}

	var rightParts []string
	for _, h := range hints {
		k := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(h.key)
		d := lipgloss.NewStyle().Foreground(theme.TextMuted).Render(" " + h.desc)
		rightParts = append(rightParts, k+d)
	}
	right := strings.Join(rightParts, "  ") + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Totals win over hints on narrow terminals.
		right = ""
		gap = 1
	}

	line := left + strings.Repeat(" ", gap) + right
	return theme.StatusBarStyle.Width(width).Render(line)
}
