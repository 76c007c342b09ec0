package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/godupes/internal/dupes"
	"github.com/sadopc/godupes/internal/ui/style"
	"github.com/sadopc/godupes/internal/util"
)

// RenderScanProgress renders the progress box shown while the pipeline runs.
func RenderScanProgress(theme style.Theme, progress dupes.Progress, width, height int) string {
	boxWidth := 50
	if boxWidth > width-4 {
		boxWidth = width - 4
	}

	var lines []string

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Primary).
		Render("  Finding duplicates...")
	lines = append(lines, title, "")

	statStyle := lipgloss.NewStyle().Foreground(theme.TextSecondary)
	lines = append(lines,
		statStyle.Render(fmt.Sprintf("  Phase:  %s", progress.Phase)),
		statStyle.Render(fmt.Sprintf("  Files:  %s", util.FormatCount(progress.Files))),
		statStyle.Render(fmt.Sprintf("  Dirs:   %s", util.FormatCount(progress.Dirs))),
		statStyle.Render(fmt.Sprintf("  Size:   %s", util.FormatSize(progress.Bytes))),
	)
	if progress.Phase == dupes.PhaseScan {
		speed := fmt.Sprintf("  Speed:  %s items/s", util.FormatCount(int64(progress.Rate)))
		lines = append(lines, statStyle.Render(speed))
	}

	if progress.Total > 0 {
		count := fmt.Sprintf("  %s/%s ",
			util.FormatCount(progress.Processed),
			util.FormatCount(progress.Total),
		)
		// Box padding and border take six cells.
		barWidth := boxWidth - 6 - lipgloss.Width(count)
		lines = append(lines, statStyle.Render(count)+theme.BarGradient(barWidth, progress.Fraction()))
	}

	if progress.Skipped > 0 {
		lines = append(lines, theme.ErrorText.Render(fmt.Sprintf("  Skipped: %d", progress.Skipped)))
	}

	lines = append(lines, "")
	elapsed := "  Elapsed: " + util.FormatDuration(progress.Elapsed)
	lines = append(lines, lipgloss.NewStyle().Foreground(theme.TextMuted).Render(elapsed))

	content := strings.Join(lines, "\n")

	box := theme.ModalStyle.
		Width(boxWidth).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
