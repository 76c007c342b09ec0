// Package ui implements the interactive duplicate browser.
package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/godupes/internal/dupes"
	"github.com/sadopc/godupes/internal/fsys"
	"github.com/sadopc/godupes/internal/model"
	"github.com/sadopc/godupes/internal/ops"
	"github.com/sadopc/godupes/internal/ui/components"
	"github.com/sadopc/godupes/internal/ui/style"
)

// DefaultExportPath is where E writes when no export path was given.
const DefaultExportPath = "godupes-report.json"

// AppState represents the application state.
type AppState int

const (
	StateScanning AppState = iota
	StateBrowsing
	StateHelp
	StateExporting
)

// ScanDoneMsg is sent when the duplicate search or import completes.
type ScanDoneMsg struct {
	Result *model.Result
	Err    error
}

// ExportDoneMsg is sent when export completes.
type ExportDoneMsg struct {
	Path string
	Err  error
}

type tickMsg time.Time

// App is the root Bubble Tea model.
type App struct {
	FS         fsys.FS
	Root       string
	Options    dupes.Options
	ImportPath string
	ExportPath string
	Version    string

	state  AppState
	width  int
	height int

	result     *model.Result
	groups     []model.Group
	sortConfig model.SortConfig
	expanded   map[string]bool
	imported   bool

	cursor int
	offset int

	progress       dupes.Progress
	progressMu     sync.Mutex
	latestProgress dupes.Progress
	scanCancel     context.CancelFunc
	scanCancelMu   sync.Mutex

	theme  style.Theme
	keys   KeyMap
	layout style.Layout

	statusMsg string
	fatalErr  error
}

func (a *App) setScanCancel(cancel context.CancelFunc) {
	a.scanCancelMu.Lock()
	a.scanCancel = cancel
	a.scanCancelMu.Unlock()
}

func (a *App) callScanCancel() {
	a.scanCancelMu.Lock()
	if a.scanCancel != nil {
		a.scanCancel()
	}
	a.scanCancelMu.Unlock()
}

// NewApp creates an App that searches root on filesystem.
func NewApp(filesystem fsys.FS, root string, opts dupes.Options) *App {
	return &App{
		FS:         filesystem,
		Root:       root,
		Options:    opts,
		state:      StateScanning,
		sortConfig: model.DefaultSort(),
		expanded:   make(map[string]bool),
		theme:      style.DefaultTheme(),
		keys:       DefaultKeyMap(),
	}
}

// NewAppFromImport creates an App that shows a previously exported report.
func NewAppFromImport(importPath string) *App {
	return &App{
		ImportPath: importPath,
		state:      StateScanning,
		sortConfig: model.DefaultSort(),
		expanded:   make(map[string]bool),
		imported:   true,
		theme:      style.DefaultTheme(),
		keys:       DefaultKeyMap(),
	}
}

func (a *App) Init() tea.Cmd {
	if a.ImportPath != "" {
		return a.importCmd()
	}
	return tea.Batch(a.scanCmd(), a.tickCmd())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout = style.NewLayout(msg.Width, msg.Height)
		return a, nil

	case ScanDoneMsg:
		if msg.Err != nil {
			if !errors.Is(msg.Err, context.Canceled) {
				a.fatalErr = msg.Err
			}
			return a, tea.Quit
		}
		a.fatalErr = nil
		a.result = msg.Result
		a.groups = nil
		a.expanded = make(map[string]bool)
		a.cursor = 0
		a.offset = 0
		a.state = StateBrowsing
		a.refreshSorted()
		return a, tea.ClearScreen

	case tickMsg:
		if a.state == StateScanning {
			a.progressMu.Lock()
			a.progress = a.latestProgress
			a.progressMu.Unlock()
			return a, a.tickCmd()
		}
		return a, nil

	case ExportDoneMsg:
		a.state = StateBrowsing
		if msg.Err != nil {
			a.statusMsg = fmt.Sprintf("Export failed: %v", msg.Err)
		} else {
			a.statusMsg = fmt.Sprintf("Exported to %s", msg.Path)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		a.callScanCancel()
		return a, tea.Quit
	}

	switch a.state {
	case StateScanning:
		if key.Matches(msg, a.keys.Quit) {
			a.callScanCancel()
			return a, tea.Quit
		}
		return a, nil

	case StateHelp:
		if key.Matches(msg, a.keys.Help, a.keys.Close) {
			a.state = StateBrowsing
			return a, tea.ClearScreen
		}
		return a, nil

	case StateBrowsing:
		return a.handleBrowsingKey(msg)
	}

	return a, nil
}

func (a *App) handleBrowsingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.statusMsg = ""
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.state = StateHelp
		return a, tea.ClearScreen

	case key.Matches(msg, a.keys.Up):
		a.moveCursor(-1)
	case key.Matches(msg, a.keys.Down):
		a.moveCursor(1)
	case key.Matches(msg, a.keys.Top):
		a.moveCursor(-len(a.groups))
	case key.Matches(msg, a.keys.Bottom):
		a.moveCursor(len(a.groups))
	case key.Matches(msg, a.keys.Expand):
		a.toggleExpanded()
	case key.Matches(msg, a.keys.Collapse):
		if g, ok := a.current(); ok {
			delete(a.expanded, components.GroupKey(g))
		}

	case key.Matches(msg, a.keys.SortWasted):
		a.toggleSort(model.SortByWasted)
	case key.Matches(msg, a.keys.SortSize):
		a.toggleSort(model.SortBySize)
	case key.Matches(msg, a.keys.SortCount):
		a.toggleSort(model.SortByCount)
	case key.Matches(msg, a.keys.SortPath):
		a.toggleSort(model.SortByPath)

	case key.Matches(msg, a.keys.Export):
		return a, a.exportCmd()

	case key.Matches(msg, a.keys.Rescan):
		if a.imported {
			a.statusMsg = "Search again is unavailable for imported reports"
			return a, nil
		}
		a.state = StateScanning
		a.progressMu.Lock()
		a.latestProgress = dupes.Progress{}
		a.progressMu.Unlock()
		a.progress = dupes.Progress{}
		return a, tea.Batch(tea.ClearScreen, a.scanCmd(), a.tickCmd())
	}

	return a, nil
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	switch a.state {
	case StateScanning:
		return components.RenderScanProgress(a.theme, a.progress, a.width, a.height)

	case StateHelp:
		return components.RenderHelp(a.theme, a.width, a.height)

	case StateBrowsing, StateExporting:
		return a.renderBrowsing()
	}

	return ""
}

func (a *App) renderBrowsing() string {
	header := components.RenderHeader(a.theme, a.result, a.width)
	sortBar := components.RenderSortBar(a.theme, a.sortConfig, a.result, a.width)

	gl := &components.GroupList{
		Theme:       a.theme,
		Layout:      a.layout,
		Groups:      a.groups,
		Cursor:      a.cursor,
		Offset:      a.offset,
		Expanded:    a.expanded,
		TotalWasted: a.result.TotalWasted(),
	}
	gl.EnsureVisible()
	a.offset = gl.Offset
	content := gl.Render()

	statusBar := components.RenderStatusBar(a.theme, components.StatusInfo{
		Result:   a.result,
		Imported: a.imported,
		Message:  a.statusMsg,
	}, a.width)

	return header + "\n" + sortBar + "\n" + content + "\n" + statusBar
}

func (a *App) moveCursor(delta int) {
	a.cursor += delta
	if a.cursor >= len(a.groups) {
		a.cursor = len(a.groups) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a *App) current() (model.Group, bool) {
	if a.cursor < 0 || a.cursor >= len(a.groups) {
		return model.Group{}, false
	}
	return a.groups[a.cursor], true
}

func (a *App) toggleExpanded() {
	g, ok := a.current()
	if !ok {
		return
	}
	k := components.GroupKey(g)
	if a.expanded[k] {
		delete(a.expanded, k)
	} else {
		a.expanded[k] = true
	}
}

func (a *App) toggleSort(field model.SortField) {
	if a.sortConfig.Field == field {
		if a.sortConfig.Order == model.SortDesc {
			a.sortConfig.Order = model.SortAsc
		} else {
			a.sortConfig.Order = model.SortDesc
		}
	} else {
		a.sortConfig.Field = field
		a.sortConfig.Order = model.SortDesc
		if field == model.SortByPath {
			a.sortConfig.Order = model.SortAsc
		}
	}
	a.refreshSorted()
}

// refreshSorted re-sorts the groups and keeps the cursor on the same group.
func (a *App) refreshSorted() {
	if a.result == nil {
		a.groups = nil
		return
	}
	var selected string
	if g, ok := a.current(); ok {
		selected = components.GroupKey(g)
	}

	a.groups = append(a.groups[:0], a.result.Groups...)
	model.SortGroups(a.groups, a.sortConfig)

	for i, g := range a.groups {
		if selected != "" && components.GroupKey(g) == selected {
			a.cursor = i
			return
		}
	}
	a.moveCursor(0)
}

// scanCmd runs the duplicate search in a background goroutine.
// Progress is communicated via a.latestProgress (mutex-protected).
func (a *App) scanCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		a.setScanCancel(cancel)
		defer cancel()

		progressCh := make(chan dupes.Progress, 16)
		relayed := make(chan struct{})
		go func() {
			defer close(relayed)
			for p := range progressCh {
				a.progressMu.Lock()
				a.latestProgress = p
				a.progressMu.Unlock()
			}
		}()

		result, err := dupes.NewFinder(a.FS, a.Options).Find(ctx, a.Root, progressCh)
		close(progressCh)
		<-relayed

		return ScanDoneMsg{Result: result, Err: err}
	}
}

func (a *App) importCmd() tea.Cmd {
	return func() tea.Msg {
		report, err := ops.Import(a.ImportPath)
		if err != nil {
			return ScanDoneMsg{Err: err}
		}
		return ScanDoneMsg{Result: report.Result()}
	}
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// FatalError returns a fatal search or import error, if any.
func (a *App) FatalError() error { return a.fatalErr }

func (a *App) exportCmd() tea.Cmd {
	if a.result == nil {
		return nil
	}

	exportPath := a.ExportPath
	if exportPath == "" || exportPath == "-" {
		exportPath = DefaultExportPath
	}

	a.state = StateExporting
	result := a.result
	version := a.Version
	return func() tea.Msg {
		err := ops.Export(result, exportPath, ops.FormatForPath(exportPath), version)
		return ExportDoneMsg{Path: exportPath, Err: err}
	}
}
