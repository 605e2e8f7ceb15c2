package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/sadopc/baralga/internal/export"
	"github.com/sadopc/baralga/internal/tracker"
)

var exportFormats = []string{"CSV (filtered activities)", "XML backup", "JSON (filtered activities)"}

const (
	exportCSV = iota
	exportXML
	exportJSON
)

// Options configure the App.
type Options struct {
	Ctx        context.Context
	ExportDir  string
	BackupFile string
	Log        zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	tr     *tracker.Tracker
	events *Events
	opts   Options
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	activities activitiesModel
	projects   projectsModel
	reports    reportsModel

	help    help.Model
	status  string
	isError bool
}

func NewApp(tr *tracker.Tracker, ev *Events, opts Options) App {
	if opts.Ctx == nil {
		opts.Ctx = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if ev == nil {
		ev = NewEvents()
	}
	ev.watch(tr)

	h := help.New()
	h.ShowAll = false

	return App{
		tr:         tr,
		events:     ev,
		opts:       opts,
		activeView: viewActivities,
		activities: newActivitiesModel(opts.Ctx, tr, opts.Now),
		projects:   newProjectsModel(opts.Ctx, tr),
		reports:    newReportsModel(tr),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.events.wait(),
		tickCmd(),
		a.loadCmd(),
	)
}

func (a App) loadCmd() tea.Cmd {
	tr, ctx := a.tr, a.opts.Ctx
	return func() tea.Msg {
		if err := tr.Init(ctx); err != nil {
			return errStatus("Loading failed", err)
		}
		return statusMsg{text: "Loaded"}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.activities.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Import):
			return a, a.doImport()
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewActivities
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewProjects
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, nil
		}

	case tickMsg:
		return a, tickCmd()

	case storeChangedMsg:
		a.activities.sync()
		a.projects.sync()
		a.reports.sync()
		return a, a.events.wait()

	case unauthorizedMsg:
		a.setStatus(statusMsg{text: "Login required: the backend rejected the request", isError: true})
		return a, a.events.wait()

	case statusMsg:
		a.setStatus(msg)
		return a, nil

	case timerStartedMsg:
		a.setStatus(statusMsg{text: "Timer started"})
		return a, nil

	case exportDoneMsg:
		a.setStatus(statusMsg{text: "Exported to " + msg.path})
		a.exportPicking = false
		return a, nil

	case importDoneMsg:
		a.setStatus(statusMsg{text: fmt.Sprintf("Imported %d projects and %d activities from %s",
			msg.projects, msg.activities, msg.path)})
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(msg statusMsg) {
	a.status = msg.text
	a.isError = msg.isError
	if msg.isError {
		a.opts.Log.Warn().Str("status", msg.text).Msg("operation failed")
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewActivities:
		a.activities, cmd = a.activities.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewActivities:
		return a.activities.formActive || a.activities.picking
	case viewProjects:
		return a.projects.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewActivities:
		content = a.activities.view()
	case viewProjects:
		content = a.projects.view()
	case viewReports:
		content = a.reports.view()
	}

	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("baralga")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.isError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	timerInfo := ""
	if t := a.activities.timer; t.running {
		timerInfo = successStyle.Render(" ● " + formatElapsed(t.elapsed(a.opts.Now())))
	}

	left := footerStyle.Render(a.help.View(keys))
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, warningStyle.Render("  backup file: "+a.backupPath()))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// backupPath resolves the backup file against the export directory.
func (a App) backupPath() string {
	if filepath.IsAbs(a.opts.BackupFile) {
		return a.opts.BackupFile
	}
	return filepath.Join(a.opts.ExportDir, a.opts.BackupFile)
}

func (a App) doExport(format int) tea.Cmd {
	tr := a.tr
	dir := a.opts.ExportDir
	backup := a.backupPath()
	date := a.opts.Now().Format("2006-01-02")

	return func() tea.Msg {
		var path string
		switch format {
		case exportCSV:
			path = filepath.Join(dir, fmt.Sprintf("baralga-export-%s.csv", date))
			if err := export.ToCSVFile(tr.Filtered.Get(), path); err != nil {
				return errStatus("CSV error", err)
			}
		case exportXML:
			b := tr.Backup()
			path = backup
			if err := export.ToXMLFile(b.Activities, b.Projects, path); err != nil {
				return errStatus("XML error", err)
			}
		default:
			path = filepath.Join(dir, fmt.Sprintf("baralga-export-%s.json", date))
			if err := export.ToJSON(tr.Filtered.Get(), path); err != nil {
				return errStatus("JSON error", err)
			}
		}
		return exportDoneMsg{path: path}
	}
}

func (a App) doImport() tea.Cmd {
	tr := a.tr
	path := a.backupPath()
	return func() tea.Msg {
		res := export.ReadXMLFile(path)
		if res.Status != export.StatusOK {
			return errStatus("Import failed", res.Err)
		}
		b := res.Backup()
		tr.ImportBackup(b)
		return importDoneMsg{path: path, projects: len(b.Projects), activities: len(b.Activities)}
	}
}
