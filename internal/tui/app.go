package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/voicecount/internal/coach"
	"github.com/sadopc/voicecount/internal/counter"
	"github.com/sadopc/voicecount/internal/export"
	"github.com/sadopc/voicecount/internal/store"
)

// App is the root Bubble Tea model.
type App struct {
	coach  *coach.Coach
	store  *store.Store
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	menu     menuModel
	run      runModel
	settings settingsModel
	history  historyModel

	help      help.Model
	status    string
	statusErr bool

	autoStart int // 1-based preset to start on launch, 0 for none
}

// NewApp builds the root model. s may be nil, in which case history is
// neither shown nor exported.
func NewApp(c *coach.Coach, s *store.Store, speechOK bool) App {
	h := help.New()
	h.ShowAll = false

	return App{
		coach:      c,
		store:      s,
		activeView: viewMenu,
		menu:       newMenuModel(c, s, speechOK),
		run:        newRunModel(),
		settings:   newSettingsModel(c, s),
		history:    newHistoryModel(s),
		help:       h,
	}
}

// StartingWith makes the app start the preset at index as soon as it runs.
func (a App) StartingWith(index int) App {
	a.autoStart = index + 1
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.menu.Init(), tickCmd()}
	if a.autoStart > 0 {
		cmds = append(cmds, a.menu.start(a.autoStart-1))
	}
	return tea.Batch(cmds...)
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
		a.menu.setSize(a.width, contentHeight)
		a.run.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		if a.activeView == viewRun {
			return a.updateRunKeys(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Settings):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.History):
			a.activeView = viewHistory
			return a, a.history.refresh()
		case key.Matches(msg, keys.Export):
			if a.activeView == viewHistory && a.store != nil {
				a.exportPicking = true
				a.exportCursor = 0
				return a, nil
			}
		case key.Matches(msg, keys.Back):
			if a.activeView != viewMenu {
				a.activeView = viewMenu
				return a, a.menu.loadData()
			}
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		var cmd tea.Cmd
		a.run, cmd = a.run.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case sessionStartedMsg:
		a.run = a.run.begin(msg.session)
		a.activeView = viewRun
		a.status = ""
		return a, waitForEvent(msg.session)

	case sessionEventMsg:
		var cmd tea.Cmd
		a.run, cmd = a.run.update(msg)
		return a, cmd

	case sessionClosedMsg:
		var cmd tea.Cmd
		a.run, cmd = a.run.update(msg)
		if a.run.outcome == counter.StateCompleted {
			a.setStatus("Workout complete", false)
		} else {
			a.setStatus("Workout stopped", false)
		}
		return a, cmd

	case presetsChangedMsg:
		a.setStatus(msg.status, false)
		return a, tea.Batch(a.settings.refresh(), a.menu.loadData())

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// updateRunKeys handles keys while the run view is showing: stop keys stop
// a live session, and once it has finished they lead back to the menu.
func (a App) updateRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.run.active() {
		switch {
		case msg.String() == "ctrl+c":
			a.coach.RequestStop(a.run.session)
			return a, tea.Quit
		case key.Matches(msg, keys.Stop):
			a.coach.RequestStop(a.run.session)
			a.setStatus("Stopping...", false)
		}
		return a, nil
	}

	switch {
	case msg.String() == "ctrl+c":
		return a, tea.Quit
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Stop):
		a.activeView = viewMenu
		return a, a.menu.loadData()
	}
	return a, nil
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusErr = isError
}

// loadFailed shows a store error from a data reload in the status bar.
func (a *App) loadFailed(what string, err error) {
	if err != nil {
		a.setStatus(fmt.Sprintf("%s unavailable: %v", what, err), true)
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch data := msg.(type) {
	case menuDataMsg:
		a.menu, cmd = a.menu.update(msg)
		a.loadFailed("Workouts", data.err)
		return a, cmd
	case settingsDataMsg:
		a.settings, cmd = a.settings.update(msg)
		a.loadFailed("Settings", data.err)
		return a, cmd
	case historyDataMsg:
		a.history, cmd = a.history.update(msg)
		a.loadFailed("History", data.err)
		return a, cmd
	}

	switch a.activeView {
	case viewMenu:
		a.menu, cmd = a.menu.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewRun:
		a.run, cmd = a.run.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	return a.activeView == viewSettings && a.settings.formActive
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewMenu:
		return a.menu.loadData()
	case viewSettings:
		return a.settings.refresh()
	case viewHistory:
		return a.history.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewMenu:
		content = a.menu.view()
	case viewSettings:
		content = a.settings.view()
	case viewHistory:
		content = a.history.view()
	case viewRun:
		content = a.run.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
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
	if a.activeView == viewRun {
		tabs = append(tabs, activeTabStyle.Render("Counting"))
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("voicecount")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	var helpView string
	if a.activeView == viewRun && a.run.active() {
		helpView = a.help.View(runKeyMap{})
	} else {
		helpView = a.help.View(keys)
	}

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Session indicator in footer
	sessionInfo := ""
	if a.run.active() {
		sessionInfo = successStyle.Render(" ● " + formatClock(a.run.elapsed))
	}

	left := footerStyle.Render(helpView)
	right := sessionInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
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

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		workouts, err := a.store.ListWorkouts(store.WorkoutFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("voicecount-export-%s.csv", dateStr))
			if err := export.ToCSV(workouts, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("voicecount-export-%s.json", dateStr))
			if err := export.ToJSON(workouts, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
