package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/voicecount/internal/coach"
	"github.com/sadopc/voicecount/internal/preset"
	"github.com/sadopc/voicecount/internal/store"
)

type menuModel struct {
	coach  *coach.Coach
	store  *store.Store
	width  int
	height int

	presets  []preset.Preset
	cursor   int
	speechOK bool

	todayReps    int
	todaySummary []store.DailySummary
	recent       []store.Workout
}

func newMenuModel(c *coach.Coach, s *store.Store, speechOK bool) menuModel {
	return menuModel{
		coach:    c,
		store:    s,
		presets:  c.ListPresets(),
		speechOK: speechOK,
	}
}

func (m menuModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *menuModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type menuDataMsg struct {
	presets      []preset.Preset
	todayReps    int
	todaySummary []store.DailySummary
	recent       []store.Workout
	err          error
}

func (m menuModel) loadData() tea.Cmd {
	return func() tea.Msg {
		msg := menuDataMsg{presets: m.coach.ListPresets()}
		if m.store == nil {
			return msg
		}

		var repsErr, summaryErr, recentErr error
		msg.todayReps, repsErr = m.store.GetTodayReps()

		now := time.Now().UTC()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		msg.todaySummary, summaryErr = m.store.GetDailySummary(dayStart, dayStart.Add(24*time.Hour))
		msg.recent, recentErr = m.store.ListWorkouts(store.WorkoutFilter{Limit: 5})
		msg.err = errors.Join(repsErr, summaryErr, recentErr)
		return msg
	}
}

func (m menuModel) update(msg tea.Msg) (menuModel, tea.Cmd) {
	switch msg := msg.(type) {
	case menuDataMsg:
		m.presets = msg.presets
		m.todayReps = msg.todayReps
		m.todaySummary = msg.todaySummary
		m.recent = msg.recent
		if m.cursor >= len(m.presets) {
			m.cursor = max(0, len(m.presets)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.presets)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Enter):
			return m, m.start(m.cursor)
		case key.Matches(msg, keys.Preset):
			n := int(msg.String()[0] - '0')
			if n > len(m.presets) {
				return m, func() tea.Msg {
					return statusMsg{text: fmt.Sprintf("No preset %d", n), isError: true}
				}
			}
			m.cursor = n - 1
			return m, m.start(n - 1)
		}
	}
	return m, nil
}

func (m menuModel) start(index int) tea.Cmd {
	c := m.coach
	return func() tea.Msg {
		s, err := c.StartSession(index)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Cannot start: %v", err), isError: true}
		}
		return sessionStartedMsg{session: s}
	}
}

func (m menuModel) view() string {
	if m.width < 20 {
		return "Terminal too small"
	}

	contentWidth := m.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderPresetPanel(contentWidth),
		m.renderTodayPanel(contentWidth),
		m.renderRecentPanel(contentWidth),
	)
}

func (m menuModel) renderPresetPanel(w int) string {
	title := titleStyle.Render("Choose a workout")

	var rows []string
	rows = append(rows, title, "")
	for i, p := range m.presets {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		num := "  "
		if i < 9 {
			num = fmt.Sprintf("%d.", i+1)
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s %s", cursor, num, p.Icon, presetLine(p))))
	}
	rows = append(rows, "")
	if !m.speechOK {
		rows = append(rows, warningStyle.Render("  🔇 Speech unavailable, counting silently"))
	}
	rows = append(rows, mutedStyle.Render("  1-9/enter: start  s: settings  h: history  q: quit"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m menuModel) renderTodayPanel(w int) string {
	title := titleStyle.Render("Today")
	total := highlightStyle.Render(fmt.Sprintf("%d reps", m.todayReps))
	header := fmt.Sprintf("%s  %s", title, total)

	if len(m.todaySummary) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("No workouts today"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, header)
	for _, s := range m.todaySummary {
		dot := lipgloss.NewStyle().Foreground(labelColor(s.Label)).Render("●")
		row := fmt.Sprintf("  %s %-20s %5d reps  %s  (%d workouts)",
			dot,
			s.Label,
			s.Reps,
			formatSeconds(s.TotalSeconds),
			s.Workouts,
		)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m menuModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Workouts")
	if len(m.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No workouts yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, wk := range m.recent {
		status := successStyle.Render("✓")
		if wk.Status == store.StatusStopped {
			status = warningStyle.Render("■")
		}
		row := fmt.Sprintf("  %s %s  %-16s %3d/%-3d reps  %s",
			status,
			wk.StartedAt.Local().Format("Jan 02 15:04"),
			wk.Label,
			wk.CompletedUnits,
			wk.TotalUnits,
			formatSeconds(wk.ElapsedSecs),
		)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
