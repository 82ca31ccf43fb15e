package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/voicecount/internal/store"
)

type historyMode int

const (
	historyDaily historyMode = iota
	historyWeekly
)

// historyModel charts counted reps per day and lists the workouts behind them.
type historyModel struct {
	store  *store.Store
	width  int
	height int

	mode      historyMode
	summaries []store.DailySummary
	workouts  []store.Workout
	offset    int // weeks or 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newHistoryModel(s *store.Store) historyModel {
	return historyModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

type historyDataMsg struct {
	summaries []store.DailySummary
	workouts  []store.Workout
	err       error
}

func (h historyModel) refresh() tea.Cmd {
	if h.store == nil {
		return nil
	}
	return func() tea.Msg {
		from, to := h.dateRange()
		summaries, summaryErr := h.store.GetDailySummary(from, to)
		workouts, listErr := h.store.ListWorkouts(store.WorkoutFilter{From: &from, To: &to, Limit: 10})
		return historyDataMsg{summaries: summaries, workouts: workouts, err: errors.Join(summaryErr, listErr)}
	}
}

func (h historyModel) dateRange() (time.Time, time.Time) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch h.mode {
	case historyWeekly:
		// Start of current week (Monday)
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		startOfWeek := today.AddDate(0, 0, -int(weekday-time.Monday))
		startOfWeek = startOfWeek.AddDate(0, 0, -7*h.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 7)
	default:
		// Daily: last 7 days
		end := today.AddDate(0, 0, 1-7*h.offset)
		start := end.AddDate(0, 0, -7)
		return start, end
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		h.summaries = msg.summaries
		h.workouts = msg.workouts
		h.buildChart()
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			h.offset++
			return h, h.refresh()
		case key.Matches(msg, keys.Right):
			if h.offset > 0 {
				h.offset--
			}
			return h, h.refresh()
		case key.Matches(msg, keys.Down), key.Matches(msg, keys.Up):
			if h.mode == historyDaily {
				h.mode = historyWeekly
			} else {
				h.mode = historyDaily
			}
			h.offset = 0
			return h, h.refresh()
		}
	}
	return h, nil
}

func (h *historyModel) buildChart() {
	chartWidth := h.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if h.height > 30 {
		chartHeight = 14
	}

	h.chart = barchart.New(chartWidth, chartHeight)

	from, to := h.dateRange()

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")

		var values []barchart.BarValue
		for _, s := range h.summaries {
			if s.Date == dateStr {
				values = append(values, barchart.BarValue{
					Name:  s.Label,
					Value: float64(s.Reps),
					Style: lipgloss.NewStyle().Foreground(labelColor(s.Label)),
				})
			}
		}

		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: values,
		})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h historyModel) totalReps() int {
	total := 0
	for _, s := range h.summaries {
		total += s.Reps
	}
	return total
}

func (h historyModel) view() string {
	w := h.width - 4

	if h.store == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("History is unavailable (no database)"))
	}

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if h.mode == historyDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := h.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))
	total := highlightStyle.Render(fmt.Sprintf("%d reps", h.totalReps()))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ", modeTabs, "  ", dateLabel, "  ", total,
	)

	nav := mutedStyle.Render("  ←/→: older/newer  ↑/↓: daily/weekly  e: export")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", h.chart.View(), "", h.renderLegend(), "", h.renderWorkoutTable(w), "", nav,
		),
	)
}

func (h historyModel) renderWorkoutTable(w int) string {
	if len(h.workouts) == 0 {
		return mutedStyle.Render("  No workouts in this period")
	}

	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-13s %-18s %9s %5s %9s %-9s", "When", "Preset", "Reps", "%", "Elapsed", "Status"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 68))))

	for _, wk := range h.workouts {
		dot := lipgloss.NewStyle().Foreground(labelColor(wk.Label)).Render("●")
		rows = append(rows, fmt.Sprintf("  %-13s %s %-16s %4d/%-4d %4d%% %9s %-9s",
			wk.StartedAt.Local().Format("Jan 02 15:04"), dot, wk.Label,
			wk.CompletedUnits, wk.TotalUnits, wk.Percent(), formatSeconds(wk.ElapsedSecs), wk.Status,
		))
	}

	return strings.Join(rows, "\n")
}

func (h historyModel) renderLegend() string {
	seen := make(map[string]bool)
	var items []string
	for _, s := range h.summaries {
		if seen[s.Label] {
			continue
		}
		seen[s.Label] = true
		dot := lipgloss.NewStyle().Foreground(labelColor(s.Label)).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, s.Label))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
