package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/voicecount/internal/counter"
	"github.com/sadopc/voicecount/internal/preset"
)

// runModel renders one counting session from its event stream.
type runModel struct {
	width  int
	height int

	session *counter.Session
	preset  preset.Preset

	rep        int
	total      int
	number     int
	lastSpoken int
	percent    int
	resting    bool
	remaining  int

	finished bool
	outcome  counter.State
	elapsed  time.Duration

	bar progress.Model
}

func newRunModel() runModel {
	return runModel{
		bar: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (r *runModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.bar.Width = max(10, w-16)
}

// begin resets the model for a freshly started session.
func (r runModel) begin(s *counter.Session) runModel {
	r = runModel{width: r.width, height: r.height, bar: r.bar}
	r.session = s
	r.preset = s.Preset()
	r.total = r.preset.RepeatCount
	return r
}

func (r runModel) active() bool {
	return r.session != nil && !r.finished
}

// waitForEvent blocks on the session's stream and delivers the next event
// as a message, so the engine never touches the model directly.
func waitForEvent(s *counter.Session) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-s.Events()
		if !ok {
			return sessionClosedMsg{id: s.ID(), state: s.State()}
		}
		return sessionEventMsg{id: s.ID(), event: e}
	}
}

func (r runModel) update(msg tea.Msg) (runModel, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionEventMsg:
		if r.session == nil || msg.id != r.session.ID() {
			return r, nil
		}
		r.apply(msg.event)
		r.elapsed = r.session.Snapshot().Elapsed
		return r, waitForEvent(r.session)

	case sessionClosedMsg:
		if r.session == nil || msg.id != r.session.ID() {
			return r, nil
		}
		r.finished = true
		if !r.outcome.Terminal() {
			r.outcome = msg.state
		}
		r.elapsed = r.session.Snapshot().Elapsed
		return r, nil

	case tickMsg:
		if r.active() {
			r.elapsed = r.session.Snapshot().Elapsed
		}
		return r, nil
	}
	return r, nil
}

func (r *runModel) apply(e counter.Event) {
	switch e.Kind {
	case counter.EventSetAnnounced:
		r.rep = e.Rep
		r.total = e.Total
		r.number = 0
		r.resting = false
	case counter.EventNumberAnnounced:
		r.number = e.Number
		if e.Spoken {
			r.lastSpoken = e.Number
		}
		r.resting = false
	case counter.EventProgressChanged:
		r.percent = e.Percent
	case counter.EventResting:
		r.resting = true
		r.remaining = e.Remaining
	case counter.EventCompleted:
		r.finished = true
		r.outcome = counter.StateCompleted
		r.resting = false
		r.percent = 100
	case counter.EventStopped:
		r.finished = true
		r.outcome = counter.StateStopped
		r.resting = false
	}
}

func (r runModel) view() string {
	w := r.width - 4
	if r.session == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("No workout running"))
	}

	title := titleStyle.Render(strings.TrimSpace(r.preset.Icon + " " + r.preset.Label))
	clock := clockStyle.Render("⏱ " + formatClock(r.elapsed))

	var display, label string
	switch {
	case r.finished && r.outcome == counter.StateCompleted:
		display = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render("✓ Workout complete!")
		label = mutedStyle.Render(fmt.Sprintf("Sets %d/%d", r.total, r.total))
	case r.finished:
		display = errorStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render("■ Stopped.")
		label = mutedStyle.Render(fmt.Sprintf("Reached set %d/%d, count %d", r.rep, r.total, r.number))
	case r.resting:
		display = restStyle.Width(w - 6).Render(fmt.Sprintf("Rest %ds", r.remaining))
		label = mutedStyle.Render(fmt.Sprintf("Next: %s %d", r.preset.CustomText, r.rep+1))
	case r.number == 0:
		display = numberStyle.Width(w - 6).Render(fmt.Sprintf("%s %d", r.preset.CustomText, r.rep))
		label = mutedStyle.Render("Get ready")
	default:
		style := numberStyle
		if r.number == r.lastSpoken {
			style = spokenNumberStyle
		}
		display = style.Width(w - 6).Render(fmt.Sprintf("%d", r.number))
		label = mutedStyle.Render(fmt.Sprintf("of %d", r.preset.MaxCount))
	}

	bar := r.bar.ViewAs(float64(r.percent)/100) + mutedStyle.Render(fmt.Sprintf(" %3d%%", r.percent))

	var controls string
	if r.finished {
		controls = mutedStyle.Render("enter: back to workouts")
	} else {
		controls = mutedStyle.Render("q/x/esc: stop")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		clock,
		"",
		display,
		label,
		"",
		r.renderSets(),
		"",
		bar,
		"",
		controls,
	)

	style := panelStyle
	if r.active() {
		style = activePanelStyle
	}
	return style.Width(w).Render(content)
}

func (r runModel) renderSets() string {
	done := r.rep - 1
	if r.finished && r.outcome == counter.StateCompleted {
		done = r.total
	}
	if done < 0 {
		done = 0
	}

	var parts []string
	for i := 0; i < r.total; i++ {
		switch {
		case i < done:
			parts = append(parts, successStyle.Render("●"))
		case i == done && r.active():
			parts = append(parts, accentStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	sets := strings.Join(parts, " ")
	count := mutedStyle.Render(fmt.Sprintf("  set %d/%d", max(r.rep, 1), r.total))
	return sets + count
}
