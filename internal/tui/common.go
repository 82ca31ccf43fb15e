package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/voicecount/internal/counter"
	"github.com/sadopc/voicecount/internal/preset"
)

// viewState represents the currently active view.
type viewState int

const (
	viewMenu viewState = iota
	viewSettings
	viewHistory
	viewRun
)

// viewNames label the header tabs. The run view has no tab; it is entered
// by starting a preset.
var viewNames = []string{"Workouts", "Settings", "History"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// sessionEventMsg carries one engine event into the update loop.
type sessionEventMsg struct {
	id    string
	event counter.Event
}

// sessionClosedMsg is sent once a session's event stream is exhausted.
type sessionClosedMsg struct {
	id    string
	state counter.State
}

type sessionStartedMsg struct {
	session *counter.Session
}

type presetsChangedMsg struct {
	status string
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

// formatClock renders d as MM:SS, letting minutes grow past 59.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

// presetLine is the one-line summary used by the menu and the editor list.
func presetLine(p preset.Preset) string {
	return fmt.Sprintf("%s  %d reps x %d sets  speed=%d rest=%ds",
		p.Label, p.MaxCount, p.RepeatCount, p.Speed, p.Interval)
}
