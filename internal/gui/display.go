package gui

import (
	"fmt"
	"strconv"

	"github.com/sadopc/voicecount/internal/counter"
	"github.com/sadopc/voicecount/internal/preset"
)

// display is the text shown on the progress screen. It is updated from
// session events and copied into widgets on the Fyne goroutine.
type display struct {
	preset  preset.Preset
	count   string
	status  string
	sets    string
	percent int
	done    bool
}

func newDisplay(p preset.Preset) display {
	return display{
		preset: p,
		status: "Starting...",
		sets:   fmt.Sprintf("%s 0 of %d", p.CustomText, p.RepeatCount),
	}
}

func (d *display) apply(e counter.Event) {
	p := d.preset
	switch e.Kind {
	case counter.EventSetAnnounced:
		d.sets = fmt.Sprintf("%s %d of %d", p.CustomText, e.Rep, e.Total)
		d.status = "Get ready"
	case counter.EventNumberAnnounced:
		d.count = strconv.Itoa(e.Number)
		d.sets = fmt.Sprintf("%s %d of %d - Count %d of %d", p.CustomText, e.Rep, p.RepeatCount, e.Number, e.MaxCount)
		d.status = "Counting..."
	case counter.EventProgressChanged:
		d.percent = e.Percent
	case counter.EventResting:
		d.status = fmt.Sprintf("Resting %ds", e.Remaining)
	case counter.EventCompleted:
		d.count = "✓"
		d.status = "Completed!"
		d.sets = "All sets complete!"
		d.percent = 100
		d.done = true
	case counter.EventStopped:
		d.count = "■"
		d.status = "Stopped"
		d.done = true
	}
}

func (d display) fraction() float64 {
	return float64(d.percent) / 100
}

func (d display) percentText() string {
	return fmt.Sprintf("%d%%", d.percent)
}

// buttonText is the label of a preset button on the main screen.
func buttonText(p preset.Preset) string {
	return fmt.Sprintf("%s\n%s\n%dx%d", p.Icon, p.Label, p.MaxCount, p.RepeatCount)
}

// listText is one row of the settings list.
func listText(p preset.Preset) string {
	return fmt.Sprintf("%s %s - %dx%d", p.Icon, p.Label, p.MaxCount, p.RepeatCount)
}

func clockText(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
