// Package plain is the line-oriented presentation: it prints each spoken
// phrase and a live progress line, and stops on Ctrl+C.
package plain

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/sadopc/voicecount/internal/coach"
	"github.com/sadopc/voicecount/internal/counter"
	"github.com/sadopc/voicecount/internal/preset"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6C63FF"))
	spokenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0CAF5"))
	restStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F39C12"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2ECC71"))
	stoppedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E74C3C"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Printer renders session events as lines of text. On a terminal the
// progress line is redrawn in place; elsewhere only phrases are printed.
type Printer struct {
	out      io.Writer
	tty      bool
	bar      progress.Model
	preset   preset.Preset
	rep      int
	number   int
	percent  int
	started  time.Time
	lineOpen bool
}

// NewPrinter returns a Printer for p writing to out.
func NewPrinter(out io.Writer, p preset.Preset) *Printer {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{
		out:     out,
		tty:     tty,
		bar:     progress.New(progress.WithSolidFill("#6C63FF"), progress.WithoutPercentage(), progress.WithWidth(30)),
		preset:  p,
		started: time.Now(),
	}
}

// Header prints the preset summary and how to stop.
func (p *Printer) Header(speechOK bool) {
	pr := p.preset
	fmt.Fprintln(p.out, titleStyle.Render(strings.TrimSpace(pr.Icon+" "+pr.Label)))
	fmt.Fprintln(p.out, mutedStyle.Render(fmt.Sprintf("%d reps x %d sets  speed=%d rest=%ds",
		pr.MaxCount, pr.RepeatCount, pr.Speed, pr.Interval)))
	if !speechOK {
		fmt.Fprintln(p.out, restStyle.Render("🔇 Speech unavailable, counting silently"))
	}
	fmt.Fprintln(p.out, mutedStyle.Render("Press Ctrl+C to stop"))
	fmt.Fprintln(p.out)
}

// Handle renders one event.
func (p *Printer) Handle(e counter.Event) {
	switch e.Kind {
	case counter.EventSetAnnounced:
		p.rep = e.Rep
		p.number = 0
		p.say(fmt.Sprintf("%s %d", p.preset.CustomText, e.Rep))
	case counter.EventNumberAnnounced:
		p.number = e.Number
		if e.Spoken {
			p.say(fmt.Sprintf("%d", e.Number))
		}
	case counter.EventProgressChanged:
		p.percent = e.Percent
		p.progressLine()
	case counter.EventResting:
		p.restLine(e.Remaining)
	case counter.EventCompleted:
		p.percent = 100
		p.say(counter.CompletionPhrase)
		p.closeLine()
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, successStyle.Render("✓ Workout complete!"))
		fmt.Fprintf(p.out, "  Sets %d/%d  %s 100%%  ⏱ %s\n",
			p.preset.RepeatCount, p.preset.RepeatCount, p.bar.ViewAs(1), p.clock())
	case counter.EventStopped:
		p.closeLine()
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, stoppedStyle.Render("■ Stopped."))
		fmt.Fprintf(p.out, "  Set %d/%d, count %d  %s %d%%  ⏱ %s\n",
			p.rep, p.preset.RepeatCount, p.number, p.bar.ViewAs(float64(p.percent)/100), p.percent, p.clock())
	}
}

func (p *Printer) say(text string) {
	p.closeLine()
	fmt.Fprintln(p.out, spokenStyle.Render("  🔊 "+text))
}

func (p *Printer) progressLine() {
	if !p.tty {
		return
	}
	line := fmt.Sprintf("  set %d/%d  %3d/%-3d %s %3d%%  ⏱ %s",
		p.rep, p.preset.RepeatCount, p.number, p.preset.MaxCount,
		p.bar.ViewAs(float64(p.percent)/100), p.percent, p.clock())
	fmt.Fprint(p.out, "\r\033[K"+line)
	p.lineOpen = true
}

func (p *Printer) restLine(remaining int) {
	text := restStyle.Render(fmt.Sprintf("  Rest %ds", remaining))
	if p.tty {
		fmt.Fprint(p.out, "\r\033[K"+text+mutedStyle.Render("  ⏱ "+p.clock()))
		p.lineOpen = true
		return
	}
	if remaining == p.preset.Interval {
		fmt.Fprintln(p.out, text)
	}
}

func (p *Printer) closeLine() {
	if p.lineOpen {
		fmt.Fprintln(p.out)
		p.lineOpen = false
	}
}

func (p *Printer) clock() string {
	d := time.Since(p.started)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// Run starts the preset at index through c and prints it to out until it
// completes or ctx is cancelled, and returns the final state.
func Run(ctx context.Context, c *coach.Coach, index int, out io.Writer, speechOK bool) (counter.State, error) {
	s, err := c.StartSession(index)
	if err != nil {
		return counter.StateCreated, err
	}

	pr := NewPrinter(out, s.Preset())
	pr.Header(speechOK)
	return counter.Drain(ctx, s, pr.Handle), nil
}
