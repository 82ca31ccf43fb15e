// Package gui is the desktop presentation built on Fyne: a grid of preset
// buttons, a progress screen for the running session and a preset editor.
package gui

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/sadopc/voicecount/internal/coach"
	"github.com/sadopc/voicecount/internal/counter"
	"github.com/sadopc/voicecount/internal/preset"
)

const appID = "io.github.sadopc.voicecount"

// Window is the main application window.
type Window struct {
	window fyne.Window
	coach  *coach.Coach
	log    *slog.Logger

	presetGrid *fyne.Container
	mainScreen fyne.CanvasObject
	runScreen  fyne.CanvasObject

	clockLabel   *widget.Label
	countText    *canvas.Text
	statusLabel  *widget.Label
	setsLabel    *widget.Label
	bar          *widget.ProgressBar
	percentLabel *widget.Label
	stopButton   *widget.Button
	backButton   *widget.Button

	mu      sync.Mutex
	session *counter.Session
}

// Run opens the window and blocks until it is closed. Any running session
// is stopped on close.
func Run(c *coach.Coach, speechOK bool, log *slog.Logger) {
	a := app.NewWithID(appID)
	w := New(a, c, speechOK, log)
	w.window.ShowAndRun()
}

// New builds the window without showing it.
func New(a fyne.App, c *coach.Coach, speechOK bool, log *slog.Logger) *Window {
	if log == nil {
		log = slog.Default()
	}
	w := &Window{
		window: a.NewWindow("Voice Counter"),
		coach:  c,
		log:    log,
	}

	w.presetGrid = container.NewGridWithColumns(2)
	settingsButton := widget.NewButtonWithIcon("", theme.SettingsIcon(), w.showSettings)
	var footer fyne.CanvasObject
	if !speechOK {
		footer = widget.NewLabel("🔇 Speech unavailable, counting silently")
	}
	w.mainScreen = container.NewBorder(
		container.NewHBox(
			widget.NewLabelWithStyle("Voice Counter", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			layout.NewSpacer(),
			settingsButton,
		),
		footer, nil, nil,
		container.NewVScroll(w.presetGrid),
	)

	w.clockLabel = widget.NewLabelWithStyle("00:00", fyne.TextAlignCenter, fyne.TextStyle{Monospace: true, Bold: true})
	w.countText = canvas.NewText("", theme.Color(theme.ColorNamePrimary))
	w.countText.TextSize = 72
	w.countText.TextStyle = fyne.TextStyle{Bold: true}
	w.countText.Alignment = fyne.TextAlignCenter
	w.statusLabel = widget.NewLabelWithStyle("Ready", fyne.TextAlignCenter, fyne.TextStyle{})
	w.setsLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{})
	w.bar = widget.NewProgressBar()
	w.bar.TextFormatter = func() string { return "" }
	w.percentLabel = widget.NewLabelWithStyle("0%", fyne.TextAlignCenter, fyne.TextStyle{})
	w.stopButton = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), w.stop)
	w.stopButton.Importance = widget.DangerImportance
	w.backButton = widget.NewButtonWithIcon("Back", theme.NavigateBackIcon(), w.back)

	w.runScreen = container.NewVBox(
		w.clockLabel,
		w.countText,
		w.statusLabel,
		w.setsLabel,
		w.bar,
		w.percentLabel,
		container.NewCenter(container.NewHBox(w.stopButton, w.backButton)),
	)

	w.refreshPresets()
	w.window.SetContent(w.mainScreen)
	w.window.Resize(fyne.NewSize(480, 560))
	w.window.SetCloseIntercept(func() {
		w.stop()
		w.window.Close()
	})
	return w
}

func (w *Window) refreshPresets() {
	w.presetGrid.RemoveAll()
	for i, p := range w.coach.ListPresets() {
		index := i
		w.presetGrid.Add(widget.NewButton(buttonText(p), func() { w.start(index) }))
	}
	w.presetGrid.Refresh()
}

func (w *Window) start(index int) {
	s, err := w.coach.StartSession(index)
	if err != nil {
		if !errors.Is(err, coach.ErrSessionActive) {
			dialog.ShowError(err, w.window)
		}
		return
	}

	w.mu.Lock()
	w.session = s
	w.mu.Unlock()

	d := newDisplay(s.Preset())
	w.render(d, 0)
	w.stopButton.Enable()
	w.backButton.Disable()
	w.window.SetContent(w.runScreen)

	go w.follow(s, d)
}

// follow drains s and mirrors it onto the widgets until it ends. Widget
// updates go through fyne.Do.
func (w *Window) follow(s *counter.Session, d display) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	events := s.Events()
	for {
		select {
		case e, ok := <-events:
			if !ok {
				snap := s.Snapshot()
				w.log.Debug("gui session ended", "id", snap.ID, "state", snap.State.String())
				fyne.Do(func() {
					w.render(d, snap.ElapsedSeconds())
					w.stopButton.Disable()
					w.backButton.Enable()
				})
				return
			}
			d.apply(e)
			current, secs := d, s.Snapshot().ElapsedSeconds()
			fyne.Do(func() { w.render(current, secs) })
		case <-ticker.C:
			secs := s.Snapshot().ElapsedSeconds()
			fyne.Do(func() { w.clockLabel.SetText(clockText(secs)) })
		}
	}
}

// render must run on the Fyne goroutine.
func (w *Window) render(d display, secs int) {
	w.clockLabel.SetText(clockText(secs))
	w.countText.Text = d.count
	w.countText.Refresh()
	w.statusLabel.SetText(d.status)
	w.setsLabel.SetText(d.sets)
	w.bar.SetValue(d.fraction())
	w.percentLabel.SetText(d.percentText())
}

func (w *Window) stop() {
	w.mu.Lock()
	s := w.session
	w.mu.Unlock()
	w.coach.RequestStop(s)
}

func (w *Window) back() {
	w.mu.Lock()
	w.session = nil
	w.mu.Unlock()
	w.window.SetContent(w.mainScreen)
}

func (w *Window) showSettings() {
	presets := w.coach.ListPresets()
	selected := -1
	list := widget.NewList(
		func() int { return len(presets) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(listText(presets[id]))
		},
	)
	list.OnSelected = func(id widget.ListItemID) { selected = id }

	var d dialog.Dialog
	edit := widget.NewButton("Edit", func() {
		if selected < 0 {
			return
		}
		d.Hide()
		w.showEditor(selected, presets[selected])
	})
	reset := widget.NewButton("Reset to defaults", func() {
		dialog.ShowConfirm("Reset presets", "Replace all presets with the defaults?", func(ok bool) {
			if !ok {
				return
			}
			w.coach.ResetPresets()
			w.refreshPresets()
			d.Hide()
		}, w.window)
	})

	content := container.NewBorder(nil, container.NewHBox(edit, reset), nil, nil, list)
	d = dialog.NewCustom("Settings", "Close", content, w.window)
	d.Resize(fyne.NewSize(420, 400))
	d.Show()
}

func (w *Window) showEditor(index int, p preset.Preset) {
	f := preset.FormFrom(p)
	label := widget.NewEntry()
	label.SetText(f.Label)
	maxCount := widget.NewEntry()
	maxCount.SetText(f.MaxCount)
	repeatCount := widget.NewEntry()
	repeatCount.SetText(f.RepeatCount)
	speed := widget.NewEntry()
	speed.SetText(f.Speed)
	interval := widget.NewEntry()
	interval.SetText(f.Interval)
	customText := widget.NewEntry()
	customText.SetText(f.CustomText)

	items := []*widget.FormItem{
		widget.NewFormItem("Label", label),
		widget.NewFormItem("Max Count", maxCount),
		widget.NewFormItem("Repeat Count", repeatCount),
		widget.NewFormItem(fmt.Sprintf("Speed (%d-%d)", preset.MinSpeed, preset.MaxSpeed), speed),
		widget.NewFormItem("Interval (seconds)", interval),
		widget.NewFormItem("Set text", customText),
	}
	dialog.ShowForm("Edit "+p.Label, "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		edited := preset.Form{
			Label:       label.Text,
			MaxCount:    maxCount.Text,
			RepeatCount: repeatCount.Text,
			Speed:       speed.Text,
			Interval:    interval.Text,
			CustomText:  customText.Text,
		}
		u, err := edited.Update()
		if err == nil {
			err = w.coach.EditPreset(index, u)
		}
		if err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		w.refreshPresets()
	}, w.window)
}
