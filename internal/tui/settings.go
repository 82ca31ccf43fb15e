package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/voicecount/internal/coach"
	"github.com/sadopc/voicecount/internal/preset"
	"github.com/sadopc/voicecount/internal/store"
)

// settingsModel lists the presets and edits one at a time through a form.
type settingsModel struct {
	coach  *coach.Coach
	store  *store.Store
	width  int
	height int

	presets    []preset.Preset
	speech     []store.Setting
	cursor     int
	editing    int
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	label       *string
	maxCount    *string
	repeatCount *string
	speed       *string
	interval    *string
	customText  *string
}

func newSettingsModel(c *coach.Coach, s *store.Store) settingsModel {
	l, mc, rc, sp, iv, ct := "", "", "", "", "", ""
	return settingsModel{
		coach:       c,
		store:       s,
		presets:     c.ListPresets(),
		label:       &l,
		maxCount:    &mc,
		repeatCount: &rc,
		speed:       &sp,
		interval:    &iv,
		customText:  &ct,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	presets []preset.Preset
	speech  []store.Setting
	err     error
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		msg := settingsDataMsg{presets: s.coach.ListPresets()}
		if s.store != nil {
			msg.speech, msg.err = s.store.GetAllSettings()
		}
		return msg
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.presets = msg.presets
		s.speech = msg.speech
		if s.cursor >= len(s.presets) {
			s.cursor = max(0, len(s.presets)-1)
		}
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(s.presets)-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if len(s.presets) > 0 {
				return s.showForm(s.cursor)
			}
		case key.Matches(msg, keys.Reset):
			c := s.coach
			return s, func() tea.Msg {
				c.ResetPresets()
				return presetsChangedMsg{status: "Presets reset to defaults"}
			}
		}
	}
	return s, nil
}

func (s settingsModel) showForm(index int) (settingsModel, tea.Cmd) {
	p := s.presets[index]
	s.editing = index

	f := preset.FormFrom(p)
	*s.label, *s.customText = f.Label, f.CustomText
	*s.maxCount, *s.repeatCount = f.MaxCount, f.RepeatCount
	*s.speed, *s.interval = f.Speed, f.Interval

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Label").Value(s.label).Validate(notBlank),
			huh.NewInput().Title("Count to").
				Description(fmt.Sprintf("%d-%d", preset.MinMaxCount, preset.MaxMaxCount)).
				Value(s.maxCount).Validate(intIn(preset.MinMaxCount, preset.MaxMaxCount)),
			huh.NewInput().Title("Sets").
				Description(fmt.Sprintf("%d-%d", preset.MinRepeatCount, preset.MaxRepeatCount)).
				Value(s.repeatCount).Validate(intIn(preset.MinRepeatCount, preset.MaxRepeatCount)),
			huh.NewInput().Title("Speed").
				Description(fmt.Sprintf("%d-%d, higher counts faster", preset.MinSpeed, preset.MaxSpeed)).
				Value(s.speed).Validate(intIn(preset.MinSpeed, preset.MaxSpeed)),
			huh.NewInput().Title("Rest between sets (s)").
				Description(fmt.Sprintf("%d-%d", preset.MinInterval, preset.MaxInterval)).
				Value(s.interval).Validate(intIn(preset.MinInterval, preset.MaxInterval)),
			huh.NewInput().Title("Set announcement").
				Description(`spoken as "<text> <set>"`).
				Value(s.customText).Validate(notBlank),
		).Title(fmt.Sprintf("Edit %s", p.Label)),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		s.formActive = false
		s.form = nil
		return s, s.savePreset()
	case huh.StateAborted:
		s.formActive = false
		s.form = nil
		return s, nil
	}

	return s, cmd
}

// formUpdate converts the form strings into a preset update.
func (s settingsModel) formUpdate() (preset.Update, error) {
	return preset.Form{
		Label:       *s.label,
		MaxCount:    *s.maxCount,
		RepeatCount: *s.repeatCount,
		Speed:       *s.speed,
		Interval:    *s.interval,
		CustomText:  *s.customText,
	}.Update()
}

func (s settingsModel) savePreset() tea.Cmd {
	index := s.editing
	u, err := s.formUpdate()
	c := s.coach
	return func() tea.Msg {
		if err == nil {
			err = c.EditPreset(index, u)
		}
		var verr *preset.ValidationError
		switch {
		case errors.As(err, &verr):
			return statusMsg{text: "Not saved: " + verr.Error(), isError: true}
		case err != nil:
			return statusMsg{text: fmt.Sprintf("Not saved: %v", err), isError: true}
		}
		if c.Catalog().LastSaveError() != nil {
			return presetsChangedMsg{status: "Preset updated (not written to disk)"}
		}
		return presetsChangedMsg{status: "Preset updated"}
	}
}

func notBlank(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func intIn(lo, hi int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.New("must be a whole number")
		}
		if n < lo || n > hi {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Presets"), "")
	for i, p := range s.presets {
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%d. %s", cursor, i+1, presetLine(p))))
	}

	if len(s.speech) > 0 {
		rows = append(rows, "", titleStyle.Render("Speech"), "")
		for _, setting := range s.speech {
			label := lipgloss.NewStyle().Width(24).Render(setting.Key)
			rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(setting.Value)))
		}
		rows = append(rows, mutedStyle.Render("  change with: voicecount config set <key> <value>"))
	}

	rows = append(rows, "", mutedStyle.Render("enter: edit preset  r: reset to defaults  esc: back"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
