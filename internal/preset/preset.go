package preset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Field bounds enforced by Validate.
const (
	MinMaxCount    = 1
	MaxMaxCount    = 9999
	MinRepeatCount = 1
	MaxRepeatCount = 100
	MinSpeed       = 1
	MaxSpeed       = 10
	MinInterval    = 0
	MaxInterval    = 600
)

// ErrNoSuchPreset is returned for an index outside the catalog.
var ErrNoSuchPreset = errors.New("no such preset")

// Preset describes one exercise's counting parameters.
type Preset struct {
	Label       string `yaml:"label"`
	Icon        string `yaml:"icon"`
	MaxCount    int    `yaml:"maxCount"`
	RepeatCount int    `yaml:"repeatCount"`
	Speed       int    `yaml:"speed"`
	Interval    int    `yaml:"interval"` // seconds
	CustomText  string `yaml:"customText"`
}

// ValidationError identifies the preset field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TotalUnits is the number of counted numbers across all sets.
func (p Preset) TotalUnits() int {
	return p.MaxCount * p.RepeatCount
}

// Summary renders the short "20 reps x 3 sets" form used in menus.
func (p Preset) Summary() string {
	return fmt.Sprintf("%d reps x %d sets", p.MaxCount, p.RepeatCount)
}

// Validate checks every field against its allowed range.
func (p Preset) Validate() error {
	if strings.TrimSpace(p.Label) == "" {
		return &ValidationError{Field: "label", Reason: "must not be empty"}
	}
	if err := checkRange("maxCount", p.MaxCount, MinMaxCount, MaxMaxCount); err != nil {
		return err
	}
	if err := checkRange("repeatCount", p.RepeatCount, MinRepeatCount, MaxRepeatCount); err != nil {
		return err
	}
	if err := checkRange("speed", p.Speed, MinSpeed, MaxSpeed); err != nil {
		return err
	}
	if err := checkRange("interval", p.Interval, MinInterval, MaxInterval); err != nil {
		return err
	}
	if strings.TrimSpace(p.CustomText) == "" {
		return &ValidationError{Field: "customText", Reason: "must not be empty"}
	}
	return nil
}

func checkRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%d is outside %d-%d", v, lo, hi)}
	}
	return nil
}

// Update carries the fields an edit changes; nil fields keep their value.
type Update struct {
	Label       *string
	Icon        *string
	MaxCount    *int
	RepeatCount *int
	Speed       *int
	Interval    *int
	CustomText  *string
}

// Apply returns a copy of p with the non-nil fields of u applied.
func (u Update) Apply(p Preset) Preset {
	if u.Label != nil {
		p.Label = strings.TrimSpace(*u.Label)
	}
	if u.Icon != nil {
		p.Icon = *u.Icon
	}
	if u.MaxCount != nil {
		p.MaxCount = *u.MaxCount
	}
	if u.RepeatCount != nil {
		p.RepeatCount = *u.RepeatCount
	}
	if u.Speed != nil {
		p.Speed = *u.Speed
	}
	if u.Interval != nil {
		p.Interval = *u.Interval
	}
	if u.CustomText != nil {
		p.CustomText = strings.TrimSpace(*u.CustomText)
	}
	return p
}

// Defaults returns a fresh copy of the built-in presets.
func Defaults() []Preset {
	return []Preset{
		{Label: "Push-ups", Icon: "💪", MaxCount: 20, RepeatCount: 3, Speed: 2, Interval: 30, CustomText: "Set"},
		{Label: "Squats", Icon: "🦵", MaxCount: 25, RepeatCount: 4, Speed: 2, Interval: 45, CustomText: "Round"},
		{Label: "Jumping Jacks", Icon: "🤸", MaxCount: 30, RepeatCount: 3, Speed: 3, Interval: 30, CustomText: "Set"},
		{Label: "Plank", Icon: "🧘", MaxCount: 60, RepeatCount: 3, Speed: 5, Interval: 60, CustomText: "Hold"},
		{Label: "Burpees", Icon: "🏃", MaxCount: 15, RepeatCount: 3, Speed: 2, Interval: 60, CustomText: "Set"},
		{Label: "Sit-ups", Icon: "🔥", MaxCount: 30, RepeatCount: 3, Speed: 3, Interval: 45, CustomText: "Set"},
	}
}

// Form is an edit as typed by a user, one string per editable field.
type Form struct {
	Label       string
	MaxCount    string
	RepeatCount string
	Speed       string
	Interval    string
	CustomText  string
}

// FormFrom fills a Form with the current values of p.
func FormFrom(p Preset) Form {
	return Form{
		Label:       p.Label,
		MaxCount:    strconv.Itoa(p.MaxCount),
		RepeatCount: strconv.Itoa(p.RepeatCount),
		Speed:       strconv.Itoa(p.Speed),
		Interval:    strconv.Itoa(p.Interval),
		CustomText:  p.CustomText,
	}
}

// Update parses f. Ranges are left to Validate; only non-numbers fail here.
func (f Form) Update() (Update, error) {
	var u Update
	ints := []struct {
		name string
		raw  string
		dst  **int
	}{
		{"maxCount", f.MaxCount, &u.MaxCount},
		{"repeatCount", f.RepeatCount, &u.RepeatCount},
		{"speed", f.Speed, &u.Speed},
		{"interval", f.Interval, &u.Interval},
	}
	for _, field := range ints {
		n, err := strconv.Atoi(strings.TrimSpace(field.raw))
		if err != nil {
			return Update{}, &ValidationError{Field: field.name, Reason: "must be a whole number"}
		}
		*field.dst = &n
	}
	label, text := f.Label, f.CustomText
	u.Label = &label
	u.CustomText = &text
	return u, nil
}
