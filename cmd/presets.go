package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sadopc/voicecount/internal/preset"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the workout presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		fmt.Fprintln(cmd.OutOrStdout(), presetTable(d.coach.ListPresets()))
		if p := d.coach.Catalog().Path(); p != "" {
			fmt.Fprintln(cmd.OutOrStdout(), "File:", p)
		}
		return nil
	},
}

var presetsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace all presets with the built-in defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		d.coach.ResetPresets()
		if err := d.coach.Catalog().LastSaveError(); err != nil {
			return fmt.Errorf("write presets: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Presets reset to defaults.")
		return nil
	},
}

var presetsEditCmd = &cobra.Command{
	Use:   "edit <number|label>",
	Short: "Change fields of one preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()

		index, err := d.coach.Resolve(args[0])
		if err != nil {
			return err
		}
		u, err := updateFromFlags(cmd)
		if err != nil {
			return err
		}
		if err := d.coach.EditPreset(index, u); err != nil {
			return err
		}
		if err := d.coach.Catalog().LastSaveError(); err != nil {
			return fmt.Errorf("write presets: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), presetTable(d.coach.ListPresets()))
		return nil
	},
}

func init() {
	f := presetsEditCmd.Flags()
	f.String("label", "", "Preset name")
	f.String("icon", "", "Icon shown next to the name")
	f.Int("max-count", 0, fmt.Sprintf("Count to this number each set (%d-%d)", preset.MinMaxCount, preset.MaxMaxCount))
	f.Int("sets", 0, fmt.Sprintf("Number of sets (%d-%d)", preset.MinRepeatCount, preset.MaxRepeatCount))
	f.Int("speed", 0, fmt.Sprintf("Counting speed (%d-%d)", preset.MinSpeed, preset.MaxSpeed))
	f.Int("rest", 0, fmt.Sprintf("Seconds of rest between sets (%d-%d)", preset.MinInterval, preset.MaxInterval))
	f.String("text", "", `Set announcement, spoken as "<text> <set>"`)

	presetsCmd.AddCommand(presetsResetCmd)
	presetsCmd.AddCommand(presetsEditCmd)
}

// updateFromFlags builds an update from the flags the user actually set.
func updateFromFlags(cmd *cobra.Command) (preset.Update, error) {
	var u preset.Update
	f := cmd.Flags()
	changed := false

	strs := []struct {
		name string
		dst  **string
	}{
		{"label", &u.Label},
		{"icon", &u.Icon},
		{"text", &u.CustomText},
	}
	for _, s := range strs {
		if f.Changed(s.name) {
			v, _ := f.GetString(s.name)
			*s.dst = &v
			changed = true
		}
	}

	ints := []struct {
		name string
		dst  **int
	}{
		{"max-count", &u.MaxCount},
		{"sets", &u.RepeatCount},
		{"speed", &u.Speed},
		{"rest", &u.Interval},
	}
	for _, n := range ints {
		if f.Changed(n.name) {
			v, _ := f.GetInt(n.name)
			*n.dst = &v
			changed = true
		}
	}
	if !changed {
		return u, errors.New("nothing to change; pass at least one of --label, --icon, --max-count, --sets, --speed, --rest, --text")
	}
	return u, nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6C63FF")).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func presetTable(presets []preset.Preset) string {
	rows := make([][]string, 0, len(presets))
	for i, p := range presets {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			p.Icon + " " + p.Label,
			p.Summary(),
			strconv.Itoa(p.Speed),
			fmt.Sprintf("%ds", p.Interval),
			p.CustomText,
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("#", "Preset", "Reps", "Speed", "Rest", "Text").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}
