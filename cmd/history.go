package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sadopc/voicecount/internal/export"
	"github.com/sadopc/voicecount/internal/store"
	"github.com/spf13/cobra"
)

var errNoHistory = errors.New("history database is unavailable")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List finished workouts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()
		if d.store == nil {
			return errNoHistory
		}

		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		workouts, err := d.store.ListWorkouts(filter)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(workouts) == 0 {
			fmt.Fprintln(out, "No workouts yet.")
			return nil
		}
		fmt.Fprintln(out, historyTable(workouts))
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the workout history to a CSV or JSON file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		format = strings.ToLower(format)
		if format != "csv" && format != "json" {
			return fmt.Errorf("unknown format %q, want csv or json", format)
		}

		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()
		if d.store == nil {
			return errNoHistory
		}

		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		workouts, err := d.store.ListWorkouts(filter)
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("out")
		switch {
		case path == "-" && format == "csv":
			return export.WriteCSV(cmd.OutOrStdout(), workouts)
		case path == "-":
			return export.WriteJSON(cmd.OutOrStdout(), workouts)
		case path == "":
			path = "voicecount-history." + format
		}

		if format == "csv" {
			err = export.ToCSV(workouts, path)
		} else {
			err = export.ToJSON(workouts, path)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d workouts to %s\n", len(workouts), path)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every recorded workout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer d.Close()
		if d.store == nil {
			return errNoHistory
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			confirmed := false
			err := huh.NewConfirm().
				Title("Delete all workout history?").
				Affirmative("Delete").
				Negative("Keep").
				Value(&confirmed).
				Run()
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing deleted.")
				return nil
			}
		}

		n, err := d.store.DeleteWorkouts()
		if err != nil {
			return err
		}
		d.log.Info("history cleared", "deleted", n)
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d workouts.\n", n)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Show at most this many workouts (0 for all)")
	historyExportCmd.Flags().Int("limit", 0, "Export at most this many workouts (0 for all)")
	for _, c := range []*cobra.Command{historyCmd, historyExportCmd} {
		c.Flags().String("label", "", "Only workouts of this preset")
		c.Flags().String("status", "", "Only completed or stopped workouts")
	}

	historyExportCmd.Flags().String("format", "csv", "Output format: csv or json")
	historyExportCmd.Flags().StringP("out", "o", "", `Output file, "-" for stdout (default voicecount-history.<format>)`)
	historyClearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func filterFromFlags(cmd *cobra.Command) (store.WorkoutFilter, error) {
	var f store.WorkoutFilter
	f.Limit, _ = cmd.Flags().GetInt("limit")
	if label, _ := cmd.Flags().GetString("label"); label != "" {
		f.Label = &label
	}
	f.Status, _ = cmd.Flags().GetString("status")
	if f.Status != "" && f.Status != store.StatusCompleted && f.Status != store.StatusStopped {
		return f, fmt.Errorf("%w: %q", store.ErrInvalidStatus, f.Status)
	}
	return f, nil
}

var (
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71")).Padding(0, 1)
	stoppedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")).Padding(0, 1)
)

func historyTable(workouts []store.Workout) string {
	rows := make([][]string, 0, len(workouts))
	for _, w := range workouts {
		rows = append(rows, []string{
			w.StartedAt.Local().Format("2006-01-02 15:04"),
			strings.TrimSpace(w.Icon + " " + w.Label),
			fmt.Sprintf("%d/%d", w.CompletedUnits, w.TotalUnits),
			strconv.Itoa(w.Percent()) + "%",
			formatElapsed(w.ElapsedSecs),
			w.Status,
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Started", "Preset", "Reps", "Done", "Time", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 5 && workouts[row].Status == store.StatusStopped:
				return stoppedStyle
			case col == 5:
				return completedStyle
			}
			return cellStyle
		}).
		String()
}

func formatElapsed(secs int64) string {
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
