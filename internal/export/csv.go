package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/voicecount/internal/store"
)

var csvHeader = []string{
	"ID", "Preset", "Text", "Reps", "Sets", "Speed", "Rest (s)",
	"Completed", "Total", "Percent", "Status", "Start", "End", "Elapsed (s)", "Elapsed",
}

// ToCSV writes workouts to a new CSV file at path.
func ToCSV(workouts []store.Workout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, workouts); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes a header row followed by one row per workout.
func WriteCSV(out io.Writer, workouts []store.Workout) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, wk := range workouts {
		row := []string{
			wk.ID,
			wk.Label,
			wk.CustomText,
			strconv.Itoa(wk.MaxCount),
			strconv.Itoa(wk.RepeatCount),
			strconv.Itoa(wk.Speed),
			strconv.Itoa(wk.Interval),
			strconv.Itoa(wk.CompletedUnits),
			strconv.Itoa(wk.TotalUnits),
			strconv.Itoa(wk.Percent()),
			wk.Status,
			wk.StartedAt.Local().Format(time.RFC3339),
			wk.FinishedAt.Local().Format(time.RFC3339),
			strconv.FormatInt(wk.ElapsedSecs, 10),
			formatDuration(wk.ElapsedSecs),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
