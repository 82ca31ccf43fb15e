package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/voicecount/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	TotalReps  int           `json:"total_reps"`
	Workouts   []jsonWorkout `json:"workouts"`
}

type jsonWorkout struct {
	ID             string `json:"id"`
	Preset         string `json:"preset"`
	Icon           string `json:"icon,omitempty"`
	CustomText     string `json:"custom_text"`
	MaxCount       int    `json:"max_count"`
	RepeatCount    int    `json:"repeat_count"`
	Speed          int    `json:"speed"`
	Interval       int    `json:"interval_seconds"`
	CompletedUnits int    `json:"completed_units"`
	TotalUnits     int    `json:"total_units"`
	Percent        int    `json:"percent"`
	Status         string `json:"status"`
	StartedAt      string `json:"started_at"`
	FinishedAt     string `json:"finished_at"`
	ElapsedSec     int64  `json:"elapsed_seconds"`
	Elapsed        string `json:"elapsed"`
}

// ToJSON writes workouts to path as an indented JSON document.
func ToJSON(workouts []store.Workout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, workouts); err != nil {
		return err
	}
	return f.Close()
}

func WriteJSON(out io.Writer, workouts []store.Workout) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(workouts),
	}

	for _, w := range workouts {
		export.TotalReps += w.CompletedUnits
		export.Workouts = append(export.Workouts, jsonWorkout{
			ID:             w.ID,
			Preset:         w.Label,
			Icon:           w.Icon,
			CustomText:     w.CustomText,
			MaxCount:       w.MaxCount,
			RepeatCount:    w.RepeatCount,
			Speed:          w.Speed,
			Interval:       w.Interval,
			CompletedUnits: w.CompletedUnits,
			TotalUnits:     w.TotalUnits,
			Percent:        w.Percent(),
			Status:         w.Status,
			StartedAt:      w.StartedAt.Local().Format(time.RFC3339),
			FinishedAt:     w.FinishedAt.Local().Format(time.RFC3339),
			ElapsedSec:     w.ElapsedSecs,
			Elapsed:        formatDuration(w.ElapsedSecs),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
