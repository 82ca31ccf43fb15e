package store

import "time"

// Workout statuses.
const (
	StatusCompleted = "completed"
	StatusStopped   = "stopped"
)

// Workout is one finished counting session.
type Workout struct {
	ID             string
	Label          string
	Icon           string
	CustomText     string
	MaxCount       int
	RepeatCount    int
	Speed          int
	Interval       int // seconds of rest between sets
	CompletedUnits int
	TotalUnits     int
	Status         string // completed, stopped
	StartedAt      time.Time
	FinishedAt     time.Time
	ElapsedSecs    int64
}

// Percent is the share of counted units, floored.
func (w Workout) Percent() int {
	if w.TotalUnits <= 0 {
		return 0
	}
	return w.CompletedUnits * 100 / w.TotalUnits
}

type Setting struct {
	Key   string
	Value string
}

// WorkoutFilter is used to filter workouts in queries.
type WorkoutFilter struct {
	Label  *string
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// DailySummary represents counted reps per preset label per day.
type DailySummary struct {
	Date         string
	Label        string
	Reps         int
	Workouts     int
	TotalSeconds int64
}
