package store

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidStatus = errors.New("invalid workout status")

func (s *Store) RecordWorkout(w Workout) error {
	if w.Status != StatusCompleted && w.Status != StatusStopped {
		return fmt.Errorf("record workout %s: %w: %q", w.ID, ErrInvalidStatus, w.Status)
	}
	_, err := s.db.Exec(
		`INSERT INTO workouts (id, label, icon, custom_text, max_count, repeat_count, speed, interval_secs,
		                       completed_units, total_units, status, started_at, finished_at, elapsed_secs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Label, w.Icon, w.CustomText, w.MaxCount, w.RepeatCount, w.Speed, w.Interval,
		w.CompletedUnits, w.TotalUnits, w.Status,
		w.StartedAt.UTC().Format(time.RFC3339), w.FinishedAt.UTC().Format(time.RFC3339), w.ElapsedSecs,
	)
	if err != nil {
		return fmt.Errorf("record workout %s: %w", w.ID, err)
	}
	return nil
}

const workoutColumns = `id, label, icon, custom_text, max_count, repeat_count, speed, interval_secs,
	completed_units, total_units, status, started_at, finished_at, elapsed_secs`

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row scanner) (Workout, error) {
	var w Workout
	var startedAt, finishedAt string
	err := row.Scan(&w.ID, &w.Label, &w.Icon, &w.CustomText, &w.MaxCount, &w.RepeatCount, &w.Speed, &w.Interval,
		&w.CompletedUnits, &w.TotalUnits, &w.Status, &startedAt, &finishedAt, &w.ElapsedSecs)
	if err != nil {
		return w, err
	}
	w.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	w.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt)
	return w, nil
}

func (s *Store) GetWorkout(id string) (*Workout, error) {
	w, err := scanWorkout(s.db.QueryRow(`SELECT `+workoutColumns+` FROM workouts WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get workout %s: %w", id, err)
	}
	return &w, nil
}

// ListWorkouts returns matching workouts, newest first.
func (s *Store) ListWorkouts(f WorkoutFilter) ([]Workout, error) {
	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE 1=1`
	var args []any

	if f.Label != nil {
		query += ` AND label = ?`
		args = append(args, *f.Label)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.From != nil {
		query += ` AND started_at >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND started_at < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY started_at DESC, created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

// GetDailySummary aggregates counted reps per label per day. Stopped
// workouts contribute the reps they reached.
func (s *Store) GetDailySummary(from, to time.Time) ([]DailySummary, error) {
	rows, err := s.db.Query(`
		SELECT date(started_at) AS day, label,
		       COALESCE(SUM(completed_units), 0), COUNT(*), COALESCE(SUM(elapsed_secs), 0)
		FROM workouts
		WHERE started_at >= ? AND started_at < ?
		GROUP BY day, label
		ORDER BY day, label`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var ds DailySummary
		if err := rows.Scan(&ds.Date, &ds.Label, &ds.Reps, &ds.Workouts, &ds.TotalSeconds); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// GetTodayReps sums the reps counted today (UTC).
func (s *Store) GetTodayReps() (int, error) {
	today := time.Now().UTC().Format("2006-01-02")
	var total int
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(completed_units), 0)
		FROM workouts
		WHERE date(started_at) = ?`, today,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// DeleteWorkouts removes every recorded workout and reports how many went.
func (s *Store) DeleteWorkouts() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM workouts`)
	if err != nil {
		return 0, fmt.Errorf("delete workouts: %w", err)
	}
	return res.RowsAffected()
}
