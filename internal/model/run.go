package model

import "time"

const (
	RunStatusRecording = "recording"
	RunStatusPaused    = "paused"
	RunStatusFinished  = "finished"
	RunStatusCanceled  = "canceled"
)

func ValidRunStatus(s string) bool {
	switch s {
	case RunStatusRecording, RunStatusPaused, RunStatusFinished, RunStatusCanceled:
		return true
	}
	return false
}

// Run is one recorded run. AvgPace is seconds per km and always derived from
// duration and distance; DisplayPace is whatever the client showed the runner.
type Run struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"userId"`
	StartedAt       time.Time `db:"started_at" json:"startedAt"`
	DistanceKm      float64   `db:"distance_km" json:"distanceKm"`
	DurationSeconds float64   `db:"duration_seconds" json:"durationSeconds"`
	AvgPace         float64   `db:"avg_pace" json:"avgPace"`
	DisplayPace     *float64  `db:"display_pace" json:"displayPace,omitempty"`
	AvgHeartRate    *float64  `db:"avg_heart_rate" json:"avgHeartRate,omitempty"`
	Calories        *float64  `db:"calories" json:"calories,omitempty"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

func (r *Run) NormalizeTimes() {
	r.StartedAt = r.StartedAt.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
}

// RunSample is the caller-supplied input for a new run.
type RunSample struct {
	StartedAt       time.Time
	DistanceKm      float64
	DurationSeconds float64
	Pace            *float64
	AvgHeartRate    *float64
	Calories        *float64
	Status          string
}
