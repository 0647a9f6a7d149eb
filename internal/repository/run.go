package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/templui/pacekeeper/internal/model"
)

type RunRepository interface {
	Create(ctx context.Context, run *model.Run) error
	Range(ctx context.Context, userID string, start, end time.Time) ([]*model.Run, error)
	ByID(ctx context.Context, userID, runID string) (*model.Run, error)
	Recent(ctx context.Context, userID string, limit int) ([]*model.Run, error)
}

type runRepository struct {
	db *sqlx.DB
}

func NewRunRepository(db *sqlx.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(ctx context.Context, run *model.Run) error {
	query := `INSERT INTO runs (id, user_id, started_at, distance_km, duration_seconds, avg_pace, display_pace, avg_heart_rate, calories, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.UserID,
		run.StartedAt.UTC(),
		run.DistanceKm,
		run.DurationSeconds,
		run.AvgPace,
		run.DisplayPace,
		run.AvgHeartRate,
		run.Calories,
		run.Status,
		run.CreatedAt.UTC(),
	)

	return err
}

// Range returns runs with start <= started_at <= end, newest first.
func (r *runRepository) Range(ctx context.Context, userID string, start, end time.Time) ([]*model.Run, error) {
	var runs []*model.Run
	query := `SELECT * FROM runs
	          WHERE user_id = $1 AND started_at >= $2 AND started_at <= $3
	          ORDER BY started_at DESC, id DESC`

	err := r.db.SelectContext(ctx, &runs, query, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}

	for _, run := range runs {
		run.NormalizeTimes()
	}
	return runs, nil
}

func (r *runRepository) ByID(ctx context.Context, userID, runID string) (*model.Run, error) {
	run := &model.Run{}
	query := `SELECT * FROM runs WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, run, query, runID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	run.NormalizeTimes()
	return run, nil
}

func (r *runRepository) Recent(ctx context.Context, userID string, limit int) ([]*model.Run, error) {
	var runs []*model.Run
	query := `SELECT * FROM runs WHERE user_id = $1 ORDER BY started_at DESC, id DESC LIMIT $2`

	err := r.db.SelectContext(ctx, &runs, query, userID, limit)
	if err != nil {
		return nil, err
	}

	for _, run := range runs {
		run.NormalizeTimes()
	}
	return runs, nil
}
