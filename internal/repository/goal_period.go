package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/templui/pacekeeper/internal/model"
	"github.com/templui/pacekeeper/internal/period"
)

type GoalPeriodRepository interface {
	ByStart(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, error)
	NearestAtOrBefore(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, error)
	NearestAfter(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, error)
	Create(ctx context.Context, gp *model.GoalPeriod) error
	UpsertTargets(ctx context.Context, periods []*model.GoalPeriod) ([]*model.GoalPeriod, error)
	Active(ctx context.Context, userID string, at time.Time) ([]*model.GoalPeriod, error)
	ByUser(ctx context.Context, userID string) ([]*model.GoalPeriod, error)
}

type goalPeriodRepository struct {
	db *sqlx.DB
}

func NewGoalPeriodRepository(db *sqlx.DB) GoalPeriodRepository {
	return &goalPeriodRepository{db: db}
}

func (r *goalPeriodRepository) ByStart(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, error) {
	query := `SELECT * FROM goal_periods WHERE user_id = $1 AND interval_kind = $2 AND start_date = $3`
	return r.one(ctx, r.db, query, userID, string(iv), start.UTC())
}

// NearestAtOrBefore returns the period with the latest start at or before start.
func (r *goalPeriodRepository) NearestAtOrBefore(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, error) {
	query := `SELECT * FROM goal_periods
	          WHERE user_id = $1 AND interval_kind = $2 AND start_date <= $3
	          ORDER BY start_date DESC LIMIT 1`
	return r.one(ctx, r.db, query, userID, string(iv), start.UTC())
}

// NearestAfter returns the period with the earliest start at or after start.
func (r *goalPeriodRepository) NearestAfter(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, error) {
	query := `SELECT * FROM goal_periods
	          WHERE user_id = $1 AND interval_kind = $2 AND start_date >= $3
	          ORDER BY start_date ASC LIMIT 1`
	return r.one(ctx, r.db, query, userID, string(iv), start.UTC())
}

func (r *goalPeriodRepository) Create(ctx context.Context, gp *model.GoalPeriod) error {
	query := `INSERT INTO goal_periods (id, user_id, name, interval_kind, start_date, end_date, status, total_distance, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		gp.ID,
		gp.UserID,
		gp.Name,
		string(gp.Interval),
		gp.StartDate.UTC(),
		gp.EndDate.UTC(),
		gp.Status,
		gp.TotalDistance,
		gp.CreatedAt.UTC(),
		gp.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrGoalPeriodExists
		}
		return err
	}

	return nil
}

// UpsertTargets writes all periods in one transaction, keyed on
// (user_id, interval_kind, start_date). An existing row keeps its id and
// created_at. The stored rows are returned in input order.
func (r *goalPeriodRepository) UpsertTargets(ctx context.Context, periods []*model.GoalPeriod) ([]*model.GoalPeriod, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `INSERT INTO goal_periods (id, user_id, name, interval_kind, start_date, end_date, status, total_distance, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          ON CONFLICT (user_id, interval_kind, start_date) DO UPDATE
	          SET name = excluded.name,
	              end_date = excluded.end_date,
	              status = excluded.status,
	              total_distance = excluded.total_distance,
	              updated_at = excluded.updated_at`

	for _, gp := range periods {
		_, err := tx.ExecContext(ctx, query,
			gp.ID,
			gp.UserID,
			gp.Name,
			string(gp.Interval),
			gp.StartDate.UTC(),
			gp.EndDate.UTC(),
			gp.Status,
			gp.TotalDistance,
			gp.CreatedAt.UTC(),
			gp.UpdatedAt.UTC(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert %s goal period: %w", gp.Interval, err)
		}
	}

	stored := make([]*model.GoalPeriod, 0, len(periods))
	for _, gp := range periods {
		query := `SELECT * FROM goal_periods WHERE user_id = $1 AND interval_kind = $2 AND start_date = $3`
		row, err := r.one(ctx, tx, query, gp.UserID, string(gp.Interval), gp.StartDate.UTC())
		if err != nil {
			return nil, fmt.Errorf("failed to reload %s goal period: %w", gp.Interval, err)
		}
		stored = append(stored, row)
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// Active returns active periods whose window contains at, narrowest interval first.
func (r *goalPeriodRepository) Active(ctx context.Context, userID string, at time.Time) ([]*model.GoalPeriod, error) {
	var periods []*model.GoalPeriod
	query := `SELECT * FROM goal_periods
	          WHERE user_id = $1 AND status = $2 AND start_date <= $3 AND end_date >= $3
	          ORDER BY end_date ASC, start_date DESC`

	err := r.db.SelectContext(ctx, &periods, query, userID, model.GoalStatusActive, at.UTC())
	if err != nil {
		return nil, err
	}

	for _, gp := range periods {
		gp.NormalizeTimes()
	}
	return periods, nil
}

func (r *goalPeriodRepository) ByUser(ctx context.Context, userID string) ([]*model.GoalPeriod, error) {
	var periods []*model.GoalPeriod
	query := `SELECT * FROM goal_periods WHERE user_id = $1 ORDER BY start_date DESC, interval_kind ASC`

	err := r.db.SelectContext(ctx, &periods, query, userID)
	if err != nil {
		return nil, err
	}

	for _, gp := range periods {
		gp.NormalizeTimes()
	}
	return periods, nil
}

func (r *goalPeriodRepository) one(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (*model.GoalPeriod, error) {
	gp := &model.GoalPeriod{}

	err := sqlx.GetContext(ctx, q, gp, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalPeriodNotFound
	}
	if err != nil {
		return nil, err
	}

	gp.NormalizeTimes()
	return gp, nil
}
