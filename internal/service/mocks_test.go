package service_test

import (
	"context"
	"time"

	"github.com/templui/pacekeeper/internal/model"
	"github.com/templui/pacekeeper/internal/period"
	"github.com/templui/pacekeeper/internal/repository"
)

type mockGoalPeriodRepo struct {
	byStartFn           func(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, error)
	nearestAtOrBeforeFn func(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, error)
	nearestAfterFn      func(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, error)
	createFn            func(ctx context.Context, gp *model.GoalPeriod) error
	upsertTargetsFn     func(ctx context.Context, periods []*model.GoalPeriod) ([]*model.GoalPeriod, error)
	activeFn            func(ctx context.Context, userID string, at time.Time) ([]*model.GoalPeriod, error)
	byUserFn            func(ctx context.Context, userID string) ([]*model.GoalPeriod, error)
}

func (m *mockGoalPeriodRepo) ByStart(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, error) {
	if m.byStartFn != nil {
		return m.byStartFn(ctx, userID, iv, start)
	}
	return nil, repository.ErrGoalPeriodNotFound
}

func (m *mockGoalPeriodRepo) NearestAtOrBefore(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, error) {
	if m.nearestAtOrBeforeFn != nil {
		return m.nearestAtOrBeforeFn(ctx, userID, iv, start)
	}
	return nil, repository.ErrGoalPeriodNotFound
}

func (m *mockGoalPeriodRepo) NearestAfter(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, error) {
	if m.nearestAfterFn != nil {
		return m.nearestAfterFn(ctx, userID, iv, start)
	}
	return nil, repository.ErrGoalPeriodNotFound
}

func (m *mockGoalPeriodRepo) Create(ctx context.Context, gp *model.GoalPeriod) error {
	if m.createFn != nil {
		return m.createFn(ctx, gp)
	}
	return nil
}

func (m *mockGoalPeriodRepo) UpsertTargets(ctx context.Context, periods []*model.GoalPeriod) ([]*model.GoalPeriod, error) {
	if m.upsertTargetsFn != nil {
		return m.upsertTargetsFn(ctx, periods)
	}
	return periods, nil
}

func (m *mockGoalPeriodRepo) Active(ctx context.Context, userID string, at time.Time) ([]*model.GoalPeriod, error) {
	if m.activeFn != nil {
		return m.activeFn(ctx, userID, at)
	}
	return nil, nil
}

func (m *mockGoalPeriodRepo) ByUser(ctx context.Context, userID string) ([]*model.GoalPeriod, error) {
	if m.byUserFn != nil {
		return m.byUserFn(ctx, userID)
	}
	return nil, nil
}

type mockRunRepo struct {
	createFn func(ctx context.Context, run *model.Run) error
	rangeFn  func(ctx context.Context, userID string, start, end time.Time) ([]*model.Run, error)
	byIDFn   func(ctx context.Context, userID, runID string) (*model.Run, error)
	recentFn func(ctx context.Context, userID string, limit int) ([]*model.Run, error)
}

func (m *mockRunRepo) Create(ctx context.Context, run *model.Run) error {
	if m.createFn != nil {
		return m.createFn(ctx, run)
	}
	return nil
}

func (m *mockRunRepo) Range(ctx context.Context, userID string, start, end time.Time) ([]*model.Run, error) {
	if m.rangeFn != nil {
		return m.rangeFn(ctx, userID, start, end)
	}
	return nil, nil
}

func (m *mockRunRepo) ByID(ctx context.Context, userID, runID string) (*model.Run, error) {
	if m.byIDFn != nil {
		return m.byIDFn(ctx, userID, runID)
	}
	return nil, repository.ErrRunNotFound
}

func (m *mockRunRepo) Recent(ctx context.Context, userID string, limit int) ([]*model.Run, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, userID, limit)
	}
	return nil, nil
}
