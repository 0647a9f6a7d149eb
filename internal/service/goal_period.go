package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/templui/pacekeeper/internal/metrics"
	"github.com/templui/pacekeeper/internal/model"
	"github.com/templui/pacekeeper/internal/period"
	"github.com/templui/pacekeeper/internal/repository"
)

// GoalSet is the daily, weekly and monthly goal period covering one instant.
type GoalSet struct {
	Daily   *model.GoalPeriod `json:"daily"`
	Weekly  *model.GoalPeriod `json:"weekly"`
	Monthly *model.GoalPeriod `json:"monthly"`
}

type GoalPeriodService struct {
	repo     repository.GoalPeriodRepository
	resolver *period.Resolver
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewGoalPeriodService(
	repo repository.GoalPeriodRepository,
	resolver *period.Resolver,
	m *metrics.Metrics,
) *GoalPeriodService {
	return &GoalPeriodService{
		repo:     repo,
		resolver: resolver,
		metrics:  m,
		now:      time.Now,
	}
}

// GetOrCreate returns the goal period of the given interval containing at,
// creating it if needed. A new period inherits its target from the previous
// window, else from the nearest period by start date, else starts at 0.
func (s *GoalPeriodService) GetOrCreate(ctx context.Context, userID string, iv period.Interval, at time.Time) (*model.GoalPeriod, error) {
	if !iv.IsGoalInterval() {
		return nil, fmt.Errorf("%w: %q is not a goal interval", period.ErrInvalidInterval, iv)
	}

	w, err := s.resolver.Window(iv, at)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ByStart(ctx, userID, iv, w.Start)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrGoalPeriodNotFound) {
		return nil, storageErr("failed to get goal period", err)
	}

	template, source, err := s.template(ctx, userID, iv, w.Start)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	gp := &model.GoalPeriod{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      model.DefaultGoalName(iv),
		Interval:  iv,
		StartDate: w.Start,
		EndDate:   w.End,
		Status:    model.GoalStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if template != nil {
		gp.TotalDistance = template.TotalDistance
		if template.Name != "" {
			gp.Name = template.Name
		}
	}

	err = s.repo.Create(ctx, gp)
	if errors.Is(err, repository.ErrGoalPeriodExists) {
		// Lost the race to another request; the winner's row is the answer.
		s.metrics.GoalPeriodConflict(string(iv))
		slog.Debug("goal period created concurrently, re-reading", "user_id", userID, "interval", iv, "start", w.Start)

		winner, err := s.repo.ByStart(ctx, userID, iv, w.Start)
		if err != nil {
			return nil, storageErr("failed to re-read goal period", err)
		}
		return winner, nil
	}
	if err != nil {
		return nil, storageErr("failed to create goal period", err)
	}

	s.metrics.GoalPeriodMaterialized(string(iv), source)
	return gp, nil
}

func (s *GoalPeriodService) template(ctx context.Context, userID string, iv period.Interval, start time.Time) (*model.GoalPeriod, string, error) {
	prevStart, err := s.resolver.PreviousStart(iv, start)
	if err != nil {
		return nil, "", err
	}

	lookups := []struct {
		source string
		find   func() (*model.GoalPeriod, error)
	}{
		{metrics.SourcePrevious, func() (*model.GoalPeriod, error) { return s.repo.ByStart(ctx, userID, iv, prevStart) }},
		{metrics.SourceNearestBefore, func() (*model.GoalPeriod, error) { return s.repo.NearestAtOrBefore(ctx, userID, iv, start) }},
		{metrics.SourceNearestAfter, func() (*model.GoalPeriod, error) { return s.repo.NearestAfter(ctx, userID, iv, start) }},
	}
	for _, l := range lookups {
		gp, err := l.find()
		if err == nil {
			return gp, l.source, nil
		}
		if !errors.Is(err, repository.ErrGoalPeriodNotFound) {
			return nil, "", storageErr("failed to find template goal period", err)
		}
	}

	return nil, metrics.SourceNone, nil
}

// UpsertGoalSettings sets explicit targets (km) on the three windows containing at.
// All three are validated before anything is written and stored in one transaction.
func (s *GoalPeriodService) UpsertGoalSettings(ctx context.Context, userID string, daily, weekly, monthly float64, at time.Time) (*GoalSet, error) {
	for _, v := range []float64{daily, weekly, monthly} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, ErrInvalidGoalValue
		}
	}
	if weekly < daily {
		return nil, fmt.Errorf("%w: weekly distance cannot be less than daily distance", ErrInvalidGoalOrdering)
	}
	if monthly < weekly {
		return nil, fmt.Errorf("%w: monthly distance cannot be less than weekly distance", ErrInvalidGoalOrdering)
	}

	now := s.now().UTC()
	targets := map[period.Interval]float64{
		period.Daily:   daily,
		period.Weekly:  weekly,
		period.Monthly: monthly,
	}

	rows := make([]*model.GoalPeriod, 0, len(period.GoalIntervals))
	for _, iv := range period.GoalIntervals {
		w, err := s.resolver.Window(iv, at)
		if err != nil {
			return nil, err
		}
		rows = append(rows, &model.GoalPeriod{
			ID:            uuid.New().String(),
			UserID:        userID,
			Name:          model.DefaultGoalName(iv),
			Interval:      iv,
			StartDate:     w.Start,
			EndDate:       w.End,
			Status:        model.GoalStatusActive,
			TotalDistance: targets[iv],
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	stored, err := s.repo.UpsertTargets(ctx, rows)
	if err != nil {
		return nil, storageErr("failed to save goal settings", err)
	}
	if len(stored) != len(rows) {
		return nil, storageErr("failed to save goal settings", fmt.Errorf("stored %d of %d goal periods", len(stored), len(rows)))
	}

	s.metrics.GoalSettingsUpdated()
	return &GoalSet{Daily: stored[0], Weekly: stored[1], Monthly: stored[2]}, nil
}

// PlansByDate materializes the daily, weekly and monthly periods containing at.
func (s *GoalPeriodService) PlansByDate(ctx context.Context, userID string, at time.Time) (*GoalSet, error) {
	set := &GoalSet{}
	dest := map[period.Interval]**model.GoalPeriod{
		period.Daily:   &set.Daily,
		period.Weekly:  &set.Weekly,
		period.Monthly: &set.Monthly,
	}
	for _, iv := range period.GoalIntervals {
		gp, err := s.GetOrCreate(ctx, userID, iv, at)
		if err != nil {
			return nil, err
		}
		*dest[iv] = gp
	}
	return set, nil
}

func (s *GoalPeriodService) List(ctx context.Context, userID string) ([]*model.GoalPeriod, error) {
	periods, err := s.repo.ByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("failed to list goal periods", err)
	}
	return periods, nil
}

// Active returns the active periods containing at, narrowest interval first.
func (s *GoalPeriodService) Active(ctx context.Context, userID string, at time.Time) ([]*model.GoalPeriod, error) {
	periods, err := s.repo.Active(ctx, userID, at)
	if err != nil {
		return nil, storageErr("failed to get active goal periods", err)
	}
	return periods, nil
}
