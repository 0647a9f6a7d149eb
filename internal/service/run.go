package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/templui/pacekeeper/internal/metrics"
	"github.com/templui/pacekeeper/internal/model"
	"github.com/templui/pacekeeper/internal/period"
	"github.com/templui/pacekeeper/internal/repository"
)

type RunService struct {
	repo        repository.RunRepository
	resolver    *period.Resolver
	metrics     *metrics.Metrics
	recentLimit int
	now         func() time.Time
}

func NewRunService(
	repo repository.RunRepository,
	resolver *period.Resolver,
	m *metrics.Metrics,
	recentLimit int,
) *RunService {
	if recentLimit <= 0 {
		recentLimit = 50
	}
	return &RunService{
		repo:        repo,
		resolver:    resolver,
		metrics:     m,
		recentLimit: recentLimit,
		now:         time.Now,
	}
}

// Append validates and stores one run. The stored average pace is always derived
// from duration and distance; a caller-supplied pace is kept for display only.
func (s *RunService) Append(ctx context.Context, userID string, sample model.RunSample) (*model.Run, error) {
	err := validateSample(sample)
	if err != nil {
		return nil, err
	}

	status := sample.Status
	if status == "" {
		status = model.RunStatusFinished
	}

	avgPace := 0.0
	if sample.DistanceKm > 0 {
		avgPace = sample.DurationSeconds / sample.DistanceKm
	}

	run := &model.Run{
		ID:              uuid.New().String(),
		UserID:          userID,
		StartedAt:       sample.StartedAt.UTC().Truncate(time.Millisecond),
		DistanceKm:      sample.DistanceKm,
		DurationSeconds: sample.DurationSeconds,
		AvgPace:         avgPace,
		DisplayPace:     sample.Pace,
		AvgHeartRate:    sample.AvgHeartRate,
		Calories:        sample.Calories,
		Status:          status,
		CreatedAt:       s.now().UTC().Truncate(time.Millisecond),
	}

	err = s.repo.Create(ctx, run)
	if err != nil {
		return nil, storageErr("failed to create run", err)
	}

	s.metrics.RunRecorded(status)
	return run, nil
}

func validateSample(sample model.RunSample) error {
	if sample.StartedAt.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrInvalidRunSample)
	}
	if !nonNegative(sample.DistanceKm) {
		return fmt.Errorf("%w: distance must be a non-negative number", ErrInvalidRunSample)
	}
	if !nonNegative(sample.DurationSeconds) {
		return fmt.Errorf("%w: duration must be a non-negative number", ErrInvalidRunSample)
	}

	optional := []struct {
		name  string
		value *float64
	}{
		{"pace", sample.Pace},
		{"heart rate", sample.AvgHeartRate},
		{"calories", sample.Calories},
	}
	for _, o := range optional {
		if o.value != nil && !nonNegative(*o.value) {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidRunSample, o.name)
		}
	}

	if sample.Status != "" && !model.ValidRunStatus(sample.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRunSample, sample.Status)
	}
	return nil
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Query returns the user's runs with start <= started_at <= end, newest first.
func (s *RunService) Query(ctx context.Context, userID string, start, end time.Time) ([]*model.Run, error) {
	runs, err := s.repo.Range(ctx, userID, start, end)
	if err != nil {
		return nil, storageErr("failed to query runs", err)
	}
	return runs, nil
}

// ByDate returns the runs on the reporting-local calendar day containing at.
func (s *RunService) ByDate(ctx context.Context, userID string, at time.Time) ([]*model.Run, error) {
	w, err := s.resolver.Window(period.Daily, at)
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, userID, w.Start, w.End)
}

func (s *RunService) ByID(ctx context.Context, userID, runID string) (*model.Run, error) {
	run, err := s.repo.ByID(ctx, userID, runID)
	if errors.Is(err, repository.ErrRunNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, storageErr("failed to get run", err)
	}
	return run, nil
}

// Recent returns the newest runs. limit is clamped to the configured maximum.
func (s *RunService) Recent(ctx context.Context, userID string, limit int) ([]*model.Run, error) {
	if limit <= 0 || limit > s.recentLimit {
		limit = s.recentLimit
	}
	runs, err := s.repo.Recent(ctx, userID, limit)
	if err != nil {
		return nil, storageErr("failed to list runs", err)
	}
	return runs, nil
}
