package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/pacekeeper/internal/db/dbtest"
	"github.com/templui/pacekeeper/internal/model"
	"github.com/templui/pacekeeper/internal/period"
	"github.com/templui/pacekeeper/internal/repository"
)

func newGoalPeriod(userID string, iv period.Interval, start, end time.Time, target float64) *model.GoalPeriod {
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	return &model.GoalPeriod{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          model.DefaultGoalName(iv),
		Interval:      iv,
		StartDate:     start,
		EndDate:       end,
		Status:        model.GoalStatusActive,
		TotalDistance: target,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func week(y int, m time.Month, d int) (time.Time, time.Time) {
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 7).Add(-time.Millisecond)
}

func TestGoalPeriodCreateAndByStart(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewGoalPeriodRepository(dbtest.New(t))

	start, end := week(2024, time.March, 11)
	gp := newGoalPeriod("u1", period.Weekly, start, end, 20)
	require.NoError(t, repo.Create(ctx, gp))

	got, err := repo.ByStart(ctx, "u1", period.Weekly, start)
	require.NoError(t, err)
	assert.Equal(t, gp.ID, got.ID)
	assert.Equal(t, period.Weekly, got.Interval)
	assert.Equal(t, 20.0, got.TotalDistance)
	assert.True(t, got.StartDate.Equal(start))
	assert.True(t, got.EndDate.Equal(end))
	assert.Equal(t, time.UTC, got.StartDate.Location())

	_, err = repo.ByStart(ctx, "u1", period.Daily, start)
	assert.ErrorIs(t, err, repository.ErrGoalPeriodNotFound)

	_, err = repo.ByStart(ctx, "someone-else", period.Weekly, start)
	assert.ErrorIs(t, err, repository.ErrGoalPeriodNotFound)
}

func TestGoalPeriodCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewGoalPeriodRepository(dbtest.New(t))

	start, end := week(2024, time.March, 11)
	require.NoError(t, repo.Create(ctx, newGoalPeriod("u1", period.Weekly, start, end, 5)))

	err := repo.Create(ctx, newGoalPeriod("u1", period.Weekly, start, end, 9))
	assert.ErrorIs(t, err, repository.ErrGoalPeriodExists)

	// Same window on another interval or user is a different key.
	require.NoError(t, repo.Create(ctx, newGoalPeriod("u1", period.Monthly, start, end, 5)))
	require.NoError(t, repo.Create(ctx, newGoalPeriod("u2", period.Weekly, start, end, 5)))
}

func TestGoalPeriodCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewGoalPeriodRepository(dbtest.New(t))
	start, end := week(2024, time.March, 11)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		conflict int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, newGoalPeriod("u1", period.Weekly, start, end, 1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, repository.ErrGoalPeriodExists):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 7, conflict)
}

func TestGoalPeriodNearest(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewGoalPeriodRepository(dbtest.New(t))

	for _, d := range []int{5, 19} {
		start, end := week(2024, time.February, d)
		require.NoError(t, repo.Create(ctx, newGoalPeriod("u1", period.Weekly, start, end, float64(d))))
	}
	start, end := week(2024, time.April, 8)
	require.NoError(t, repo.Create(ctx, newGoalPeriod("u1", period.Weekly, start, end, 8)))

	current := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)

	before, err := repo.NearestAtOrBefore(ctx, "u1", period.Weekly, current)
	require.NoError(t, err)
	assert.Equal(t, 19.0, before.TotalDistance)

	after, err := repo.NearestAfter(ctx, "u1", period.Weekly, current)
	require.NoError(t, err)
	assert.Equal(t, 8.0, after.TotalDistance)

	early := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err = repo.NearestAtOrBefore(ctx, "u1", period.Weekly, early)
	assert.ErrorIs(t, err, repository.ErrGoalPeriodNotFound)

	late := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	_, err = repo.NearestAfter(ctx, "u1", period.Weekly, late)
	assert.ErrorIs(t, err, repository.ErrGoalPeriodNotFound)

	_, err = repo.NearestAtOrBefore(ctx, "u1", period.Daily, current)
	assert.ErrorIs(t, err, repository.ErrGoalPeriodNotFound)
}

func TestGoalPeriodUpsertTargets(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewGoalPeriodRepository(dbtest.New(t))

	start, end := week(2024, time.March, 11)
	existing := newGoalPeriod("u1", period.Weekly, start, end, 5)
	existing.Name = "Old name"
	require.NoError(t, repo.Create(ctx, existing))

	dayStart := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	stored, err := repo.UpsertTargets(ctx, []*model.GoalPeriod{
		newGoalPeriod("u1", period.Daily, dayStart, dayStart.AddDate(0, 0, 1).Add(-time.Millisecond), 3),
		newGoalPeriod("u1", period.Weekly, start, end, 15),
		newGoalPeriod("u1", period.Monthly, monthStart, monthStart.AddDate(0, 1, 0).Add(-time.Millisecond), 60),
	})
	require.NoError(t, err)
	require.Len(t, stored, 3)

	assert.Equal(t, period.Daily, stored[0].Interval)
	assert.Equal(t, 3.0, stored[0].TotalDistance)
	assert.Equal(t, existing.ID, stored[1].ID, "update keeps the original row")
	assert.Equal(t, 15.0, stored[1].TotalDistance)
	assert.Equal(t, "Weekly running goal", stored[1].Name)
	assert.Equal(t, 60.0, stored[2].TotalDistance)

	all, err := repo.ByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGoalPeriodUpsertTargetsRollsBack(t *testing.T) {
	ctx := context.Background()
	database := dbtest.New(t)
	repo := repository.NewGoalPeriodRepository(database)

	dayStart := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	good := newGoalPeriod("u1", period.Daily, dayStart, dayStart.Add(time.Hour), 3)
	bad := newGoalPeriod("u1", period.Weekly, dayStart, dayStart.Add(time.Hour), 3)
	bad.ID = good.ID // primary key clash fails the second statement

	_, err := repo.UpsertTargets(ctx, []*model.GoalPeriod{good, bad})
	require.Error(t, err)

	var n int
	require.NoError(t, database.Get(&n, `SELECT COUNT(*) FROM goal_periods`))
	assert.Zero(t, n)
}

func TestGoalPeriodActive(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewGoalPeriodRepository(dbtest.New(t))

	start, end := week(2024, time.March, 11)
	require.NoError(t, repo.Create(ctx, newGoalPeriod("u1", period.Weekly, start, end, 20)))

	monthStart := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newGoalPeriod("u1", period.Monthly, monthStart, monthStart.AddDate(0, 1, 0).Add(-time.Millisecond), 80)))

	done := newGoalPeriod("u1", period.Daily, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, time.March, 15, 23, 59, 59, 0, time.UTC), 4)
	done.Status = model.GoalStatusCompleted
	require.NoError(t, repo.Create(ctx, done))

	at := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	active, err := repo.Active(ctx, "u1", at)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, period.Weekly, active[0].Interval)
	assert.Equal(t, period.Monthly, active[1].Interval)

	active, err = repo.Active(ctx, "u1", end.Add(time.Millisecond))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, period.Monthly, active[0].Interval)
}

func TestGoalPeriodStorageErrors(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := repository.NewGoalPeriodRepository(sqlx.NewDb(mockDB, "pgx"))
	ctx := context.Background()
	boom := errors.New("connection reset")

	mock.ExpectQuery("SELECT \\* FROM goal_periods").WillReturnError(boom)
	_, err = repo.ByStart(ctx, "u1", period.Weekly, time.Now())
	assert.ErrorIs(t, err, boom)

	mock.ExpectExec("INSERT INTO goal_periods").WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "goal_periods_user_id_interval_kind_start_date_key"`))
	err = repo.Create(ctx, newGoalPeriod("u1", period.Weekly, time.Now(), time.Now(), 1))
	assert.ErrorIs(t, err, repository.ErrGoalPeriodExists)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO goal_periods").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO goal_periods").WillReturnError(boom)
	mock.ExpectRollback()
	_, err = repo.UpsertTargets(ctx, []*model.GoalPeriod{
		newGoalPeriod("u1", period.Daily, time.Now(), time.Now(), 1),
		newGoalPeriod("u1", period.Weekly, time.Now(), time.Now(), 1),
	})
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}
