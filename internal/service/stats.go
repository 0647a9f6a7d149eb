package service

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/templui/pacekeeper/internal/model"
	"github.com/templui/pacekeeper/internal/period"
)

const defaultStreakLookbackDays = 366

// Overview periods and dashboard ranges as they appear on the wire.
var (
	overviewPeriods = map[string]period.Interval{
		"week":  period.Weekly,
		"month": period.Monthly,
	}
	dashboardRanges = map[string]period.Interval{
		"today": period.Daily,
		"week":  period.Weekly,
		"month": period.Monthly,
		"year":  period.Yearly,
	}
	weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
)

type StatsService struct {
	runs           *RunService
	goals          *GoalPeriodService
	resolver       *period.Resolver
	streakLookback int
}

func NewStatsService(runs *RunService, goals *GoalPeriodService, resolver *period.Resolver, streakLookbackDays int) *StatsService {
	if streakLookbackDays <= 0 {
		streakLookbackDays = defaultStreakLookbackDays
	}
	return &StatsService{
		runs:           runs,
		goals:          goals,
		resolver:       resolver,
		streakLookback: streakLookbackDays,
	}
}

// Overview sums the runs in the week or month containing now. An empty period
// means week.
func (s *StatsService) Overview(ctx context.Context, userID, periodName string, now time.Time) (*model.Overview, error) {
	if periodName == "" {
		periodName = "week"
	}
	iv, ok := overviewPeriods[periodName]
	if !ok {
		return nil, fmt.Errorf("%w: period must be week or month, got %q", period.ErrInvalidInterval, periodName)
	}

	w, err := s.resolver.Window(iv, now)
	if err != nil {
		return nil, err
	}
	runs, err := s.runs.Query(ctx, userID, w.Start, w.End)
	if err != nil {
		return nil, err
	}

	var distance, seconds float64
	for _, r := range runs {
		distance += r.DistanceKm
		seconds += r.DurationSeconds
	}

	return &model.Overview{
		Period:           periodName,
		StartDate:        w.Start,
		EndDate:          w.End,
		TotalDistance:    round2(distance),
		TotalRuns:        len(runs),
		TotalTimeElapsed: formatElapsed(seconds),
	}, nil
}

// formatElapsed renders seconds as H:MM with unbounded hours.
func formatElapsed(seconds float64) string {
	total := int64(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/3600, (total/60)%60)
}

// Dashboard builds totals, personal bests, goal progress and the trend series for
// the today, week, month or year window containing now. An empty range means week.
func (s *StatsService) Dashboard(ctx context.Context, userID, rangeName string, now time.Time) (*model.Dashboard, error) {
	if rangeName == "" {
		rangeName = "week"
	}
	iv, ok := dashboardRanges[rangeName]
	if !ok {
		return nil, fmt.Errorf("%w: range must be today, week, month or year, got %q", period.ErrInvalidInterval, rangeName)
	}

	w, err := s.resolver.Window(iv, now)
	if err != nil {
		return nil, err
	}
	runs, err := s.runs.Query(ctx, userID, w.Start, w.End)
	if err != nil {
		return nil, err
	}

	var distance, seconds float64
	for _, r := range runs {
		distance += r.DistanceKm
		seconds += r.DurationSeconds
	}

	d := &model.Dashboard{
		Range:     rangeName,
		StartDate: w.Start,
		EndDate:   w.End,
		Distance:  round2(distance),
		Runs:      len(runs),
		Time:      round2(seconds / 3600),
		Pace:      round2(paceMinPerKm(seconds, distance)),
		Plans:     []model.PlanProgress{},
	}
	if len(runs) > 0 {
		// runs come back newest first
		last := runs[0].StartedAt
		d.LastUpdatedAt = &last
	}

	d.PersonalBests = s.personalBests(runs)
	d.PersonalBests.StreakDays, err = s.streak(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	err = s.planProgress(ctx, d, userID, iv, now)
	if err != nil {
		return nil, err
	}

	d.Trend, err = s.trend(iv, w, runs)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (s *StatsService) personalBests(runs []*model.Run) model.PersonalBests {
	var longest, fastest float64
	weeks := map[time.Time]float64{}

	for _, r := range runs {
		longest = max(longest, r.DistanceKm)

		if r.DistanceKm > 0 && r.DurationSeconds > 0 {
			pace := r.DurationSeconds / r.DistanceKm / 60
			if fastest == 0 || pace < fastest {
				fastest = pace
			}
		}

		ww, _ := s.resolver.Window(period.Weekly, r.StartedAt)
		weeks[ww.Start] += r.DistanceKm
	}

	var bestWeek float64
	for _, km := range weeks {
		bestWeek = max(bestWeek, km)
	}

	return model.PersonalBests{
		Longest:  round2(longest),
		Fastest:  round2(fastest),
		BestWeek: round2(bestWeek),
	}
}

// streak counts consecutive local days with at least one run, walking back from the
// day containing now. The whole lookback window is read with one range query.
func (s *StatsService) streak(ctx context.Context, userID string, now time.Time) (int, error) {
	today, err := s.resolver.Window(period.Daily, now)
	if err != nil {
		return 0, err
	}
	local := s.resolver.Local(today.Start)
	from := time.Date(local.Year(), local.Month(), local.Day()-(s.streakLookback-1), 0, 0, 0, 0, s.resolver.Location())

	runs, err := s.runs.Query(ctx, userID, from, today.End)
	if err != nil {
		return 0, err
	}

	days := make(map[string]struct{}, len(runs))
	for _, r := range runs {
		days[s.resolver.DayKey(r.StartedAt)] = struct{}{}
	}

	streak := 0
	for i := 0; i < s.streakLookback; i++ {
		day := time.Date(local.Year(), local.Month(), local.Day()-i, 0, 0, 0, 0, s.resolver.Location())
		if _, ok := days[s.resolver.DayKey(day)]; !ok {
			break
		}
		streak++
	}
	return streak, nil
}

// planProgress fills the goal fields. The period on the interval matching the range
// is materialized first so a carried-forward target shows up without a separate
// visit to the plans endpoint.
func (s *StatsService) planProgress(ctx context.Context, d *model.Dashboard, userID string, iv period.Interval, now time.Time) error {
	if iv.IsGoalInterval() {
		_, err := s.goals.GetOrCreate(ctx, userID, iv, now)
		if err != nil {
			return err
		}
	}

	active, err := s.goals.Active(ctx, userID, now)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		return nil
	}

	from := active[0].StartDate
	for _, gp := range active[1:] {
		if gp.StartDate.Before(from) {
			from = gp.StartDate
		}
	}
	runs, err := s.runs.Query(ctx, userID, from, now)
	if err != nil {
		return err
	}

	for _, gp := range active {
		until := gp.EndDate
		if now.Before(until) {
			until = now
		}
		var achieved float64
		for _, r := range runs {
			if !r.StartedAt.Before(gp.StartDate) && !r.StartedAt.After(until) {
				achieved += r.DistanceKm
			}
		}
		d.Plans = append(d.Plans, model.PlanProgress{
			ID:        gp.ID,
			Interval:  gp.Interval,
			Name:      gp.Name,
			Target:    round2(gp.TotalDistance),
			Achieved:  round2(achieved),
			StartDate: gp.StartDate,
			EndDate:   gp.EndDate,
		})
	}

	slices.SortStableFunc(d.Plans, func(a, b model.PlanProgress) int {
		return intervalRank(a.Interval) - intervalRank(b.Interval)
	})

	headline := d.Plans[0]
	for _, p := range d.Plans {
		if p.Interval == iv {
			headline = p
			break
		}
	}
	d.PlanTarget = headline.Target
	d.PlanProgress = headline.Achieved
	d.PlanInterval = headline.Interval
	return nil
}

func intervalRank(iv period.Interval) int {
	switch iv {
	case period.Daily:
		return 0
	case period.Weekly:
		return 1
	case period.Monthly:
		return 2
	}
	return 3
}

func (s *StatsService) trend(iv period.Interval, w period.Window, runs []*model.Run) ([]model.TrendBucket, error) {
	switch iv {
	case period.Daily:
		return s.trendToday(runs), nil
	case period.Weekly:
		return s.trendWeek(w, runs), nil
	case period.Monthly:
		return s.trendMonth(w, runs)
	case period.Yearly:
		return s.trendYear(runs), nil
	}
	return nil, fmt.Errorf("%w: %q", period.ErrInvalidInterval, iv)
}

// trendToday is one point per run, oldest first.
func (s *StatsService) trendToday(runs []*model.Run) []model.TrendBucket {
	points := make([]model.TrendBucket, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		points = append(points, model.TrendBucket{
			Label:    s.resolver.Local(r.StartedAt).Format("15:04"),
			Distance: round2(r.DistanceKm),
			Pace:     round2(paceMinPerKm(r.DurationSeconds, r.DistanceKm)),
		})
	}
	return points
}

func (s *StatsService) trendWeek(w period.Window, runs []*model.Run) []model.TrendBucket {
	acc := make([]bucket, 7)
	for _, r := range runs {
		i := int(s.resolver.StartOfDay(r.StartedAt).Sub(w.Start) / (24 * time.Hour))
		if i >= 0 && i < len(acc) {
			acc[i].add(r)
		}
	}
	return finish(acc, weekdayLabels)
}

// trendMonth has one bucket per Monday-anchored week overlapping the month. A run
// counts toward the week containing it.
func (s *StatsService) trendMonth(w period.Window, runs []*model.Run) ([]model.TrendBucket, error) {
	first, err := s.resolver.Window(period.Weekly, w.Start)
	if err != nil {
		return nil, err
	}

	var labels []string
	for start := first.Start; !start.After(w.End); start = start.Add(7 * 24 * time.Hour) {
		labels = append(labels, fmt.Sprintf("W%d", len(labels)+1))
	}

	acc := make([]bucket, len(labels))
	for _, r := range runs {
		ww, err := s.resolver.Window(period.Weekly, r.StartedAt)
		if err != nil {
			return nil, err
		}
		i := int(ww.Start.Sub(first.Start) / (7 * 24 * time.Hour))
		if i >= 0 && i < len(acc) {
			acc[i].add(r)
		}
	}
	return finish(acc, labels), nil
}

func (s *StatsService) trendYear(runs []*model.Run) []model.TrendBucket {
	acc := make([]bucket, 12)
	labels := make([]string, 12)
	for i := range labels {
		labels[i] = time.Month(i + 1).String()[:3]
	}
	for _, r := range runs {
		acc[s.resolver.Local(r.StartedAt).Month()-1].add(r)
	}
	return finish(acc, labels)
}

type bucket struct {
	distance float64
	seconds  float64
}

func (b *bucket) add(r *model.Run) {
	b.distance += r.DistanceKm
	b.seconds += r.DurationSeconds
}

func finish(acc []bucket, labels []string) []model.TrendBucket {
	out := make([]model.TrendBucket, len(acc))
	for i, b := range acc {
		out[i] = model.TrendBucket{
			Label:    labels[i],
			Distance: round2(b.distance),
			Pace:     round2(paceMinPerKm(b.seconds, b.distance)),
		}
	}
	return out
}

// paceMinPerKm is minutes per km from totals, 0 without distance.
func paceMinPerKm(seconds, km float64) float64 {
	if km <= 0 {
		return 0
	}
	return seconds / 60 / km
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
