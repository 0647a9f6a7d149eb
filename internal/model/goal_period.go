package model

import (
	"time"

	"github.com/templui/pacekeeper/internal/period"
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusPending   = "pending"
)

// GoalPeriod is the goal record for one user, interval and window. TotalDistance is
// the target in kilometres.
type GoalPeriod struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"userId"`
	Name          string          `db:"name" json:"name"`
	Interval      period.Interval `db:"interval_kind" json:"interval"`
	StartDate     time.Time       `db:"start_date" json:"startDate"`
	EndDate       time.Time       `db:"end_date" json:"endDate"`
	Status        string          `db:"status" json:"status"`
	TotalDistance float64         `db:"total_distance" json:"totalDistance"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

func (g *GoalPeriod) IsActive() bool {
	return g.Status == GoalStatusActive
}

func (g *GoalPeriod) Window() period.Window {
	return period.Window{Start: g.StartDate, End: g.EndDate}
}

// NormalizeTimes puts every timestamp in UTC. Drivers hand back whatever location
// the column was decoded with.
func (g *GoalPeriod) NormalizeTimes() {
	g.StartDate = g.StartDate.UTC()
	g.EndDate = g.EndDate.UTC()
	g.CreatedAt = g.CreatedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()
}

// DefaultGoalName is the label given to a goal period nobody named.
func DefaultGoalName(iv period.Interval) string {
	switch iv {
	case period.Daily:
		return "Daily running goal"
	case period.Weekly:
		return "Weekly running goal"
	case period.Monthly:
		return "Monthly running goal"
	}
	return "Running goal"
}
