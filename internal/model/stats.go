package model

import (
	"time"

	"github.com/templui/pacekeeper/internal/period"
)

type TrendBucket struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
	Pace     float64 `json:"pace"`
}

type PersonalBests struct {
	Longest    float64 `json:"longest"`
	Fastest    float64 `json:"fastest"`
	BestWeek   float64 `json:"bestWeek"`
	StreakDays int     `json:"streak"`
}

// PlanProgress is an active goal period with the distance run inside it so far.
type PlanProgress struct {
	ID        string          `json:"id"`
	Interval  period.Interval `json:"interval"`
	Name      string          `json:"name"`
	Target    float64         `json:"target"`
	Achieved  float64         `json:"achieved"`
	StartDate time.Time       `json:"startDate"`
	EndDate   time.Time       `json:"endDate"`
}

type Overview struct {
	Period           string    `json:"period"`
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
	TotalDistance    float64   `json:"totalDistance"`
	TotalRuns        int       `json:"totalRuns"`
	TotalTimeElapsed string    `json:"totalTimeElapsed"`
}

type Dashboard struct {
	Range         string          `json:"range"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	Distance      float64         `json:"distance"`
	Runs          int             `json:"runs"`
	Time          float64         `json:"time"`
	Pace          float64         `json:"pace"`
	LastUpdatedAt *time.Time      `json:"lastUpdatedAt"`
	PersonalBests PersonalBests   `json:"personalBests"`
	PlanTarget    float64         `json:"planTarget"`
	PlanProgress  float64         `json:"planProgress"`
	PlanInterval  period.Interval `json:"planInterval,omitempty"`
	Plans         []PlanProgress  `json:"plans"`
	Trend         []TrendBucket   `json:"trend"`
}
