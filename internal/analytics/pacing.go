package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
)

// Pacing compares enrollment progress against the event's target as of a
// given instant.
type Pacing struct {
	AsOf              time.Time       `json:"as_of"`
	IsActive          bool            `json:"is_active"`
	DaysRemaining     int             `json:"days_remaining"`
	TargetEnrollments int             `json:"target_enrollments"`
	DailyGoal         decimal.Decimal `json:"daily_enrollments_goal"`
}

// ComputePacing derives how many enrollments per day are still needed to
// reach the target. The goal is zero once the event has started or the
// target is met.
func ComputePacing(ev event.Event, total int, now time.Time) Pacing {
	p := Pacing{
		AsOf:              now,
		IsActive:          now.Before(ev.StartDate),
		DaysRemaining:     max(0, LeadDays(ev.StartDate, now)),
		TargetEnrollments: ev.TargetEnrollments,
		DailyGoal:         decimal.Zero,
	}
	if !p.IsActive || p.DaysRemaining == 0 {
		return p
	}
	needed := max(0, ev.TargetEnrollments-total)
	p.DailyGoal = decimal.NewFromInt(int64(needed)).Div(decimal.NewFromInt(int64(p.DaysRemaining))).Round(1)
	return p
}
