package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/eventpulse/internal/analytics"
	"github.com/gyaneshwarpardhi/eventpulse/internal/engine"
	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
)

type eventSummary struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	OpeningDate       time.Time `json:"opening_date"`
	StartDate         time.Time `json:"start_date"`
	TargetEnrollments int       `json:"target_enrollments"`
}

func newEventSummary(ev event.Event) eventSummary {
	return eventSummary{
		ID:                ev.ID,
		Name:              ev.Name,
		OpeningDate:       ev.OpeningDate,
		StartDate:         ev.StartDate,
		TargetEnrollments: ev.TargetEnrollments,
	}
}

// eventDetails flattens an engine result into the dashboard payload.
type eventDetails struct {
	Event eventSummary `json:"event"`

	TotalRevenue decimal.Decimal     `json:"total_revenue"`
	TicketPrice  decimal.NullDecimal `json:"ticket_price"`

	TotalEnrollments    int             `json:"total_enrollments"`
	AvgDailyEnrollments decimal.Decimal `json:"avg_daily_enrollments"`

	RevenueTimeline    analytics.RevenueTimeline    `json:"revenue_timeline"`
	EnrollmentTimeline analytics.EnrollmentTimeline `json:"enrollment_timeline"`

	DynamicFieldLabels        []string                  `json:"dynamic_field_labels"`
	DynamicFieldDistributions map[string]map[string]int `json:"dynamic_field_distributions"`

	Pacing      analytics.Pacing      `json:"pacing"`
	Diagnostics analytics.Diagnostics `json:"diagnostics"`

	SnapshotLoadedAt time.Time `json:"snapshot_loaded_at"`
	DurationMs       int64     `json:"duration_ms"`
}

func newEventDetails(res *engine.Result) eventDetails {
	r := res.Report
	return eventDetails{
		Event:                     newEventSummary(res.Event),
		TotalRevenue:              r.Revenue.Total,
		TicketPrice:               r.Revenue.TicketPrice,
		TotalEnrollments:          r.Enrollments.Total,
		AvgDailyEnrollments:       r.Enrollments.AverageDaily,
		RevenueTimeline:           r.RevenueTimeline,
		EnrollmentTimeline:        r.EnrollmentTimeline,
		DynamicFieldLabels:        r.Fields.Labels,
		DynamicFieldDistributions: r.Fields.ByLabel(),
		Pacing:                    res.Pacing,
		Diagnostics:               r.Diagnostics,
		SnapshotLoadedAt:          res.SnapshotLoadedAt,
		DurationMs:                res.DurationMs,
	}
}
