package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
)

// Enrollments holds the headcount indicators of an event.
type Enrollments struct {
	Total        int             `json:"total_enrollments"`
	AverageDaily decimal.Decimal `json:"avg_daily_enrollments"`

	// SpanDays is the denominator used for AverageDaily (at least 1).
	SpanDays int `json:"span_days"`
}

// AggregateEnrollments counts eligible enrollments and spreads them over the
// registration window. A window of zero or negative length counts as one day.
func AggregateEnrollments(ev event.Event, eligible []event.Enrollment, diag *Diagnostics) Enrollments {
	span := SpanDays(ev)
	if !ev.OpeningDate.Before(ev.StartDate) && diag != nil {
		diag.InvalidDateRange = true
	}
	span = max(1, span)

	total := len(eligible)
	avg := decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(int64(span))).Round(2)
	return Enrollments{Total: total, AverageDaily: avg, SpanDays: span}
}
