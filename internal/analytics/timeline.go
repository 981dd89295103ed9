package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
)

const day = 24 * time.Hour

// LeadDays returns floor((start - ts) / 24h). Negative values mean ts is after start.
func LeadDays(start, ts time.Time) int {
	d := start.Sub(ts)
	days := int(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}

// SpanDays is the number of whole days registrations were open before the
// event started; 0 when the opening date is not before the start date.
func SpanDays(ev event.Event) int {
	if n := LeadDays(ev.StartDate, ev.OpeningDate); n > 0 {
		return n
	}
	return 0
}

// RevenuePoint is one day of the revenue series.
type RevenuePoint struct {
	LeadDays   int             `json:"lead_days"`
	DailyNet   decimal.Decimal `json:"daily_net"`
	Cumulative decimal.Decimal `json:"cumulative_from_event_start"`
}

// RevenuePostStart aggregates transactions dated after the event start.
type RevenuePostStart struct {
	Count int             `json:"count"`
	Net   decimal.Decimal `json:"net"`
}

// RevenueTimeline is the reverse-cumulative revenue series.
type RevenueTimeline struct {
	Points    []RevenuePoint   `json:"points"`
	PostStart RevenuePostStart `json:"post_start"`
}

// EnrollmentPoint is one day of the enrollment series.
type EnrollmentPoint struct {
	LeadDays   int `json:"lead_days"`
	DailyCount int `json:"daily_count"`
	Cumulative int `json:"cumulative_from_event_start"`
}

// EnrollmentTimeline is the reverse-cumulative enrollment series.
type EnrollmentTimeline struct {
	Points         []EnrollmentPoint `json:"points"`
	PostStartCount int               `json:"post_start_count"`
}

// BuildRevenueTimeline buckets eligible transactions by lead time. Point d
// carries the net of day d and the total collected by d days before the start.
// Post-start transactions are kept out of the series and reported separately.
func BuildRevenueTimeline(ev event.Event, txs []event.Transaction, diag *Diagnostics) RevenueTimeline {
	tl := RevenueTimeline{PostStart: RevenuePostStart{Net: decimal.Zero}}
	perDay := make(map[int]decimal.Decimal)
	maxDay := -1
	for _, t := range txs {
		amount := signedAmount(t)
		d := LeadDays(ev.StartDate, *t.Date)
		if d < 0 {
			tl.PostStart.Count++
			tl.PostStart.Net = tl.PostStart.Net.Add(amount)
			continue
		}
		perDay[d] = perDay[d].Add(amount)
		maxDay = max(maxDay, d)
	}
	if diag != nil {
		diag.PostStartTransactions = tl.PostStart.Count
	}
	if len(txs) == 0 {
		return tl
	}

	daily, cum := accumulate(perDay, max(maxDay, SpanDays(ev)), decimal.Zero, decimal.Decimal.Add)
	tl.Points = make([]RevenuePoint, len(daily))
	for d := range daily {
		tl.Points[d] = RevenuePoint{LeadDays: d, DailyNet: daily[d], Cumulative: cum[d]}
	}
	return tl
}

// BuildEnrollmentTimeline is BuildRevenueTimeline for enrollment counts,
// keyed on the enrollment creation time.
func BuildEnrollmentTimeline(ev event.Event, enrollments []event.Enrollment, diag *Diagnostics) EnrollmentTimeline {
	var tl EnrollmentTimeline
	perDay := make(map[int]int)
	maxDay := -1
	for _, e := range enrollments {
		d := LeadDays(ev.StartDate, e.CreatedAt)
		if d < 0 {
			tl.PostStartCount++
			continue
		}
		perDay[d]++
		maxDay = max(maxDay, d)
	}
	if diag != nil {
		diag.PostStartEnrollments = tl.PostStartCount
	}
	if len(enrollments) == 0 {
		return tl
	}

	daily, cum := accumulate(perDay, max(maxDay, SpanDays(ev)), 0, func(a, b int) int { return a + b })
	tl.Points = make([]EnrollmentPoint, len(daily))
	for d := range daily {
		tl.Points[d] = EnrollmentPoint{LeadDays: d, DailyCount: daily[d], Cumulative: cum[d]}
	}
	return tl
}

// accumulate expands perDay onto 0..maxDay and sums it from the far end of
// the registration window towards the event: cum[d] = sum(perDay[d'] for d' >= d).
func accumulate[T any](perDay map[int]T, maxDay int, zero T, add func(T, T) T) (daily, cum []T) {
	daily = make([]T, maxDay+1)
	cum = make([]T, maxDay+1)
	running := zero
	for d := maxDay; d >= 0; d-- {
		v, ok := perDay[d]
		if !ok {
			v = zero
		}
		daily[d] = v
		running = add(running, v)
		cum[d] = running
	}
	return daily, cum
}
