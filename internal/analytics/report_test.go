package analytics_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/eventpulse/internal/analytics"
	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
)

var d0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func at(days int) time.Time { return d0.Add(time.Duration(days) * 24 * time.Hour) }

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func flag(b bool) *bool { return &b }

func ts(t time.Time) *time.Time { return &t }

func testEvent() event.Event {
	return event.Event{ID: 7, Name: "Retreat", OpeningDate: d0, StartDate: at(10), TargetEnrollments: 50}
}

func enrollment(id int64, status event.EnrollmentStatus, canceled bool, created time.Time) event.Enrollment {
	return event.Enrollment{ID: id, EventID: 7, Status: status, Canceled: canceled, CreatedAt: created}
}

func tx(id, enrollmentID int64, scope event.Scope, amt string, credit bool, when time.Time) event.Transaction {
	return event.Transaction{
		ID:           id,
		EnrollmentID: enrollmentID,
		CountsFor:    scope,
		Amount:       amount(amt),
		Credit:       flag(credit),
		Date:         ts(when),
	}
}

func TestCompute_EndToEnd(t *testing.T) {
	ds := event.Dataset{
		Event: testEvent(),
		Enrollments: []event.Enrollment{
			enrollment(1, event.StatusOk, false, at(1)),
			enrollment(2, event.StatusOk, false, at(5)),
		},
		Transactions: []event.Transaction{
			tx(10, 1, event.ScopeBoth, "100", true, at(2)),
			tx(11, 1, event.ScopeBoth, "20", false, at(3)),
		},
	}

	r := analytics.Compute(ds)

	if !r.Revenue.Total.Equal(decimal.NewFromInt(80)) {
		t.Errorf("total revenue: want 80, got %s", r.Revenue.Total)
	}
	if !r.Revenue.TicketPrice.Valid || !r.Revenue.TicketPrice.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("ticket price: want 100, got %+v", r.Revenue.TicketPrice)
	}
	if r.Enrollments.Total != 2 {
		t.Errorf("total enrollments: want 2, got %d", r.Enrollments.Total)
	}
	if !r.Enrollments.AverageDaily.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("avg daily enrollments: want 0.2, got %s", r.Enrollments.AverageDaily)
	}
	if got := len(r.RevenueTimeline.Points); got != 11 {
		t.Fatalf("revenue timeline: want 11 points, got %d", got)
	}
	if !r.RevenueTimeline.Points[0].Cumulative.Equal(r.Revenue.Total) {
		t.Errorf("cumulative at day 0 should equal total revenue, got %s", r.RevenueTimeline.Points[0].Cumulative)
	}
	if r.EnrollmentTimeline.Points[0].Cumulative != 2 {
		t.Errorf("enrollment cumulative at day 0: want 2, got %d", r.EnrollmentTimeline.Points[0].Cumulative)
	}
	if r.Diagnostics.NoTransactions || r.Diagnostics.NoEnrollments {
		t.Errorf("unexpected no-data flags: %+v", r.Diagnostics)
	}
}

func TestCompute_NoEligibleData(t *testing.T) {
	ds := event.Dataset{
		Event: testEvent(),
		Enrollments: []event.Enrollment{
			enrollment(1, "Refused", false, at(1)),
		},
		Transactions: []event.Transaction{
			tx(10, 1, event.ScopeBoth, "100", true, at(2)),
		},
	}

	r := analytics.Compute(ds)

	if !r.Revenue.Total.IsZero() {
		t.Errorf("total revenue: want 0, got %s", r.Revenue.Total)
	}
	if r.Revenue.TicketPrice.Valid {
		t.Errorf("ticket price should be undefined, got %s", r.Revenue.TicketPrice.Decimal)
	}
	if r.Enrollments.Total != 0 || !r.Enrollments.AverageDaily.IsZero() {
		t.Errorf("enrollments: want zero, got %+v", r.Enrollments)
	}
	if len(r.RevenueTimeline.Points) != 0 || len(r.EnrollmentTimeline.Points) != 0 {
		t.Errorf("timelines should be empty")
	}
	if !r.Diagnostics.NoTransactions || !r.Diagnostics.NoEnrollments {
		t.Errorf("expected no-data flags, got %+v", r.Diagnostics)
	}
	if r.Diagnostics.ExcludedTransactions[analytics.ReasonEnrollment] != 1 {
		t.Errorf("expected transaction excluded by enrollment, got %v", r.Diagnostics.ExcludedTransactions)
	}
}
