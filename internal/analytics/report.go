// Package analytics turns the raw records of one event into indicators.
//
// Everything here is a pure function of its inputs: no I/O, no clocks, no
// shared state. Records that cannot be trusted are left out and counted in
// Diagnostics instead of failing the computation.
package analytics

import (
	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
)

// Report holds every indicator computed for an event.
type Report struct {
	EventID            int64              `json:"event_id"`
	Revenue            Revenue            `json:"revenue"`
	RevenueTimeline    RevenueTimeline    `json:"revenue_timeline"`
	Enrollments        Enrollments        `json:"enrollments"`
	EnrollmentTimeline EnrollmentTimeline `json:"enrollment_timeline"`
	Fields             FieldReport        `json:"field_distributions"`
	Diagnostics        Diagnostics        `json:"diagnostics"`
}

// Compute runs the full pipeline over ds.
func Compute(ds event.Dataset) Report {
	r := Report{EventID: ds.Event.ID}
	diag := &r.Diagnostics

	eligible := FilterEligible(ds.Enrollments, ds.Transactions, diag)
	diag.NoTransactions = len(eligible.Transactions) == 0
	diag.NoEnrollments = len(eligible.Enrollments) == 0

	r.Revenue = AggregateRevenue(eligible.Transactions)
	r.RevenueTimeline = BuildRevenueTimeline(ds.Event, eligible.Transactions, diag)
	r.Enrollments = AggregateEnrollments(ds.Event, eligible.Enrollments, diag)
	r.EnrollmentTimeline = BuildEnrollmentTimeline(ds.Event, eligible.Enrollments, diag)
	r.Fields = AnalyzeFields(event.NewCatalog(ds.Fields), eligible.Enrollments, diag)
	return r
}
