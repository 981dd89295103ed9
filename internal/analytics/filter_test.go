package analytics_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/eventpulse/internal/analytics"
	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
)

func TestFilterEligible_Enrollments(t *testing.T) {
	enrollments := []event.Enrollment{
		enrollment(1, event.StatusOk, false, at(1)),
		enrollment(2, event.StatusPending, false, at(1)),
		enrollment(3, event.StatusOk, true, at(1)),
		enrollment(4, event.StatusPending, true, at(1)),
		enrollment(5, "Refused", false, at(1)),
		enrollment(6, "", false, at(1)),
	}

	var diag analytics.Diagnostics
	got := analytics.FilterEligible(enrollments, nil, &diag)

	if len(got.Enrollments) != 2 || got.Enrollments[0].ID != 1 || got.Enrollments[1].ID != 2 {
		t.Fatalf("expected enrollments [1 2], got %+v", got.Enrollments)
	}
	if diag.ExcludedEnrollments[analytics.ReasonCanceled] != 2 {
		t.Errorf("canceled: want 2, got %d", diag.ExcludedEnrollments[analytics.ReasonCanceled])
	}
	if diag.ExcludedEnrollments[analytics.ReasonStatus] != 2 {
		t.Errorf("status: want 2, got %d", diag.ExcludedEnrollments[analytics.ReasonStatus])
	}
}

func TestFilterEligible_Transactions(t *testing.T) {
	enrollments := []event.Enrollment{
		enrollment(1, event.StatusOk, false, at(1)),
		enrollment(2, event.StatusOk, true, at(1)),
	}

	valid := tx(1, 1, event.ScopeBoth, "50", true, at(2))
	orgOnly := tx(2, 1, event.ScopeOrganizationOnly, "5", true, at(2))

	tests := []struct {
		name   string
		tx     event.Transaction
		reason string
	}{
		{"participant only", tx(10, 1, event.ScopeParticipantOnly, "7", true, at(2)), analytics.ReasonScope},
		{"unknown scope", tx(11, 1, "fees", "7", true, at(2)), analytics.ReasonScope},
		{"missing amount", func() event.Transaction { x := tx(12, 1, event.ScopeBoth, "7", true, at(2)); x.Amount = nil; return x }(), analytics.ReasonMissingAmount},
		{"missing credit", func() event.Transaction { x := tx(13, 1, event.ScopeBoth, "7", true, at(2)); x.Credit = nil; return x }(), analytics.ReasonMissingCredit},
		{"missing date", func() event.Transaction { x := tx(14, 1, event.ScopeBoth, "7", true, at(2)); x.Date = nil; return x }(), analytics.ReasonMissingDate},
		{"canceled enrollment", tx(15, 2, event.ScopeBoth, "7", true, at(2)), analytics.ReasonEnrollment},
		{"unknown enrollment", tx(16, 99, event.ScopeBoth, "7", true, at(2)), analytics.ReasonEnrollment},
		{"duplicate id", tx(1, 1, event.ScopeBoth, "7", true, at(2)), analytics.ReasonDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diag analytics.Diagnostics
			got := analytics.FilterEligible(enrollments, []event.Transaction{valid, orgOnly, tt.tx}, &diag)

			if len(got.Transactions) != 2 {
				t.Fatalf("expected only the 2 valid transactions, got %d", len(got.Transactions))
			}
			if diag.ExcludedTransactions[tt.reason] != 1 {
				t.Errorf("expected one exclusion for %q, got %v", tt.reason, diag.ExcludedTransactions)
			}
			rev := analytics.AggregateRevenue(got.Transactions)
			if !rev.Total.Equal(decimal.NewFromInt(55)) {
				t.Errorf("total revenue: want 55, got %s", rev.Total)
			}
		})
	}
}

func TestFilterEligible_NilDiagnostics(t *testing.T) {
	got := analytics.FilterEligible(
		[]event.Enrollment{enrollment(1, "Refused", false, at(1))},
		[]event.Transaction{tx(1, 1, event.ScopeBoth, "1", true, at(1))},
		nil,
	)
	if len(got.Enrollments) != 0 || len(got.Transactions) != 0 {
		t.Errorf("expected nothing eligible, got %+v", got)
	}
}
