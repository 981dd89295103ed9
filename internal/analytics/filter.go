package analytics

import "github.com/gyaneshwarpardhi/eventpulse/internal/event"

// Exclusion reasons reported in Diagnostics.
const (
	ReasonStatus        = "status"
	ReasonCanceled      = "canceled"
	ReasonScope         = "scope"
	ReasonMissingAmount = "missing_amount"
	ReasonMissingCredit = "missing_credit"
	ReasonMissingDate   = "missing_date"
	ReasonEnrollment    = "ineligible_enrollment"
	ReasonDuplicate     = "duplicate"
)

// EligibleEnrollment reports whether e counts towards any indicator.
func EligibleEnrollment(e event.Enrollment) bool {
	return enrollmentReason(e) == ""
}

func enrollmentReason(e event.Enrollment) string {
	if e.Status != event.StatusOk && e.Status != event.StatusPending {
		return ReasonStatus
	}
	if e.Canceled {
		return ReasonCanceled
	}
	return ""
}

func transactionReason(t event.Transaction, enrolled map[int64]struct{}) string {
	if t.CountsFor != event.ScopeBoth && t.CountsFor != event.ScopeOrganizationOnly {
		return ReasonScope
	}
	switch {
	case t.Amount == nil:
		return ReasonMissingAmount
	case t.Credit == nil:
		return ReasonMissingCredit
	case t.Date == nil:
		return ReasonMissingDate
	}
	if _, ok := enrolled[t.EnrollmentID]; !ok {
		return ReasonEnrollment
	}
	return ""
}

// Eligible is the output of the validity filter.
type Eligible struct {
	Enrollments  []event.Enrollment
	Transactions []event.Transaction
}

// FilterEligible selects the enrollments and transactions that indicators are
// computed from. Excluded records are counted per reason in diag, never defaulted.
func FilterEligible(enrollments []event.Enrollment, transactions []event.Transaction, diag *Diagnostics) Eligible {
	var out Eligible
	enrolled := make(map[int64]struct{}, len(enrollments))
	for _, e := range enrollments {
		if r := enrollmentReason(e); r != "" {
			diag.excludeEnrollment(r)
			continue
		}
		if _, dup := enrolled[e.ID]; dup {
			diag.excludeEnrollment(ReasonDuplicate)
			continue
		}
		enrolled[e.ID] = struct{}{}
		out.Enrollments = append(out.Enrollments, e)
	}

	seen := make(map[int64]struct{}, len(transactions))
	for _, t := range transactions {
		if r := transactionReason(t, enrolled); r != "" {
			diag.excludeTransaction(r)
			continue
		}
		if _, dup := seen[t.ID]; dup {
			diag.excludeTransaction(ReasonDuplicate)
			continue
		}
		seen[t.ID] = struct{}{}
		out.Transactions = append(out.Transactions, t)
	}
	return out
}
