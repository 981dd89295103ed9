package analytics

// Diagnostics records the data-quality conditions met while computing a
// report. None of them is an error; callers decide what to log.
type Diagnostics struct {
	ExcludedEnrollments  map[string]int `json:"excluded_enrollments,omitempty"`
	ExcludedTransactions map[string]int `json:"excluded_transactions,omitempty"`

	// Answers of eligible enrollments whose field id is not in the event catalog.
	DroppedAnswers int `json:"dropped_answers,omitempty"`

	// Eligible transactions/enrollments dated after the event start.
	PostStartTransactions int `json:"post_start_transactions,omitempty"`
	PostStartEnrollments  int `json:"post_start_enrollments,omitempty"`

	// Opening date at or after start date; daily average used a 1-day span.
	InvalidDateRange bool `json:"invalid_date_range,omitempty"`
	NoTransactions   bool `json:"no_transactions,omitempty"`
	NoEnrollments    bool `json:"no_enrollments,omitempty"`
}

func (d *Diagnostics) excludeEnrollment(reason string) {
	if d == nil {
		return
	}
	if d.ExcludedEnrollments == nil {
		d.ExcludedEnrollments = make(map[string]int)
	}
	d.ExcludedEnrollments[reason]++
}

func (d *Diagnostics) excludeTransaction(reason string) {
	if d == nil {
		return
	}
	if d.ExcludedTransactions == nil {
		d.ExcludedTransactions = make(map[string]int)
	}
	d.ExcludedTransactions[reason]++
}

// Excluded returns the total number of records left out of every indicator.
func (d Diagnostics) Excluded() (enrollments, transactions int) {
	for _, n := range d.ExcludedEnrollments {
		enrollments += n
	}
	for _, n := range d.ExcludedTransactions {
		transactions += n
	}
	return enrollments, transactions
}
