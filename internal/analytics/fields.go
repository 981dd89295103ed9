package analytics

import (
	"fmt"

	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
)

// Undefined is the answer bucket for enrollments that left a field blank.
const Undefined = "undefined"

// Fields with fewer categories carry no signal; fields with more are
// treated as free text.
const (
	MinCategories = 2
	MaxCategories = 20
)

// FieldDistribution is the answer frequency table of one dynamic field.
type FieldDistribution struct {
	FieldID int64          `json:"field_id"`
	Label   string         `json:"label"`
	Counts  map[string]int `json:"counts"`
}

// FieldReport lists every catalog label and the distributions worth charting.
type FieldReport struct {
	Labels        []string            `json:"labels"`
	Distributions []FieldDistribution `json:"distributions"`
}

// ByLabel returns the distributions keyed by field label. When several fields
// share a label, the first keeps it and the others are keyed "label (field id)".
func (r FieldReport) ByLabel() map[string]map[string]int {
	out := make(map[string]map[string]int, len(r.Distributions))
	for _, d := range r.Distributions {
		key := d.Label
		if _, taken := out[key]; taken {
			key = fmt.Sprintf("%s (%d)", d.Label, d.FieldID)
		}
		out[key] = d.Counts
	}
	return out
}

// AnalyzeFields tallies the answers of eligible enrollments per catalog field.
// Answers to fields outside the catalog are dropped and counted in diag,
// together with those already dropped when the enrollment was decoded.
func AnalyzeFields(catalog event.Catalog, eligible []event.Enrollment, diag *Diagnostics) FieldReport {
	report := FieldReport{
		Labels:        make([]string, 0, catalog.Len()),
		Distributions: []FieldDistribution{},
	}
	if diag != nil {
		for _, e := range eligible {
			diag.DroppedAnswers += e.DroppedAnswers
		}
	}
	if catalog.Len() == 0 {
		return report
	}

	tallies := make(map[int64]map[string]int, catalog.Len())
	for _, id := range catalog.IDs() {
		tallies[id] = make(map[string]int)
	}
	for _, e := range eligible {
		answers, dropped := e.Answers.Restrict(catalog)
		if diag != nil {
			diag.DroppedAnswers += dropped
		}
		for _, id := range catalog.IDs() {
			v, ok := answers[id]
			if !ok || v == "" {
				v = Undefined
			}
			tallies[id][v]++
		}
	}

	for _, id := range catalog.IDs() {
		label := catalog.Label(id)
		report.Labels = append(report.Labels, label)
		counts := tallies[id]
		if n := len(counts); n < MinCategories || n > MaxCategories {
			continue
		}
		report.Distributions = append(report.Distributions, FieldDistribution{
			FieldID: id,
			Label:   label,
			Counts:  counts,
		})
	}
	return report
}
