// Package export renders computed event reports as downloadable documents.
package export

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/gyaneshwarpardhi/eventpulse/internal/engine"
)

// Workbook sheet names.
const (
	SummarySheet    = "summary"
	RevenueSheet    = "revenue_timeline"
	EnrollmentSheet = "enrollment_timeline"
	FieldsSheet     = "fields"
)

// BuildReportXLSX renders one event report as a workbook with a sheet per
// indicator group.
func BuildReportXLSX(res *engine.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	for _, name := range []string{RevenueSheet, EnrollmentSheet, FieldsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	w := &sheetWriter{f: f}
	writeSummary(w, res)
	writeRevenue(w, res)
	writeEnrollments(w, res)
	writeFields(w, res)
	if w.err != nil {
		return nil, w.err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetWriter keeps the first error so rows can be written without checks.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) row(sheet string, n int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("sheet %s row %d: %w", sheet, n, err)
	}
}

func num(d decimal.Decimal) float64 { return d.InexactFloat64() }

func writeSummary(w *sheetWriter, res *engine.Result) {
	r := res.Report
	var ticket any = ""
	if r.Revenue.TicketPrice.Valid {
		ticket = num(r.Revenue.TicketPrice.Decimal)
	}
	rows := [][]any{
		{"Event", res.Event.Name},
		{"Event ID", res.Event.ID},
		{"Opening date", res.Event.OpeningDate.Format("2006-01-02")},
		{"Start date", res.Event.StartDate.Format("2006-01-02")},
		{"Total revenue", num(r.Revenue.Total)},
		{"Ticket price", ticket},
		{"Total enrollments", r.Enrollments.Total},
		{"Average daily enrollments", num(r.Enrollments.AverageDaily)},
		{"Target enrollments", res.Pacing.TargetEnrollments},
		{"Days remaining", res.Pacing.DaysRemaining},
		{"Daily enrollments goal", num(res.Pacing.DailyGoal)},
		{"Data loaded at", res.SnapshotLoadedAt.UTC().Format("2006-01-02 15:04:05")},
	}
	for i, v := range rows {
		w.row(SummarySheet, i+1, v...)
	}
}

func writeRevenue(w *sheetWriter, res *engine.Result) {
	w.row(RevenueSheet, 1, "Days before start", "Daily net", "Cumulative")
	for i, p := range res.Report.RevenueTimeline.Points {
		w.row(RevenueSheet, i+2, p.LeadDays, num(p.DailyNet), num(p.Cumulative))
	}
}

func writeEnrollments(w *sheetWriter, res *engine.Result) {
	w.row(EnrollmentSheet, 1, "Days before start", "Daily count", "Cumulative")
	for i, p := range res.Report.EnrollmentTimeline.Points {
		w.row(EnrollmentSheet, i+2, p.LeadDays, p.DailyCount, p.Cumulative)
	}
}

// writeFields lists one row per answer, most frequent first.
func writeFields(w *sheetWriter, res *engine.Result) {
	w.row(FieldsSheet, 1, "Field", "Answer", "Count")
	n := 2
	for _, d := range res.Report.Fields.Distributions {
		for _, a := range sortedAnswers(d.Counts) {
			w.row(FieldsSheet, n, d.Label, a, d.Counts[a])
			n++
		}
	}
}

func sortedAnswers(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
