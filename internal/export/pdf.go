package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/gyaneshwarpardhi/eventpulse/internal/engine"
)

// BuildReportPDF renders a one-page summary of an event report.
func BuildReportPDF(res *engine.Result) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	r := res.Report
	pdf.Cell(0, 8, tr(res.Event.Name))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	line := func(format string, args ...any) {
		pdf.Cell(0, 6, tr(fmt.Sprintf(format, args...)))
		pdf.Ln(5)
	}
	line("Registrations: %s to %s", res.Event.OpeningDate.Format("2006-01-02"), res.Event.StartDate.Format("2006-01-02"))
	line("Total revenue: %s", r.Revenue.Total.StringFixed(2))
	if r.Revenue.TicketPrice.Valid {
		line("Ticket price: %s", r.Revenue.TicketPrice.Decimal.StringFixed(2))
	}
	line("Enrollments: %d of %d", r.Enrollments.Total, res.Pacing.TargetEnrollments)
	line("Average daily enrollments: %s", r.Enrollments.AverageDaily.StringFixed(2))
	if res.Pacing.IsActive {
		line("Days remaining: %d, daily goal: %s", res.Pacing.DaysRemaining, res.Pacing.DailyGoal.StringFixed(1))
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Days before start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Revenue", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Enrollments", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	revenue, enrollments := r.RevenueTimeline.Points, r.EnrollmentTimeline.Points
	for i := 0; i < max(len(revenue), len(enrollments)); i++ {
		amount, count := "0.00", 0
		if i < len(revenue) {
			amount = revenue[i].Cumulative.StringFixed(2)
		}
		if i < len(enrollments) {
			count = enrollments[i].Cumulative
		}
		pdf.CellFormat(40, 6, fmt.Sprint(i), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, amount, "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprint(count), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
