package docquiz

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// ResultsPDF renders a session's results as a one-page PDF report.
func ResultsPDF(r Results, date time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, tr("Quiz-Auswertung"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, tr("Dokument: "+r.Source), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8,
		fmt.Sprintf("Ergebnis: %d/%d (%.0f%%) | Datum: %s", r.Score, r.Total, pct(r.Score, r.Total), date.Format("2006-01-02")),
		"", 1, "C", false, 0, "")
	if r.Answered < r.Total {
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("%d von %d Fragen beantwortet", r.Answered, r.Total)), "", 1, "C", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(80, 7, "Kategorie", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Richtig", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 7, "Gesamt", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 7, "Prozent", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range r.PerCategory {
		pdf.CellFormat(80, 7, tr(row.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", row.Correct), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", row.Total), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.0f%%", pct(row.Correct, row.Total)), "1", 1, "C", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 6, "Quiz-ID: "+r.QuizID, "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	return buf.Bytes(), err
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
