// Package report renders race summaries as PDF documents.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/padraicbc/racelog/models"
	"github.com/padraicbc/racelog/stats"
)

// Report is the input to Write.
type Report struct {
	Owner     string
	StartDate string
	EndDate   string
	Generated time.Time
	Summary   *stats.Summary
}

type column struct {
	title string
	width float64
	align string
	value func(r *models.Race) string
}

var columns = []column{
	{"Date", 22, "L", func(r *models.Race) string { return r.Date }},
	{"Time", 14, "C", func(r *models.Race) string { return r.Time }},
	{"Name", 62, "L", func(r *models.Race) string { return truncate(r.Name, 38) }},
	{"Distance", 20, "R", func(r *models.Race) string { return fmt.Sprintf("%.2f km", r.Distance) }},
	{"Price", 20, "R", func(r *models.Race) string { return fmt.Sprintf("%.2f", r.Price) }},
	{"Status", 28, "L", func(r *models.Race) string { return statusLabel(r.Status) }},
	{"Finish", 24, "C", func(r *models.Race) string { return r.CompletionTime }},
}

// Write renders rep as an A4 PDF into w.
func Write(w io.Writer, rep Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Race report", true)
	pdf.SetCreator("racelog", true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Race report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if rep.Owner != "" {
		pdf.CellFormat(0, 6, tr(rep.Owner), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s to %s", rep.StartDate, rep.EndDate), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated: "+rep.Generated.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	sum := rep.Summary
	if sum == nil {
		sum = &stats.Summary{Totals: stats.Summarize(nil)}
	}
	writeTotals(pdf, sum.Totals)
	pdf.Ln(4)

	writeHeader(pdf)
	pdf.SetFont("Helvetica", "", 9)
	for i := range sum.Races {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			writeHeader(pdf)
			pdf.SetFont("Helvetica", "", 9)
		}
		r := &sum.Races[i]
		for _, col := range columns {
			pdf.CellFormat(col.width, 6, tr(col.value(r)), "B", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(sum.Races) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 8, "No races in this period.", "", 1, "L", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return pdf.Output(w)
}

func writeTotals(pdf *gofpdf.Fpdf, t stats.Totals) {
	rows := [][2]string{
		{"Total races", fmt.Sprintf("%d", t.TotalRaces)},
		{"Total cost", fmt.Sprintf("%.2f", t.TotalCost)},
		{"Total distance", fmt.Sprintf("%.1f km", t.TotalDistance)},
		{"Value lost", fmt.Sprintf("%.2f", t.ValueLost)},
	}
	for _, s := range models.AllStatuses {
		rows = append(rows, [2]string{statusLabel(s), fmt.Sprintf("%d", t.StatusCounts[s])})
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(45, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, row[1], "", 1, "R", false, 0, "")
	}
}

func writeHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range columns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)
}

func statusLabel(s models.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
