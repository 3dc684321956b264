package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/templui/feedbackdesk/internal/model"
	"github.com/templui/feedbackdesk/internal/report"
)

// MonthReport is the input of the PDF sink. Summary covers the whole month
// without filters and Rows are the most recent records overall.
type MonthReport struct {
	Month   string
	Summary report.Summary
	Rows    []*model.FeedbackRow
}

const (
	pdfMargin    = 24.0
	pdfRowHeight = 14.0
	pdfFontSize  = 8.0
)

var (
	pdfHeaderFill = [3]int{211, 211, 211}
	pdfStripeFill = [3]int{245, 245, 245}
)

type pdfColumn struct {
	title string
	width float64
	value func(row *model.FeedbackRow, loc *time.Location) string
}

// Widths add up to the A4 printable width with pdfMargin on both sides.
var pdfColumns = []pdfColumn{
	{"ID", 30, func(r *model.FeedbackRow, _ *time.Location) string { return strconv.FormatInt(r.ID, 10) }},
	{"Data", 70, func(r *model.FeedbackRow, loc *time.Location) string { return timestamp(r.CreatedAt, loc) }},
	{"Aluno", 110, func(r *model.FeedbackRow, _ *time.Location) string { return r.StudentName }},
	{"Tipo", 60, func(r *model.FeedbackRow, _ *time.Location) string { return r.TypeLabel() }},
	{"Assunto", 65, func(r *model.FeedbackRow, _ *time.Location) string { return r.SubjectLabel() }},
	{"Curso", 82, func(r *model.FeedbackRow, _ *time.Location) string { return model.Deref(r.CourseName) }},
	{"Turma", 60, func(r *model.FeedbackRow, _ *time.Location) string { return model.Deref(r.ClassName) }},
	{"Status", 70, func(r *model.FeedbackRow, _ *time.Location) string { return r.StatusLabel() }},
}

// WritePDF renders the monthly report: title, summary table and the detail table.
// The detail header repeats on every page.
func WritePDF(w io.Writer, rep MonthReport, loc *time.Location) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle("Relatório de Feedbacks "+rep.Month, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 24, tr("Relatório de Feedbacks"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 16, tr("Mês: "+rep.Month), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	summaryRows := [][2]string{
		{"Total", strconv.Itoa(rep.Summary.Total)},
		{"Elogios", strconv.Itoa(rep.Summary.Praise)},
		{"Reclamações", strconv.Itoa(rep.Summary.Complaints)},
		{"Sugestões", strconv.Itoa(rep.Summary.Suggestions)},
		{"Resolvidos", strconv.Itoa(rep.Summary.Resolved)},
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(pdfHeaderFill[0], pdfHeaderFill[1], pdfHeaderFill[2])
	pdf.CellFormat(220, 16, tr("Métrica"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(120, 16, tr("Valor"), "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, r := range summaryRows {
		pdf.CellFormat(220, 16, tr(r[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(120, 16, r[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 18, tr(fmt.Sprintf("Detalhes (últimos %d)", PDFDetailLimit)), "", 1, "L", false, 0, "")

	header := func() {
		pdf.SetFont("Helvetica", "B", pdfFontSize)
		pdf.SetFillColor(pdfHeaderFill[0], pdfHeaderFill[1], pdfHeaderFill[2])
		for _, col := range pdfColumns {
			pdf.CellFormat(col.width, pdfRowHeight, tr(col.title), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", pdfFontSize)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	for i, row := range rep.Rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-pdfMargin {
			pdf.AddPage()
			header()
		}
		fill := i%2 == 1
		if fill {
			pdf.SetFillColor(pdfStripeFill[0], pdfStripeFill[1], pdfStripeFill[2])
		}
		for _, col := range pdfColumns {
			text := fitWidth(pdf, tr(col.value(row, loc)), col.width-4)
			pdf.CellFormat(col.width, pdfRowHeight, text, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	err := pdf.Output(w)
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// fitWidth shortens text until it fits in width points, marking the cut with
// a period. text is already in the single-byte PDF encoding.
func fitWidth(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+".") > width {
		text = text[:len(text)-1]
	}
	return text + "."
}
