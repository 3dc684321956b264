package export

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/templui/feedbackdesk/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxSheet       = "Feedbacks"
	xlsxMaxColWidth = 60
)

var xlsxHeader = []string{
	"ID", "Data", "Aluno", "Operador", "Tipo", "Assunto",
	"Curso", "Turma", "Status", "Descrição", "Anexos (qtd)",
}

// WriteXLSX writes rows as a single-sheet workbook with display labels, a bold
// header and columns sized to their longest value.
func WriteXLSX(w io.Writer, rows []*model.FeedbackRow, loc *time.Location) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	err := f.SetSheetName(f.GetSheetName(0), xlsxSheet)
	if err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	widths := make([]int, len(xlsxHeader))
	track := func(values []any) {
		for i, v := range values {
			s := fmt.Sprint(v)
			if n := utf8.RuneCountInString(s); n > widths[i] {
				widths[i] = n
			}
		}
	}

	header := make([]any, len(xlsxHeader))
	for i, h := range xlsxHeader {
		header[i] = h
	}
	err = f.SetSheetRow(xlsxSheet, "A1", &header)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	track(header)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(xlsxHeader), 1)
	err = f.SetCellStyle(xlsxSheet, "A1", lastHeader, bold)
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, row := range rows {
		values := []any{
			row.ID,
			timestamp(row.CreatedAt, loc),
			row.StudentName,
			model.Deref(row.OperatorName),
			row.TypeLabel(),
			row.SubjectLabel(),
			model.Deref(row.CourseName),
			model.Deref(row.ClassName),
			row.StatusLabel(),
			flatten(row.Description),
			row.AttachmentCount,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		err = f.SetSheetRow(xlsxSheet, cell, &values)
		if err != nil {
			return fmt.Errorf("write row %d: %w", row.ID, err)
		}
		track(values)
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		err = f.SetColWidth(xlsxSheet, col, col, float64(min(width+2, xlsxMaxColWidth)))
		if err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	return f.Write(w)
}
