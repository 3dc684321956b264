package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/templui/feedbackdesk/internal/model"
)

var csvHeader = []string{
	"id", "data", "aluno", "operador", "tipo", "assunto",
	"curso", "turma", "status", "descricao", "anexos_qtd",
}

// WriteCSV writes rows as semicolon separated values. Enumerations stay as raw
// keys and descriptions are flattened and cut to CSVDescMaxRunes.
func WriteCSV(w io.Writer, rows []*model.FeedbackRow, loc *time.Location) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	err := cw.Write(csvHeader)
	if err != nil {
		return err
	}

	for _, row := range rows {
		err = cw.Write([]string{
			strconv.FormatInt(row.ID, 10),
			timestamp(row.CreatedAt, loc),
			row.StudentName,
			model.Deref(row.OperatorName),
			row.Type,
			row.Subject,
			model.Deref(row.CourseName),
			model.Deref(row.ClassName),
			row.Status,
			truncateRunes(flatten(row.Description), CSVDescMaxRunes),
			strconv.Itoa(row.AttachmentCount),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
