package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/comtw/admscrape/internal/model"
)

// SummaryField names an AdmissionSummary field read from a summary table.
type SummaryField int

const (
	FieldWeight SummaryField = iota + 1
	// FieldGradeAndOrder holds the general grade and, after the first space,
	// the tie-break order.
	FieldGradeAndOrder
	FieldGeneral
	FieldNative
	FieldVeteran
	FieldOversea
)

// LastCell addresses the last cell of a row.
const LastCell = -1

// SummaryCell maps the cell at (Row, Cell) to a field. Row counts every row
// of the table, including header rows.
type SummaryCell struct {
	Row   int
	Cell  int
	Field SummaryField
}

// SummaryLayout is the positional contract of one summary table shape.
// The upstream tables carry no usable labels, so fields are addressed by
// row and cell index only.
type SummaryLayout struct {
	// ExactCells, when non-zero, ignores rows with a different cell count.
	ExactCells int
	Cells      []SummaryCell
}

// ExamSummaryLayout reads the exam placement summary.
var ExamSummaryLayout = SummaryLayout{
	Cells: []SummaryCell{
		{Row: 1, Cell: LastCell, Field: FieldWeight},
		{Row: 2, Cell: LastCell, Field: FieldGradeAndOrder},
		{Row: 3, Cell: LastCell, Field: FieldNative},
		{Row: 4, Cell: LastCell, Field: FieldVeteran},
		{Row: 5, Cell: LastCell, Field: FieldOversea},
	},
}

// TechregSummaryLayout reads the vocational placement summary.
var TechregSummaryLayout = SummaryLayout{
	ExactCells: 4,
	Cells: []SummaryCell{
		{Row: 1, Cell: 1, Field: FieldGeneral},
		{Row: 2, Cell: 1, Field: FieldNative},
		{Row: 3, Cell: 1, Field: FieldVeteran},
		{Row: 4, Cell: 1, Field: FieldOversea},
	},
}

// Read extracts the summary from table. Missing rows or cells leave their
// fields empty.
func (l SummaryLayout) Read(table *goquery.Selection) model.AdmissionSummary {
	var summary model.AdmissionSummary
	tableRows(table).Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		n := cells.Length()
		if l.ExactCells > 0 && n != l.ExactCells {
			return
		}
		for _, c := range l.Cells {
			if c.Row != i {
				continue
			}
			idx := c.Cell
			if idx == LastCell {
				idx = n - 1
			}
			if idx < 0 || idx >= n {
				continue
			}
			setField(&summary, c.Field, cellText(cells, idx))
		}
	})
	return summary
}

func setField(s *model.AdmissionSummary, field SummaryField, value string) {
	switch field {
	case FieldWeight:
		s.Weight = value
	case FieldGradeAndOrder:
		grade, order := firstTwo(CleanSplit(value, " ", 2))
		s.GeneralGrade = grade
		s.SameGradeOrder = order
	case FieldGeneral:
		s.GeneralGrade = value
	case FieldNative:
		s.NativeGrade = value
	case FieldVeteran:
		s.VeteranGrade = value
	case FieldOversea:
		s.OverseaGrade = value
	}
}
