package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/comtw/admscrape/internal/model"
)

// departmentCells is the number of cells of a department row.
const departmentCells = 5

// DepartmentColumns locates the method-specific fields of a department row.
// Zero means the method does not publish the field; cells 0 to 2 always hold
// code, name and link.
type DepartmentColumns struct {
	Score         int
	Weight        int
	Group         int
	AverageScore  int
	ReleaseStatus int
}

// DepartmentExtractor reads a school's department list page.
type DepartmentExtractor struct {
	// Cell selects the department cells inside each row of table#table1.
	Cell    string
	Columns DepartmentColumns
}

// Department extractors of the five methods.
var (
	ExamDepartments = DepartmentExtractor{
		Cell:    "div#university_dep_row_height",
		Columns: DepartmentColumns{Score: 3, Weight: 4},
	}
	StarDepartments = DepartmentExtractor{
		Cell: "div#university_dep_row_height",
	}
	CrossDepartments = DepartmentExtractor{
		Cell:    "td#university_dep_row_height",
		Columns: DepartmentColumns{ReleaseStatus: 4},
	}
	VtechDepartments = DepartmentExtractor{
		Cell:    "td#university_dep_row_height",
		Columns: DepartmentColumns{Group: 3},
	}
	TechregDepartments = DepartmentExtractor{
		Cell:    "td#university_dep_row_height",
		Columns: DepartmentColumns{Group: 3, AverageScore: 4},
	}
)

// Extract returns the departments in page order.
func (e DepartmentExtractor) Extract(markup string) ([]model.Department, error) {
	doc, err := parseDocument(markup)
	if err != nil {
		return nil, err
	}

	var departments []model.Department
	tableRows(doc.Find("table#table1").First()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find(e.Cell)
		if cells.Length() != departmentCells {
			return
		}

		d := model.Department{
			Code: strings.Trim(cellText(cells, 0), "()"),
			Name: cellText(cells, 1),
			Href: CleanString(cells.Eq(2).Find("a").First().AttrOr("href", "")),
		}
		if e.Columns.Score > 0 {
			d.Score = cellText(cells, e.Columns.Score)
		}
		if e.Columns.Weight > 0 {
			d.Weight = CleanString(cells.Eq(e.Columns.Weight).Find("img").First().AttrOr("title", ""))
		}
		if e.Columns.Group > 0 {
			d.Group = cellText(cells, e.Columns.Group)
		}
		if e.Columns.AverageScore > 0 {
			d.AverageScore = cellText(cells, e.Columns.AverageScore)
		}
		if e.Columns.ReleaseStatus > 0 {
			d.ReleaseStatus = cellText(cells, e.Columns.ReleaseStatus)
		}
		departments = append(departments, d)
	})
	return departments, nil
}
