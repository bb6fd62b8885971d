package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/comtw/admscrape/internal/model"
)

const (
	placementCells = 5
	techregCells   = 3
)

// AdmissionExtractor turns an admission-list page into a page record.
type AdmissionExtractor interface {
	Extract(markup string) (*model.AdmissionPage, error)
}

// AdmissionFunc adapts a function to AdmissionExtractor.
type AdmissionFunc func(markup string) (*model.AdmissionPage, error)

// Extract calls f.
func (f AdmissionFunc) Extract(markup string) (*model.AdmissionPage, error) {
	return f(markup)
}

// ExamAdmissions extracts an exam placement list: the summary table at the top
// of #mainContent followed by the candidate table.
func ExamAdmissions(markup string) (*model.AdmissionPage, error) {
	doc, err := parseDocument(markup)
	if err != nil {
		return nil, err
	}

	summaryTable := doc.Find("#mainContent").First().Find("table").First()
	page := &model.AdmissionPage{
		Summary:    ExamSummaryLayout.Read(summaryTable),
		Candidates: placements(summaryTable.NextAllFiltered("table").First()),
	}
	return page, nil
}

// StarAdmissions extracts a merit-star list, which has no summary table.
func StarAdmissions(markup string) (*model.AdmissionPage, error) {
	doc, err := parseDocument(markup)
	if err != nil {
		return nil, err
	}

	table := doc.Find("#mainContent").First().Find("table").First()
	return &model.AdmissionPage{Candidates: placements(table)}, nil
}

// TechregAdmissions extracts a vocational placement list.
func TechregAdmissions(markup string) (*model.AdmissionPage, error) {
	doc, err := parseDocument(markup)
	if err != nil {
		return nil, err
	}

	summaryTable := doc.Find("#mainContent").First().Find("table").First()
	page := &model.AdmissionPage{
		Summary: TechregSummaryLayout.Read(summaryTable),
	}
	tableRows(summaryTable.NextAllFiltered("table").First()).Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() != techregCells {
			return
		}
		ticket, name := firstTwo(CleanSplit(cells.Eq(2).Text(), " ", 2))
		page.Candidates = append(page.Candidates, model.Candidate{Ticket: ticket, Name: name})
	})
	return page, nil
}

// placements reads the five-cell candidate rows shared by exam and star lists:
// cell 2 holds "ticket ... area", cell 4 the placed school and department.
func placements(table *goquery.Selection) []model.Candidate {
	var candidates []model.Candidate
	tableRows(table).Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() != placementCells {
			return
		}
		var c model.Candidate
		parts := CleanSplit(cells.Eq(2).Text(), " ", -1)
		if len(parts) > 0 {
			c.Ticket = parts[0]
		}
		if len(parts) > 1 {
			c.ExamArea = parts[len(parts)-1]
		}
		c.School, c.Department = SplitSchoolDepartment(cells.Eq(4).Text())
		candidates = append(candidates, c)
	})
	return candidates
}
