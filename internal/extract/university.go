package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/comtw/admscrape/internal/model"
)

// Universities extracts the schools of a university list page.
//
// Each row of table#table1 encodes one school per pair of cells: a status
// cell holding full-release, partial-release and release-date divs, then the
// school cell with the link and "code name" text. Rows with an odd or zero
// cell count are layout rows.
func Universities(markup string) ([]model.School, error) {
	doc, err := parseDocument(markup)
	if err != nil {
		return nil, err
	}

	var schools []model.School
	tableRows(doc.Find("table#table1").First()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		n := cells.Length()
		if n == 0 || n%2 != 0 {
			return
		}
		for i := 0; i < n; i += 2 {
			if school, ok := schoolFromCells(cells.Eq(i), cells.Eq(i+1)); ok {
				schools = append(schools, school)
			}
		}
	})
	return schools, nil
}

func schoolFromCells(statusCell, schoolCell *goquery.Selection) (model.School, bool) {
	code, name := SplitSchoolIDName(schoolCell.Text())
	if code == "" && name == "" {
		return model.School{}, false
	}

	divs := statusCell.Find("div")
	status := CleanString(divs.Eq(0).Text())
	if status == "" {
		status = CleanString(divs.Eq(1).Text())
	}
	var date string
	if dateDiv := divs.Eq(2); dateDiv.AttrOr("id", "") == "releasedate" {
		date = CleanString(dateDiv.Text())
	}

	return model.School{
		ReleaseStatus: status,
		ReleaseDate:   date,
		Code:          code,
		Name:          name,
		Href:          schoolCell.Find("a").First().AttrOr("href", ""),
	}, true
}
