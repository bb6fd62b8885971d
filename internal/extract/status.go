package extract

import (
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/comtw/admscrape/internal/model"
	"github.com/comtw/admscrape/internal/ocr"
)

const (
	candidateCells = 5
	schoolCells    = 3

	placedTitle   = "分發錄取"
	acceptedClass = "leftred"
	defaultScale  = 3

	ticketCell  = 2
	schoolsCell = 4
)

// CandidateStatusExtractor reads the cross-check and vocational-selection
// result pages, where each candidate row lists the candidate's status at
// every school applied to, and tickets, names and waitlist numbers are images.
type CandidateStatusExtractor struct {
	Glyphs GlyphReader

	// ExamArea reads the exam area from the ticket cell link (cross-check).
	ExamArea bool

	// StatusPrefix prepends the status cell text to image statuses (vocational).
	StatusPrefix bool

	// NameCell is the index of the cell holding the name glyphs.
	NameCell int

	// GlyphScale enlarges glyphs before recognition.
	GlyphScale int

	// IconWidth is the width of the icon leading each waitlist number image.
	IconWidth int

	// Logger receives recognition failures. Nil means slog.Default.
	Logger *slog.Logger
}

// Extract returns one candidate per five-cell row of the result table.
// Recognition is best effort: a failed name or status glyph leaves that field
// empty, and only a candidate whose ticket cannot be read is dropped.
func (e *CandidateStatusExtractor) Extract(markup string) (*model.AdmissionPage, error) {
	doc, err := parseDocument(markup)
	if err != nil {
		return nil, err
	}

	page := &model.AdmissionPage{}
	table := doc.Find("#mainContent").First().ChildrenFiltered("table").First()

	tableRows(table).Each(func(i int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() != candidateCells {
			return
		}
		if candidate, ok := e.candidate(cells, e.logger().With("row", i)); ok {
			page.Candidates = append(page.Candidates, candidate)
		}
	})
	return page, nil
}

func (e *CandidateStatusExtractor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *CandidateStatusExtractor) scale() int {
	if e.GlyphScale < 1 {
		return defaultScale
	}
	return e.GlyphScale
}

func (e *CandidateStatusExtractor) candidate(cells *goquery.Selection, logger *slog.Logger) (model.Candidate, bool) {
	var c model.Candidate

	tc := cells.Eq(ticketCell)
	if img := tc.Find("img").First(); img.Length() > 0 {
		ticket, err := readLine(e.Glyphs, img.AttrOr("src", ""), logger)
		if err != nil {
			logger.Warn("skipping candidate with unreadable ticket", "error", err)
			return c, false
		}
		c.Ticket = ticket
	} else if parts := CleanSplit(tc.Text(), " ", -1); len(parts) > 0 {
		c.Ticket = parts[0]
	}
	logger = logger.With("ticket", c.Ticket)

	if e.ExamArea {
		if parts := CleanSplit(tc.Find("a").First().Text(), ":", -1); len(parts) > 0 {
			c.ExamArea = parts[len(parts)-1]
		}
	}

	if e.NameCell > 0 && e.NameCell < candidateCells {
		name, err := readName(e.Glyphs, cells.Eq(e.NameCell), e.scale(), logger)
		if err != nil {
			logger.Warn("failed to recognize name", "error", err)
		}
		c.Name = name
	}

	tableRows(cells.Eq(schoolsCell).Find("table").First()).Each(func(_ int, row *goquery.Selection) {
		sc := row.ChildrenFiltered("td")
		if sc.Length() != schoolCells {
			return
		}
		if status, ok := e.schoolStatus(sc, logger); ok {
			c.Schools = append(c.Schools, status)
		}
	})
	return c, true
}

// schoolStatus reads one row of the nested status table: placement mark,
// school-department link, status cell.
// A waitlist number that cannot be recognized is logged and left off.
func (e *CandidateStatusExtractor) schoolStatus(cells *goquery.Selection, logger *slog.Logger) (model.SchoolStatus, bool) {
	text := CleanString(cells.Eq(1).Find("a").First().Text())
	if text == "" {
		return model.SchoolStatus{}, false
	}

	s := model.SchoolStatus{
		Admitted: cells.Eq(0).Find(`img[title="` + placedTitle + `"]`).Length() > 0,
	}
	s.School, s.Department = SplitSchoolDepartment(text)

	statusCell := cells.Eq(2)
	img := statusCell.Find("img").First()
	if img.Length() == 0 {
		s.Status = CleanString(statusCell.Find("div.retestdate").Text())
		if s.Status != "" {
			s.Kind = model.StatusPending
		}
		return s, true
	}

	_, hasClass := img.Parent().Attr("class")
	switch {
	case !hasClass:
		s.Kind = model.StatusNotAdmitted
		s.Status = model.StatusNotAdmitted.String()
	case img.Parent().HasClass(acceptedClass):
		s.Kind = model.StatusAccepted
		s.Status = model.StatusAccepted.String()
	default:
		rank, err := readScaled(e.Glyphs, img.AttrOr("src", ""), e.IconWidth, e.scale(), ocr.ModeDigits, logger)
		if err != nil {
			logger.Warn("failed to recognize waitlist number", "school", text, "error", err)
		}
		s.Kind = model.StatusWaitlisted
		s.Status = model.StatusWaitlisted.String() + rank
	}

	if e.StatusPrefix {
		s.Status = CleanString(statusCell.Text()) + s.Status
	}
	return s, true
}
