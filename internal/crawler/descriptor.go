package crawler

import (
	"log/slog"
	"strings"

	"github.com/comtw/admscrape/internal/database"
	"github.com/comtw/admscrape/internal/extract"
	"github.com/comtw/admscrape/internal/model"
)

// Track is one category of schools inside a method, with its own URL
// templates. Templates are relative to the base URL and may contain the
// {year}, {school} and {department} placeholders.
type Track struct {
	Name           string
	UniversityList string
	DepartmentList string
	Admission      string

	// Apply is the application-track label stored on each list, if any.
	Apply string
}

// Listing is one extracted admission page together with where it was found.
type Listing struct {
	Track      Track
	School     model.School
	Department model.Department
	Page       *model.AdmissionPage
}

// RecordMapper converts a listing into the list fields and persons to save.
type RecordMapper func(l Listing) (database.ListFields, []database.Person)

// Descriptor holds everything that differs between methods.
type Descriptor struct {
	Method      model.Method
	Tracks      []Track
	Departments extract.DepartmentExtractor
	Admissions  extract.AdmissionExtractor
	Records     RecordMapper
}

// GlyphOptions tunes glyph recognition on the cross and vtech pages.
type GlyphOptions struct {
	// Scale enlarges each glyph before recognition.
	Scale int

	// IconWidth is the width of the icon in front of waitlist numbers.
	IconWidth int

	// Logger receives recognition failures. Nil means slog.Default.
	Logger *slog.Logger
}

// admittedStatus is stored for every person listed on a placement page.
const admittedStatus = "已錄取"

// Descriptors returns the descriptor of every method. glyphs reads the image
// glyphs of the cross and vtech result pages.
func Descriptors(glyphs extract.GlyphReader, opts GlyphOptions) map[model.Method]Descriptor {
	return map[model.Method]Descriptor{
		model.MethodExam: {
			Method:      model.MethodExam,
			Tracks:      []Track{standardTrack("exam", "check_{department}_NO_0_{year}_0_3.html")},
			Departments: extract.ExamDepartments,
			Admissions:  extract.AdmissionFunc(extract.ExamAdmissions),
			Records:     examRecords,
		},
		model.MethodStar: {
			Method:      model.MethodStar,
			Tracks:      []Track{standardTrack("star", "check_{department}_NO_0_{year}_0_3.html")},
			Departments: extract.StarDepartments,
			Admissions:  extract.AdmissionFunc(extract.StarAdmissions),
			Records:     starRecords,
		},
		model.MethodCross: {
			Method: model.MethodCross,
			Tracks: []Track{
				{
					Name:           "general",
					UniversityList: "cross/university_list{year}.html",
					DepartmentList: "cross/university_{school}_{year}.html",
					Admission:      "cross/check_{department}_NO_1_{year}_0_0.html",
					Apply:          "大學個人申請",
				},
				{
					Name:           "tech",
					UniversityList: "cross/tech_university_list{year}.html",
					DepartmentList: "cross/university_1{school}_{year}.html",
					Admission:      "cross/check_1{department}_NO_1_{year}_1_1.html",
					Apply:          "科大四技申請",
				},
			},
			Departments: extract.CrossDepartments,
			Admissions: &extract.CandidateStatusExtractor{
				Glyphs:     glyphs,
				ExamArea:   true,
				NameCell:   3,
				GlyphScale: opts.Scale,
				IconWidth:  opts.IconWidth,
				Logger:     opts.Logger,
			},
			Records: crossRecords,
		},
		model.MethodVtech: {
			Method:      model.MethodVtech,
			Tracks:      []Track{standardTrack("vtech", "check_{department}_NO_1_{year}_1_3.html")},
			Departments: extract.VtechDepartments,
			Admissions: &extract.CandidateStatusExtractor{
				Glyphs:       glyphs,
				StatusPrefix: true,
				NameCell:     3,
				GlyphScale:   opts.Scale,
				IconWidth:    opts.IconWidth,
				Logger:       opts.Logger,
			},
			Records: vtechRecords,
		},
		model.MethodTechreg: {
			Method:      model.MethodTechreg,
			Tracks:      []Track{standardTrack("techreg", "check_{department}_{year}.html")},
			Departments: extract.TechregDepartments,
			Admissions:  extract.AdmissionFunc(extract.TechregAdmissions),
			Records:     techregRecords,
		},
	}
}

// standardTrack builds the single track of a method whose pages live under
// one path segment.
func standardTrack(dir, admission string) Track {
	return Track{
		Name:           "main",
		UniversityList: dir + "/university_list{year}.html",
		DepartmentList: dir + "/university_{school}_{year}.html",
		Admission:      dir + "/" + admission,
	}
}

// expand fills the placeholders of a URL template.
func expand(template, year, school, department string) string {
	return strings.NewReplacer(
		"{year}", year,
		"{school}", school,
		"{department}", department,
	).Replace(template)
}

func examRecords(l Listing) (database.ListFields, []database.Person) {
	s := l.Page.Summary
	fields := database.ListFields{
		AverageScore:   l.Department.Score,
		Weight:         l.Department.Weight,
		SameGradeOrder: s.SameGradeOrder,
		GeneralGrade:   s.GeneralGrade,
		NativeGrade:    s.NativeGrade,
		VeteranGrade:   s.VeteranGrade,
		OverseaGrade:   s.OverseaGrade,
	}
	return fields, placedPersons(l.Page.Candidates)
}

func starRecords(l Listing) (database.ListFields, []database.Person) {
	return database.ListFields{}, placedPersons(l.Page.Candidates)
}

func techregRecords(l Listing) (database.ListFields, []database.Person) {
	s := l.Page.Summary
	fields := database.ListFields{
		AverageScore: l.Department.AverageScore,
		GeneralGrade: s.GeneralGrade,
		NativeGrade:  s.NativeGrade,
		VeteranGrade: s.VeteranGrade,
		OverseaGrade: s.OverseaGrade,
		GroupCode:    l.Department.Group,
	}
	return fields, placedPersons(l.Page.Candidates)
}

// placedPersons maps candidates of a placement list, all of whom were admitted.
func placedPersons(candidates []model.Candidate) []database.Person {
	persons := make([]database.Person, 0, len(candidates))
	for _, c := range candidates {
		persons = append(persons, database.Person{
			Ticket: c.Ticket,
			PersonFields: database.PersonFields{
				Name:            c.Name,
				ExamArea:        c.ExamArea,
				AdmissionStatus: admittedStatus,
			},
		})
	}
	return persons
}

func crossRecords(l Listing) (database.ListFields, []database.Person) {
	var persons []database.Person
	for _, c := range l.Page.Candidates {
		st, ok := c.StatusAt(l.School.Name, l.Department.Name)
		if !ok {
			continue
		}
		persons = append(persons, database.Person{
			Ticket: c.Ticket,
			PersonFields: database.PersonFields{
				Name:            c.Name,
				ExamArea:        c.ExamArea,
				AdmissionStatus: st.Status,
			},
		})
	}
	return database.ListFields{UniversityApply: l.Track.Apply}, persons
}

func vtechRecords(l Listing) (database.ListFields, []database.Person) {
	var persons []database.Person
	for _, c := range l.Page.Candidates {
		st, ok := c.StatusAt(l.School.Name, l.Department.Name)
		if !ok {
			continue
		}
		persons = append(persons, database.Person{
			Ticket: c.Ticket,
			PersonFields: database.PersonFields{
				Name:              c.Name,
				SecondStageStatus: st.Status,
				AdmissionStatus:   st.Status,
			},
		})
	}
	return database.ListFields{GroupCode: l.Department.Group}, persons
}
