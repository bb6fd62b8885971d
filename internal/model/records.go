package model

// AvailableYears lists the academic years the landing page offers for one method.
// Years are three-digit ROC-era tokens such as "111", in page order.
type AvailableYears struct {
	Method Method
	Label  string
	Years  []string
}

// School is one entry of a university list page.
// Code is stable across years and identifies the school in URLs and storage.
type School struct {
	// ReleaseStatus is the full or partial release marker shown next to the school.
	ReleaseStatus string

	// ReleaseDate is the announced release date; empty when the page shows none.
	ReleaseDate string

	Code string
	Name string
	Href string
}

// Department is one entry of a school's department list page.
// Only the extra fields relevant to the crawled method are populated.
type Department struct {
	Code string
	Name string
	Href string

	// Score is the published admission score (exam).
	Score string

	// Weight is the subject weighting description (exam).
	Weight string

	// Group is the vocational group code (vtech, techreg).
	Group string

	// AverageScore is the average admitted score (techreg).
	AverageScore string

	// ReleaseStatus is the second-stage release marker (cross).
	ReleaseStatus string
}

// StatusKind classifies a candidate's result at one school.
type StatusKind int

const (
	// StatusUnknown means the cell carried no status image and no retest date.
	StatusUnknown StatusKind = iota

	// StatusAccepted is a firm admission (正取).
	StatusAccepted

	// StatusWaitlisted is a waiting-list position (備取) with a rank number.
	StatusWaitlisted

	// StatusNotAdmitted is shown by a status image whose container has no class.
	StatusNotAdmitted

	// StatusPending is a scheduled second-stage test; Status holds its date.
	StatusPending
)

// String returns the stored label of the status kind.
func (k StatusKind) String() string {
	switch k {
	case StatusAccepted:
		return "正取"
	case StatusWaitlisted:
		return "備取"
	case StatusNotAdmitted:
		return "未錄取"
	case StatusPending:
		return "待甄試"
	default:
		return ""
	}
}

// SchoolStatus is a candidate's status at one school-department, as listed on
// the cross-check and vocational-selection result pages.
type SchoolStatus struct {
	// Admitted is set when the row carries the final placement mark (分發錄取).
	Admitted   bool
	School     string
	Department string
	Kind       StatusKind

	// Status is the text persisted as the admission status, for example
	// "正取", "備取12" or a retest date.
	Status string
}

// Candidate is one admitted or listed person on an admission-list page.
// Ticket is the natural key inside one list. Name is OCR derived on some
// pipelines and must be treated as best effort.
type Candidate struct {
	Ticket   string
	ExamArea string
	Name     string

	// School and Department are the placement shown on exam and star pages.
	School     string
	Department string

	// Schools holds per-school statuses on cross and vtech pages.
	Schools []SchoolStatus
}

// StatusAt returns the candidate's status entry for the given school and
// department names.
func (c Candidate) StatusAt(school, department string) (SchoolStatus, bool) {
	for _, s := range c.Schools {
		if s.School == school && s.Department == department {
			return s, true
		}
	}
	return SchoolStatus{}, false
}

// AdmissionSummary carries the aggregate fields printed above some admission lists.
type AdmissionSummary struct {
	Weight         string
	SameGradeOrder string
	GeneralGrade   string
	NativeGrade    string
	VeteranGrade   string
	OverseaGrade   string
}

// IsZero reports whether no summary field was found.
func (s AdmissionSummary) IsZero() bool {
	return s == AdmissionSummary{}
}

// AdmissionPage is the extraction result of one admission-list page.
type AdmissionPage struct {
	Summary    AdmissionSummary
	Candidates []Candidate
}

// IsEmpty reports whether the page yielded neither summary fields nor candidates.
func (p *AdmissionPage) IsEmpty() bool {
	return p == nil || (p.Summary.IsZero() && len(p.Candidates) == 0)
}
