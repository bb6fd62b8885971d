package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/comtw/admscrape/internal/database"
	"github.com/comtw/admscrape/internal/extract"
	"github.com/comtw/admscrape/internal/model"
)

const testBase = "https://site.test/"

var errNotFound = errors.New("page not found")

// stubFetcher serves fixed pages by URL and records every request.
type stubFetcher struct {
	mu        sync.Mutex
	pages     map[string]string
	requested []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, url)
	page, ok := f.pages[url]
	if !ok {
		return "", errNotFound
	}
	return page, nil
}

func (f *stubFetcher) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requested...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupStore(t *testing.T) *database.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "admscrape.db")
	store, err := database.Open(context.Background(), database.DefaultOptions(path),
		database.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

const universityList = `<html><body><table id="table1">
  <tr>
    <td><div>已放榜</div><div></div></td>
    <td><a href="university_001_111.html">001 國立臺灣大學</a></td>
    <td><div></div><div>部分放榜</div></td>
    <td><a href="university_002_111.html">002 國立臺灣師範大學</a></td>
  </tr>
</table></body></html>`

const examDepartments = `<html><body><table id="table1">
  <tr>
    <td>
      <div id="university_dep_row_height">(001012)</div>
      <div id="university_dep_row_height">中國文學系</div>
      <div id="university_dep_row_height"><a href="check_001012_NO_0_111_0_3.html">榜單</a></div>
      <div id="university_dep_row_height">283.45</div>
      <div id="university_dep_row_height"><img src="w.gif" title="國文x1.5"></div>
    </td>
  </tr>
  <tr>
    <td>
      <div id="university_dep_row_height">(001022)</div>
      <div id="university_dep_row_height">外國語文學系</div>
      <div id="university_dep_row_height"><a href="check_001022_NO_0_111_0_3.html">榜單</a></div>
      <div id="university_dep_row_height">301.20</div>
      <div id="university_dep_row_height"><img src="w.gif" title="英文x2.00"></div>
    </td>
  </tr>
</table></body></html>`

const examAdmission = `<html><body><div id="mainContent">
  <table>
    <tr><td>項目</td><td>內容</td></tr>
    <tr><td>加權</td><td>國文x1.5</td></tr>
    <tr><td>一般生</td><td>283.45 國&gt;英</td></tr>
    <tr><td>原住民</td><td>250.10</td></tr>
    <tr><td>退伍軍人</td><td>--</td></tr>
    <tr><td>僑生</td><td>210.00</td></tr>
  </table>
  <table>
    <tr><td>1</td><td></td><td>10010203 台北</td><td>王○明</td><td>國立臺灣大學 中國文學系</td></tr>
    <tr><td>2</td><td></td><td>20030405 高雄</td><td>林○華</td><td>國立臺灣大學 中國文學系</td></tr>
    <tr><td>3</td><td></td><td></td><td></td><td>國立臺灣大學 中國文學系</td></tr>
  </table>
</div></body></html>`

func examPages() map[string]string {
	return map[string]string{
		testBase + "exam/university_list111.html":        universityList,
		testBase + "exam/university_001_111.html":        examDepartments,
		testBase + "exam/check_001012_NO_0_111_0_3.html": examAdmission,
		testBase + "exam/check_001022_NO_0_111_0_3.html": `<html><body><div id="mainContent"></div></body></html>`,
	}
}

// TestCrawl_Exam tests the full walk of one method against a real store.
func TestCrawl_Exam(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := setupStore(t)
	fetcher := &stubFetcher{pages: examPages()}
	desc := Descriptors(nil, GlyphOptions{})[model.MethodExam]
	c := New(fetcher, store, desc, WithBaseURL(testBase), WithLogger(discardLogger()))

	stats, err := c.Crawl(ctx, "111")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	// School 002 has no department page, department 001022 has an empty list.
	if stats.Universities != 2 || stats.Departments != 2 || stats.Lists != 1 {
		t.Errorf("unexpected walk counters: %+v", stats)
	}
	if stats.PersonsInserted != 2 || stats.PersonsSkipped != 1 || stats.SkippedBranches != 1 {
		t.Errorf("unexpected person counters: %+v", stats)
	}

	list, err := store.AdmissionList(ctx, database.ListKey{
		Year:           "111",
		Method:         model.MethodExam.Label(),
		SchoolCode:     "001",
		DepartmentCode: "001012",
	})
	if err != nil {
		t.Fatalf("AdmissionList() error = %v", err)
	}
	if list == nil {
		t.Fatal("expected the admission list to be stored")
	}
	wantFields := database.ListFields{
		AverageScore:   "283.45",
		Weight:         "國文x1.5",
		SameGradeOrder: "國>英",
		GeneralGrade:   "283.45",
		NativeGrade:    "250.10",
		VeteranGrade:   "--",
		OverseaGrade:   "210.00",
	}
	if diff := cmp.Diff(wantFields, list.ListFields); diff != "" {
		t.Errorf("list fields mismatch (-want +got):\n%s", diff)
	}

	persons, err := store.AdmissionPersons(ctx, list.ID)
	if err != nil {
		t.Fatalf("AdmissionPersons() error = %v", err)
	}
	wantPersons := []database.Person{
		{Ticket: "10010203", PersonFields: database.PersonFields{ExamArea: "台北", AdmissionStatus: "已錄取"}},
		{Ticket: "20030405", PersonFields: database.PersonFields{ExamArea: "高雄", AdmissionStatus: "已錄取"}},
	}
	if diff := cmp.Diff(wantPersons, persons); diff != "" {
		t.Errorf("persons mismatch (-want +got):\n%s", diff)
	}
}

// TestCrawl_Repeat tests that crawling the same year twice updates in place.
func TestCrawl_Repeat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := setupStore(t)
	desc := Descriptors(nil, GlyphOptions{})[model.MethodExam]

	for i := range 2 {
		c := New(&stubFetcher{pages: examPages()}, store, desc,
			WithBaseURL(testBase), WithLogger(discardLogger()))
		stats, err := c.Crawl(ctx, "111")
		if err != nil {
			t.Fatalf("Crawl() #%d error = %v", i, err)
		}
		if i == 1 && (stats.PersonsInserted != 0 || stats.PersonsUpdated != 2) {
			t.Errorf("second crawl should only update: %+v", stats)
		}
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	want := database.Counts{AdmissionTypes: 1, SchoolDepartments: 1, AdmissionLists: 1, AdmissionPersons: 2}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

// TestCrawl_UniversityListFailure tests that a missing or empty university
// list aborts the crawl with nothing written.
func TestCrawl_UniversityListFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pages   map[string]string
		wantErr error
	}{
		{
			name:    "fetch failure",
			pages:   map[string]string{},
			wantErr: errNotFound,
		},
		{
			name:    "empty list",
			pages:   map[string]string{testBase + "star/university_list112.html": `<html><body></body></html>`},
			wantErr: ErrNoUniversities,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := setupStore(t)
			fetcher := &stubFetcher{pages: tt.pages}
			desc := Descriptors(nil, GlyphOptions{})[model.MethodStar]
			c := New(fetcher, store, desc, WithBaseURL(testBase), WithLogger(discardLogger()))

			stats, err := c.Crawl(ctx, "112")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Crawl() error = %v, want %v", err, tt.wantErr)
			}
			if !stats.Failed() {
				t.Error("expected stats to record the failure")
			}
			if len(fetcher.requests()) != 1 {
				t.Errorf("expected only the university list to be requested, got %v", fetcher.requests())
			}

			counts, err := store.Counts(ctx)
			if err != nil {
				t.Fatalf("Counts() error = %v", err)
			}
			if counts != (database.Counts{}) {
				t.Errorf("expected no rows, got %+v", counts)
			}
		})
	}
}

// TestCrawl_URLTemplates tests the first URL requested for every track.
func TestCrawl_URLTemplates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method model.Method
		want   []string
	}{
		{model.MethodExam, []string{testBase + "exam/university_list113.html"}},
		{model.MethodStar, []string{testBase + "star/university_list113.html"}},
		{model.MethodCross, []string{
			testBase + "cross/university_list113.html",
			testBase + "cross/tech_university_list113.html",
		}},
		{model.MethodVtech, []string{testBase + "vtech/university_list113.html"}},
		{model.MethodTechreg, []string{testBase + "techreg/university_list113.html"}},
	}

	descs := Descriptors(nil, GlyphOptions{})
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			t.Parallel()

			fetcher := &stubFetcher{pages: map[string]string{}}
			c := New(fetcher, nil, descs[tt.method], WithBaseURL(testBase), WithLogger(discardLogger()))
			if _, err := c.Crawl(context.Background(), "113"); err == nil {
				t.Fatal("expected an error for missing pages")
			}
			if diff := cmp.Diff(tt.want, fetcher.requests()); diff != "" {
				t.Errorf("requested URLs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		template string
		want     string
	}{
		{"cross/university_1{school}_{year}.html", "cross/university_1005_113.html"},
		{"cross/check_1{department}_NO_1_{year}_1_1.html", "cross/check_1005042_NO_1_113_1_1.html"},
		{"techreg/check_{department}_{year}.html", "techreg/check_005042_113.html"},
	}
	for _, tt := range tests {
		if got := expand(tt.template, "113", "005", "005042"); got != tt.want {
			t.Errorf("expand(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

// TestCrawl_CrossTracks tests that a failed track does not stop the other
// track and that only statuses at the crawled department are stored.
func TestCrawl_CrossTracks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := setupStore(t)

	const crossDepartments = `<html><body><table id="table1"><tr>
  <td id="university_dep_row_height">(005042)</td>
  <td id="university_dep_row_height">資訊工程系</td>
  <td id="university_dep_row_height"><a href="check_1005042_NO_1_113_1_1.html">榜單</a></td>
  <td id="university_dep_row_height">--</td>
  <td id="university_dep_row_height">已放榜</td>
</tr></table></body></html>`
	fetcher := &stubFetcher{pages: map[string]string{
		testBase + "cross/tech_university_list113.html": `<html><body><table id="table1"><tr>
  <td><div>已放榜</div></td><td><a href="#">005 國立臺北科技大學</a></td>
</tr></table></body></html>`,
		testBase + "cross/university_1005_113.html":        crossDepartments,
		testBase + "cross/check_1005042_NO_1_113_1_1.html": "<html></html>",
	}}

	desc := Descriptors(nil, GlyphOptions{})[model.MethodCross]
	desc.Admissions = extract.AdmissionFunc(func(string) (*model.AdmissionPage, error) {
		return &model.AdmissionPage{Candidates: []model.Candidate{
			{Ticket: "A1", ExamArea: "臺北", Name: "王○明", Schools: []model.SchoolStatus{
				{School: "國立臺北科技大學", Department: "資訊工程系", Kind: model.StatusWaitlisted, Status: "備取3"},
				{School: "國立臺灣科技大學", Department: "資訊工程系", Kind: model.StatusAccepted, Status: "正取"},
			}},
			{Ticket: "B2", Schools: []model.SchoolStatus{
				{School: "國立臺灣科技大學", Department: "資訊工程系", Kind: model.StatusAccepted, Status: "正取"},
			}},
		}}, nil
	})
	c := New(fetcher, store, desc, WithBaseURL(testBase), WithLogger(discardLogger()))

	stats, err := c.Crawl(ctx, "113")
	if !errors.Is(err, errNotFound) {
		t.Fatalf("Crawl() error = %v, want the general track failure", err)
	}
	if stats.Lists != 1 || stats.PersonsInserted != 1 {
		t.Errorf("unexpected counters: %+v", stats)
	}

	list, err := store.AdmissionList(ctx, database.ListKey{
		Year:           "113",
		Method:         model.MethodCross.Label(),
		SchoolCode:     "005",
		DepartmentCode: "005042",
	})
	if err != nil || list == nil {
		t.Fatalf("AdmissionList() = %v, %v", list, err)
	}
	if list.UniversityApply != "科大四技申請" {
		t.Errorf("UniversityApply = %q, want 科大四技申請", list.UniversityApply)
	}

	persons, err := store.AdmissionPersons(ctx, list.ID)
	if err != nil {
		t.Fatalf("AdmissionPersons() error = %v", err)
	}
	want := []database.Person{
		{Ticket: "A1", PersonFields: database.PersonFields{Name: "王○明", ExamArea: "臺北", AdmissionStatus: "備取3"}},
	}
	if diff := cmp.Diff(want, persons); diff != "" {
		t.Errorf("persons mismatch (-want +got):\n%s", diff)
	}
}

// TestCrawl_ContextCanceled tests that a canceled context stops the walk.
func TestCrawl_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &stubFetcher{pages: examPages()}
	desc := Descriptors(nil, GlyphOptions{})[model.MethodExam]
	c := New(fetcher, setupStore(t), desc, WithBaseURL(testBase), WithLogger(discardLogger()))

	_, err := c.Crawl(ctx, "111")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Crawl() error = %v, want context.Canceled", err)
	}
	if n := len(fetcher.requests()); n != 0 {
		t.Errorf("expected no request after cancel, got %d", n)
	}
}

func TestRecordMappers(t *testing.T) {
	t.Parallel()

	school := model.School{Code: "101", Name: "國立臺北科技大學"}
	dept := model.Department{Code: "101012", Name: "機械工程系", Group: "01", AverageScore: "80.5"}
	summary := model.AdmissionSummary{GeneralGrade: "75", NativeGrade: "60"}

	tests := []struct {
		name        string
		mapper      RecordMapper
		page        *model.AdmissionPage
		wantFields  database.ListFields
		wantPersons []database.Person
	}{
		{
			name:   "techreg",
			mapper: techregRecords,
			page: &model.AdmissionPage{Summary: summary, Candidates: []model.Candidate{
				{Ticket: "30010001", Name: "陳○安"},
			}},
			wantFields: database.ListFields{AverageScore: "80.5", GeneralGrade: "75", NativeGrade: "60", GroupCode: "01"},
			wantPersons: []database.Person{
				{Ticket: "30010001", PersonFields: database.PersonFields{Name: "陳○安", AdmissionStatus: "已錄取"}},
			},
		},
		{
			name:   "vtech",
			mapper: vtechRecords,
			page: &model.AdmissionPage{Candidates: []model.Candidate{
				{Ticket: "40010001", Schools: []model.SchoolStatus{
					{School: "國立臺北科技大學", Department: "機械工程系", Status: "一般生正取"},
				}},
				{Ticket: "40010002", Schools: []model.SchoolStatus{
					{School: "國立臺北科技大學", Department: "電機工程系", Status: "一般生備取1"},
				}},
			}},
			wantFields: database.ListFields{GroupCode: "01"},
			wantPersons: []database.Person{
				{Ticket: "40010001", PersonFields: database.PersonFields{SecondStageStatus: "一般生正取", AdmissionStatus: "一般生正取"}},
			},
		},
		{
			name:   "star",
			mapper: starRecords,
			page: &model.AdmissionPage{Candidates: []model.Candidate{
				{Ticket: "11223344", ExamArea: "臺中"},
			}},
			wantPersons: []database.Person{
				{Ticket: "11223344", PersonFields: database.PersonFields{ExamArea: "臺中", AdmissionStatus: "已錄取"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fields, persons := tt.mapper(Listing{School: school, Department: dept, Page: tt.page})
			if diff := cmp.Diff(tt.wantFields, fields); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantPersons, persons); diff != "" {
				t.Errorf("persons mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
