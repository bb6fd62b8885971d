package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "admscrape.db")
	store, err := Open(context.Background(), DefaultOptions(path),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testKey() ListKey {
	return ListKey{
		Year:           "111",
		Method:         "分科測驗",
		SchoolCode:     "001",
		DepartmentCode: "001012",
		SchoolName:     "國立臺灣大學",
		DepartmentName: "中國文學系",
	}
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "newdir", "subdir", "admscrape.db")
		store, err := Open(context.Background(), DefaultOptions(path))
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()

		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("reopening keeps data", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "admscrape.db")
		store, err := Open(context.Background(), DefaultOptions(path))
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if _, err := store.UpsertAdmissionList(context.Background(), testKey(), ListFields{}); err != nil {
			t.Fatalf("UpsertAdmissionList() error = %v", err)
		}
		_ = store.Close()

		store, err = Open(context.Background(), DefaultOptions(path))
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer store.Close()

		counts, err := store.Counts(context.Background())
		if err != nil {
			t.Fatalf("Counts() error = %v", err)
		}
		if counts.AdmissionLists != 1 {
			t.Errorf("AdmissionLists = %d, want 1", counts.AdmissionLists)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()

		_, err := Open(context.Background(), Options{Driver: "postgres"})
		if !errors.Is(err, ErrUnknownDriver) {
			t.Errorf("Open() error = %v, want ErrUnknownDriver", err)
		}
	})
}

// TestUpsertAdmissionList_Idempotent tests that identical saves add no rows.
func TestUpsertAdmissionList_Idempotent(t *testing.T) {
	t.Parallel()

	store := setupTestDB(t)
	ctx := context.Background()
	fields := ListFields{AverageScore: "283.45", Weight: "國文x1.5", GeneralGrade: "283.45", SameGradeOrder: "國>英"}

	first, err := store.UpsertAdmissionList(ctx, testKey(), fields)
	if err != nil {
		t.Fatalf("first UpsertAdmissionList() error = %v", err)
	}
	before, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}

	second, err := store.UpsertAdmissionList(ctx, testKey(), fields)
	if err != nil {
		t.Fatalf("second UpsertAdmissionList() error = %v", err)
	}
	after, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}

	if first != second {
		t.Errorf("list id changed: %d != %d", first, second)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("row counts changed (-before +after):\n%s", diff)
	}
	want := Counts{AdmissionTypes: 1, SchoolDepartments: 1, AdmissionLists: 1}
	if diff := cmp.Diff(want, after); diff != "" {
		t.Errorf("Counts() mismatch (-want +got):\n%s", diff)
	}

	row, err := store.AdmissionList(ctx, testKey())
	if err != nil {
		t.Fatalf("AdmissionList() error = %v", err)
	}
	if diff := cmp.Diff(&ListRow{ID: first, ListFields: fields}, row); diff != "" {
		t.Errorf("AdmissionList() mismatch (-want +got):\n%s", diff)
	}
}

// TestUpsertAdmissionList_UpdatesInPlace tests that changed summaries update the row.
func TestUpsertAdmissionList_UpdatesInPlace(t *testing.T) {
	t.Parallel()

	store := setupTestDB(t)
	ctx := context.Background()

	id, err := store.UpsertAdmissionList(ctx, testKey(), ListFields{GeneralGrade: "280"})
	if err != nil {
		t.Fatalf("UpsertAdmissionList() error = %v", err)
	}
	renamed := testKey()
	renamed.DepartmentName = "中國文學系(新)"
	if _, err := store.UpsertAdmissionList(ctx, renamed, ListFields{GeneralGrade: "290"}); err != nil {
		t.Fatalf("UpsertAdmissionList() error = %v", err)
	}

	row, err := store.AdmissionList(ctx, testKey())
	if err != nil {
		t.Fatalf("AdmissionList() error = %v", err)
	}
	if row == nil || row.ID != id || row.GeneralGrade != "290" {
		t.Errorf("AdmissionList() = %+v, want id %d with grade 290", row, id)
	}

	var name string
	if err := store.db.QueryRowContext(ctx, `SELECT DepartmentName FROM SchoolDepartment`).Scan(&name); err != nil {
		t.Fatalf("query error = %v", err)
	}
	if name != "中國文學系(新)" {
		t.Errorf("DepartmentName = %q, want refreshed name", name)
	}
}

// TestUpsertAdmissionList_Separation tests that year, method and department
// each make a distinct list while the catalogs are shared.
func TestUpsertAdmissionList_Separation(t *testing.T) {
	t.Parallel()

	store := setupTestDB(t)
	ctx := context.Background()

	otherYear := testKey()
	otherYear.Year = "110"
	otherMethod := testKey()
	otherMethod.Method = "大學繁星"
	otherDept := testKey()
	otherDept.DepartmentCode = "001022"

	ids := map[int64]bool{}
	for _, key := range []ListKey{testKey(), otherYear, otherMethod, otherDept} {
		id, err := store.UpsertAdmissionList(ctx, key, ListFields{})
		if err != nil {
			t.Fatalf("UpsertAdmissionList(%+v) error = %v", key, err)
		}
		ids[id] = true
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	want := Counts{AdmissionTypes: 2, SchoolDepartments: 2, AdmissionLists: 4}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("Counts() mismatch (-want +got):\n%s", diff)
	}
	if len(ids) != 4 {
		t.Errorf("distinct list ids = %d, want 4", len(ids))
	}
}

// TestUpsertAdmissionList_Validation tests rejected keys.
func TestUpsertAdmissionList_Validation(t *testing.T) {
	t.Parallel()

	store := setupTestDB(t)
	ctx := context.Background()

	noSchool := testKey()
	noSchool.SchoolCode = ""
	noDept := testKey()
	noDept.DepartmentCode = "  "
	badYear := testKey()
	badYear.Year = "一一一"
	noMethod := testKey()
	noMethod.Method = ""

	tests := []struct {
		name string
		key  ListKey
		want error
	}{
		{"empty school code", noSchool, ErrEmptyCode},
		{"blank department code", noDept, ErrEmptyCode},
		{"non-numeric year", badYear, ErrInvalidYear},
		{"empty method", noMethod, ErrEmptyMethod},
	}

	for _, tt := range tests {
		if _, err := store.UpsertAdmissionList(ctx, tt.key, ListFields{}); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if counts != (Counts{}) {
		t.Errorf("rejected keys must not write anything, got %+v", counts)
	}
}

// TestUpsertAdmissionPerson_LastWriteWins tests status updates for a ticket.
func TestUpsertAdmissionPerson_LastWriteWins(t *testing.T) {
	t.Parallel()

	store := setupTestDB(t)
	ctx := context.Background()

	listID, err := store.UpsertAdmissionList(ctx, testKey(), ListFields{})
	if err != nil {
		t.Fatalf("UpsertAdmissionList() error = %v", err)
	}

	inserted, err := store.UpsertAdmissionPerson(ctx, listID, "10010203", PersonFields{AdmissionStatus: "備取3"})
	if err != nil || !inserted {
		t.Fatalf("first UpsertAdmissionPerson() = %v, %v; want inserted", inserted, err)
	}
	inserted, err = store.UpsertAdmissionPerson(ctx, listID, "10010203", PersonFields{AdmissionStatus: "正取"})
	if err != nil || inserted {
		t.Fatalf("second UpsertAdmissionPerson() = %v, %v; want update", inserted, err)
	}

	persons, err := store.AdmissionPersons(ctx, listID)
	if err != nil {
		t.Fatalf("AdmissionPersons() error = %v", err)
	}
	want := []Person{{Ticket: "10010203", PersonFields: PersonFields{AdmissionStatus: "正取"}}}
	if diff := cmp.Diff(want, persons); diff != "" {
		t.Errorf("AdmissionPersons() mismatch (-want +got):\n%s", diff)
	}
}

// TestUpsertAdmissionPerson_Validation tests rejected persons.
func TestUpsertAdmissionPerson_Validation(t *testing.T) {
	t.Parallel()

	store := setupTestDB(t)
	ctx := context.Background()

	if _, err := store.UpsertAdmissionPerson(ctx, 1, "", PersonFields{}); !errors.Is(err, ErrEmptyTicket) {
		t.Errorf("empty ticket error = %v, want ErrEmptyTicket", err)
	}
	if _, err := store.UpsertAdmissionPerson(ctx, 0, "10010203", PersonFields{}); !errors.Is(err, ErrInvalidListID) {
		t.Errorf("zero list id error = %v, want ErrInvalidListID", err)
	}
}

// TestSaveAdmissionList tests batch saving with an invalid person in the middle.
func TestSaveAdmissionList(t *testing.T) {
	t.Parallel()

	store := setupTestDB(t)
	ctx := context.Background()

	persons := []Person{
		{Ticket: "10010203", PersonFields: PersonFields{ExamArea: "台北", AdmissionStatus: "已錄取"}},
		{Ticket: "", PersonFields: PersonFields{Name: "無證"}},
		{Ticket: "20030405", PersonFields: PersonFields{ExamArea: "高雄", AdmissionStatus: "已錄取"}},
	}

	result, err := store.SaveAdmissionList(ctx, testKey(), ListFields{Weight: "x"}, persons)
	if err != nil {
		t.Fatalf("SaveAdmissionList() error = %v", err)
	}
	if result.ListID == 0 || result.Inserted != 2 || result.Updated != 0 || result.Skipped != 1 {
		t.Errorf("first SaveAdmissionList() = %+v, want 2 inserted 1 skipped", result)
	}

	persons[2].AdmissionStatus = "放棄"
	result, err = store.SaveAdmissionList(ctx, testKey(), ListFields{Weight: "x"}, persons)
	if err != nil {
		t.Fatalf("SaveAdmissionList() error = %v", err)
	}
	if result.Inserted != 0 || result.Updated != 2 || result.Skipped != 1 {
		t.Errorf("second SaveAdmissionList() = %+v, want 2 updated 1 skipped", result)
	}

	got, err := store.AdmissionPersons(ctx, result.ListID)
	if err != nil {
		t.Fatalf("AdmissionPersons() error = %v", err)
	}
	want := []Person{persons[0], persons[2]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AdmissionPersons() mismatch (-want +got):\n%s", diff)
	}
}

// TestSaveAdmissionList_EmptyCode tests that an empty code writes nothing.
func TestSaveAdmissionList_EmptyCode(t *testing.T) {
	t.Parallel()

	store := setupTestDB(t)
	ctx := context.Background()

	key := testKey()
	key.DepartmentCode = ""
	_, err := store.SaveAdmissionList(ctx, key, ListFields{}, []Person{{Ticket: "1"}})
	if !errors.Is(err, ErrEmptyCode) {
		t.Fatalf("SaveAdmissionList() error = %v, want ErrEmptyCode", err)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if counts != (Counts{}) {
		t.Errorf("expected no rows, got %+v", counts)
	}
}

// TestAdmissionList_Missing tests lookups of unknown lists.
func TestAdmissionList_Missing(t *testing.T) {
	t.Parallel()

	store := setupTestDB(t)
	row, err := store.AdmissionList(context.Background(), testKey())
	if err != nil {
		t.Fatalf("AdmissionList() error = %v", err)
	}
	if row != nil {
		t.Errorf("AdmissionList() = %+v, want nil", row)
	}
}
