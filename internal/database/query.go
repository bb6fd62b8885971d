package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Counts holds the number of rows per table.
type Counts struct {
	AdmissionTypes    int
	SchoolDepartments int
	AdmissionLists    int
	AdmissionPersons  int
}

// Counts returns the row count of every table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	targets := []struct {
		table string
		dst   *int
	}{
		{"AdmissionType", &c.AdmissionTypes},
		{"SchoolDepartment", &c.SchoolDepartments},
		{"AdmissionList", &c.AdmissionLists},
		{"AdmissionPerson", &c.AdmissionPersons},
	}
	for _, t := range targets {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(t.dst); err != nil {
			return Counts{}, fmt.Errorf("failed to count %s: %w", t.table, err)
		}
	}
	return c, nil
}

// ListRow is a stored admission list.
type ListRow struct {
	ID int64
	ListFields
}

// AdmissionList returns the stored list for key, or nil when absent.
func (s *Store) AdmissionList(ctx context.Context, key ListKey) (*ListRow, error) {
	year, err := strconv.Atoi(key.Year)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidYear, key.Year)
	}

	var (
		row ListRow
		f   [9]sql.NullString
	)
	err = s.db.QueryRowContext(ctx, `
	SELECT l.Id, l.AverageScore, l.Weight, l.SameGradeOrder,
		l.GeneralGrade, l.NativeGrade, l.VeteranGrade, l.OverseaGrade,
		l.UniversityApply, l.GroupCode
	FROM AdmissionList l
	JOIN AdmissionType t ON t.Id = l.Method
	JOIN SchoolDepartment sd ON sd.Id = l.SchoolDepartmentID
	WHERE l.Year = ? AND t.Name = ? AND sd.SchoolCode = ? AND sd.DepartmentCode = ?`,
		year, key.Method, key.SchoolCode, key.DepartmentCode,
	).Scan(&row.ID, &f[0], &f[1], &f[2], &f[3], &f[4], &f[5], &f[6], &f[7], &f[8])
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admission list: %w", err)
	}

	row.ListFields = ListFields{
		AverageScore:    f[0].String,
		Weight:          f[1].String,
		SameGradeOrder:  f[2].String,
		GeneralGrade:    f[3].String,
		NativeGrade:     f[4].String,
		VeteranGrade:    f[5].String,
		OverseaGrade:    f[6].String,
		UniversityApply: f[7].String,
		GroupCode:       f[8].String,
	}
	return &row, nil
}

// AdmissionPersons returns the persons of a list ordered by ticket.
func (s *Store) AdmissionPersons(ctx context.Context, listID int64) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT AdmissionTicket, Name, ExamArea, SecondStageStatus, AdmissionStatus
	FROM AdmissionPerson
	WHERE AdmissionListId = ?
	ORDER BY AdmissionTicket`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query admission persons: %w", err)
	}
	defer rows.Close()

	var persons []Person
	for rows.Next() {
		var (
			p Person
			f [4]sql.NullString
		)
		if err := rows.Scan(&p.Ticket, &f[0], &f[1], &f[2], &f[3]); err != nil {
			return nil, fmt.Errorf("failed to scan admission person: %w", err)
		}
		p.PersonFields = PersonFields{
			Name:              f[0].String,
			ExamArea:          f[1].String,
			SecondStageStatus: f[2].String,
			AdmissionStatus:   f[3].String,
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}
