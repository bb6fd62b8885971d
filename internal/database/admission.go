package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ListKey identifies one admission list. SchoolName and DepartmentName are
// stored on the school-department row but are not part of its identity.
type ListKey struct {
	Year           string
	Method         string
	SchoolCode     string
	DepartmentCode string
	SchoolName     string
	DepartmentName string
}

// ListFields are the mutable summary fields of an admission list.
type ListFields struct {
	AverageScore    string
	Weight          string
	SameGradeOrder  string
	GeneralGrade    string
	NativeGrade     string
	VeteranGrade    string
	OverseaGrade    string
	UniversityApply string
	GroupCode       string
}

// PersonFields are the mutable fields of an admission person.
type PersonFields struct {
	Name              string
	ExamArea          string
	SecondStageStatus string
	AdmissionStatus   string
}

// Person is one candidate of a list.
type Person struct {
	Ticket string
	PersonFields
}

// SaveResult counts what one SaveAdmissionList call did.
type SaveResult struct {
	ListID   int64
	Inserted int
	Updated  int
	Skipped  int
}

// UpsertAdmissionList creates or updates the list identified by key and
// returns its id.
func (s *Store) UpsertAdmissionList(ctx context.Context, key ListKey, fields ListFields) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.upsertList(ctx, tx, key, fields)
		return err
	})
	return id, err
}

// UpsertAdmissionPerson creates or updates the person identified by
// (listID, ticket). It reports whether a new row was inserted.
func (s *Store) UpsertAdmissionPerson(ctx context.Context, listID int64, ticket string, fields PersonFields) (bool, error) {
	return upsertPerson(ctx, s.db, listID, ticket, fields)
}

// SaveAdmissionList stores a list and its persons in one transaction.
// Persons failing validation are logged and skipped; they never abort the
// list or roll back their siblings.
func (s *Store) SaveAdmissionList(ctx context.Context, key ListKey, fields ListFields, persons []Person) (SaveResult, error) {
	var result SaveResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		listID, err := s.upsertList(ctx, tx, key, fields)
		if err != nil {
			return err
		}
		result.ListID = listID

		for _, p := range persons {
			inserted, err := upsertPerson(ctx, tx, listID, p.Ticket, p.PersonFields)
			switch {
			case errors.Is(err, ErrEmptyTicket) || errors.Is(err, ErrInvalidListID):
				s.logger.Warn("skipping invalid admission person",
					"year", key.Year,
					"method", key.Method,
					"school", key.SchoolCode,
					"department", key.DepartmentCode,
					"name", p.Name,
					"error", err,
				)
				result.Skipped++
			case err != nil:
				return err
			case inserted:
				result.Inserted++
			default:
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return SaveResult{}, err
	}
	return result, nil
}

func (s *Store) upsertList(ctx context.Context, q querier, key ListKey, fields ListFields) (int64, error) {
	if strings.TrimSpace(key.SchoolCode) == "" || strings.TrimSpace(key.DepartmentCode) == "" {
		return 0, fmt.Errorf("%w: school=%q department=%q", ErrEmptyCode, key.SchoolCode, key.DepartmentCode)
	}
	year, err := strconv.Atoi(key.Year)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, key.Year)
	}

	methodID, err := admissionTypeID(ctx, q, key.Method)
	if err != nil {
		return 0, err
	}
	sdID, err := schoolDepartmentID(ctx, q, key)
	if err != nil {
		return 0, err
	}

	var listID int64
	err = q.QueryRowContext(ctx,
		`SELECT Id FROM AdmissionList WHERE Year = ? AND Method = ? AND SchoolDepartmentID = ?`,
		year, methodID, sdID,
	).Scan(&listID)
	switch {
	case err == nil:
		_, err = q.ExecContext(ctx, `
		UPDATE AdmissionList SET
			AverageScore = ?, Weight = ?, SameGradeOrder = ?,
			GeneralGrade = ?, NativeGrade = ?, VeteranGrade = ?, OverseaGrade = ?,
			UniversityApply = ?, GroupCode = ?
		WHERE Id = ?`,
			fields.AverageScore, fields.Weight, fields.SameGradeOrder,
			fields.GeneralGrade, fields.NativeGrade, fields.VeteranGrade, fields.OverseaGrade,
			fields.UniversityApply, fields.GroupCode,
			listID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update admission list: %w", err)
		}
		return listID, nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return 0, fmt.Errorf("failed to query admission list: %w", err)
	}

	res, err := q.ExecContext(ctx, `
	INSERT INTO AdmissionList (
		Year, Method, SchoolDepartmentID,
		AverageScore, Weight, SameGradeOrder,
		GeneralGrade, NativeGrade, VeteranGrade, OverseaGrade,
		UniversityApply, GroupCode
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		year, methodID, sdID,
		fields.AverageScore, fields.Weight, fields.SameGradeOrder,
		fields.GeneralGrade, fields.NativeGrade, fields.VeteranGrade, fields.OverseaGrade,
		fields.UniversityApply, fields.GroupCode,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert admission list: %w", err)
	}
	return res.LastInsertId()
}

// admissionTypeID looks up the method catalog entry by name, creating it on
// first sighting and reading the generated id back.
func admissionTypeID(ctx context.Context, q querier, name string) (int64, error) {
	if name == "" {
		return 0, ErrEmptyMethod
	}

	const lookup = `SELECT Id FROM AdmissionType WHERE Name = ?`
	var id int64
	err := q.QueryRowContext(ctx, lookup, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query admission type: %w", err)
	}

	if _, err := q.ExecContext(ctx, `INSERT INTO AdmissionType (Name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("failed to insert admission type: %w", err)
	}
	if err := q.QueryRowContext(ctx, lookup, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read back admission type: %w", err)
	}
	return id, nil
}

// schoolDepartmentID looks up the school-department pair, refreshing its
// names, or creates it and reads the generated id back.
func schoolDepartmentID(ctx context.Context, q querier, key ListKey) (int64, error) {
	const lookup = `SELECT Id FROM SchoolDepartment WHERE SchoolCode = ? AND DepartmentCode = ?`
	var id int64
	err := q.QueryRowContext(ctx, lookup, key.SchoolCode, key.DepartmentCode).Scan(&id)
	switch {
	case err == nil:
		_, err = q.ExecContext(ctx,
			`UPDATE SchoolDepartment SET SchoolName = ?, DepartmentName = ? WHERE Id = ?`,
			key.SchoolName, key.DepartmentName, id,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update school department: %w", err)
		}
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return 0, fmt.Errorf("failed to query school department: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO SchoolDepartment (SchoolCode, DepartmentCode, SchoolName, DepartmentName) VALUES (?, ?, ?, ?)`,
		key.SchoolCode, key.DepartmentCode, key.SchoolName, key.DepartmentName,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert school department: %w", err)
	}
	if err := q.QueryRowContext(ctx, lookup, key.SchoolCode, key.DepartmentCode).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read back school department: %w", err)
	}
	return id, nil
}

func upsertPerson(ctx context.Context, q querier, listID int64, ticket string, fields PersonFields) (bool, error) {
	if listID <= 0 {
		return false, ErrInvalidListID
	}
	if strings.TrimSpace(ticket) == "" {
		return false, ErrEmptyTicket
	}

	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT Id FROM AdmissionPerson WHERE AdmissionListId = ? AND AdmissionTicket = ?`,
		listID, ticket,
	).Scan(&id)
	switch {
	case err == nil:
		_, err = q.ExecContext(ctx, `
		UPDATE AdmissionPerson SET Name = ?, ExamArea = ?, SecondStageStatus = ?, AdmissionStatus = ?
		WHERE Id = ?`,
			fields.Name, fields.ExamArea, fields.SecondStageStatus, fields.AdmissionStatus, id,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update admission person: %w", err)
		}
		return false, nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return false, fmt.Errorf("failed to query admission person: %w", err)
	}

	_, err = q.ExecContext(ctx, `
	INSERT INTO AdmissionPerson (AdmissionListId, AdmissionTicket, Name, ExamArea, SecondStageStatus, AdmissionStatus)
	VALUES (?, ?, ?, ?, ?, ?)`,
		listID, ticket, fields.Name, fields.ExamArea, fields.SecondStageStatus, fields.AdmissionStatus,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert admission person: %w", err)
	}
	return true, nil
}
