package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gpatrack/gpatrack/core"
	"github.com/gpatrack/gpatrack/core/course"
	"github.com/gpatrack/gpatrack/core/grade"
)

const (
	courseColumns = `id, user_id, name, code, instructor, description, credits, gpa_scale,
		grade, grade_points, calculated_grade, calculated_grade_points, calculated_grade_letter,
		grade_override, grade_override_points, grade_override_scale,
		is_completed, semester, year, category, created_at, updated_at`

	assignmentColumns = `id, course_id, position, name, type, weight, grade, max_grade, due_date, is_completed`
)

var courseOrderings = map[string]string{
	"name":       "name",
	"code":       "code",
	"credits":    "credits",
	"year":       "year",
	"semester":   "semester",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type courseRow struct {
	ID                    string       `db:"id"`
	UserID                string       `db:"user_id"`
	Name                  string       `db:"name"`
	Code                  string       `db:"code"`
	Instructor            string       `db:"instructor"`
	Description           string       `db:"description"`
	Credits               float64      `db:"credits"`
	GPAScale              string       `db:"gpa_scale"`
	Grade                 grade.Value  `db:"grade"`
	GradePoints           float64      `db:"grade_points"`
	CalculatedGrade       null.Float64 `db:"calculated_grade"`
	CalculatedGradePoints null.Float64 `db:"calculated_grade_points"`
	CalculatedGradeLetter string       `db:"calculated_grade_letter"`
	GradeOverride         grade.Value  `db:"grade_override"`
	GradeOverridePoints   null.Float64 `db:"grade_override_points"`
	GradeOverrideScale    string       `db:"grade_override_scale"`
	IsCompleted           bool         `db:"is_completed"`
	Semester              string       `db:"semester"`
	Year                  int          `db:"year"`
	Category              string       `db:"category"`
	CreatedAt             time.Time    `db:"created_at"`
	UpdatedAt             time.Time    `db:"updated_at"`
}

type assignmentRow struct {
	ID          string      `db:"id"`
	CourseID    string      `db:"course_id"`
	Position    int         `db:"position"`
	Name        string      `db:"name"`
	Type        string      `db:"type"`
	Weight      float64     `db:"weight"`
	Grade       grade.Value `db:"grade"`
	MaxGrade    float64     `db:"max_grade"`
	DueDate     null.Time   `db:"due_date"`
	IsCompleted bool        `db:"is_completed"`
}

func toCourseRow(c course.Course) courseRow {
	return courseRow{
		ID:                    c.ID,
		UserID:                c.UserID,
		Name:                  c.Name,
		Code:                  c.Code,
		Instructor:            c.Instructor,
		Description:           c.Description,
		Credits:               c.Credits,
		GPAScale:              string(c.Scale),
		Grade:                 c.Grade,
		GradePoints:           c.GradePoints,
		CalculatedGrade:       null.Float64FromPtr(c.CalculatedGrade),
		CalculatedGradePoints: null.Float64FromPtr(c.CalculatedGradePoints),
		CalculatedGradeLetter: c.CalculatedGradeLetter,
		GradeOverride:         c.GradeOverride,
		GradeOverridePoints:   null.Float64FromPtr(c.GradeOverridePoints),
		GradeOverrideScale:    string(c.GradeOverrideScale),
		IsCompleted:           c.IsCompleted,
		Semester:              c.Semester,
		Year:                  c.Year,
		Category:              c.Category,
		CreatedAt:             c.CreatedAt.UTC(),
		UpdatedAt:             c.UpdatedAt.UTC(),
	}
}

func (row courseRow) course(assignments []grade.Assignment) course.Course {
	return course.Course{
		ID:          row.ID,
		UserID:      row.UserID,
		Name:        row.Name,
		Code:        row.Code,
		Instructor:  row.Instructor,
		Description: row.Description,
		Course: grade.Course{
			Credits:               row.Credits,
			Scale:                 grade.Scale(row.GPAScale),
			Grade:                 row.Grade,
			GradePoints:           row.GradePoints,
			Assignments:           assignments,
			CalculatedGrade:       row.CalculatedGrade.Ptr(),
			CalculatedGradePoints: row.CalculatedGradePoints.Ptr(),
			CalculatedGradeLetter: row.CalculatedGradeLetter,
			GradeOverride:         row.GradeOverride,
			GradeOverridePoints:   row.GradeOverridePoints.Ptr(),
			GradeOverrideScale:    grade.Scale(row.GradeOverrideScale),
			IsCompleted:           row.IsCompleted,
			Semester:              row.Semester,
			Year:                  row.Year,
			Category:              row.Category,
		},
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func toAssignmentRow(courseID string, position int, a grade.Assignment) assignmentRow {
	row := assignmentRow{
		ID:          a.ID,
		CourseID:    courseID,
		Position:    position,
		Name:        a.Name,
		Type:        string(a.Type),
		Weight:      a.Weight,
		Grade:       a.Grade,
		MaxGrade:    a.MaxGrade,
		IsCompleted: a.IsCompleted,
	}
	if a.DueDate != nil {
		row.DueDate = null.TimeFrom(a.DueDate.UTC())
	}
	return row
}

func (row assignmentRow) assignment() grade.Assignment {
	a := grade.Assignment{
		ID:          row.ID,
		Name:        row.Name,
		Type:        grade.AssignmentType(row.Type),
		Weight:      row.Weight,
		Grade:       row.Grade,
		MaxGrade:    row.MaxGrade,
		IsCompleted: row.IsCompleted,
	}
	if row.DueDate.Valid {
		due := row.DueDate.Time.UTC()
		a.DueDate = &due
	}
	return a
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

// inTx runs fn in a transaction, rolled back if fn fails.
func (repo *courseRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func insertAssignments(ctx context.Context, tx *sqlx.Tx, c course.Course) error {
	q := `INSERT INTO assignment (` + assignmentColumns + `)
		VALUES (:id, :course_id, :position, :name, :type, :weight, :grade, :max_grade, :due_date, :is_completed)`
	for i, a := range c.Assignments {
		if a.ID == "" {
			a.ID = uuid.New().String()
			c.Assignments[i].ID = a.ID
		}
		if _, err := tx.NamedExecContext(ctx, q, toAssignmentRow(c.ID, i, a)); err != nil {
			return errors.Wrap(err, "inserting assignment")
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.Assignments = append([]grade.Assignment(nil), c.Assignments...)

	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		q := `INSERT INTO course (` + courseColumns + `)
			VALUES (:id, :user_id, :name, :code, :instructor, :description, :credits, :gpa_scale,
				:grade, :grade_points, :calculated_grade, :calculated_grade_points, :calculated_grade_letter,
				:grade_override, :grade_override_points, :grade_override_scale,
				:is_completed, :semester, :year, :category, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, q, toCourseRow(c)); err != nil {
			return errors.Wrap(err, "inserting course")
		}
		return insertAssignments(ctx, tx, c)
	})
	if err != nil {
		return course.Course{}, err
	}
	return c, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+courseColumns+` FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	assignments, err := repo.assignments(ctx, id)
	if err != nil {
		return course.Course{}, err
	}
	return row.course(assignments[id]), nil
}

// assignments loads the assignments of the given courses, keyed by course ID and in position order.
func (repo *courseRepository) assignments(ctx context.Context, courseIDs ...string) (map[string][]grade.Assignment, error) {
	byCourse := make(map[string][]grade.Assignment, len(courseIDs))
	if len(courseIDs) == 0 {
		return byCourse, nil
	}
	q, args, err := sqlx.In(`SELECT `+assignmentColumns+` FROM assignment WHERE course_id IN (?) ORDER BY course_id, position`, courseIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building assignments query")
	}
	var rows []assignmentRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	for _, row := range rows {
		byCourse[row.CourseID] = append(byCourse[row.CourseID], row.assignment())
	}
	return byCourse, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var where []string
	var args []interface{}

	if filter != nil {
		if filter.UserID != "" {
			if _, err := uuid.Parse(filter.UserID); err != nil {
				return []course.Course{}, nil
			}
			where = append(where, "user_id = ?")
			args = append(args, filter.UserID)
		}
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			where = append(where, "(name ILIKE ? OR code ILIKE ? OR instructor ILIKE ?)")
			args = append(args, val, val, val)
		}
		if filter.Semester != "" {
			where = append(where, "LOWER(semester) = LOWER(?)")
			args = append(args, filter.Semester)
		}
		if filter.Year != 0 {
			where = append(where, "year = ?")
			args = append(args, filter.Year)
		}
		if filter.Category != "" {
			where = append(where, "LOWER(category) = LOWER(?)")
			args = append(args, filter.Category)
		}
		if filter.IsCompleted != nil {
			where = append(where, "is_completed = ?")
			args = append(args, *filter.IsCompleted)
		}
	}

	q := `SELECT ` + courseColumns + ` FROM course`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderBy(ordering, courseOrderings)

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	assignments, err := repo.assignments(ctx, ids...)
	if err != nil {
		return nil, err
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.course(assignments[row.ID]))
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if _, err := uuid.Parse(c.ID); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	c.Assignments = append([]grade.Assignment(nil), c.Assignments...)

	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		q := `UPDATE course SET
			name = :name, code = :code, instructor = :instructor, description = :description,
			credits = :credits, gpa_scale = :gpa_scale, grade = :grade, grade_points = :grade_points,
			calculated_grade = :calculated_grade, calculated_grade_points = :calculated_grade_points,
			calculated_grade_letter = :calculated_grade_letter, grade_override = :grade_override,
			grade_override_points = :grade_override_points, grade_override_scale = :grade_override_scale,
			is_completed = :is_completed, semester = :semester, year = :year, category = :category,
			updated_at = :updated_at
			WHERE id = :id`
		res, err := tx.NamedExecContext(ctx, q, toCourseRow(c))
		if err != nil {
			return errors.Wrap(err, "updating course")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return course.ErrNotFound
		}

		// assignments are replaced as a whole
		if _, err = tx.ExecContext(ctx, `DELETE FROM assignment WHERE course_id = $1`, c.ID); err != nil {
			return errors.Wrap(err, "deleting assignments")
		}
		return insertAssignments(ctx, tx, c)
	})
	if err != nil {
		return course.Course{}, err
	}
	return c, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return course.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo *courseRepository) DeleteCoursesByUser(ctx context.Context, userID string) (int, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return 0, nil
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE user_id = $1`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting courses")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting courses")
	}
	return int(cnt), nil
}
