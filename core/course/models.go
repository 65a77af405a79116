package course

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gpatrack/gpatrack/core"
	"github.com/gpatrack/gpatrack/core/grade"
)

// Course is a stored course record: ownership and descriptive fields around the engine's grade.Course.
type Course struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Instructor  string `json:"instructor"`
	Description string `json:"description"`

	grade.Course

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Assignment returns the index of the assignment with the given ID, or -1.
func (c *Course) Assignment(id string) int {
	for i, a := range c.Assignments {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name        string          `json:"name" validate:"required,notblank,max=200"`
	Code        string          `json:"code" validate:"max=50"`
	Instructor  string          `json:"instructor" validate:"max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Credits     float64         `json:"credits" validate:"gte=0.5,lte=10"`
	GPAScale    grade.Scale     `json:"gpa_scale" validate:"omitempty,gpascale"`
	Grade       grade.Input     `json:"grade"`
	IsCompleted bool            `json:"is_completed"`
	Semester    string          `json:"semester" validate:"max=50"`
	Year        int             `json:"year" validate:"omitempty,gte=1900,lte=2200"`
	Category    string          `json:"category" validate:"max=100"`
	Assignments []NewAssignment `json:"assignments" validate:"omitempty,dive"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code)
	nc.Instructor = core.CleanString(nc.Instructor)
	nc.Description = core.CleanString(nc.Description)
	nc.GPAScale = grade.Scale(core.CleanString(string(nc.GPAScale), true /* lower */))
	nc.Semester = core.CleanString(nc.Semester)
	nc.Category = core.CleanString(nc.Category)
	for i := range nc.Assignments {
		nc.Assignments[i].clean()
	}
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Nil fields are left unchanged; a Grade sent as null is left unchanged, use ClearGrade to drop it.
type UpdateCourse struct {
	Name        *string      `json:"name" validate:"omitempty,notblank,max=200"`
	Code        *string      `json:"code" validate:"omitempty,max=50"`
	Instructor  *string      `json:"instructor" validate:"omitempty,max=200"`
	Description *string      `json:"description" validate:"omitempty,max=2000"`
	Credits     *float64     `json:"credits" validate:"omitempty,gte=0.5,lte=10"`
	GPAScale    *grade.Scale `json:"gpa_scale" validate:"omitempty,gpascale"`
	Grade       grade.Input  `json:"grade"`
	ClearGrade  bool         `json:"clear_grade"`
	IsCompleted *bool        `json:"is_completed"`
	Semester    *string      `json:"semester" validate:"omitempty,max=50"`
	Year        *int         `json:"year" validate:"omitempty,gte=0,lte=2200"`
	Category    *string      `json:"category" validate:"omitempty,max=100"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	cleanPtr(uc.Name)
	cleanPtr(uc.Code)
	cleanPtr(uc.Instructor)
	cleanPtr(uc.Description)
	cleanPtr(uc.Semester)
	cleanPtr(uc.Category)
	if uc.GPAScale != nil {
		scale := grade.Scale(core.CleanString(string(*uc.GPAScale), true /* lower */))
		uc.GPAScale = &scale
	}
	return validate.Struct(uc)
}

// NewAssignment contains information needed to add an Assignment to a Course.
type NewAssignment struct {
	Name        string               `json:"name" validate:"required,notblank,max=200"`
	Type        grade.AssignmentType `json:"type" validate:"omitempty,oneof=Assignment Quiz Exam Project Participation Other"`
	Weight      float64              `json:"weight" validate:"gte=0,lte=100"`
	Grade       grade.Input          `json:"grade"`
	MaxGrade    float64              `json:"max_grade" validate:"gte=0"`
	DueDate     *time.Time           `json:"due_date"`
	IsCompleted bool                 `json:"is_completed"`
}

func (na *NewAssignment) clean() {
	na.Name = core.CleanString(na.Name)
	na.Type = grade.AssignmentType(core.CleanString(string(na.Type)))
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.clean()
	return validate.Struct(na)
}

// Assignment converts na into an engine assignment. Grades are classified here, once.
func (na NewAssignment) Assignment(id string) grade.Assignment {
	a := grade.Assignment{
		ID:          id,
		Name:        na.Name,
		Type:        na.Type,
		Weight:      na.Weight,
		Grade:       na.Grade.Assignment(),
		MaxGrade:    na.MaxGrade,
		DueDate:     na.DueDate,
		IsCompleted: na.IsCompleted,
	}
	if a.Type == "" {
		a.Type = grade.TypeAssignment
	}
	if a.MaxGrade == 0 {
		a.MaxGrade = grade.DefaultMaxGrade
	}
	if a.DueDate != nil {
		due := a.DueDate.UTC()
		a.DueDate = &due
	}
	return a
}

// UpdateAssignment defines what information may be provided to modify an existing Assignment.
type UpdateAssignment struct {
	Name        *string               `json:"name" validate:"omitempty,notblank,max=200"`
	Type        *grade.AssignmentType `json:"type" validate:"omitempty,oneof=Assignment Quiz Exam Project Participation Other"`
	Weight      *float64              `json:"weight" validate:"omitempty,gte=0,lte=100"`
	Grade       grade.Input           `json:"grade"`
	ClearGrade  bool                  `json:"clear_grade"`
	MaxGrade    *float64              `json:"max_grade" validate:"omitempty,gt=0"`
	DueDate     *time.Time            `json:"due_date"`
	IsCompleted *bool                 `json:"is_completed"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	cleanPtr(ua.Name)
	return validate.Struct(ua)
}

func (ua UpdateAssignment) apply(a *grade.Assignment) {
	if ua.Name != nil {
		a.Name = *ua.Name
	}
	if ua.Type != nil {
		a.Type = *ua.Type
	}
	if ua.Weight != nil {
		a.Weight = *ua.Weight
	}
	if ua.ClearGrade {
		a.Grade = grade.Value{}
	} else if ua.Grade.Set {
		a.Grade = ua.Grade.Assignment()
	}
	if ua.MaxGrade != nil {
		a.MaxGrade = *ua.MaxGrade
	}
	if ua.DueDate != nil {
		due := ua.DueDate.UTC()
		a.DueDate = &due
	}
	if ua.IsCompleted != nil {
		a.IsCompleted = *ua.IsCompleted
	}
}

// SetOverride is the request to override a course's grade. A null or blank grade reverts the override.
type SetOverride struct {
	Grade grade.Input `json:"grade"`
}

type QueryFilter struct {
	UserID      string `query:"-"`
	Search      string `query:"search"`
	Semester    string `query:"semester"`
	Year        int    `query:"year"`
	Category    string `query:"category"`
	IsCompleted *bool  `query:"is_completed"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Semester = core.CleanString(qf.Semester)
	qf.Category = core.CleanString(qf.Category)
}

// Match reports whether c satisfies every set filter field.
func (qf *QueryFilter) Match(c Course) bool {
	if qf == nil {
		return true
	}
	if qf.UserID != "" && c.UserID != qf.UserID {
		return false
	}
	if qf.Search != "" && !containsFold(qf.Search, c.Name, c.Code, c.Instructor) {
		return false
	}
	if qf.Semester != "" && !strings.EqualFold(qf.Semester, c.Semester) {
		return false
	}
	if qf.Year != 0 && c.Year != qf.Year {
		return false
	}
	if qf.Category != "" && !strings.EqualFold(qf.Category, c.Category) {
		return false
	}
	if qf.IsCompleted != nil && c.IsCompleted != *qf.IsCompleted {
		return false
	}
	return true
}

func cleanPtr(s *string) {
	if s != nil {
		*s = core.CleanString(*s)
	}
}

func containsFold(sub string, fields ...string) bool {
	sub = strings.ToLower(sub)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), sub) {
			return true
		}
	}
	return false
}
