package grade

import (
	"strconv"
	"time"
)

type AssignmentType string

const (
	TypeAssignment    AssignmentType = "Assignment"
	TypeQuiz          AssignmentType = "Quiz"
	TypeExam          AssignmentType = "Exam"
	TypeProject       AssignmentType = "Project"
	TypeParticipation AssignmentType = "Participation"
	TypeOther         AssignmentType = "Other"

	DefaultMaxGrade = 100
)

var AssignmentTypes = []AssignmentType{TypeAssignment, TypeQuiz, TypeExam, TypeProject, TypeParticipation, TypeOther}

type Assignment struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        AssignmentType `json:"type"`
	Weight      float64        `json:"weight"` // percent of the course grade
	Grade       Value          `json:"grade"`
	MaxGrade    float64        `json:"max_grade"`
	DueDate     *time.Time     `json:"due_date"`
	IsCompleted bool           `json:"is_completed"`
}

// percentage is the value the assignment contributes to its course's weighted average.
func (a Assignment) percentage() float64 {
	switch a.Grade.Kind() {
	case KindLetter:
		return LetterToPercentage(a.Grade.Letter())
	case KindPercentage, KindPoints:
		return a.Grade.Number()
	}
	return 0
}

// WeightedAverage returns Σ(grade·weight)/Σweight rounded to one decimal.
// ok is false when no assignment carries any weight.
func WeightedAverage(assignments []Assignment) (pct float64, ok bool) {
	var totalWeighted, totalWeight float64
	for _, a := range assignments {
		totalWeighted += a.percentage() * a.Weight
		totalWeight += a.Weight
	}
	if totalWeight <= 0 {
		return 0, false
	}
	return round(totalWeighted/totalWeight, 1), true
}

// Course holds everything the engine reads from and writes back to a course record.
type Course struct {
	Credits float64 `json:"credits"`
	Scale   Scale   `json:"gpa_scale"`

	// Grade is the direct, end-of-term grade used when there are no weighted assignments.
	Grade       Value        `json:"grade"`
	GradePoints float64      `json:"grade_points"`
	Assignments []Assignment `json:"assignments"`

	CalculatedGrade       *float64 `json:"calculated_grade"`
	CalculatedGradePoints *float64 `json:"calculated_grade_points"`
	CalculatedGradeLetter string   `json:"calculated_grade_letter,omitempty"`

	GradeOverride       Value    `json:"grade_override"`
	GradeOverridePoints *float64 `json:"grade_override_points"`
	GradeOverrideScale  Scale    `json:"grade_override_scale,omitempty"`

	IsCompleted bool   `json:"is_completed"`
	Semester    string `json:"semester"`
	Year        int    `json:"year"`
	Category    string `json:"category"`
}

// Recompute refreshes the calculated and cached grade fields. Override fields are left untouched.
func (c *Course) Recompute() {
	c.CalculatedGrade = nil
	c.CalculatedGradePoints = nil
	c.CalculatedGradeLetter = ""

	if len(c.Assignments) > 0 {
		if pct, ok := WeightedAverage(c.Assignments); ok {
			pts := PercentageToPoints(pct, c.Scale)
			c.CalculatedGrade = &pct
			c.CalculatedGradePoints = &pts
			c.CalculatedGradeLetter = LetterForPoints(pts, c.Scale)
			c.GradePoints = pts
			return
		}
	}

	if c.Grade.IsSet() {
		c.GradePoints = PointsFor(c.Grade, c.Scale)
	} else {
		c.GradePoints = 0
	}
}

// IsOverridden reports whether a user override currently supersedes the natural grade.
func (c *Course) IsOverridden() bool { return c.GradeOverride.IsSet() }

// SetOverride records v as the course grade. Its points are computed on the
// user's scale because overrides are entered against the user's settings.
func (c *Course) SetOverride(v Value, userScale Scale) {
	if !v.IsSet() {
		c.RevertOverride()
		return
	}
	pts := PointsFor(v, userScale)
	c.GradeOverride = v
	c.GradeOverridePoints = &pts
	c.GradeOverrideScale = userScale
}

// RevertOverride drops the override. Reverting twice is a no-op.
func (c *Course) RevertOverride() {
	c.GradeOverride = Value{}
	c.GradeOverridePoints = nil
	c.GradeOverrideScale = ""
}

// Final is the grade a course reports for display and GPA purposes.
type Final struct {
	Grade        string  `json:"grade"`
	GradePoints  float64 `json:"grade_points"`
	IsOverridden bool    `json:"is_overridden"`
	Scale        Scale   `json:"gpa_scale"` // scale GradePoints is expressed on
}

// FinalGrade resolves, in order: override, calculated grade, direct grade, N/A.
func (c *Course) FinalGrade() Final {
	switch {
	case c.GradeOverride.IsSet():
		var pts float64
		if c.GradeOverridePoints != nil {
			pts = *c.GradeOverridePoints
		}
		scale := c.GradeOverrideScale
		if scale == "" {
			scale = c.Scale
		}
		return Final{Grade: c.GradeOverride.String(), GradePoints: pts, IsOverridden: true, Scale: scale}
	case c.CalculatedGrade != nil:
		grade := c.CalculatedGradeLetter
		if grade == "" {
			grade = strconv.FormatFloat(*c.CalculatedGrade, 'f', -1, 64)
		}
		var pts float64
		if c.CalculatedGradePoints != nil {
			pts = *c.CalculatedGradePoints
		}
		return Final{Grade: grade, GradePoints: pts, Scale: c.Scale}
	case c.Grade.IsSet():
		return Final{Grade: c.Grade.String(), GradePoints: c.GradePoints, Scale: c.Scale}
	}
	return Final{Grade: NotAvailable, GradePoints: 0, Scale: c.Scale}
}

// Progress summarises how far through its assignments a course is.
type Progress struct {
	Assignments     int     `json:"assignments"`
	Completed       int     `json:"completed"`
	Graded          int     `json:"graded"`
	TotalWeight     float64 `json:"total_weight"`
	GradedWeight    float64 `json:"graded_weight"`
	CompletedWeight float64 `json:"completed_weight"`
}

func (c *Course) Progress() Progress {
	p := Progress{Assignments: len(c.Assignments)}
	for _, a := range c.Assignments {
		p.TotalWeight += a.Weight
		if a.IsCompleted {
			p.Completed++
			p.CompletedWeight += a.Weight
		}
		if a.Grade.IsSet() {
			p.Graded++
			p.GradedWeight += a.Weight
		}
	}
	return p
}
