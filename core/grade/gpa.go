package grade

import (
	"sort"
	"strconv"
	"strings"
)

const (
	Uncategorized = "Uncategorized"
	Unscheduled   = "Unscheduled"
)

// countsTowardGPA is the summary policy: completed courses whose final grade is not W or I.
func countsTowardGPA(c *Course, f Final) bool {
	if !c.IsCompleted {
		return false
	}
	g := NormalizeLetter(f.Grade)
	return g != LetterWithdrawn && g != LetterIncomplete
}

// gpa accumulates points·credits over the courses accepted by keep.
// When scale is set, every course's points are first converted onto it.
func gpa(courses []Course, scale Scale, keep func(*Course, Final) bool) (value, credits float64) {
	var totalPoints float64
	for i := range courses {
		c := &courses[i]
		f := c.FinalGrade()
		if !keep(c, f) {
			continue
		}
		pts := f.GradePoints
		if scale != "" {
			pts = ConvertPoints(pts, f.Scale, scale)
		}
		totalPoints += pts * c.Credits
		credits += c.Credits
	}
	if credits <= 0 {
		return 0, 0
	}
	return round(totalPoints/credits, 2), credits
}

// CalculateGPA is the credit-weighted GPA of the completed courses, excluding W and I grades.
func CalculateGPA(courses []Course) float64 {
	v, _ := gpa(courses, "", countsTowardGPA)
	return v
}

// DashboardGPA is the credit-weighted GPA of every course with positive final grade points,
// regardless of completion. It intentionally differs from CalculateGPA.
func DashboardGPA(courses []Course) float64 {
	v, _ := gpa(courses, "", hasPoints)
	return v
}

func hasPoints(_ *Course, f Final) bool { return f.GradePoints > 0 }

// SemesterKey is "{semester} {year}".
func SemesterKey(c Course) string {
	key := strings.TrimSpace(c.Semester)
	if c.Year != 0 {
		key = strings.TrimSpace(key + " " + strconv.Itoa(c.Year))
	}
	if key == "" {
		return Unscheduled
	}
	return key
}

func CategoryKey(c Course) string {
	if cat := strings.TrimSpace(c.Category); cat != "" {
		return cat
	}
	return Uncategorized
}

func groupBy(courses []Course, key func(Course) string) map[string][]Course {
	groups := make(map[string][]Course)
	for _, c := range courses {
		k := key(c)
		groups[k] = append(groups[k], c)
	}
	return groups
}

func GPABySemester(courses []Course) map[string]float64 {
	out := make(map[string]float64)
	for k, cs := range groupBy(courses, SemesterKey) {
		out[k] = CalculateGPA(cs)
	}
	return out
}

func GPAByCategory(courses []Course) map[string]float64 {
	out := make(map[string]float64)
	for k, cs := range groupBy(courses, CategoryKey) {
		out[k] = CalculateGPA(cs)
	}
	return out
}

// Summary is the GPA report of the summary endpoint, expressed on a display scale.
type Summary struct {
	Scale            Scale              `json:"gpa_scale"`
	OverallGPA       float64            `json:"overall_gpa"`
	TotalCredits     float64            `json:"total_credits"`
	TotalCourses     int                `json:"total_courses"`
	CompletedCourses int                `json:"completed_courses"`
	SemesterGPA      map[string]float64 `json:"semester_gpa"`
	CategoryGPA      map[string]float64 `json:"category_gpa"`
	Semesters        []string           `json:"semesters"`
}

// Summarize applies the summary policy, converting course points onto display first.
func Summarize(courses []Course, display Scale) Summary {
	s := Summary{
		Scale:        display,
		TotalCourses: len(courses),
		SemesterGPA:  make(map[string]float64),
		CategoryGPA:  make(map[string]float64),
		Semesters:    make([]string, 0),
	}
	s.OverallGPA, s.TotalCredits = gpa(courses, display, countsTowardGPA)
	for _, c := range courses {
		if c.IsCompleted {
			s.CompletedCourses++
		}
	}
	for k, cs := range groupBy(courses, SemesterKey) {
		s.SemesterGPA[k], _ = gpa(cs, display, countsTowardGPA)
		s.Semesters = append(s.Semesters, k)
	}
	for k, cs := range groupBy(courses, CategoryKey) {
		s.CategoryGPA[k], _ = gpa(cs, display, countsTowardGPA)
	}
	sort.Strings(s.Semesters)
	return s
}

// Dashboard is the figure shown on the main view.
type Dashboard struct {
	Scale         Scale   `json:"gpa_scale"`
	GPA           float64 `json:"gpa"`
	GradedCredits float64 `json:"graded_credits"`
	TotalCredits  float64 `json:"total_credits"`
	TotalCourses  int     `json:"total_courses"`
	Overridden    int     `json:"overridden"`
}

// DashboardOn applies the dashboard policy on the display scale.
func DashboardOn(courses []Course, display Scale) Dashboard {
	d := Dashboard{Scale: display, TotalCourses: len(courses)}
	d.GPA, d.GradedCredits = gpa(courses, display, hasPoints)
	for i := range courses {
		d.TotalCredits += courses[i].Credits
		if courses[i].IsOverridden() {
			d.Overridden++
		}
	}
	return d
}
