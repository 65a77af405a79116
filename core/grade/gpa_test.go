package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newCourse(credits float64, scale Scale, g Value, completed bool, semester string, year int, category string) Course {
	c := Course{
		Credits:     credits,
		Scale:       scale,
		Grade:       g,
		IsCompleted: completed,
		Semester:    semester,
		Year:        year,
		Category:    category,
	}
	c.Recompute()
	return c
}

func TestCalculateGPA(t *testing.T) {
	tests := []struct {
		name    string
		courses []Course
		want    float64
	}{
		{name: "no courses", want: 0},
		{
			name: "two completed courses",
			courses: []Course{
				newCourse(3, Scale40, Points(4.0), true, "Fall", 2023, ""),
				newCourse(4, Scale40, Points(3.0), true, "Fall", 2023, ""),
			},
			want: 3.43,
		},
		{
			name: "incomplete courses are skipped",
			courses: []Course{
				newCourse(3, Scale40, Letter("A"), true, "Fall", 2023, ""),
				newCourse(3, Scale40, Letter("C"), false, "Fall", 2023, ""),
			},
			want: 4.0,
		},
		{
			name: "W and I are skipped",
			courses: []Course{
				newCourse(3, Scale40, Letter("B"), true, "Fall", 2023, ""),
				newCourse(3, Scale40, Letter("W"), true, "Fall", 2023, ""),
				newCourse(3, Scale40, Letter("I"), true, "Fall", 2023, ""),
			},
			want: 3.0,
		},
		{
			name: "F counts",
			courses: []Course{
				newCourse(3, Scale40, Letter("A"), true, "Fall", 2023, ""),
				newCourse(1, Scale40, Letter("F"), true, "Fall", 2023, ""),
			},
			want: 3.0,
		},
		{
			name:    "only incomplete",
			courses: []Course{newCourse(3, Scale40, Letter("A"), false, "Fall", 2023, "")},
			want:    0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateGPA(tt.courses); got != tt.want {
				t.Errorf("CalculateGPA() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateGPA_OverriddenWithdrawal(t *testing.T) {
	c := newCourse(3, Scale40, Letter("A"), true, "Fall", 2023, "")
	c.SetOverride(Letter("W"), Scale40)
	other := newCourse(3, Scale40, Letter("B"), true, "Fall", 2023, "")

	assert.Equal(t, 3.0, CalculateGPA([]Course{c, other}))
}

func TestCalculateGPA_WithdrawnWithPoints(t *testing.T) {
	// W is excluded even when it carries points
	c := newCourse(3, Scale40, Letter("W"), true, "Fall", 2023, "")
	c.GradePoints = 4.0
	assert.Equal(t, 0.0, CalculateGPA([]Course{c}))
}

func TestDashboardGPA(t *testing.T) {
	courses := []Course{
		newCourse(3, Scale40, Letter("A"), true, "Fall", 2023, ""),
		newCourse(3, Scale40, Letter("C"), false, "Spring", 2024, ""),
		newCourse(3, Scale40, Letter("W"), true, "Spring", 2024, ""),
		newCourse(3, Scale40, Value{}, false, "Spring", 2024, ""),
	}
	assert.Equal(t, 3.0, DashboardGPA(courses))
	assert.Equal(t, 4.0, CalculateGPA(courses), "summary and dashboard policies differ")
}

func TestGPABySemesterAndCategory(t *testing.T) {
	courses := []Course{
		newCourse(3, Scale40, Letter("A"), true, "Fall", 2023, "Major"),
		newCourse(3, Scale40, Letter("B"), true, "Fall", 2023, "Elective"),
		newCourse(4, Scale40, Letter("C"), true, "Spring", 2024, "Major"),
		newCourse(4, Scale40, Letter("B"), false, "Spring", 2024, ""),
	}

	assert.Equal(t, map[string]float64{
		"Fall 2023":   3.5,
		"Spring 2024": 2.0,
	}, GPABySemester(courses))

	assert.Equal(t, map[string]float64{
		"Major":       2.86,
		"Elective":    3.0,
		Uncategorized: 0,
	}, GPAByCategory(courses))
}

func TestSemesterKey(t *testing.T) {
	assert.Equal(t, "Fall 2023", SemesterKey(Course{Semester: "Fall", Year: 2023}))
	assert.Equal(t, "2023", SemesterKey(Course{Year: 2023}))
	assert.Equal(t, "Fall", SemesterKey(Course{Semester: "Fall"}))
	assert.Equal(t, Unscheduled, SemesterKey(Course{}))
}

func TestSummarize(t *testing.T) {
	courses := []Course{
		newCourse(3, Scale40, Letter("A"), true, "Fall", 2023, "Major"),
		newCourse(3, ScalePercentage, Percentage(85), true, "Fall", 2023, "Major"),
		newCourse(2, Scale40, Letter("W"), true, "Spring", 2024, ""),
		newCourse(4, Scale40, Letter("B"), false, "Spring", 2024, ""),
	}

	s := Summarize(courses, Scale40)
	assert.Equal(t, Scale40, s.Scale)
	assert.Equal(t, 3.5, s.OverallGPA, "85% is converted to 3.0 before averaging")
	assert.Equal(t, 6.0, s.TotalCredits)
	assert.Equal(t, 4, s.TotalCourses)
	assert.Equal(t, 3, s.CompletedCourses)
	assert.Equal(t, map[string]float64{"Fall 2023": 3.5, "Spring 2024": 0}, s.SemesterGPA)
	assert.Equal(t, map[string]float64{"Major": 3.5, Uncategorized: 0}, s.CategoryGPA)
	assert.Equal(t, []string{"Fall 2023", "Spring 2024"}, s.Semesters)

	same := []Course{
		newCourse(3, Scale40, Points(4.0), true, "Fall", 2023, ""),
		newCourse(4, Scale40, Points(3.0), true, "Fall", 2023, ""),
	}
	assert.Equal(t, CalculateGPA(same), Summarize(same, Scale40).OverallGPA)
}

func TestDashboardOn(t *testing.T) {
	overridden := newCourse(3, Scale40, Letter("B"), false, "Fall", 2023, "")
	overridden.SetOverride(Letter("A+"), Scale43)
	courses := []Course{
		overridden,
		newCourse(3, Scale43, Letter("A+"), true, "Fall", 2023, ""),
		newCourse(2, Scale40, Value{}, false, "Fall", 2023, ""),
	}

	d := DashboardOn(courses, Scale43)
	assert.Equal(t, Dashboard{
		Scale:         Scale43,
		GPA:           4.3,
		GradedCredits: 6,
		TotalCredits:  8,
		TotalCourses:  3,
		Overridden:    1,
	}, d)

	assert.Equal(t, 4.0, DashboardOn(courses, Scale40).GPA)
}
