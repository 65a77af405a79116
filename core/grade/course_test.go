package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignment(weight float64, g Value) Assignment {
	return Assignment{Name: "hw", Type: TypeAssignment, Weight: weight, Grade: g, MaxGrade: DefaultMaxGrade}
}

func TestWeightedAverage(t *testing.T) {
	tests := []struct {
		name   string
		items  []Assignment
		want   float64
		wantOk bool
	}{
		{name: "no assignments"},
		{name: "zero weights", items: []Assignment{assignment(0, Percentage(90)), assignment(0, Percentage(10))}},
		{name: "half and half", items: []Assignment{assignment(50, Percentage(90)), assignment(50, Percentage(70))}, want: 80, wantOk: true},
		{name: "weights below 100", items: []Assignment{assignment(10, Percentage(90)), assignment(10, Percentage(80))}, want: 85, wantOk: true},
		{name: "letters", items: []Assignment{assignment(30, Letter("A")), assignment(70, Letter("b"))}, want: 86, wantOk: true},
		{name: "F letter counts as zero", items: []Assignment{assignment(50, Letter("F")), assignment(50, Percentage(100))}, want: 50, wantOk: true},
		{name: "unknown letter counts as zero", items: []Assignment{assignment(50, Letter("??")), assignment(50, Percentage(80))}, want: 40, wantOk: true},
		{name: "ungraded counts as zero", items: []Assignment{assignment(25, Value{}), assignment(75, Percentage(80))}, want: 60, wantOk: true},
		{name: "rounded to one decimal", items: []Assignment{assignment(1, Percentage(90)), assignment(2, Percentage(85))}, want: 86.7, wantOk: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WeightedAverage(tt.items)
			if ok != tt.wantOk || got != tt.want {
				t.Errorf("WeightedAverage() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestWeightedAverage_ScaleInvariant(t *testing.T) {
	items := []Assignment{
		assignment(15, Percentage(91.5)),
		assignment(35, Letter("B-")),
		assignment(20, Percentage(64)),
		assignment(5, Percentage(100)),
	}
	base, ok := WeightedAverage(items)
	require.True(t, ok)

	for _, factor := range []float64{2, 3, 0.5, 10} {
		scaled := make([]Assignment, len(items))
		for i, a := range items {
			a.Weight *= factor
			scaled[i] = a
		}
		got, ok := WeightedAverage(scaled)
		require.True(t, ok)
		assert.Equal(t, base, got, "factor %v", factor)
	}
}

func TestCourse_Recompute(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name       string
		course     Course
		wantCalc   *float64
		wantCalcPt *float64
		wantLetter string
		wantPoints float64
	}{
		{
			name: "assignments on 4.0",
			course: Course{Credits: 3, Scale: Scale40, Assignments: []Assignment{
				assignment(50, Percentage(90)), assignment(50, Percentage(70)),
			}},
			wantCalc: f(80), wantCalcPt: f(2.7), wantLetter: "B-", wantPoints: 2.7,
		},
		{
			name: "assignments on 4.3",
			course: Course{Credits: 3, Scale: Scale43, Assignments: []Assignment{
				assignment(40, Percentage(99)), assignment(60, Letter("A+")),
			}},
			wantCalc: f(97.8), wantCalcPt: f(4.3), wantLetter: "A+", wantPoints: 4.3,
		},
		{
			name: "assignments on percentage",
			course: Course{Credits: 3, Scale: ScalePercentage, Assignments: []Assignment{
				assignment(20, Percentage(75)), assignment(20, Percentage(95)),
			}},
			wantCalc: f(85), wantCalcPt: f(85), wantLetter: "B", wantPoints: 85,
		},
		{
			name:     "assignments win over direct grade",
			course:   Course{Credits: 3, Scale: Scale40, Grade: Letter("F"), Assignments: []Assignment{assignment(100, Percentage(95))}},
			wantCalc: f(95), wantCalcPt: f(4.0), wantLetter: "A", wantPoints: 4.0,
		},
		{
			name:       "weightless assignments fall back to direct grade",
			course:     Course{Credits: 3, Scale: Scale40, Grade: Letter("B"), Assignments: []Assignment{assignment(0, Percentage(95))}},
			wantPoints: 3.0,
		},
		{
			name:   "weightless assignments without direct grade",
			course: Course{Credits: 3, Scale: Scale40, Assignments: []Assignment{assignment(0, Percentage(95))}},
		},
		{name: "direct letter on 4.3", course: Course{Credits: 3, Scale: Scale43, Grade: Letter("B+")}, wantPoints: 3.3},
		{name: "direct A+ on 4.3", course: Course{Credits: 3, Scale: Scale43, Grade: Letter("A+")}, wantPoints: 4.3},
		{name: "direct percentage on percentage", course: Course{Credits: 3, Scale: ScalePercentage, Grade: Percentage(85)}, wantPoints: 85},
		{name: "direct percentage on 4.0", course: Course{Credits: 3, Scale: Scale40, Grade: Percentage(85)}, wantPoints: 3.0},
		{name: "direct points pass through", course: Course{Credits: 3, Scale: Scale40, Grade: Points(3.7)}, wantPoints: 3.7},
		{name: "nothing", course: Course{Credits: 3, Scale: Scale40, GradePoints: 3.3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.course
			c.Recompute()
			assert.Equal(t, tt.wantCalc, c.CalculatedGrade)
			assert.Equal(t, tt.wantCalcPt, c.CalculatedGradePoints)
			assert.Equal(t, tt.wantLetter, c.CalculatedGradeLetter)
			assert.Equal(t, tt.wantPoints, c.GradePoints)
		})
	}
}

func TestCourse_RecomputeClearsStaleCalculation(t *testing.T) {
	c := Course{Credits: 4, Scale: Scale40, Assignments: []Assignment{assignment(100, Percentage(88))}}
	c.Recompute()
	require.NotNil(t, c.CalculatedGrade)

	c.Assignments = nil
	c.Recompute()
	assert.Nil(t, c.CalculatedGrade)
	assert.Nil(t, c.CalculatedGradePoints)
	assert.Empty(t, c.CalculatedGradeLetter)
	assert.Equal(t, 0.0, c.GradePoints)
}

func TestCourse_FinalGrade(t *testing.T) {
	t.Run("no grade", func(t *testing.T) {
		c := Course{Credits: 3, Scale: Scale40}
		c.Recompute()
		f := c.FinalGrade()
		assert.Equal(t, NotAvailable, f.Grade)
		assert.Equal(t, 0.0, f.GradePoints)
		assert.False(t, f.IsOverridden)
	})

	t.Run("direct", func(t *testing.T) {
		c := Course{Credits: 3, Scale: Scale43, Grade: Letter("B+")}
		c.Recompute()
		assert.Equal(t, Final{Grade: "B+", GradePoints: 3.3, Scale: Scale43}, c.FinalGrade())
	})

	t.Run("calculated", func(t *testing.T) {
		c := Course{Credits: 3, Scale: Scale40, Grade: Letter("A"), Assignments: []Assignment{
			assignment(50, Percentage(90)), assignment(50, Percentage(70)),
		}}
		c.Recompute()
		assert.Equal(t, Final{Grade: "B-", GradePoints: 2.7, Scale: Scale40}, c.FinalGrade())
	})

	t.Run("calculated without letter", func(t *testing.T) {
		pct, pts := 81.5, 2.7
		c := Course{Scale: Scale40, CalculatedGrade: &pct, CalculatedGradePoints: &pts}
		assert.Equal(t, "81.5", c.FinalGrade().Grade)
	})
}

func TestCourse_Override(t *testing.T) {
	courses := []Course{
		{Credits: 3, Scale: Scale40},
		{Credits: 3, Scale: Scale40, Grade: Letter("C")},
		{Credits: 3, Scale: Scale43, Grade: Percentage(99)},
		{Credits: 3, Scale: Scale40, Assignments: []Assignment{assignment(100, Percentage(55))}},
		{Credits: 3, Scale: ScalePercentage, Assignments: []Assignment{assignment(30, Percentage(91))}},
	}
	for _, c := range courses {
		c.Recompute()
		before := c
		beforeFinal := c.FinalGrade()

		c.SetOverride(Letter("A-"), Scale40)
		c.Recompute() // saving must not clear the override
		f := c.FinalGrade()
		assert.Equal(t, Final{Grade: "A-", GradePoints: 3.7, IsOverridden: true, Scale: Scale40}, f)

		c.RevertOverride()
		c.Recompute()
		assert.Equal(t, beforeFinal, c.FinalGrade())
		assert.Equal(t, before, c)

		c.RevertOverride()
		assert.Equal(t, before, c, "revert is idempotent")
	}
}

func TestCourse_OverrideUsesUserScale(t *testing.T) {
	c := Course{Credits: 3, Scale: Scale40, Grade: Letter("B")}
	c.Recompute()

	c.SetOverride(Letter("A+"), Scale43)
	f := c.FinalGrade()
	assert.Equal(t, 4.3, f.GradePoints, "A+ on the user's 4.3 scale, not the course's 4.0")
	assert.Equal(t, Scale43, f.Scale)
	assert.Equal(t, 3.0, c.GradePoints, "natural points stay on the course scale")

	c.SetOverride(Percentage(91), ScalePercentage)
	assert.Equal(t, 91.0, c.FinalGrade().GradePoints)

	c.SetOverride(Value{}, Scale40)
	assert.False(t, c.IsOverridden())
}

func TestCourse_Progress(t *testing.T) {
	done := assignment(40, Percentage(80))
	done.IsCompleted = true
	c := Course{Assignments: []Assignment{done, assignment(35, Value{}), assignment(25, Letter("B"))}}

	assert.Equal(t, Progress{
		Assignments:     3,
		Completed:       1,
		Graded:          2,
		TotalWeight:     100,
		GradedWeight:    65,
		CompletedWeight: 40,
	}, c.Progress())
}
