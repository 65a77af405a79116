package course_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpatrack/gpatrack/core/course"
	"github.com/gpatrack/gpatrack/core/grade"
	"github.com/gpatrack/gpatrack/core/user"
	inmemdb "github.com/gpatrack/gpatrack/storage/database/inmem"
)

func setup() (course.Repository, course.Service) {
	repo := inmemdb.NewCourseRepository(inmemdb.Open())
	return repo, course.NewService(repo)
}

func strPtr(s string) *string { return &s }

func TestService_Create(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()
	usr := user.User{ID: "u1", GPAScale: grade.Scale40}

	t.Run("assignments", func(t *testing.T) {
		c, err := svc.Create(ctx, usr, course.NewCourse{
			Name:    "Calculus",
			Credits: 4,
			Assignments: []course.NewAssignment{
				{Name: "Midterm", Weight: 40, Grade: grade.InputNumber(90)},
				{Name: "Final", Type: grade.TypeExam, Weight: 60, Grade: grade.InputText("b")},
			},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "u1", c.UserID)
		assert.Equal(t, grade.Scale40, c.Scale, "defaults to the user's scale")
		require.Len(t, c.Assignments, 2)
		assert.NotEmpty(t, c.Assignments[0].ID)
		assert.Equal(t, grade.TypeAssignment, c.Assignments[0].Type)
		assert.Equal(t, float64(grade.DefaultMaxGrade), c.Assignments[0].MaxGrade)
		assert.Equal(t, grade.Letter("B"), c.Assignments[1].Grade)

		require.NotNil(t, c.CalculatedGrade)
		assert.Equal(t, 85.8, *c.CalculatedGrade)
		assert.Equal(t, 3.0, c.GradePoints)
		assert.Equal(t, grade.Final{Grade: "B", GradePoints: 3.0, Scale: grade.Scale40}, c.FinalGrade())
	})

	t.Run("direct grade is classified on the course scale", func(t *testing.T) {
		tests := []struct {
			scale grade.Scale
			in    grade.Input
			want  grade.Value
			pts   float64
		}{
			{scale: grade.Scale40, in: grade.InputNumber(3.7), want: grade.Points(3.7), pts: 3.7},
			{scale: grade.Scale40, in: grade.InputNumber(88), want: grade.Percentage(88), pts: 3.3},
			{scale: grade.Scale43, in: grade.InputText("A+"), want: grade.Letter("A+"), pts: 4.3},
			{scale: grade.ScalePercentage, in: grade.InputNumber(3.7), want: grade.Percentage(3.7), pts: 3.7},
		}
		for _, tt := range tests {
			c, err := svc.Create(ctx, usr, course.NewCourse{Name: "Direct", Credits: 3, GPAScale: tt.scale, Grade: tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.scale, c.Scale)
			assert.Equal(t, tt.want, c.Grade)
			assert.Equal(t, tt.pts, c.GradePoints)
		}
	})
}

func TestService_Get(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()
	owner := user.User{ID: "owner"}

	c, err := svc.Create(ctx, owner, course.NewCourse{Name: "Physics", Credits: 3})
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = svc.Get(ctx, user.User{ID: "intruder"}, c.ID)
	assert.Equal(t, course.ErrNotFound, err)

	_, err = svc.Get(ctx, owner, "lol")
	assert.Equal(t, course.ErrNotFound, err)
}

func TestService_Update(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()
	usr := user.User{ID: "u1"}

	c, err := svc.Create(ctx, usr, course.NewCourse{Name: "History", Credits: 3, Grade: grade.InputNumber(3.5)})
	require.NoError(t, err)
	require.Equal(t, grade.Points(3.5), c.Grade)

	scale := grade.ScalePercentage
	c, err = svc.Update(ctx, c, course.UpdateCourse{GPAScale: &scale, Name: strPtr("World History")})
	require.NoError(t, err)
	assert.Equal(t, "World History", c.Name)
	assert.Equal(t, grade.ScalePercentage, c.Scale)
	assert.Equal(t, grade.Points(3.5), c.Grade, "a scale change keeps the grade kind")
	assert.Equal(t, 3.5, c.GradePoints)

	scale = grade.Scale43
	c, err = svc.Update(ctx, c, course.UpdateCourse{GPAScale: &scale})
	require.NoError(t, err)
	assert.Equal(t, grade.Points(3.5), c.Grade)

	c, err = svc.Update(ctx, c, course.UpdateCourse{Grade: grade.InputText("B")})
	require.NoError(t, err)
	assert.Equal(t, 3.0, c.GradePoints)

	c, err = svc.Update(ctx, c, course.UpdateCourse{ClearGrade: true})
	require.NoError(t, err)
	assert.False(t, c.Grade.IsSet())
	assert.Equal(t, grade.NotAvailable, c.FinalGrade().Grade)
}

func TestService_Assignments(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()
	usr := user.User{ID: "u1"}

	c, err := svc.Create(ctx, usr, course.NewCourse{Name: "Biology", Credits: 3, Grade: grade.InputText("C")})
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.GradePoints)

	c, err = svc.AddAssignment(ctx, c, course.NewAssignment{Name: "Lab", Weight: 50, Grade: grade.InputNumber(95)})
	require.NoError(t, err)
	require.Len(t, c.Assignments, 1)
	assert.Equal(t, 4.0, c.GradePoints, "assignments win over the direct grade")

	c, err = svc.AddAssignment(ctx, c, course.NewAssignment{Name: "Exam", Weight: 50, Grade: grade.InputNumber(75)})
	require.NoError(t, err)
	assert.Equal(t, 85.0, *c.CalculatedGrade)
	assert.Equal(t, 3.0, c.GradePoints)

	examID := c.Assignments[1].ID
	weight := 0.0
	c, err = svc.UpdateAssignment(ctx, c, examID, course.UpdateAssignment{Weight: &weight})
	require.NoError(t, err)
	assert.Equal(t, 95.0, *c.CalculatedGrade)

	_, err = svc.UpdateAssignment(ctx, c, "lol", course.UpdateAssignment{})
	assert.Equal(t, course.ErrAssignmentNotFound, err)

	c, err = svc.DeleteAssignment(ctx, c, c.Assignments[0].ID)
	require.NoError(t, err)
	require.Len(t, c.Assignments, 1)
	assert.Nil(t, c.CalculatedGrade, "only weightless assignments left")
	assert.Equal(t, 2.0, c.GradePoints, "falls back to the direct grade")

	_, err = svc.DeleteAssignment(ctx, c, "lol")
	assert.Equal(t, course.ErrAssignmentNotFound, err)
}

func TestService_Override(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()
	usr := user.User{ID: "u1", GPAScale: grade.Scale43}

	c, err := svc.Create(ctx, usr, course.NewCourse{Name: "Art", Credits: 2, GPAScale: grade.Scale40, Grade: grade.InputText("B")})
	require.NoError(t, err)
	natural := c.FinalGrade()

	c, err = svc.SetOverride(ctx, usr, c, course.SetOverride{Grade: grade.InputText("a+")})
	require.NoError(t, err)
	assert.Equal(t, grade.Final{Grade: "A+", GradePoints: 4.3, IsOverridden: true, Scale: grade.Scale43}, c.FinalGrade())
	assert.Equal(t, 3.0, c.GradePoints, "natural points are kept")

	c, err = svc.Update(ctx, c, course.UpdateCourse{Description: strPtr("Renaissance")})
	require.NoError(t, err)
	assert.True(t, c.IsOverridden(), "saving keeps the override")

	c, err = svc.RevertOverride(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, natural, c.FinalGrade())

	c, err = svc.SetOverride(ctx, usr, c, course.SetOverride{Grade: grade.InputNumber(3.9)})
	require.NoError(t, err)
	assert.Equal(t, grade.Points(3.9), c.GradeOverride)

	c, err = svc.SetOverride(ctx, usr, c, course.SetOverride{})
	require.NoError(t, err)
	assert.False(t, c.IsOverridden(), "an empty override reverts")
}

func TestService_Query(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()
	usr := user.User{ID: "u1"}
	other := user.User{ID: "u2"}

	fall, err := svc.Create(ctx, usr, course.NewCourse{Name: "Algebra", Code: "MATH101", Credits: 3, Semester: "Fall", Year: 2023, Category: "Major", IsCompleted: true})
	require.NoError(t, err)
	spring, err := svc.Create(ctx, usr, course.NewCourse{Name: "Poetry", Code: "ENG210", Credits: 3, Semester: "Spring", Year: 2024})
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, course.NewCourse{Name: "Algebra", Credits: 3})
	require.NoError(t, err)

	done := true
	tests := []struct {
		name   string
		filter *course.QueryFilter
		want   []course.Course
	}{
		{name: "all of mine", want: []course.Course{fall, spring}},
		{name: "search", filter: &course.QueryFilter{Search: "math"}, want: []course.Course{fall}},
		{name: "semester", filter: &course.QueryFilter{Semester: "spring"}, want: []course.Course{spring}},
		{name: "year", filter: &course.QueryFilter{Year: 2023}, want: []course.Course{fall}},
		{name: "category", filter: &course.QueryFilter{Category: "major"}, want: []course.Course{fall}},
		{name: "completed", filter: &course.QueryFilter{IsCompleted: &done}, want: []course.Course{fall}},
		{name: "user id cannot be spoofed", filter: &course.QueryFilter{UserID: "u2", Search: "poetry"}, want: []course.Course{spring}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Query(ctx, usr, tt.filter, nil)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestService_Aggregates(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()
	usr := user.User{ID: "u1", GPAScale: grade.Scale40}

	create := func(nc course.NewCourse) {
		t.Helper()
		_, err := svc.Create(ctx, usr, nc)
		require.NoError(t, err)
	}
	create(course.NewCourse{Name: "A", Credits: 3, Grade: grade.InputText("A"), IsCompleted: true, Semester: "Fall", Year: 2023})
	create(course.NewCourse{Name: "B", Credits: 3, GPAScale: grade.ScalePercentage, Grade: grade.InputNumber(85), IsCompleted: true, Semester: "Fall", Year: 2023})
	create(course.NewCourse{Name: "W", Credits: 3, Grade: grade.InputText("W"), IsCompleted: true, Semester: "Spring", Year: 2024})
	create(course.NewCourse{Name: "C", Credits: 2, Grade: grade.InputText("C")})
	_, err := svc.Create(ctx, user.User{ID: "u2"}, course.NewCourse{Name: "F", Credits: 3, Grade: grade.InputText("F"), IsCompleted: true})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, grade.Scale40, summary.Scale)
	assert.Equal(t, 3.5, summary.OverallGPA)
	assert.Equal(t, 4, summary.TotalCourses)
	assert.Equal(t, 3, summary.CompletedCourses)

	dashboard, err := svc.Dashboard(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, 3.13, dashboard.GPA, "(4*3 + 3*3 + 2*2) / 8")
	assert.Equal(t, 4, dashboard.TotalCourses)
}

func TestService_RecomputeAll(t *testing.T) {
	repo, svc := setup()
	ctx := context.Background()

	stale := course.Course{
		ID:     "c1",
		UserID: "u1",
		Name:   "Stale",
		Course: grade.Course{
			Credits:     3,
			Scale:       grade.Scale40,
			Grade:       grade.Letter("B+"),
			GradePoints: 1.0,
		},
		UpdatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := repo.CreateCourse(ctx, stale)
	require.NoError(t, err)
	_, err = repo.CreateCourse(ctx, course.Course{ID: "c2", UserID: "u2", Name: "Other", Course: grade.Course{Credits: 1, Scale: grade.Scale43}})
	require.NoError(t, err)

	n, err := svc.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.GetCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 3.3, got.GradePoints)
	assert.Equal(t, stale.UpdatedAt, got.UpdatedAt)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.RecomputeAll(cancelled)
	assert.Equal(t, context.Canceled, err)
}
