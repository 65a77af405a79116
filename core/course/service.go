package course

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/gpatrack/gpatrack/core"
	"github.com/gpatrack/gpatrack/core/grade"
	"github.com/gpatrack/gpatrack/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("course not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
)

type (
	Repository interface {
		// CreateCourse stores c and its assignments, assigning c.ID if empty.
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// GetCourse returns ErrNotFound if no Course has the ID.
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCourses applies AND operation on available QueryFilter fields. A nil filter returns every course.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		// UpdateCourse saves c, replacing its stored assignments with c.Assignments.
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
		DeleteCoursesByUser(ctx context.Context, userID string) (int, error)
	}

	// Service manages course records. Every write recomputes the course's cached grade fields before saving.
	Service interface {
		Create(ctx context.Context, usr user.User, nc NewCourse) (Course, error)
		// Get returns ErrNotFound if the course does not exist or is not owned by usr.
		Get(ctx context.Context, usr user.User, id string) (Course, error)
		Query(ctx context.Context, usr user.User, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		Update(ctx context.Context, c Course, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, c Course) error
		DeleteByUser(ctx context.Context, userID string) error

		AddAssignment(ctx context.Context, c Course, na NewAssignment) (Course, error)
		UpdateAssignment(ctx context.Context, c Course, assignmentID string, ua UpdateAssignment) (Course, error)
		DeleteAssignment(ctx context.Context, c Course, assignmentID string) (Course, error)

		// SetOverride classifies and converts the override on the user's scale.
		SetOverride(ctx context.Context, usr user.User, c Course, data SetOverride) (Course, error)
		RevertOverride(ctx context.Context, c Course) (Course, error)

		// Summary aggregates the user's completed courses, excluding W and I.
		Summary(ctx context.Context, usr user.User) (grade.Summary, error)
		// Dashboard aggregates every course of the user with grade points.
		Dashboard(ctx context.Context, usr user.User) (grade.Dashboard, error)

		// RecomputeAll re-runs the grade engine on every stored course and returns how many were saved.
		RecomputeAll(ctx context.Context) (int, error)
	}

	service struct {
		repo Repository
	}
)

var (
	_ Service = (*service)(nil)

	newID   = func() string { return uuid.New().String() } // mockable
	nowFunc = time.Now                                     // mockable
)

func NewService(repo Repository) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()

	return &service{repo: repo}
}

func (svc *service) save(ctx context.Context, c Course) (Course, error) {
	c.Recompute()
	c.UpdatedAt = nowFunc().UTC()
	saved, err := svc.repo.UpdateCourse(ctx, c)
	if err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	return saved, nil
}

func (svc *service) Create(ctx context.Context, usr user.User, nc NewCourse) (Course, error) {
	scale := nc.GPAScale
	if !scale.IsValid() {
		scale = usr.Scale()
	}
	now := nowFunc().UTC()
	c := Course{
		UserID:      usr.ID,
		Name:        nc.Name,
		Code:        nc.Code,
		Instructor:  nc.Instructor,
		Description: nc.Description,
		Course: grade.Course{
			Credits:     nc.Credits,
			Scale:       scale,
			Grade:       nc.Grade.Direct(scale),
			IsCompleted: nc.IsCompleted,
			Semester:    nc.Semester,
			Year:        nc.Year,
			Category:    nc.Category,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, na := range nc.Assignments {
		c.Assignments = append(c.Assignments, na.Assignment(newID()))
	}
	c.Recompute()

	created, err := svc.repo.CreateCourse(ctx, c)
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	return created, nil
}

func (svc *service) Get(ctx context.Context, usr user.User, id string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if c.UserID != usr.ID {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (svc *service) Query(ctx context.Context, usr user.User, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.UserID = usr.ID
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, c Course, uc UpdateCourse) (Course, error) {
	if uc.Name != nil {
		c.Name = *uc.Name
	}
	if uc.Code != nil {
		c.Code = *uc.Code
	}
	if uc.Instructor != nil {
		c.Instructor = *uc.Instructor
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.Credits != nil {
		c.Credits = *uc.Credits
	}
	if uc.GPAScale != nil && uc.GPAScale.IsValid() {
		// the direct grade keeps the kind it was given on input
		c.Scale = *uc.GPAScale
	}
	if uc.ClearGrade {
		c.Grade = grade.Value{}
	} else if uc.Grade.Set {
		c.Grade = uc.Grade.Direct(c.Scale)
	}
	if uc.IsCompleted != nil {
		c.IsCompleted = *uc.IsCompleted
	}
	if uc.Semester != nil {
		c.Semester = *uc.Semester
	}
	if uc.Year != nil {
		c.Year = *uc.Year
	}
	if uc.Category != nil {
		c.Category = *uc.Category
	}
	return svc.save(ctx, c)
}

func (svc *service) Delete(ctx context.Context, c Course) error {
	return svc.repo.DeleteCourse(ctx, c.ID)
}

func (svc *service) DeleteByUser(ctx context.Context, userID string) error {
	_, err := svc.repo.DeleteCoursesByUser(ctx, userID)
	return err
}

func (svc *service) AddAssignment(ctx context.Context, c Course, na NewAssignment) (Course, error) {
	assignments := make([]grade.Assignment, len(c.Assignments), len(c.Assignments)+1)
	copy(assignments, c.Assignments)
	c.Assignments = append(assignments, na.Assignment(newID()))
	return svc.save(ctx, c)
}

func (svc *service) UpdateAssignment(ctx context.Context, c Course, assignmentID string, ua UpdateAssignment) (Course, error) {
	idx := c.Assignment(assignmentID)
	if idx < 0 {
		return Course{}, ErrAssignmentNotFound
	}
	assignments := make([]grade.Assignment, len(c.Assignments))
	copy(assignments, c.Assignments)
	ua.apply(&assignments[idx])
	c.Assignments = assignments
	return svc.save(ctx, c)
}

func (svc *service) DeleteAssignment(ctx context.Context, c Course, assignmentID string) (Course, error) {
	idx := c.Assignment(assignmentID)
	if idx < 0 {
		return Course{}, ErrAssignmentNotFound
	}
	assignments := make([]grade.Assignment, 0, len(c.Assignments)-1)
	assignments = append(assignments, c.Assignments[:idx]...)
	c.Assignments = append(assignments, c.Assignments[idx+1:]...)
	return svc.save(ctx, c)
}

func (svc *service) SetOverride(ctx context.Context, usr user.User, c Course, data SetOverride) (Course, error) {
	scale := usr.Scale()
	c.SetOverride(data.Grade.Direct(scale), scale)
	return svc.save(ctx, c)
}

func (svc *service) RevertOverride(ctx context.Context, c Course) (Course, error) {
	c.RevertOverride()
	return svc.save(ctx, c)
}

func (svc *service) engineCourses(ctx context.Context, usr user.User) ([]grade.Course, error) {
	courses, err := svc.repo.QueryCourses(ctx, &QueryFilter{UserID: usr.ID}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	gcs := make([]grade.Course, 0, len(courses))
	for _, c := range courses {
		gcs = append(gcs, c.Course)
	}
	return gcs, nil
}

func (svc *service) Summary(ctx context.Context, usr user.User) (grade.Summary, error) {
	courses, err := svc.engineCourses(ctx, usr)
	if err != nil {
		return grade.Summary{}, err
	}
	return grade.Summarize(courses, usr.Scale()), nil
}

func (svc *service) Dashboard(ctx context.Context, usr user.User) (grade.Dashboard, error) {
	courses, err := svc.engineCourses(ctx, usr)
	if err != nil {
		return grade.Dashboard{}, err
	}
	return grade.DashboardOn(courses, usr.Scale()), nil
}

func (svc *service) RecomputeAll(ctx context.Context) (int, error) {
	courses, err := svc.repo.QueryCourses(ctx, nil, nil)
	if err != nil {
		return 0, errors.Wrap(err, "querying courses")
	}
	var saved int
	for _, c := range courses {
		if err = ctx.Err(); err != nil {
			return saved, err
		}
		if _, err = svc.repo.UpdateCourse(ctx, recomputed(c)); err != nil {
			return saved, errors.Wrapf(err, "updating course %s", c.ID)
		}
		saved++
	}
	return saved, nil
}

// recomputed returns c with fresh cached grade fields. UpdatedAt is kept: nothing the user entered changed.
func recomputed(c Course) Course {
	c.Recompute()
	return c
}
