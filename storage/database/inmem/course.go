package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/gpatrack/gpatrack/core"
	"github.com/gpatrack/gpatrack/core/course"
	"github.com/gpatrack/gpatrack/core/grade"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

// clone copies the assignments and pointer fields so stored records never alias the caller's.
func clone(c course.Course) course.Course {
	if c.Assignments != nil {
		assignments := make([]grade.Assignment, len(c.Assignments))
		for i, a := range c.Assignments {
			if a.DueDate != nil {
				due := *a.DueDate
				a.DueDate = &due
			}
			assignments[i] = a
		}
		c.Assignments = assignments
	}
	c.CalculatedGrade = cloneFloat(c.CalculatedGrade)
	c.CalculatedGradePoints = cloneFloat(c.CalculatedGradePoints)
	c.GradeOverridePoints = cloneFloat(c.GradeOverridePoints)
	return c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	stored := clone(c)
	repo.db.table[c.ID] = &stored
	return clone(stored), nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return clone(*c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	courses := make([]course.Course, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		if filter.Match(*c) {
			courses = append(courses, clone(*c))
		}
	}
	repo.db.RUnlock()

	funcs := make([]lessFunc, 0, len(ordering)+1)
	for _, ord := range ordering {
		var f lessFunc
		switch ord.Field {
		case "name":
			f = func(i, j int) (bool, bool) {
				return courses[i].Name < courses[j].Name, courses[i].Name == courses[j].Name
			}
		case "code":
			f = func(i, j int) (bool, bool) {
				return courses[i].Code < courses[j].Code, courses[i].Code == courses[j].Code
			}
		case "credits":
			f = func(i, j int) (bool, bool) {
				return courses[i].Credits < courses[j].Credits, courses[i].Credits == courses[j].Credits
			}
		case "year":
			f = func(i, j int) (bool, bool) {
				return courses[i].Year < courses[j].Year, courses[i].Year == courses[j].Year
			}
		case "semester":
			f = func(i, j int) (bool, bool) {
				return courses[i].Semester < courses[j].Semester, courses[i].Semester == courses[j].Semester
			}
		case "created_at":
			f = func(i, j int) (bool, bool) {
				return courses[i].CreatedAt.Before(courses[j].CreatedAt), courses[i].CreatedAt.Equal(courses[j].CreatedAt)
			}
		case "updated_at":
			f = func(i, j int) (bool, bool) {
				return courses[i].UpdatedAt.Before(courses[j].UpdatedAt), courses[i].UpdatedAt.Equal(courses[j].UpdatedAt)
			}
		default:
			continue
		}
		if !ord.Ascending {
			asc := f
			f = func(i, j int) (bool, bool) { return asc(j, i) }
		}
		funcs = append(funcs, f)
	}
	funcs = append(funcs, func(i, j int) (bool, bool) {
		if courses[i].CreatedAt.Equal(courses[j].CreatedAt) {
			return courses[i].ID < courses[j].ID, courses[i].ID == courses[j].ID
		}
		return courses[i].CreatedAt.Before(courses[j].CreatedAt), false
	})
	sort.SliceStable(courses, multiLess(funcs))
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	stored := clone(c)
	repo.db.table[c.ID] = &stored
	return clone(stored), nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *courseRepository) DeleteCoursesByUser(_ context.Context, userID string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for id, c := range repo.db.table {
		if c.UserID == userID {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}
