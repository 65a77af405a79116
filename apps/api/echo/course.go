package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gpatrack/gpatrack/core"
	"github.com/gpatrack/gpatrack/core/course"
	"github.com/gpatrack/gpatrack/core/grade"
)

const contextCourseKey = "object"

var (
	errCourseNotFoundInCtx = errors.New("course object not found in echo.Context")

	courseOrderings = map[string]string{
		"name":       "name",
		"code":       "code",
		"credits":    "credits",
		"year":       "year",
		"semester":   "semester",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
)

type courseApi struct {
	svc      course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc course.Service, validate *validator.Validate) {
	api := courseApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/courses", authed...)
	cg.GET("", api.query)
	cg.POST("", api.create)

	// detail endpoints
	dg := cg.Group("/:id", ownCourseMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/grade", api.finalGrade)
	dg.PUT("/override", api.setOverride)
	dg.DELETE("/override", api.revertOverride)
	dg.POST("/assignments", api.addAssignment)
	dg.PUT("/assignments/:aid", api.updateAssignment)
	dg.DELETE("/assignments/:aid", api.destroyAssignment)
}

// ownCourseMiddleware loads the course of the :id param if the context user owns it.
func ownCourseMiddleware(svc course.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			c, err := svc.Get(ctx.Request().Context(), usr, ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == course.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding course by ID")
			}
			ctx.Set(contextCourseKey, c)
			return next(ctx)
		}
	}
}

func getContextCourse(ctx echo.Context) (course.Course, error) {
	if c, ok := ctx.Get(contextCourseKey).(course.Course); ok {
		return c, nil
	}
	return course.Course{}, errors.Wrap(errCourseNotFoundInCtx, "retrieving object from context")
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	filter := new(course.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), usr, filter, core.CleanOrderings(ordering.Orderings, courseOrderings))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), c); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) finalGrade(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, CourseGradeResponse{
		CourseID:              c.ID,
		Final:                 c.FinalGrade(),
		CalculatedGrade:       c.CalculatedGrade,
		CalculatedGradePoints: c.CalculatedGradePoints,
		CalculatedGradeLetter: c.CalculatedGradeLetter,
		Progress:              c.Progress(),
	})
}

func (api *courseApi) setOverride(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	var data course.SetOverride
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetOverride")
	}

	c, err = api.svc.SetOverride(ctx.Request().Context(), usr, c, data)
	if err != nil {
		return errors.Wrap(err, "setting grade override")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) revertOverride(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	c, err = api.svc.RevertOverride(ctx.Request().Context(), c)
	if err != nil {
		return errors.Wrap(err, "reverting grade override")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) addAssignment(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	var data course.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err = api.svc.AddAssignment(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "adding assignment")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) updateAssignment(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err = api.svc.UpdateAssignment(ctx.Request().Context(), c, ctx.Param("aid"), data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroyAssignment(ctx echo.Context) error {
	c, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	c, err = api.svc.DeleteAssignment(ctx.Request().Context(), c, ctx.Param("aid"))
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.JSON(http.StatusOK, c)
}

// CourseGradeResponse is the final grade of a course with how it was reached.
type CourseGradeResponse struct {
	CourseID string `json:"course_id"`
	grade.Final
	CalculatedGrade       *float64       `json:"calculated_grade"`
	CalculatedGradePoints *float64       `json:"calculated_grade_points"`
	CalculatedGradeLetter string         `json:"calculated_grade_letter,omitempty"`
	Progress              grade.Progress `json:"progress"`
}
