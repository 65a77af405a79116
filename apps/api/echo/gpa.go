package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gpatrack/gpatrack/core/course"
	"github.com/gpatrack/gpatrack/core/grade"
)

type gpaApi struct {
	svc course.Service
}

func registerGPAAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc course.Service) {
	api := gpaApi{svc: svc}

	// conversion tables are public
	g.GET("/gpa/scales", api.scales)

	gg := g.Group("/gpa", authed...)
	gg.GET("/summary", api.summary)
	gg.GET("/dashboard", api.dashboard)
}

func (api *gpaApi) summary(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	summary, err := api.svc.Summary(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "summarizing GPA")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *gpaApi) dashboard(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	dashboard, err := api.svc.Dashboard(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "computing dashboard GPA")
	}
	return ctx.JSON(http.StatusOK, dashboard)
}

func (api *gpaApi) scales(ctx echo.Context) error {
	resp := make([]ScaleResponse, 0, len(grade.Scales))
	for _, scale := range grade.Scales {
		resp = append(resp, ScaleResponse{
			Scale:      scale,
			Ceiling:    scale.Ceiling(),
			Conversion: grade.ConversionTable(scale),
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}

type ScaleResponse struct {
	Scale      grade.Scale           `json:"gpa_scale"`
	Ceiling    float64               `json:"ceiling"`
	Conversion []grade.ConversionRow `json:"conversion"`
}
