package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
)

type courseApi struct {
	svc         *course.Service
	usrSvc      *user.Service
	progressSvc *progress.Service
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *course.Service,
	usrSvc *user.Service,
	progressSvc *progress.Service,
) {
	api := courseApi{svc: svc, usrSvc: usrSvc, progressSvc: progressSvc}
	manage := permissionMiddleware(usrSvc, user.PermManageCourses)

	// catalog
	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.GET("/slug/:slug", api.retrieveBySlug)
	cg.GET("/:id/outline", api.outline)
	cg.POST("/:id/enroll", api.enroll)

	// authoring
	cg.POST("", api.create, manage)
	cg.PUT("/:id", api.update, manage)
	cg.DELETE("/:id", api.destroy, manage)

	mg := g.Group("/modules", jwt)
	mg.GET("/:id", api.retrieveModule)
	mg.POST("", api.createModule, manage)
	mg.PUT("/:id", api.updateModule, manage)
	mg.DELETE("/:id", api.destroyModule, manage)
}

// Courses

func (api *courseApi) query(ctx echo.Context) error {
	view := contentView(ctx, api.usrSvc)
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.QueryCourses(view, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetCourse(ctx.Param("id"))
	if err != nil {
		return err
	}
	if !crs.IsPublished && !contentView(ctx, api.usrSvc).IncludeUnpublished {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) retrieveBySlug(ctx echo.Context) error {
	crs, err := api.svc.GetCourseBySlug(ctx.Param("slug"))
	if err != nil {
		return err
	}
	if !crs.IsPublished && !contentView(ctx, api.usrSvc).IncludeUnpublished {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) outline(ctx echo.Context) error {
	outline, err := api.svc.Outline(ctx.Param("id"), contentView(ctx, api.usrSvc))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, outline)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.svc.GetCourse(ctx.Param("id"))
	if err != nil {
		return err
	}
	if !crs.IsPublished {
		return errHttpNotFound
	}

	enr, err := api.progressSvc.Enroll(ctxUsr.ID, crs.ID)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	crs, err := api.svc.CreateCourse(data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	orig, err := api.svc.GetCourse(ctx.Param("id"))
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(orig, api.svc); err != nil {
		return err
	}

	crs, err := api.svc.UpdateCourse(orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetCourse(ctx.Param("id")); err != nil {
		return err
	}
	if err := api.svc.DeleteCourse(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Modules

func (api *courseApi) retrieveModule(ctx echo.Context) error {
	mod, err := api.svc.GetModule(ctx.Param("id"))
	if err != nil {
		return err
	}
	if !mod.IsPublished && !contentView(ctx, api.usrSvc).IncludeUnpublished {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *courseApi) createModule(ctx echo.Context) error {
	var data course.NewModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	mod, err := api.svc.CreateModule(data)
	if err != nil {
		return errors.Wrap(err, "creating module")
	}
	return ctx.JSON(http.StatusCreated, mod)
}

func (api *courseApi) updateModule(ctx echo.Context) error {
	orig, err := api.svc.GetModule(ctx.Param("id"))
	if err != nil {
		return err
	}

	var data course.UpdateModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateModule")
	}
	if err := data.Validate(orig); err != nil {
		return err
	}

	mod, err := api.svc.UpdateModule(orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating module")
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *courseApi) destroyModule(ctx echo.Context) error {
	if _, err := api.svc.GetModule(ctx.Param("id")); err != nil {
		return err
	}
	if err := api.svc.DeleteModule(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting module")
	}
	return ctx.NoContent(http.StatusNoContent)
}
