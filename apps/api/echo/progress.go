package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
)

type progressApi struct {
	svc    *progress.Service
	usrSvc *user.Service
}

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *progress.Service, usrSvc *user.Service) {
	api := progressApi{svc: svc, usrSvc: usrSvc}
	viewAny := permissionMiddleware(usrSvc, user.PermViewAnyProgress)

	g.GET("/enrollments", api.queryEnrollments, jwt)
	g.GET("/courses/:id/enrollment", api.retrieveEnrollment, jwt)
	g.GET("/courses/:id/progress", api.courseProgress, jwt)
	g.GET("/modules/:id/access", api.moduleAccess, jwt)

	// other learners' progress
	g.GET("/users/:id/courses/:courseID/progress", api.userCourseProgress, jwt, viewAny)
	g.GET("/users/:id/enrollments", api.userEnrollments, jwt, viewAny)
}

func (api *progressApi) queryEnrollments(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return api.renderEnrollments(ctx, ctxUsr.ID)
}

func (api *progressApi) userEnrollments(ctx echo.Context) error {
	if _, err := api.usrSvc.GetByID(ctx.Param("id")); err != nil {
		return err
	}
	return api.renderEnrollments(ctx, ctx.Param("id"))
}

func (api *progressApi) renderEnrollments(ctx echo.Context, userID string) error {
	enrollments, err := api.svc.QueryEnrollments(userID)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []progress.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

// retrieveEnrollment returns the caller's enrollment with its cached
// progress; the cache may trail the ledger until the next refresh.
func (api *progressApi) retrieveEnrollment(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enr, err := api.svc.GetEnrollment(ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

// courseProgress derives the caller's authoritative course progress from the
// ledger on the fly.
func (api *progressApi) courseProgress(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cp, err := api.svc.CourseProgress(ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing course progress")
	}
	return ctx.JSON(http.StatusOK, cp)
}

func (api *progressApi) userCourseProgress(ctx echo.Context) error {
	if _, err := api.usrSvc.GetByID(ctx.Param("id")); err != nil {
		return err
	}

	cp, err := api.svc.CourseProgress(ctx.Param("id"), ctx.Param("courseID"))
	if err != nil {
		return errors.Wrap(err, "computing course progress")
	}
	return ctx.JSON(http.StatusOK, cp)
}

func (api *progressApi) moduleAccess(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ok, err := api.svc.CanAccessModule(ctxUsr.ID, ctx.Param("id"), contentView(ctx, api.usrSvc))
	if err != nil {
		return errors.Wrap(err, "checking module access")
	}
	return ctx.JSON(http.StatusOK, AccessResponse{CanAccess: ok})
}
