package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
)

type lessonApi struct {
	svc         *course.Service
	usrSvc      *user.Service
	progressSvc *progress.Service
}

func registerLessonAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *course.Service,
	usrSvc *user.Service,
	progressSvc *progress.Service,
) {
	api := lessonApi{svc: svc, usrSvc: usrSvc, progressSvc: progressSvc}
	manage := permissionMiddleware(usrSvc, user.PermManageCourses)

	lg := g.Group("/lessons", jwt)
	lg.GET("/:id", api.retrieve)
	lg.GET("/:id/access", api.access)
	lg.GET("/:id/progress", api.retrieveProgress)
	lg.POST("/:id/progress", api.recordProgress)

	// authoring
	lg.POST("", api.create, manage)
	lg.PUT("/:id", api.update, manage)
	lg.DELETE("/:id", api.destroy, manage)
}

// retrieve serves the lesson content; locked lessons are refused even when
// they are visible in the outline.
func (api *lessonApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	view := contentView(ctx, api.usrSvc)

	ok, err := api.progressSvc.CanAccessLesson(ctxUsr.ID, ctx.Param("id"), view)
	if err != nil {
		return errors.Wrap(err, "checking lesson access")
	}
	lsn, err := api.svc.GetLesson(ctx.Param("id"))
	if err != nil {
		return err
	}
	if !ok {
		// draft lessons stay hidden from learners; a locked published lesson
		// is acknowledged but refused
		if !lsn.IsPublished && !view.IncludeUnpublished {
			return errHttpNotFound
		}
		return errLessonLocked
	}
	return ctx.JSON(http.StatusOK, lsn)
}

// access exposes the gate predicate for UIs to render lock states.
func (api *lessonApi) access(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ok, err := api.progressSvc.CanAccessLesson(ctxUsr.ID, ctx.Param("id"), contentView(ctx, api.usrSvc))
	if err != nil {
		return errors.Wrap(err, "checking lesson access")
	}
	return ctx.JSON(http.StatusOK, AccessResponse{CanAccess: ok})
}

func (api *lessonApi) retrieveProgress(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	lp, err := api.progressSvc.GetLessonProgress(ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lp)
}

// recordProgress marks the lesson complete (or not) for the caller: the gate
// runs first, the ledger row is upserted, then the cached enrollment
// aggregate is refreshed.
func (api *lessonApi) recordProgress(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data progress.RecordProgress
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecordProgress")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	lsn, err := api.svc.GetLesson(ctx.Param("id"))
	if err != nil {
		return err
	}
	mod, err := api.svc.GetModule(lsn.ModuleID)
	if err != nil {
		return errors.Wrap(err, "finding parent module")
	}

	// learners must be enrolled in the owning course
	if _, err = api.progressSvc.GetEnrollment(ctxUsr.ID, mod.CourseID); err != nil {
		if errors.Cause(err) == progress.ErrNotEnrolled {
			return core.NewValidationError(progress.ErrNotEnrolled)
		}
		return errors.Wrap(err, "finding enrollment")
	}

	view := contentView(ctx, api.usrSvc)
	ok, err := api.progressSvc.CanAccessLesson(ctxUsr.ID, lsn.ID, view)
	if err != nil {
		return errors.Wrap(err, "checking lesson access")
	}
	if !ok {
		return errLessonLocked
	}

	lp, err := api.progressSvc.RecordLessonProgress(ctxUsr.ID, lsn.ID, *data.IsCompleted)
	if err != nil {
		return errors.Wrap(err, "recording lesson progress")
	}
	if _, err = api.progressSvc.RefreshEnrollment(ctxUsr.ID, mod.CourseID); err != nil {
		return errors.Wrap(err, "refreshing enrollment")
	}
	return ctx.JSON(http.StatusOK, lp)
}

// Authoring

func (api *lessonApi) create(ctx echo.Context) error {
	var data course.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	lsn, err := api.svc.CreateLesson(data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, lsn)
}

func (api *lessonApi) update(ctx echo.Context) error {
	orig, err := api.svc.GetLesson(ctx.Param("id"))
	if err != nil {
		return err
	}

	var data course.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err := data.Validate(orig); err != nil {
		return err
	}

	lsn, err := api.svc.UpdateLesson(orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *lessonApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetLesson(ctx.Param("id")); err != nil {
		return err
	}
	if err := api.svc.DeleteLesson(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type AccessResponse struct {
	CanAccess bool `json:"can_access"`
}
