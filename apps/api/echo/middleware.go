package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

// permissionMiddleware guards a route behind a single capability of the
// authenticated user.
func permissionMiddleware(svc *user.Service, perm user.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.Can(perm) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// contentView resolves the visibility tier for the request: draft content is
// included only when the user holds the preview capability and asked for it
// with ?preview=true.
func contentView(ctx echo.Context, svc *user.Service) course.ContentView {
	if ctx.QueryParam("preview") == "true" {
		if usr, err := getContextUser(ctx, svc); err == nil && usr.Can(user.PermPreviewDraftContent) {
			return course.AdminPreview
		}
	}
	return course.LearnerView
}
