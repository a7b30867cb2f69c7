package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
)

type quizApi struct {
	svc    *quiz.Service
	usrSvc *user.Service
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *quiz.Service, usrSvc *user.Service) {
	api := quizApi{svc: svc, usrSvc: usrSvc}
	manage := permissionMiddleware(usrSvc, user.PermManageCourses)

	qg := g.Group("/quizzes", jwt)
	qg.GET("/:id", api.retrieve)
	qg.GET("/:id/questions", api.queryQuestions)
	qg.POST("/:id/attempts", api.submitAttempt)
	qg.GET("/:id/attempts", api.queryAttempts)
	qg.GET("/:id/attempts/latest", api.latestAttempt)

	// authoring
	qg.POST("", api.create, manage)
	qg.PUT("/:id", api.update, manage)
	qg.DELETE("/:id", api.destroy, manage)
	qg.POST("/:id/questions", api.addQuestion, manage)
	qg.DELETE("/questions/:id", api.destroyQuestion, manage)

	// unit gate lookup
	g.GET("/lessons/:id/quiz", api.retrieveForLesson, jwt)
	g.GET("/modules/:id/test", api.retrieveForModule, jwt)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	qz, err := api.svc.GetQuiz(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) retrieveForLesson(ctx echo.Context) error {
	qz, err := api.svc.GetQuizForLesson(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) retrieveForModule(ctx echo.Context) error {
	qz, err := api.svc.GetTestForModule(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qz)
}

// queryQuestions returns the quiz's questions; correct choices are never
// serialized to learners.
func (api *quizApi) queryQuestions(ctx echo.Context) error {
	questions, err := api.svc.Questions(ctx.Param("id"))
	if err != nil {
		return err
	}
	if questions == nil {
		questions = []quiz.Question{}
	}
	return ctx.JSON(http.StatusOK, questions)
}

// submitAttempt scores the caller's answers and returns the finalized,
// immutable attempt.
func (api *quizApi) submitAttempt(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data quiz.NewAttempt
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttempt")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	at, err := api.svc.RecordAttempt(ctxUsr.ID, ctx.Param("id"), data.Answers)
	if err != nil {
		return errors.Wrap(err, "recording attempt")
	}
	return ctx.JSON(http.StatusCreated, at)
}

func (api *quizApi) queryAttempts(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	attempts, err := api.svc.Attempts(ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying attempts")
	}
	if attempts == nil {
		attempts = []quiz.Attempt{}
	}
	return ctx.JSON(http.StatusOK, attempts)
}

func (api *quizApi) latestAttempt(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	at, err := api.svc.LatestAttempt(ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, at)
}

// Authoring

func (api *quizApi) create(ctx echo.Context) error {
	var data quiz.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	qz, err := api.svc.CreateQuiz(data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *quizApi) update(ctx echo.Context) error {
	orig, err := api.svc.GetQuiz(ctx.Param("id"))
	if err != nil {
		return err
	}

	var data quiz.UpdateQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuiz")
	}
	if err := data.Validate(orig); err != nil {
		return err
	}

	qz, err := api.svc.UpdateQuiz(orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetQuiz(ctx.Param("id")); err != nil {
		return err
	}
	if err := api.svc.DeleteQuiz(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *quizApi) addQuestion(ctx echo.Context) error {
	var data quiz.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	data.QuizID = ctx.Param("id")
	if err := data.Validate(); err != nil {
		return err
	}

	qn, err := api.svc.AddQuestion(data)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}
	return ctx.JSON(http.StatusCreated, qn)
}

func (api *quizApi) destroyQuestion(ctx echo.Context) error {
	if _, err := api.svc.GetQuestion(ctx.Param("id")); err != nil {
		return err
	}
	if err := api.svc.DeleteQuestion(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}
