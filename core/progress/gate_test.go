package progress_test

import (
	"testing"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

type fixtures struct {
	usrRepo      user.Repository
	courseRepo   course.Repository
	quizRepo     quiz.Repository
	progressRepo progress.Repository
	quizSvc      *quiz.Service
	svc          *progress.Service
}

func setup(t *testing.T) fixtures {
	core.NewConfig()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	f := fixtures{
		usrRepo:      inmemdb.NewUserRepository(db),
		courseRepo:   inmemdb.NewCourseRepository(db),
		quizRepo:     inmemdb.NewQuizRepository(db),
		progressRepo: inmemdb.NewProgressRepository(db),
	}
	f.quizSvc = quiz.NewService(f.quizRepo)
	f.svc = progress.NewService(
		f.progressRepo, f.courseRepo, f.quizRepo, f.usrRepo, emailsvc.NewConsoleServiceMock(),
	)
	return f
}

// passGate submits a perfect attempt on the quiz's single question.
func passGate(t *testing.T, f fixtures, userID string, qz quiz.Quiz) {
	questions, err := f.quizRepo.QueryQuestionsByQuizID(qz.ID)
	if err != nil || len(questions) == 0 {
		t.Fatalf("QueryQuestionsByQuizID() = %v, %v", questions, err)
	}
	if _, err := f.quizSvc.RecordAttempt(userID, qz.ID, quiz.Answers{questions[0].ID: {0}}); err != nil {
		t.Fatalf("RecordAttempt() failed: %v", err)
	}
}

// failGate submits a wrong attempt on the quiz's single question.
func failGate(t *testing.T, f fixtures, userID string, qz quiz.Quiz) {
	questions, err := f.quizRepo.QueryQuestionsByQuizID(qz.ID)
	if err != nil || len(questions) == 0 {
		t.Fatalf("QueryQuestionsByQuizID() = %v, %v", questions, err)
	}
	if _, err := f.quizSvc.RecordAttempt(userID, qz.ID, quiz.Answers{questions[0].ID: {1}}); err != nil {
		t.Fatalf("RecordAttempt() failed: %v", err)
	}
}

func TestService_CanAccessLesson(t *testing.T) {
	f := setup(t)

	usr := testutil.CreateUser(t, f.usrRepo, "Student", "std", "std@test.cd", "pwd", []string{user.RoleStudent}, true)
	crs := testutil.CreateCourse(t, f.courseRepo, "Go 101", "go-101", true)
	mod := testutil.CreateModule(t, f.courseRepo, crs.ID, "Basics", 0, true)
	lsn1 := testutil.CreateLesson(t, f.courseRepo, mod.ID, "Hello", 0, true)
	lsn2 := testutil.CreateLesson(t, f.courseRepo, mod.ID, "Types", 1, true)
	lsn3 := testutil.CreateLesson(t, f.courseRepo, mod.ID, "Structs", 2, true)
	draft := testutil.CreateLesson(t, f.courseRepo, mod.ID, "Draft", 3, false)

	gate := testutil.CreateLessonQuiz(t, f.quizRepo, lsn1.ID, 100)

	check := func(t *testing.T, lessonID string, view course.ContentView, want bool) {
		ok, err := f.svc.CanAccessLesson(usr.ID, lessonID, view)
		if err != nil {
			t.Fatalf("CanAccessLesson() failed: %v", err)
		}
		if ok != want {
			t.Errorf("CanAccessLesson() = %v, want %v", ok, want)
		}
	}

	t.Run("missing lesson fails closed", func(t *testing.T) {
		check(t, "e8d8f5a4-9a46-47a5-b1f2-7a3a1c2b3d4e", course.LearnerView, false)
	})
	t.Run("first lesson is always open", func(t *testing.T) {
		check(t, lsn1.ID, course.LearnerView, true)
	})
	t.Run("gated lesson stays locked without an attempt", func(t *testing.T) {
		check(t, lsn2.ID, course.LearnerView, false)
	})
	t.Run("failed attempt keeps the gate shut", func(t *testing.T) {
		failGate(t, f, usr.ID, gate)
		check(t, lsn2.ID, course.LearnerView, false)
	})
	t.Run("passing the gate unlocks the next lesson", func(t *testing.T) {
		passGate(t, f, usr.ID, gate)
		check(t, lsn2.ID, course.LearnerView, true)
	})
	t.Run("ungated predecessor leaves the lesson open", func(t *testing.T) {
		check(t, lsn3.ID, course.LearnerView, true) // lsn2 carries no quiz
	})
	t.Run("unpublished lesson is closed to learners", func(t *testing.T) {
		check(t, draft.ID, course.LearnerView, false)
	})
	t.Run("unpublished lesson is open in admin preview", func(t *testing.T) {
		check(t, draft.ID, course.AdminPreview, true)
	})
}

func TestService_CanAccessLesson_viewScopesSiblings(t *testing.T) {
	f := setup(t)

	usr := testutil.CreateUser(t, f.usrRepo, "Student", "std", "std@test.cd", "pwd", []string{user.RoleStudent}, true)
	crs := testutil.CreateCourse(t, f.courseRepo, "Go 101", "go-101", true)
	mod := testutil.CreateModule(t, f.courseRepo, crs.ID, "Basics", 0, true)

	// a draft lesson carrying a gate precedes the published one
	draft := testutil.CreateLesson(t, f.courseRepo, mod.ID, "Draft intro", 0, false)
	lsn := testutil.CreateLesson(t, f.courseRepo, mod.ID, "Hello", 1, true)
	testutil.CreateLessonQuiz(t, f.quizRepo, draft.ID, 100)

	// learners never see the draft, so its gate does not apply to them
	ok, err := f.svc.CanAccessLesson(usr.ID, lsn.ID, course.LearnerView)
	if err != nil {
		t.Fatalf("CanAccessLesson() failed: %v", err)
	}
	if !ok {
		t.Error("a draft-only predecessor should not gate learners")
	}

	// previewing admins do sit behind the draft's gate
	ok, err = f.svc.CanAccessLesson(usr.ID, lsn.ID, course.AdminPreview)
	if err != nil {
		t.Fatalf("CanAccessLesson() failed: %v", err)
	}
	if ok {
		t.Error("the draft's gate should apply in admin preview")
	}
}

func TestService_CanAccessModule(t *testing.T) {
	f := setup(t)

	usr := testutil.CreateUser(t, f.usrRepo, "Student", "std", "std@test.cd", "pwd", []string{user.RoleStudent}, true)
	crs := testutil.CreateCourse(t, f.courseRepo, "Go 101", "go-101", true)
	mod1 := testutil.CreateModule(t, f.courseRepo, crs.ID, "Basics", 0, true)
	mod2 := testutil.CreateModule(t, f.courseRepo, crs.ID, "Concurrency", 1, true)
	mod3 := testutil.CreateModule(t, f.courseRepo, crs.ID, "Generics", 2, true)

	gate := testutil.CreateModuleTest(t, f.quizRepo, mod1.ID, 100)

	check := func(t *testing.T, moduleID string, want bool) {
		ok, err := f.svc.CanAccessModule(usr.ID, moduleID, course.LearnerView)
		if err != nil {
			t.Fatalf("CanAccessModule() failed: %v", err)
		}
		if ok != want {
			t.Errorf("CanAccessModule() = %v, want %v", ok, want)
		}
	}

	t.Run("missing module fails closed", func(t *testing.T) {
		check(t, "b3b9c7e0-1111-4222-8333-444455556666", false)
	})
	t.Run("first module is always open", func(t *testing.T) {
		check(t, mod1.ID, true)
	})
	t.Run("gated module stays locked until the test is passed", func(t *testing.T) {
		check(t, mod2.ID, false)
		passGate(t, f, usr.ID, gate)
		check(t, mod2.ID, true)
	})
	t.Run("ungated predecessor leaves the module open", func(t *testing.T) {
		check(t, mod3.ID, true) // mod2 carries no test
	})
}
