package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

var (
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
	errLessonLocked = httpErr{Error: "lesson is locked"}
)

// submitAttempt posts answers on the quiz's single fixture question and
// fails the test on a non-201.
func (a *app) submitAttempt(t *testing.T, token string, qz quiz.Quiz, choice int) quiz.Attempt {
	questions, err := a.quizRepo.QueryQuestionsByQuizID(qz.ID)
	if err != nil || len(questions) == 0 {
		t.Fatalf("QueryQuestionsByQuizID() = %v, %v", questions, err)
	}
	body := marchallObj(t, quiz.NewAttempt{Answers: quiz.Answers{questions[0].ID: {choice}}})
	rec := a.do(http.MethodPost, "/v1/quizzes/"+qz.ID+"/attempts", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submitting attempt: code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var at quiz.Attempt
	decodeBody(t, rec, &at)
	return at
}

func Test_courseApi_query(t *testing.T) {
	a := setup(t)

	student := testutil.CreateUser(t, a.usrRepo, "Student", "student", "student@test.cd", "Tr0ub4dor&3", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, a.usrRepo, "Teacher", "teacher", "teacher@test.cd", "Tr0ub4dor&3", []string{user.RoleTeacher}, true)
	studentToken := getToken(t, student)
	teacherToken := getToken(t, teacher)

	golang := testutil.CreateCourse(t, a.courseRepo, "Go Basics", "go-basics", true)
	draft := testutil.CreateCourse(t, a.courseRepo, "Rust Basics", "rust-basics", false)

	tests := []httpTest{
		{name: "auth required", path: "/v1/courses", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "learners see published only", path: "/v1/courses", token: studentToken,
			wantCode: http.StatusOK, wantData: marchallList(t, golang),
		},
		{
			name: "preview flag is inert without the capability", path: "/v1/courses?preview=true", token: studentToken,
			wantCode: http.StatusOK, wantData: marchallList(t, golang),
		},
		{
			name: "preview includes drafts", path: "/v1/courses?preview=true&ordering=title", token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, golang, draft),
		},
		{
			name: "teachers without the flag get the learner tier", path: "/v1/courses", token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, golang),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(http.MethodGet, tt.path, tt.token)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_retrieve(t *testing.T) {
	a := setup(t)

	student := testutil.CreateUser(t, a.usrRepo, "Student", "student", "student@test.cd", "Tr0ub4dor&3", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, a.usrRepo, "Admin", "admin", "admin@test.cd", "Tr0ub4dor&3", []string{user.RoleAdmin}, true)
	studentToken := getToken(t, student)
	adminToken := getToken(t, admin)

	golang := testutil.CreateCourse(t, a.courseRepo, "Go Basics", "go-basics", true)
	draft := testutil.CreateCourse(t, a.courseRepo, "Rust Basics", "rust-basics", false)

	tests := []httpTest{
		{
			name: "published course", path: "/v1/courses/" + golang.ID, token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, golang),
		},
		{
			name: "published course by slug", path: "/v1/courses/slug/go-basics", token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, golang),
		},
		{
			name: "draft course is invisible to learners", path: "/v1/courses/" + draft.ID, token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "draft course by slug is invisible to learners", path: "/v1/courses/slug/rust-basics", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "draft course in admin preview", path: "/v1/courses/" + draft.ID + "?preview=true", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, draft),
		},
		{
			name: "unknown course", path: "/v1/courses/c0ffee00-0000-4000-8000-000000000000", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(http.MethodGet, tt.path, tt.token)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_outline(t *testing.T) {
	a := setup(t)

	student := testutil.CreateUser(t, a.usrRepo, "Student", "student", "student@test.cd", "Tr0ub4dor&3", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, a.usrRepo, "Admin", "admin", "admin@test.cd", "Tr0ub4dor&3", []string{user.RoleAdmin}, true)

	golang := testutil.CreateCourse(t, a.courseRepo, "Go Basics", "go-basics", true)
	mod1 := testutil.CreateModule(t, a.courseRepo, golang.ID, "Getting Started", 0, true)
	testutil.CreateModule(t, a.courseRepo, golang.ID, "Generics", 1, false) // draft
	testutil.CreateLesson(t, a.courseRepo, mod1.ID, "Hello World", 0, true)
	testutil.CreateLesson(t, a.courseRepo, mod1.ID, "Packages", 1, false) // draft

	assertOutline := func(t *testing.T, token, path string, wantModules, wantLessons int) {
		rec := a.do(http.MethodGet, path, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var outline course.Outline
		decodeBody(t, rec, &outline)
		if len(outline.Modules) != wantModules {
			t.Errorf("len(Modules) = %v; want %v", len(outline.Modules), wantModules)
		}
		if len(outline.Modules) > 0 && len(outline.Modules[0].Lessons) != wantLessons {
			t.Errorf("len(Modules[0].Lessons) = %v; want %v", len(outline.Modules[0].Lessons), wantLessons)
		}
	}

	t.Run("learner view hides drafts", func(t *testing.T) {
		assertOutline(t, getToken(t, student), "/v1/courses/"+golang.ID+"/outline", 1, 1)
	})
	t.Run("admin preview shows all", func(t *testing.T) {
		assertOutline(t, getToken(t, admin), "/v1/courses/"+golang.ID+"/outline?preview=true", 2, 2)
	})
	t.Run("unknown course", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/courses/c0ffee00-0000-4000-8000-000000000000/outline", getToken(t, student))
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_courseApi_enroll(t *testing.T) {
	a := setup(t)

	student := testutil.CreateUser(t, a.usrRepo, "Student", "student", "student@test.cd", "Tr0ub4dor&3", []string{user.RoleStudent}, true)
	token := getToken(t, student)

	golang := testutil.CreateCourse(t, a.courseRepo, "Go Basics", "go-basics", true)
	draft := testutil.CreateCourse(t, a.courseRepo, "Rust Basics", "rust-basics", false)

	t.Run("draft course cannot be enrolled in", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/courses/"+draft.ID+"/enroll", token)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("enroll", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/courses/"+golang.ID+"/enroll", token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var enr progress.Enrollment
		decodeBody(t, rec, &enr)
		if enr.UserID != student.ID || enr.CourseID != golang.ID {
			t.Errorf("enrollment = %+v; want user %v on course %v", enr, student.ID, golang.ID)
		}
		if enr.Progress != 0 || enr.Completed {
			t.Errorf("fresh enrollment should start at zero; got %+v", enr)
		}
	})
	t.Run("double enroll", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/courses/"+golang.ID+"/enroll", token)
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "already enrolled in this course"})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("enrollments are listed", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/enrollments", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var enrollments []progress.Enrollment
		decodeBody(t, rec, &enrollments)
		if len(enrollments) != 1 {
			t.Errorf("len(enrollments) = %v; want 1", len(enrollments))
		}
	})
}

func Test_lessonApi_gating(t *testing.T) {
	a := setup(t)

	student := testutil.CreateUser(t, a.usrRepo, "Student", "student", "student@test.cd", "Tr0ub4dor&3", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, a.usrRepo, "Admin", "admin", "admin@test.cd", "Tr0ub4dor&3", []string{user.RoleAdmin}, true)
	studentToken := getToken(t, student)
	adminToken := getToken(t, admin)

	golang := testutil.CreateCourse(t, a.courseRepo, "Go Basics", "go-basics", true)
	mod := testutil.CreateModule(t, a.courseRepo, golang.ID, "Getting Started", 0, true)
	hello := testutil.CreateLesson(t, a.courseRepo, mod.ID, "Hello World", 0, true)
	packages := testutil.CreateLesson(t, a.courseRepo, mod.ID, "Packages", 1, true)
	draft := testutil.CreateLesson(t, a.courseRepo, mod.ID, "Modules", 2, false)
	gate := testutil.CreateLessonQuiz(t, a.quizRepo, hello.ID, 100)

	testutil.Enroll(t, a.progressRepo, student.ID, golang.ID)

	t.Run("first lesson is open", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/lessons/"+hello.ID, studentToken)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, hello)}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("gated lesson is locked without an attempt", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/lessons/"+packages.ID, studentToken)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errLessonLocked)}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("access predicate reflects the lock", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/lessons/"+packages.ID+"/access", studentToken)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, AccessResponse{CanAccess: false})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("a failed attempt keeps the gate shut", func(t *testing.T) {
		a.submitAttempt(t, studentToken, gate, 1)
		rec := a.do(http.MethodGet, "/v1/lessons/"+packages.ID, studentToken)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errLessonLocked)}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("passing the gate quiz unlocks", func(t *testing.T) {
		at := a.submitAttempt(t, studentToken, gate, 0)
		if !at.Passed || at.Score != 100 {
			t.Fatalf("attempt = %+v; want a 100%% pass", at)
		}
		rec := a.do(http.MethodGet, "/v1/lessons/"+packages.ID, studentToken)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, packages)}
		checkCodeAndData(t, tt, rec)

		rec = a.do(http.MethodGet, "/v1/lessons/"+packages.ID+"/access", studentToken)
		tt = httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, AccessResponse{CanAccess: true})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("draft lesson is invisible to learners", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/lessons/"+draft.ID, studentToken)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("draft lesson in admin preview", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/lessons/"+draft.ID+"?preview=true", adminToken)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, draft)}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("module access predicate", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/modules/"+mod.ID+"/access", studentToken)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, AccessResponse{CanAccess: true})}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_lessonApi_recordProgress(t *testing.T) {
	a := setup(t)

	student := testutil.CreateUser(t, a.usrRepo, "Student", "student", "student@test.cd", "Tr0ub4dor&3", []string{user.RoleStudent}, true)
	outsider := testutil.CreateUser(t, a.usrRepo, "Outsider", "outsider", "outsider@test.cd", "Tr0ub4dor&3", []string{user.RoleStudent}, true)
	studentToken := getToken(t, student)

	golang := testutil.CreateCourse(t, a.courseRepo, "Go Basics", "go-basics", true)
	mod := testutil.CreateModule(t, a.courseRepo, golang.ID, "Getting Started", 0, true)
	hello := testutil.CreateLesson(t, a.courseRepo, mod.ID, "Hello World", 0, true)
	packages := testutil.CreateLesson(t, a.courseRepo, mod.ID, "Packages", 1, true)
	testutil.CreateLessonQuiz(t, a.quizRepo, hello.ID, 100)

	testutil.Enroll(t, a.progressRepo, student.ID, golang.ID)

	completed := []byte(`{"is_completed": true}`)

	t.Run("payload is validated", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/lessons/"+hello.ID+"/progress", studentToken, []byte(`{}`))
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"is_completed": "this field is required"}),
		}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("enrollment is required", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/lessons/"+hello.ID+"/progress", getToken(t, outsider), completed)
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "not enrolled in this course"})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("locked lesson cannot be completed", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/lessons/"+packages.ID+"/progress", studentToken, completed)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errLessonLocked)}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("no progress before any record", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/lessons/"+hello.ID+"/progress", studentToken)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("completing refreshes the enrollment cache", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/lessons/"+hello.ID+"/progress", studentToken, completed)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var lp progress.LessonProgress
		decodeBody(t, rec, &lp)
		if !lp.IsCompleted || !lp.CompletedAt.Valid {
			t.Errorf("lesson progress = %+v; want completed with a timestamp", lp)
		}

		rec = a.do(http.MethodGet, "/v1/courses/"+golang.ID+"/enrollment", studentToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("retrieving enrollment: code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var enr progress.Enrollment
		decodeBody(t, rec, &enr)
		if enr.Progress != 50 {
			t.Errorf("cached progress = %v; want 50", enr.Progress)
		}
	})
	t.Run("derived course progress agrees", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/courses/"+golang.ID+"/progress", studentToken)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, progress.CourseProgress{Progress: 50})}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("un-completing rolls the cache back", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/lessons/"+hello.ID+"/progress", studentToken, []byte(`{"is_completed": false}`))
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		rec = a.do(http.MethodGet, "/v1/courses/"+golang.ID+"/enrollment", studentToken)
		var enr progress.Enrollment
		decodeBody(t, rec, &enr)
		if enr.Progress != 0 {
			t.Errorf("cached progress = %v; want 0", enr.Progress)
		}
	})
}

func Test_quizApi(t *testing.T) {
	a := setup(t)

	student := testutil.CreateUser(t, a.usrRepo, "Student", "student", "student@test.cd", "Tr0ub4dor&3", []string{user.RoleStudent}, true)
	token := getToken(t, student)

	golang := testutil.CreateCourse(t, a.courseRepo, "Go Basics", "go-basics", true)
	mod := testutil.CreateModule(t, a.courseRepo, golang.ID, "Getting Started", 0, true)
	hello := testutil.CreateLesson(t, a.courseRepo, mod.ID, "Hello World", 0, true)
	gate := testutil.CreateLessonQuiz(t, a.quizRepo, hello.ID, 100)
	final := testutil.CreateModuleTest(t, a.quizRepo, mod.ID, 80)

	t.Run("gate quiz lookup by lesson", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/lessons/"+hello.ID+"/quiz", token)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, gate)}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("module test lookup", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/modules/"+mod.ID+"/test", token)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, final)}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("lesson without a quiz", func(t *testing.T) {
		bare := testutil.CreateLesson(t, a.courseRepo, mod.ID, "Packages", 1, true)
		rec := a.do(http.MethodGet, "/v1/lessons/"+bare.ID+"/quiz", token)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("questions never expose correct choices", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/quizzes/"+gate.ID+"/questions", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var raw []map[string]json.RawMessage
		decodeBody(t, rec, &raw)
		if len(raw) != 1 {
			t.Fatalf("len(questions) = %v; want 1", len(raw))
		}
		if _, leaked := raw[0]["correct_choices"]; leaked {
			t.Error("correct_choices must not be serialized")
		}
		if _, ok := raw[0]["choices"]; !ok {
			t.Error("choices should be serialized")
		}
	})
	t.Run("no attempt yet", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/quizzes/"+gate.ID+"/attempts/latest", token)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("attempt payload is validated", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/quizzes/"+gate.ID+"/attempts", token, []byte(`{}`))
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"answers": "this field is required"}),
		}
		checkCodeAndData(t, tt, rec)
	})
	t.Run("attempts accumulate, latest wins", func(t *testing.T) {
		failed := a.submitAttempt(t, token, gate, 1)
		if failed.Passed || failed.Score != 0 {
			t.Fatalf("attempt = %+v; want a failed zero score", failed)
		}
		passed := a.submitAttempt(t, token, gate, 0)

		rec := a.do(http.MethodGet, "/v1/quizzes/"+gate.ID+"/attempts/latest", token)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, passed)}
		checkCodeAndData(t, tt, rec)

		rec = a.do(http.MethodGet, "/v1/quizzes/"+gate.ID+"/attempts", token)
		tt = httpTest{wantCode: http.StatusOK, wantData: marchallList(t, passed, failed)}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_progressApi_viewAny(t *testing.T) {
	a := setup(t)

	student := testutil.CreateUser(t, a.usrRepo, "Student", "student", "student@test.cd", "Tr0ub4dor&3", []string{user.RoleStudent}, true)
	peer := testutil.CreateUser(t, a.usrRepo, "Peer", "peer", "peer@test.cd", "Tr0ub4dor&3", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, a.usrRepo, "Admin", "admin", "admin@test.cd", "Tr0ub4dor&3", []string{user.RoleAdmin}, true)

	golang := testutil.CreateCourse(t, a.courseRepo, "Go Basics", "go-basics", true)
	enr := testutil.Enroll(t, a.progressRepo, student.ID, golang.ID)

	tests := []httpTest{
		{
			name: "learners cannot read peers' enrollments", path: fmt.Sprintf("/v1/users/%s/enrollments", student.ID),
			token: getToken(t, peer), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "learners cannot read peers' progress", path: fmt.Sprintf("/v1/users/%s/courses/%s/progress", student.ID, golang.ID),
			token: getToken(t, peer), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admins read any enrollments", path: fmt.Sprintf("/v1/users/%s/enrollments", student.ID),
			token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallList(t, enr),
		},
		{
			name: "admins read any progress", path: fmt.Sprintf("/v1/users/%s/courses/%s/progress", student.ID, golang.ID),
			token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, progress.CourseProgress{}),
		},
		{
			name: "unknown user", path: "/v1/users/c0ffee00-0000-4000-8000-000000000000/enrollments",
			token: getToken(t, admin), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(http.MethodGet, tt.path, tt.token)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_contentApi_authoring(t *testing.T) {
	a := setup(t)

	student := testutil.CreateUser(t, a.usrRepo, "Student", "student", "student@test.cd", "Tr0ub4dor&3", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, a.usrRepo, "Teacher", "teacher", "teacher@test.cd", "Tr0ub4dor&3", []string{user.RoleTeacher}, true)
	studentToken := getToken(t, student)
	teacherToken := getToken(t, teacher)

	newCourse := []byte(`{"title": "Go Basics", "slug": "go-basics", "description": "From zero.", "is_free": true}`)

	t.Run("learners cannot author", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/courses", studentToken, newCourse)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	var crs course.Course
	t.Run("create course", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/courses", teacherToken, newCourse)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		decodeBody(t, rec, &crs)
		if crs.Slug != "go-basics" || crs.IsPublished {
			t.Errorf("course = %+v; want an unpublished go-basics", crs)
		}
	})
	t.Run("duplicate slug", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/courses", teacherToken, newCourse)
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"slug": "a course with this slug already exists"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	var mod course.Module
	t.Run("create module", func(t *testing.T) {
		body := marchallObj(t, course.NewModule{CourseID: crs.ID, Title: "Getting Started"})
		rec := a.do(http.MethodPost, "/v1/modules", teacherToken, body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		decodeBody(t, rec, &mod)
		if mod.IsPublished {
			t.Error("new modules must start as drafts")
		}
	})
	t.Run("publish module", func(t *testing.T) {
		rec := a.do(http.MethodPut, "/v1/modules/"+mod.ID, teacherToken, []byte(`{"is_published": true}`))
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
	t.Run("create lesson", func(t *testing.T) {
		body := []byte(fmt.Sprintf(
			`{"module_id": %q, "title": "Hello World", "kind": "text", "body": "package main"}`, mod.ID))
		rec := a.do(http.MethodPost, "/v1/lessons", teacherToken, body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
	t.Run("publish course", func(t *testing.T) {
		rec := a.do(http.MethodPut, "/v1/courses/"+crs.ID, teacherToken, []byte(`{"is_published": true}`))
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var updated course.Course
		decodeBody(t, rec, &updated)
		if !updated.IsPublished {
			t.Error("course should be published")
		}
		if updated.Title != crs.Title || !updated.IsFree {
			t.Errorf("unset fields must be preserved; got %+v", updated)
		}
	})
	t.Run("delete course", func(t *testing.T) {
		rec := a.do(http.MethodDelete, "/v1/courses/"+crs.ID, teacherToken)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		rec = a.do(http.MethodGet, "/v1/courses/"+crs.ID, teacherToken)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}
		checkCodeAndData(t, tt, rec)
	})
}
