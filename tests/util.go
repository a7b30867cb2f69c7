package testutil

import (
	"testing"
	"time"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, title, slug string, isPublished bool) course.Course {
	now := time.Now().UTC()
	crs, err := repo.CreateCourse(course.Course{
		Title:       title,
		Slug:        slug,
		IsPublished: isPublished,
		IsFree:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateModule(t *testing.T, repo course.Repository, courseID, title string, orderIndex int, isPublished bool) course.Module {
	now := time.Now().UTC()
	mod, err := repo.CreateModule(course.Module{
		CourseID:    courseID,
		Title:       title,
		OrderIndex:  orderIndex,
		IsPublished: isPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateModule() failed: %v", err)
	}
	return mod
}

func CreateLesson(t *testing.T, repo course.Repository, moduleID, title string, orderIndex int, isPublished bool) course.Lesson {
	now := time.Now().UTC()
	lsn, err := repo.CreateLesson(course.Lesson{
		ModuleID:    moduleID,
		Title:       title,
		Kind:        course.LessonText,
		Body:        "...",
		OrderIndex:  orderIndex,
		IsPublished: isPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return lsn
}

// CreateLessonQuiz attaches a lesson_quiz with a single 1-point question
// whose only correct choice is index 0.
func CreateLessonQuiz(t *testing.T, repo quiz.Repository, lessonID string, passingScore int) quiz.Quiz {
	now := time.Now().UTC()
	qz, err := repo.CreateQuiz(quiz.Quiz{
		Kind:         quiz.KindLessonQuiz,
		LessonID:     lessonID,
		Title:        "Checkpoint",
		PassingScore: passingScore,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateLessonQuiz() failed: %v", err)
	}
	CreateQuestion(t, repo, qz.ID, 1, 0)
	return qz
}

// CreateModuleTest attaches a module_test with a single 1-point question
// whose only correct choice is index 0.
func CreateModuleTest(t *testing.T, repo quiz.Repository, moduleID string, passingScore int) quiz.Quiz {
	now := time.Now().UTC()
	qz, err := repo.CreateQuiz(quiz.Quiz{
		Kind:         quiz.KindModuleTest,
		ModuleID:     moduleID,
		Title:        "Module test",
		PassingScore: passingScore,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateModuleTest() failed: %v", err)
	}
	CreateQuestion(t, repo, qz.ID, 1, 0)
	return qz
}

func CreateQuestion(t *testing.T, repo quiz.Repository, quizID string, points int, orderIndex int) quiz.Question {
	qn, err := repo.CreateQuestion(quiz.Question{
		QuizID:         quizID,
		Prompt:         "Pick the first choice",
		Choices:        []string{"right", "wrong", "also wrong"},
		CorrectChoices: []int{0},
		Points:         points,
		OrderIndex:     orderIndex,
	})
	if err != nil {
		t.Fatalf("CreateQuestion() failed: %v", err)
	}
	return qn
}

func Enroll(t *testing.T, repo progress.Repository, userID, courseID string) progress.Enrollment {
	now := time.Now().UTC()
	enr, err := repo.CreateEnrollment(progress.Enrollment{
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return enr
}
