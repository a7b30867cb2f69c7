package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
)

// DB is an in-memory database used by tests and the dev server.
type (
	DB struct {
		user           *userTable
		course         *courseTable
		quiz           *quizTable
		lessonProgress *lessonProgressTable
		enrollment     *enrollmentTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		courses map[string]*course.Course
		modules map[string]*course.Module
		lessons map[string]*course.Lesson
	}

	quizTable struct {
		sync.RWMutex
		quizzes   map[string]*quiz.Quiz
		questions map[string]*quiz.Question
		attempts  map[string]*quiz.Attempt
	}

	lessonProgressTable struct {
		sync.RWMutex
		table map[string]*progress.LessonProgress // key: userID + "|" + lessonID
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*progress.Enrollment
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		course: &courseTable{
			courses: make(map[string]*course.Course),
			modules: make(map[string]*course.Module),
			lessons: make(map[string]*course.Lesson),
		},
		quiz: &quizTable{
			quizzes:   make(map[string]*quiz.Quiz),
			questions: make(map[string]*quiz.Question),
			attempts:  make(map[string]*quiz.Attempt),
		},
		lessonProgress: &lessonProgressTable{table: make(map[string]*progress.LessonProgress)},
		enrollment:     &enrollmentTable{table: make(map[string]*progress.Enrollment)},
	}
	return db, nil
}

func pairKey(userID, otherID string) string {
	return userID + "|" + otherID
}
