package progress

import (
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/quiz"
)

// The access gate decides lazily, on every check, whether a learner may open
// a unit: no unlocked flag is ever persisted, so structural edits can never
// leave stale lock state behind. A unit is open when it is first in its
// ordering scope, or when the unit immediately preceding it carries no gate
// quiz, or when the learner's latest attempt on that gate quiz passed.
//
// A missing unit yields false rather than an error: the predicate backs
// boolean display/permission checks, not a hard error path. Persistence
// failures do propagate.

// CanAccessLesson reports whether the learner may open the lesson, evaluated
// against the caller's visibility tier.
func (svc *Service) CanAccessLesson(userID, lessonID string, view course.ContentView) (bool, error) {
	lsn, err := svc.courseRepo.GetLessonByID(lessonID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return false, nil // fail closed
		}
		return false, errors.Wrap(err, "finding lesson")
	}
	if !lsn.IsPublished && !view.IncludeUnpublished {
		return false, nil
	}

	siblings, err := svc.courseRepo.QueryLessonsByModuleID(lsn.ModuleID, view)
	if err != nil {
		return false, errors.Wrap(err, "querying sibling lessons")
	}

	prev, ok := precedingLesson(siblings, lsn.OrderIndex)
	if !ok {
		return true, nil // first lesson in its module
	}

	gq, err := svc.quizRepo.GetQuizByLessonID(prev.ID)
	if err != nil {
		if errors.Cause(err) == quiz.ErrNotFound {
			return true, nil // no gate defined - implicitly open
		}
		return false, errors.Wrap(err, "finding gate quiz")
	}
	return svc.latestAttemptPassed(userID, gq.ID)
}

// CanAccessModule reports whether the learner may open the module: the
// module test of the immediately preceding module (if any) must be passed.
func (svc *Service) CanAccessModule(userID, moduleID string, view course.ContentView) (bool, error) {
	mod, err := svc.courseRepo.GetModuleByID(moduleID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return false, nil // fail closed
		}
		return false, errors.Wrap(err, "finding module")
	}
	if !mod.IsPublished && !view.IncludeUnpublished {
		return false, nil
	}

	siblings, err := svc.courseRepo.QueryModulesByCourseID(mod.CourseID, view)
	if err != nil {
		return false, errors.Wrap(err, "querying sibling modules")
	}

	prev, ok := precedingModule(siblings, mod.OrderIndex)
	if !ok {
		return true, nil // first module in its course
	}

	gq, err := svc.quizRepo.GetQuizByModuleID(prev.ID)
	if err != nil {
		if errors.Cause(err) == quiz.ErrNotFound {
			return true, nil
		}
		return false, errors.Wrap(err, "finding gate test")
	}
	return svc.latestAttemptPassed(userID, gq.ID)
}

// latestAttemptPassed consults only the most recently created attempt;
// absence of any attempt is treated identically to "not passed".
func (svc *Service) latestAttemptPassed(userID, quizID string) (bool, error) {
	at, err := svc.quizRepo.GetLatestAttempt(userID, quizID)
	if err != nil {
		if errors.Cause(err) == quiz.ErrNoAttempt {
			return false, nil
		}
		return false, errors.Wrap(err, "finding latest attempt")
	}
	return at.Passed, nil
}

// precedingLesson finds the single nearest lesson with a lower OrderIndex.
func precedingLesson(lessons []course.Lesson, orderIndex int) (course.Lesson, bool) {
	var prev course.Lesson
	var found bool
	for _, l := range lessons {
		if l.OrderIndex < orderIndex && (!found || l.OrderIndex > prev.OrderIndex) {
			prev, found = l, true
		}
	}
	return prev, found
}

func precedingModule(modules []course.Module, orderIndex int) (course.Module, bool) {
	var prev course.Module
	var found bool
	for _, m := range modules {
		if m.OrderIndex < orderIndex && (!found || m.OrderIndex > prev.OrderIndex) {
			prev, found = m, true
		}
	}
	return prev, found
}
