package progress

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotEnrolled     = errors.New("not enrolled in this course")
	ErrNoProgress      = errors.New("no progress recorded")
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
)

type (
	Repository interface {
		// UpsertLessonProgress creates the (user, lesson) row on first write
		// and updates it in place thereafter.
		UpsertLessonProgress(lp LessonProgress) (LessonProgress, error)
		GetLessonProgress(userID, lessonID string) (LessonProgress, error)
		// QueryCompletedLessonIDs returns the IDs of all lessons the user has
		// completed, across all courses.
		QueryCompletedLessonIDs(userID string) ([]string, error)

		CreateEnrollment(e Enrollment) (Enrollment, error)
		GetEnrollment(userID, courseID string) (Enrollment, error)
		QueryEnrollmentsByUserID(userID string) ([]Enrollment, error)
		QueryEnrollmentsByCourseID(courseID string) ([]Enrollment, error)
		UpdateEnrollment(e Enrollment) (Enrollment, error)
	}

	Service struct {
		repo       Repository
		courseRepo course.Repository
		quizRepo   quiz.Repository
		usrRepo    user.Repository
		mailSvc    core.EmailService
	}
)

func NewService(
	repo Repository,
	courseRepo course.Repository,
	quizRepo quiz.Repository,
	usrRepo user.Repository,
	mailSvc core.EmailService,
) *Service {
	return &Service{
		repo:       repo,
		courseRepo: courseRepo,
		quizRepo:   quizRepo,
		usrRepo:    usrRepo,
		mailSvc:    mailSvc,
	}
}

// RecordLessonProgress upserts the ledger row for (user, lesson).
// Completion always stamps the current time, even on re-completion;
// un-completing clears the stamp. Access checks are the caller's
// responsibility (the gate runs before this), and course aggregates are NOT
// refreshed here - call RefreshEnrollment when a fresh percentage is needed.
func (svc *Service) RecordLessonProgress(userID, lessonID string, isCompleted bool) (LessonProgress, error) {
	lp := LessonProgress{
		UserID:      userID,
		LessonID:    lessonID,
		IsCompleted: isCompleted,
	}
	if isCompleted {
		lp.CompletedAt = null.TimeFrom(time.Now().UTC())
	}
	return svc.repo.UpsertLessonProgress(lp)
}

func (svc *Service) GetLessonProgress(userID, lessonID string) (LessonProgress, error) {
	return svc.repo.GetLessonProgress(userID, lessonID)
}

// CourseProgress derives the course-level percentage for a learner from
// scratch on every call: no cached state is consulted. The canonical
// computation spans ALL lessons of ALL modules regardless of publication
// state; lessons completed before being unpublished keep counting.
func (svc *Service) CourseProgress(userID, courseID string) (CourseProgress, error) {
	lessons, err := svc.courseRepo.QueryLessonsByCourseID(courseID, course.AdminPreview)
	if err != nil {
		return CourseProgress{}, errors.Wrap(err, "querying course lessons")
	}
	if len(lessons) == 0 {
		// a course with no lessons can never register progress
		return CourseProgress{}, nil
	}

	completedIDs, err := svc.repo.QueryCompletedLessonIDs(userID)
	if err != nil {
		return CourseProgress{}, errors.Wrap(err, "querying completed lessons")
	}
	completed := make(map[string]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = struct{}{}
	}

	var count int
	for _, lsn := range lessons {
		if _, ok := completed[lsn.ID]; ok {
			count++
		}
	}

	pct := core.RoundPercent(count, len(lessons))
	return CourseProgress{Progress: pct, Completed: pct == 100}, nil
}

// Enroll records the learner on the course. Enrolling twice is rejected.
// Payment for non-free courses is not handled here (charging is stubbed).
func (svc *Service) Enroll(userID, courseID string) (Enrollment, error) {
	if _, err := svc.courseRepo.GetCourseByID(courseID); err != nil {
		return Enrollment{}, err
	}
	if _, err := svc.repo.GetEnrollment(userID, courseID); err == nil {
		return Enrollment{}, core.NewValidationError(ErrAlreadyEnrolled)
	} else if errors.Cause(err) != ErrNotEnrolled {
		return Enrollment{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateEnrollment(Enrollment{
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetEnrollment(userID, courseID string) (Enrollment, error) {
	return svc.repo.GetEnrollment(userID, courseID)
}

func (svc *Service) QueryEnrollments(userID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsByUserID(userID)
}

// RefreshEnrollment recomputes the course progress and stores it on the
// learner's enrollment. On the transition to completed, the learner is
// congratulated by email, once.
func (svc *Service) RefreshEnrollment(userID, courseID string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollment(userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}

	cp, err := svc.CourseProgress(userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}

	justCompleted := cp.Completed && !enr.Completed
	enr.Progress = cp.Progress
	enr.Completed = cp.Completed
	if justCompleted {
		enr.CompletedAt = null.TimeFrom(time.Now().UTC())
	} else if !cp.Completed {
		enr.CompletedAt = null.Time{}
	}
	enr.UpdatedAt = time.Now().UTC()

	enr, err = svc.repo.UpdateEnrollment(enr)
	if err != nil {
		return Enrollment{}, err
	}

	if justCompleted {
		svc.sendCompletionEmail(userID, courseID)
	}
	return enr, nil
}

// RefreshCourseEnrollments recomputes every enrollment of a course; used by
// the admin CLI after structural edits (lessons added/removed).
func (svc *Service) RefreshCourseEnrollments(courseID string) error {
	enrs, err := svc.repo.QueryEnrollmentsByCourseID(courseID)
	if err != nil {
		return err
	}
	for _, enr := range enrs {
		if _, err = svc.RefreshEnrollment(enr.UserID, enr.CourseID); err != nil {
			return errors.Wrapf(err, "refreshing enrollment %s", enr.ID)
		}
	}
	return nil
}

func (svc *Service) sendCompletionEmail(userID, courseID string) {
	usr, err := svc.usrRepo.GetUserByID(userID)
	if err != nil {
		return
	}
	crs, err := svc.courseRepo.GetCourseByID(courseID)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      fmt.Sprintf("Congratulations! You completed %s", crs.Title),
		TemplateName: "course-completed",
		TemplateData: struct {
			Username, CourseTitle, CourseSlug string
		}{usr.Username, crs.Title, crs.Slug},
	})
}
