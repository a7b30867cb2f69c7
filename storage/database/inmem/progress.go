package inmemdb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/progress"
)

type progressRepository struct {
	ledger      *lessonProgressTable
	enrollments *enrollmentTable
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{ledger: db.lessonProgress, enrollments: db.enrollment}
}

func (repo *progressRepository) UpsertLessonProgress(lp progress.LessonProgress) (progress.LessonProgress, error) {
	repo.ledger.Lock()
	defer repo.ledger.Unlock()

	repo.ledger.table[pairKey(lp.UserID, lp.LessonID)] = &lp
	return lp, nil
}

func (repo *progressRepository) GetLessonProgress(userID, lessonID string) (progress.LessonProgress, error) {
	repo.ledger.RLock()
	defer repo.ledger.RUnlock()

	if lp, ok := repo.ledger.table[pairKey(userID, lessonID)]; ok {
		return *lp, nil
	}
	return progress.LessonProgress{}, progress.ErrNoProgress
}

func (repo *progressRepository) QueryCompletedLessonIDs(userID string) ([]string, error) {
	repo.ledger.RLock()
	defer repo.ledger.RUnlock()

	ids := make([]string, 0)
	for _, lp := range repo.ledger.table {
		if lp.UserID == userID && lp.IsCompleted {
			ids = append(ids, lp.LessonID)
		}
	}
	return ids, nil
}

func (repo *progressRepository) CreateEnrollment(e progress.Enrollment) (progress.Enrollment, error) {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	e.ID = uuid.New().String()
	repo.enrollments.table[e.ID] = &e
	return e, nil
}

func (repo *progressRepository) GetEnrollment(userID, courseID string) (progress.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	for _, e := range repo.enrollments.table {
		if e.UserID == userID && e.CourseID == courseID {
			return *e, nil
		}
	}
	return progress.Enrollment{}, progress.ErrNotEnrolled
}

func (repo *progressRepository) QueryEnrollmentsByUserID(userID string) ([]progress.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	enrs := make([]progress.Enrollment, 0)
	for _, e := range repo.enrollments.table {
		if e.UserID == userID {
			enrs = append(enrs, *e)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].CreatedAt.Before(enrs[j].CreatedAt) })
	return enrs, nil
}

func (repo *progressRepository) QueryEnrollmentsByCourseID(courseID string) ([]progress.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	enrs := make([]progress.Enrollment, 0)
	for _, e := range repo.enrollments.table {
		if e.CourseID == courseID {
			enrs = append(enrs, *e)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].CreatedAt.Before(enrs[j].CreatedAt) })
	return enrs, nil
}

func (repo *progressRepository) UpdateEnrollment(e progress.Enrollment) (progress.Enrollment, error) {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	if _, ok := repo.enrollments.table[e.ID]; !ok {
		return progress.Enrollment{}, progress.ErrNotEnrolled
	}
	repo.enrollments.table[e.ID] = &e
	return e, nil
}
