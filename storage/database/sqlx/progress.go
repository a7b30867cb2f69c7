package sqlxrepos

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/progress"
)

type lessonProgressRow struct {
	UserID      string    `db:"user_id"`
	LessonID    string    `db:"lesson_id"`
	IsCompleted bool      `db:"is_completed"`
	CompletedAt null.Time `db:"completed_at"`
}

func (r lessonProgressRow) lessonProgress() progress.LessonProgress {
	return progress.LessonProgress(r)
}

type enrollmentRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	CourseID    string    `db:"course_id"`
	Progress    int       `db:"progress"`
	Completed   bool      `db:"completed"`
	CompletedAt null.Time `db:"completed_at"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r enrollmentRow) enrollment() progress.Enrollment {
	return progress.Enrollment(r)
}

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

// Lesson progress ledger

func (repo *progressRepository) UpsertLessonProgress(lp progress.LessonProgress) (progress.LessonProgress, error) {
	_, err := repo.db.Exec(`
		INSERT INTO user_lesson_progress (user_id, lesson_id, is_completed, completed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, lesson_id)
		DO UPDATE SET is_completed = EXCLUDED.is_completed, completed_at = EXCLUDED.completed_at`,
		lp.UserID, lp.LessonID, lp.IsCompleted, lp.CompletedAt)
	if err != nil {
		return progress.LessonProgress{}, errors.Wrap(err, "upserting lesson progress")
	}
	return lp, nil
}

func (repo *progressRepository) GetLessonProgress(userID, lessonID string) (progress.LessonProgress, error) {
	var row lessonProgressRow
	err := repo.db.Get(&row,
		`SELECT * FROM user_lesson_progress WHERE user_id = $1 AND lesson_id = $2`, userID, lessonID)
	if err != nil {
		return progress.LessonProgress{}, trapNoRows(err, progress.ErrNoProgress, "finding lesson progress")
	}
	return row.lessonProgress(), nil
}

func (repo *progressRepository) QueryCompletedLessonIDs(userID string) ([]string, error) {
	var ids []string
	err := repo.db.Select(&ids,
		`SELECT lesson_id FROM user_lesson_progress WHERE user_id = $1 AND is_completed`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying completed lessons")
	}
	return ids, nil
}

// Enrollments

func (repo *progressRepository) CreateEnrollment(e progress.Enrollment) (progress.Enrollment, error) {
	e.ID = uuid.New().String()
	_, err := repo.db.Exec(`
		INSERT INTO enrollment (id, user_id, course_id, progress, completed, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.CourseID, e.Progress, e.Completed, e.CompletedAt, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return progress.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo *progressRepository) GetEnrollment(userID, courseID string) (progress.Enrollment, error) {
	var row enrollmentRow
	err := repo.db.Get(&row,
		`SELECT * FROM enrollment WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return progress.Enrollment{}, trapNoRows(err, progress.ErrNotEnrolled, "finding enrollment")
	}
	return row.enrollment(), nil
}

func (repo *progressRepository) QueryEnrollmentsByUserID(userID string) ([]progress.Enrollment, error) {
	return repo.query(`SELECT * FROM enrollment WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (repo *progressRepository) QueryEnrollmentsByCourseID(courseID string) ([]progress.Enrollment, error) {
	return repo.query(`SELECT * FROM enrollment WHERE course_id = $1 ORDER BY created_at`, courseID)
}

func (repo *progressRepository) query(query string, args ...interface{}) ([]progress.Enrollment, error) {
	var rows []enrollmentRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]progress.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, row.enrollment())
	}
	return enrollments, nil
}

func (repo *progressRepository) UpdateEnrollment(e progress.Enrollment) (progress.Enrollment, error) {
	_, err := repo.db.Exec(`
		UPDATE enrollment SET progress = $2, completed = $3, completed_at = $4, updated_at = $5
		WHERE id = $1`,
		e.ID, e.Progress, e.Completed, e.CompletedAt, e.UpdatedAt)
	if err != nil {
		return progress.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	return e, nil
}
