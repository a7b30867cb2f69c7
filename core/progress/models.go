package progress

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// LessonProgress is the ledger row for a (learner, lesson) pair. At most one
// row exists per pair; completion is recorded by upsert, never duplicated.
type LessonProgress struct {
	UserID      string    `json:"user_id"`
	LessonID    string    `json:"lesson_id"`
	IsCompleted bool      `json:"is_completed"`
	CompletedAt null.Time `json:"completed_at"` // UTC; null while not completed
}

// Enrollment ties a learner to a course and caches the last computed
// progress. The cache is refreshed explicitly, not reactively.
type Enrollment struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CourseID    string    `json:"course_id"`
	Progress    int       `json:"progress"` // cached percentage, 0-100
	Completed   bool      `json:"completed"`
	CompletedAt null.Time `json:"completed_at"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// CourseProgress is the derived course-level progress for a learner.
type CourseProgress struct {
	Progress  int  `json:"progress"` // 0-100
	Completed bool `json:"completed"`
}

// RecordProgress is the learner's lesson completion payload.
type RecordProgress struct {
	IsCompleted *bool `json:"is_completed" validate:"required"`
}

func (rp *RecordProgress) Validate() error { return core.Validate.Struct(rp) }
