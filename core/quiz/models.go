package quiz

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Quiz kinds
const (
	KindLessonQuiz = "lesson_quiz" // attached to exactly one Lesson
	KindModuleTest = "module_test" // attached to exactly one Module
)

type Quiz struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	LessonID     string    `json:"lesson_id,omitempty"` // set iff Kind == lesson_quiz
	ModuleID     string    `json:"module_id,omitempty"` // set iff Kind == module_test
	Title        string    `json:"title"`
	PassingScore int       `json:"passing_score"` // percentage threshold, 0-100
	CreatedAt    time.Time `json:"created_at"`    // UTC
	UpdatedAt    time.Time `json:"updated_at"`    // UTC
}

type Question struct {
	ID             string   `json:"id"`
	QuizID         string   `json:"quiz_id"`
	Prompt         string   `json:"prompt"`
	Choices        []string `json:"choices"`
	CorrectChoices []int    `json:"-"` // indices into Choices; never serialized to learners
	Points         int      `json:"points"`
	OrderIndex     int      `json:"order_index"`
}

// Answers maps a question ID to the set of selected choice indices.
type Answers map[string][]int

// Attempt is a learner's submission of a Quiz. It is immutable once created;
// attempts are retained as audit trail even when the quiz is later removed.
type Attempt struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	QuizID       string    `json:"quiz_id"`
	Answers      Answers   `json:"answers"`
	EarnedPoints int       `json:"earned_points"`
	TotalPoints  int       `json:"total_points"`
	Score        int       `json:"score"` // 0-100
	Passed       bool      `json:"passed"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

// NewQuiz contains information needed to attach a quiz/test to a lesson/module.
type NewQuiz struct {
	Kind         string `json:"kind" validate:"required,oneof=lesson_quiz module_test"`
	LessonID     string `json:"lesson_id"`
	ModuleID     string `json:"module_id"`
	Title        string `json:"title" validate:"required"`
	PassingScore int    `json:"passing_score" validate:"min=0,max=100"`
}

func (nq *NewQuiz) Validate() error {
	nq.Title = core.CleanString(nq.Title)
	nq.Kind = core.CleanString(nq.Kind, true /* lower */)

	if err := core.Validate.Struct(nq); err != nil {
		return err
	}
	// exactly one owner, matching the kind
	switch nq.Kind {
	case KindLessonQuiz:
		if nq.LessonID == "" || nq.ModuleID != "" {
			return core.NewValidationError(nil,
				core.FieldError{Field: "lesson_id", Error: "a lesson_quiz must reference exactly one lesson"})
		}
	case KindModuleTest:
		if nq.ModuleID == "" || nq.LessonID != "" {
			return core.NewValidationError(nil,
				core.FieldError{Field: "module_id", Error: "a module_test must reference exactly one module"})
		}
	}
	return nil
}

type UpdateQuiz struct {
	Title        string `json:"title"`
	PassingScore *int   `json:"passing_score" validate:"omitempty,min=0,max=100"`
}

func (uq *UpdateQuiz) Validate(orig Quiz) error {
	if title := core.CleanString(uq.Title); title != "" {
		uq.Title = title
	} else {
		uq.Title = orig.Title
	}
	return core.Validate.Struct(uq)
}

// NewQuestion contains information needed to add a question to a quiz.
type NewQuestion struct {
	QuizID         string   `json:"quiz_id" validate:"required"`
	Prompt         string   `json:"prompt" validate:"required"`
	Choices        []string `json:"choices" validate:"required,min=2"`
	CorrectChoices []int    `json:"correct_choices" validate:"required,min=1"`
	Points         int      `json:"points" validate:"min=1"`
	OrderIndex     int      `json:"order_index" validate:"min=0"`
}

func (nqn *NewQuestion) Validate() error {
	nqn.Prompt = core.CleanString(nqn.Prompt)

	if err := core.Validate.Struct(nqn); err != nil {
		return err
	}
	for _, idx := range nqn.CorrectChoices {
		if idx < 0 || idx >= len(nqn.Choices) {
			return core.NewValidationError(nil,
				core.FieldError{Field: "correct_choices", Error: "choice index out of range"})
		}
	}
	return nil
}

// NewAttempt is a learner's quiz submission payload.
type NewAttempt struct {
	Answers Answers `json:"answers" validate:"required"`
}

func (na *NewAttempt) Validate() error { return core.Validate.Struct(na) }
