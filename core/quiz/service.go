package quiz

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound   = errors.New("quiz not found")
	ErrNoAttempt  = errors.New("no attempt recorded")
	ErrQuizExists = errors.New("a quiz is already attached to this unit")

	errUnknownQuestionText = "answer references an unknown question"
)

type (
	Repository interface {
		CreateQuiz(q Quiz) (Quiz, error)
		GetQuizByID(id string) (Quiz, error)
		// GetQuizByLessonID returns the lesson_quiz attached to the lesson, if any.
		GetQuizByLessonID(lessonID string) (Quiz, error)
		// GetQuizByModuleID returns the module_test attached to the module, if any.
		GetQuizByModuleID(moduleID string) (Quiz, error)
		UpdateQuiz(q Quiz) (Quiz, error)
		// DeleteQuizzesByID cascades to owned questions; historical attempts are kept.
		DeleteQuizzesByID(ids ...string) error

		CreateQuestion(qn Question) (Question, error)
		GetQuestionByID(id string) (Question, error)
		// QueryQuestionsByQuizID returns questions ordered by OrderIndex ascending.
		QueryQuestionsByQuizID(quizID string) ([]Question, error)
		DeleteQuestionsByID(ids ...string) error

		CreateAttempt(at Attempt) (Attempt, error)
		// GetLatestAttempt returns the most recently created attempt for the
		// (user, quiz) pair, or ErrNoAttempt.
		GetLatestAttempt(userID, quizID string) (Attempt, error)
		// QueryAttempts returns all attempts for the pair, newest first.
		QueryAttempts(userID, quizID string) ([]Attempt, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authoring

func (svc *Service) CreateQuiz(nq NewQuiz) (Quiz, error) {
	// one gate per unit
	var err error
	switch nq.Kind {
	case KindLessonQuiz:
		_, err = svc.repo.GetQuizByLessonID(nq.LessonID)
	case KindModuleTest:
		_, err = svc.repo.GetQuizByModuleID(nq.ModuleID)
	}
	if err == nil {
		return Quiz{}, core.NewValidationError(ErrQuizExists)
	} else if errors.Cause(err) != ErrNotFound {
		return Quiz{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateQuiz(Quiz{
		Kind:         nq.Kind,
		LessonID:     nq.LessonID,
		ModuleID:     nq.ModuleID,
		Title:        nq.Title,
		PassingScore: nq.PassingScore,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) GetQuiz(id string) (Quiz, error) {
	return svc.repo.GetQuizByID(id)
}

func (svc *Service) GetQuizForLesson(lessonID string) (Quiz, error) {
	return svc.repo.GetQuizByLessonID(lessonID)
}

func (svc *Service) GetTestForModule(moduleID string) (Quiz, error) {
	return svc.repo.GetQuizByModuleID(moduleID)
}

func (svc *Service) UpdateQuiz(id string, uq UpdateQuiz) (Quiz, error) {
	orig, err := svc.repo.GetQuizByID(id)
	if err != nil {
		return Quiz{}, err
	}
	orig.Title = uq.Title
	if uq.PassingScore != nil {
		orig.PassingScore = *uq.PassingScore
	}
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateQuiz(orig)
}

func (svc *Service) DeleteQuiz(ids ...string) error {
	return svc.repo.DeleteQuizzesByID(ids...)
}

func (svc *Service) AddQuestion(nqn NewQuestion) (Question, error) {
	if _, err := svc.repo.GetQuizByID(nqn.QuizID); err != nil {
		return Question{}, err
	}
	return svc.repo.CreateQuestion(Question{
		QuizID:         nqn.QuizID,
		Prompt:         nqn.Prompt,
		Choices:        nqn.Choices,
		CorrectChoices: nqn.CorrectChoices,
		Points:         nqn.Points,
		OrderIndex:     nqn.OrderIndex,
	})
}

func (svc *Service) GetQuestion(id string) (Question, error) {
	return svc.repo.GetQuestionByID(id)
}

func (svc *Service) Questions(quizID string) ([]Question, error) {
	if _, err := svc.repo.GetQuizByID(quizID); err != nil {
		return nil, err
	}
	return svc.repo.QueryQuestionsByQuizID(quizID)
}

func (svc *Service) DeleteQuestion(ids ...string) error {
	return svc.repo.DeleteQuestionsByID(ids...)
}

// Attempt tracking

// RecordAttempt scores the submitted answers against the quiz's questions and
// persists the finalized attempt. A question earns its points when the
// submitted choice set matches the stored correct set exactly.
func (svc *Service) RecordAttempt(userID, quizID string, answers Answers) (Attempt, error) {
	qz, err := svc.repo.GetQuizByID(quizID)
	if err != nil {
		return Attempt{}, err
	}
	questions, err := svc.repo.QueryQuestionsByQuizID(quizID)
	if err != nil {
		return Attempt{}, errors.Wrap(err, "querying questions")
	}

	// reject answers referencing nonexistent questions before any write
	known := make(map[string]Question, len(questions))
	for _, qn := range questions {
		known[qn.ID] = qn
	}
	for qnID := range answers {
		if _, ok := known[qnID]; !ok {
			return Attempt{}, core.NewValidationError(nil,
				core.FieldError{Field: "answers", Error: errUnknownQuestionText})
		}
	}

	var earned, total int
	for _, qn := range questions {
		total += qn.Points
		if choiceSetsEqual(answers[qn.ID], qn.CorrectChoices) {
			earned += qn.Points
		}
	}
	score := core.RoundPercent(earned, total)

	return svc.repo.CreateAttempt(Attempt{
		UserID:       userID,
		QuizID:       quizID,
		Answers:      answers,
		EarnedPoints: earned,
		TotalPoints:  total,
		Score:        score,
		Passed:       score >= qz.PassingScore,
		CreatedAt:    time.Now().UTC(),
	})
}

// LatestAttempt returns the authoritative attempt for gating: the most
// recently created one. ErrNoAttempt when the learner never submitted.
func (svc *Service) LatestAttempt(userID, quizID string) (Attempt, error) {
	return svc.repo.GetLatestAttempt(userID, quizID)
}

func (svc *Service) Attempts(userID, quizID string) ([]Attempt, error) {
	return svc.repo.QueryAttempts(userID, quizID)
}

// choiceSetsEqual compares two choice index sets ignoring order and duplicates.
func choiceSetsEqual(submitted, correct []int) bool {
	if len(submitted) == 0 {
		return len(correct) == 0
	}
	a := dedupSorted(submitted)
	b := dedupSorted(correct)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func dedupSorted(vals []int) []int {
	out := append([]int(nil), vals...)
	sort.Ints(out)
	n := 0
	for i, v := range out {
		if i == 0 || v != out[n-1] {
			out[n] = v
			n++
		}
	}
	return out[:n]
}
