package inmemdb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/quiz"
)

type quizRepository struct {
	db *quizTable
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) *quizRepository {
	return &quizRepository{db: db.quiz}
}

func (repo *quizRepository) CreateQuiz(q quiz.Quiz) (quiz.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	q.ID = uuid.New().String()
	repo.db.quizzes[q.ID] = &q
	return q, nil
}

func (repo *quizRepository) GetQuizByID(id string) (quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.quizzes[id]; ok {
		return *q, nil
	}
	return quiz.Quiz{}, quiz.ErrNotFound
}

func (repo *quizRepository) GetQuizByLessonID(lessonID string) (quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, q := range repo.db.quizzes {
		if q.Kind == quiz.KindLessonQuiz && q.LessonID == lessonID {
			return *q, nil
		}
	}
	return quiz.Quiz{}, quiz.ErrNotFound
}

func (repo *quizRepository) GetQuizByModuleID(moduleID string) (quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, q := range repo.db.quizzes {
		if q.Kind == quiz.KindModuleTest && q.ModuleID == moduleID {
			return *q, nil
		}
	}
	return quiz.Quiz{}, quiz.ErrNotFound
}

func (repo *quizRepository) UpdateQuiz(q quiz.Quiz) (quiz.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.quizzes[q.ID]
	if !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	orig.Title = q.Title
	orig.PassingScore = q.PassingScore
	orig.UpdatedAt = q.UpdatedAt
	return *orig, nil
}

func (repo *quizRepository) DeleteQuizzesByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		for _, qn := range repo.db.questions {
			if qn.QuizID == id {
				delete(repo.db.questions, qn.ID)
			}
		}
		delete(repo.db.quizzes, id)
		// attempts are kept as audit trail
	}
	return nil
}

func (repo *quizRepository) CreateQuestion(qn quiz.Question) (quiz.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	qn.ID = uuid.New().String()
	repo.db.questions[qn.ID] = &qn
	return qn, nil
}

func (repo *quizRepository) GetQuestionByID(id string) (quiz.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if qn, ok := repo.db.questions[id]; ok {
		return *qn, nil
	}
	return quiz.Question{}, quiz.ErrNotFound
}

func (repo *quizRepository) QueryQuestionsByQuizID(quizID string) ([]quiz.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	questions := make([]quiz.Question, 0)
	for _, qn := range repo.db.questions {
		if qn.QuizID == quizID {
			questions = append(questions, *qn)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].OrderIndex < questions[j].OrderIndex })
	return questions, nil
}

func (repo *quizRepository) DeleteQuestionsByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.questions, id)
	}
	return nil
}

func (repo *quizRepository) CreateAttempt(at quiz.Attempt) (quiz.Attempt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	at.ID = uuid.New().String()
	repo.db.attempts[at.ID] = &at
	return at, nil
}

func (repo *quizRepository) GetLatestAttempt(userID, quizID string) (quiz.Attempt, error) {
	attempts, err := repo.QueryAttempts(userID, quizID)
	if err != nil {
		return quiz.Attempt{}, err
	}
	if len(attempts) == 0 {
		return quiz.Attempt{}, quiz.ErrNoAttempt
	}
	return attempts[0], nil
}

func (repo *quizRepository) QueryAttempts(userID, quizID string) ([]quiz.Attempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	attempts := make([]quiz.Attempt, 0)
	for _, at := range repo.db.attempts {
		if at.UserID == userID && at.QuizID == quizID {
			attempts = append(attempts, *at)
		}
	}
	// newest first; ties broken on ID so same-instant attempts order deterministically
	sort.Slice(attempts, func(i, j int) bool {
		if attempts[i].CreatedAt.Equal(attempts[j].CreatedAt) {
			return attempts[i].ID > attempts[j].ID
		}
		return attempts[i].CreatedAt.After(attempts[j].CreatedAt)
	})
	return attempts, nil
}
