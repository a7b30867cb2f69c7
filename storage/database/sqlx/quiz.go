package sqlxrepos

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/quiz"
)

const (
	quizLessonKey = "quiz_lesson_id_key"
	quizModuleKey = "quiz_module_id_key"
)

type quizRow struct {
	ID           string      `db:"id"`
	Kind         string      `db:"kind"`
	LessonID     null.String `db:"lesson_id"`
	ModuleID     null.String `db:"module_id"`
	Title        string      `db:"title"`
	PassingScore int         `db:"passing_score"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r quizRow) quiz() quiz.Quiz {
	return quiz.Quiz{
		ID:           r.ID,
		Kind:         r.Kind,
		LessonID:     r.LessonID.String,
		ModuleID:     r.ModuleID.String,
		Title:        r.Title,
		PassingScore: r.PassingScore,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type questionRow struct {
	ID             string         `db:"id"`
	QuizID         string         `db:"quiz_id"`
	Prompt         string         `db:"prompt"`
	Choices        pq.StringArray `db:"choices"`
	CorrectChoices jsonInts       `db:"correct_choices"`
	Points         int            `db:"points"`
	OrderIndex     int            `db:"order_index"`
}

func (r questionRow) question() quiz.Question {
	return quiz.Question{
		ID:             r.ID,
		QuizID:         r.QuizID,
		Prompt:         r.Prompt,
		Choices:        r.Choices,
		CorrectChoices: r.CorrectChoices,
		Points:         r.Points,
		OrderIndex:     r.OrderIndex,
	}
}

type attemptRow struct {
	ID           string      `db:"id"`
	UserID       string      `db:"user_id"`
	QuizID       string      `db:"quiz_id"`
	Answers      jsonAnswers `db:"answers"`
	EarnedPoints int         `db:"earned_points"`
	TotalPoints  int         `db:"total_points"`
	Score        int         `db:"score"`
	Passed       bool        `db:"passed"`
	CreatedAt    time.Time   `db:"created_at"`
}

func (r attemptRow) attempt() quiz.Attempt {
	return quiz.Attempt{
		ID:           r.ID,
		UserID:       r.UserID,
		QuizID:       r.QuizID,
		Answers:      quiz.Answers(r.Answers),
		EarnedPoints: r.EarnedPoints,
		TotalPoints:  r.TotalPoints,
		Score:        r.Score,
		Passed:       r.Passed,
		CreatedAt:    r.CreatedAt,
	}
}

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *sqlx.DB) *quizRepository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) getQuiz(query string, args ...interface{}) (quiz.Quiz, error) {
	var row quizRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		return quiz.Quiz{}, trapNoRows(err, quiz.ErrNotFound, "finding quiz")
	}
	return row.quiz(), nil
}

func (repo *quizRepository) CreateQuiz(q quiz.Quiz) (quiz.Quiz, error) {
	q.ID = uuid.New().String()
	_, err := repo.db.Exec(`
		INSERT INTO quiz (id, kind, lesson_id, module_id, title, passing_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		q.ID, q.Kind,
		null.NewString(q.LessonID, q.LessonID != ""), null.NewString(q.ModuleID, q.ModuleID != ""),
		q.Title, q.PassingScore, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		if err = trapUniqueViolation(err, quiz.ErrQuizExists, quizLessonKey, quizModuleKey); err == quiz.ErrQuizExists {
			return quiz.Quiz{}, err
		}
		return quiz.Quiz{}, errors.Wrap(err, "inserting quiz")
	}
	return q, nil
}

func (repo *quizRepository) GetQuizByID(id string) (quiz.Quiz, error) {
	if _, err := uuid.Parse(id); err != nil {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	return repo.getQuiz(`SELECT * FROM quiz WHERE id = $1`, id)
}

func (repo *quizRepository) GetQuizByLessonID(lessonID string) (quiz.Quiz, error) {
	return repo.getQuiz(`SELECT * FROM quiz WHERE lesson_id = $1`, lessonID)
}

func (repo *quizRepository) GetQuizByModuleID(moduleID string) (quiz.Quiz, error) {
	return repo.getQuiz(`SELECT * FROM quiz WHERE module_id = $1`, moduleID)
}

func (repo *quizRepository) UpdateQuiz(q quiz.Quiz) (quiz.Quiz, error) {
	orig, err := repo.GetQuizByID(q.ID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	orig.Title = q.Title
	orig.PassingScore = q.PassingScore
	orig.UpdatedAt = q.UpdatedAt

	_, err = repo.db.Exec(`UPDATE quiz SET title = $2, passing_score = $3, updated_at = $4 WHERE id = $1`,
		orig.ID, orig.Title, orig.PassingScore, orig.UpdatedAt)
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "updating quiz")
	}
	return orig, nil
}

func (repo *quizRepository) DeleteQuizzesByID(ids ...string) error {
	// questions cascade; attempts carry no FK and are kept as audit trail
	_, err := repo.db.Exec(`DELETE FROM quiz WHERE id = ANY ($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting quizzes")
}

// Questions

func (repo *quizRepository) CreateQuestion(qn quiz.Question) (quiz.Question, error) {
	qn.ID = uuid.New().String()
	_, err := repo.db.Exec(`
		INSERT INTO quiz_question (id, quiz_id, prompt, choices, correct_choices, points, order_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		qn.ID, qn.QuizID, qn.Prompt, pq.StringArray(qn.Choices), jsonInts(qn.CorrectChoices), qn.Points, qn.OrderIndex)
	if err != nil {
		return quiz.Question{}, errors.Wrap(err, "inserting question")
	}
	return qn, nil
}

func (repo *quizRepository) GetQuestionByID(id string) (quiz.Question, error) {
	if _, err := uuid.Parse(id); err != nil {
		return quiz.Question{}, quiz.ErrNotFound
	}
	var row questionRow
	if err := repo.db.Get(&row, `SELECT * FROM quiz_question WHERE id = $1`, id); err != nil {
		return quiz.Question{}, trapNoRows(err, quiz.ErrNotFound, "finding question by ID")
	}
	return row.question(), nil
}

func (repo *quizRepository) QueryQuestionsByQuizID(quizID string) ([]quiz.Question, error) {
	var rows []questionRow
	err := repo.db.Select(&rows, `SELECT * FROM quiz_question WHERE quiz_id = $1 ORDER BY order_index`, quizID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]quiz.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.question())
	}
	return questions, nil
}

func (repo *quizRepository) DeleteQuestionsByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM quiz_question WHERE id = ANY ($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting questions")
}

// Attempts

func (repo *quizRepository) CreateAttempt(at quiz.Attempt) (quiz.Attempt, error) {
	at.ID = uuid.New().String()
	_, err := repo.db.Exec(`
		INSERT INTO quiz_attempt (id, user_id, quiz_id, answers, earned_points, total_points, score, passed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		at.ID, at.UserID, at.QuizID, jsonAnswers(at.Answers),
		at.EarnedPoints, at.TotalPoints, at.Score, at.Passed, at.CreatedAt)
	if err != nil {
		return quiz.Attempt{}, errors.Wrap(err, "inserting attempt")
	}
	return at, nil
}

func (repo *quizRepository) GetLatestAttempt(userID, quizID string) (quiz.Attempt, error) {
	var row attemptRow
	err := repo.db.Get(&row, `
		SELECT * FROM quiz_attempt WHERE user_id = $1 AND quiz_id = $2
		ORDER BY created_at DESC, id DESC LIMIT 1`, userID, quizID)
	if err != nil {
		return quiz.Attempt{}, trapNoRows(err, quiz.ErrNoAttempt, "finding latest attempt")
	}
	return row.attempt(), nil
}

func (repo *quizRepository) QueryAttempts(userID, quizID string) ([]quiz.Attempt, error) {
	var rows []attemptRow
	err := repo.db.Select(&rows, `
		SELECT * FROM quiz_attempt WHERE user_id = $1 AND quiz_id = $2
		ORDER BY created_at DESC, id DESC`, userID, quizID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	attempts := make([]quiz.Attempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, row.attempt())
	}
	return attempts, nil
}
