package quiz_test

import (
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/quiz"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

func setup(t *testing.T) (*quiz.Service, quiz.Repository) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	repo := inmemdb.NewQuizRepository(db)
	return quiz.NewService(repo), repo
}

func TestService_RecordAttempt(t *testing.T) {
	svc, repo := setup(t)

	qz, err := repo.CreateQuiz(quiz.Quiz{
		Kind:         quiz.KindLessonQuiz,
		LessonID:     "lesson-1",
		Title:        "Checkpoint",
		PassingScore: 80,
	})
	if err != nil {
		t.Fatalf("CreateQuiz() failed: %v", err)
	}
	multi, err := repo.CreateQuestion(quiz.Question{
		QuizID:         qz.ID,
		Prompt:         "Pick the right two",
		Choices:        []string{"a", "b", "c"},
		CorrectChoices: []int{0, 2},
		Points:         2,
		OrderIndex:     0,
	})
	if err != nil {
		t.Fatalf("CreateQuestion() failed: %v", err)
	}
	single := testutil.CreateQuestion(t, repo, qz.ID, 2, 1)

	emptyQz, err := repo.CreateQuiz(quiz.Quiz{
		Kind:     quiz.KindLessonQuiz,
		LessonID: "lesson-2",
		Title:    "Empty",
	})
	if err != nil {
		t.Fatalf("CreateQuiz() failed: %v", err)
	}

	tests := []struct {
		name       string
		quizID     string
		answers    quiz.Answers
		wantScore  int
		wantEarned int
		wantPassed bool
		wantErr    error
		wantValErr bool
	}{
		{
			name:   "quiz not found",
			quizID: "5c1df56a-05bd-4438-9d45-ed8a05922ad3", answers: quiz.Answers{},
			wantErr: quiz.ErrNotFound,
		},
		{
			name:   "unknown question is rejected",
			quizID: qz.ID, answers: quiz.Answers{"nope": {0}},
			wantValErr: true,
		},
		{
			name:   "all correct",
			quizID: qz.ID, answers: quiz.Answers{multi.ID: {0, 2}, single.ID: {0}},
			wantScore: 100, wantEarned: 4, wantPassed: true,
		},
		{
			name:   "order and duplicates do not matter",
			quizID: qz.ID, answers: quiz.Answers{multi.ID: {2, 0, 0}, single.ID: {0, 0}},
			wantScore: 100, wantEarned: 4, wantPassed: true,
		},
		{
			name:   "partial answer earns nothing",
			quizID: qz.ID, answers: quiz.Answers{multi.ID: {0}, single.ID: {0}},
			wantScore: 50, wantEarned: 2, wantPassed: false,
		},
		{
			name:   "no answers",
			quizID: qz.ID, answers: quiz.Answers{},
			wantScore: 0, wantEarned: 0, wantPassed: false,
		},
		{
			name:   "empty quiz scores zero and passes a zero threshold",
			quizID: emptyQz.ID, answers: quiz.Answers{},
			wantScore: 0, wantEarned: 0, wantPassed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, err := svc.RecordAttempt("user-1", tt.quizID, tt.answers)
			if tt.wantErr != nil || tt.wantValErr {
				if err == nil {
					t.Fatal("RecordAttempt() expected an error")
				}
				if tt.wantValErr {
					if _, ok := err.(*core.ValidationError); !ok {
						t.Errorf("RecordAttempt() error = %v, want a validation error", err)
					}
				} else if err != tt.wantErr {
					t.Errorf("RecordAttempt() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RecordAttempt() failed: %v", err)
			}
			if at.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", at.Score, tt.wantScore)
			}
			if at.EarnedPoints != tt.wantEarned {
				t.Errorf("EarnedPoints = %d, want %d", at.EarnedPoints, tt.wantEarned)
			}
			if at.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v", at.Passed, tt.wantPassed)
			}
		})
	}
}

func TestService_LatestAttempt(t *testing.T) {
	svc, repo := setup(t)

	qz := testutil.CreateLessonQuiz(t, repo, "lesson-1", 100)
	questions, err := repo.QueryQuestionsByQuizID(qz.ID)
	if err != nil || len(questions) != 1 {
		t.Fatalf("QueryQuestionsByQuizID() = %v, %v", questions, err)
	}
	qn := questions[0]

	if _, err := svc.LatestAttempt("user-1", qz.ID); err != quiz.ErrNoAttempt {
		t.Errorf("LatestAttempt() error = %v, wantErr %v", err, quiz.ErrNoAttempt)
	}

	if _, err := svc.RecordAttempt("user-1", qz.ID, quiz.Answers{qn.ID: {1}}); err != nil {
		t.Fatalf("RecordAttempt() failed: %v", err)
	}
	if _, err := svc.RecordAttempt("user-1", qz.ID, quiz.Answers{qn.ID: {0}}); err != nil {
		t.Fatalf("RecordAttempt() failed: %v", err)
	}

	latest, err := svc.LatestAttempt("user-1", qz.ID)
	if err != nil {
		t.Fatalf("LatestAttempt() failed: %v", err)
	}
	if !latest.Passed {
		t.Error("latest attempt should be the passing one")
	}

	attempts, err := svc.Attempts("user-1", qz.ID)
	if err != nil {
		t.Fatalf("Attempts() failed: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("Attempts() len = %d, want 2", len(attempts))
	}
	if !attempts[0].Passed || attempts[1].Passed {
		t.Error("attempts should be ordered newest first")
	}

	// another learner's attempts stay invisible
	if _, err := svc.LatestAttempt("user-2", qz.ID); err != quiz.ErrNoAttempt {
		t.Errorf("LatestAttempt() error = %v, wantErr %v", err, quiz.ErrNoAttempt)
	}
}

func TestService_CreateQuiz_oneGatePerUnit(t *testing.T) {
	svc, _ := setup(t)

	if _, err := svc.CreateQuiz(quiz.NewQuiz{
		Kind: quiz.KindLessonQuiz, LessonID: "lesson-1", Title: "Checkpoint", PassingScore: 80,
	}); err != nil {
		t.Fatalf("CreateQuiz() failed: %v", err)
	}
	_, err := svc.CreateQuiz(quiz.NewQuiz{
		Kind: quiz.KindLessonQuiz, LessonID: "lesson-1", Title: "Another", PassingScore: 50,
	})
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("CreateQuiz() error = %v, want a validation error", err)
	}

	// a module test on an unrelated unit is fine
	if _, err := svc.CreateQuiz(quiz.NewQuiz{
		Kind: quiz.KindModuleTest, ModuleID: "module-1", Title: "Module test", PassingScore: 70,
	}); err != nil {
		t.Fatalf("CreateQuiz() failed: %v", err)
	}
}

func TestService_DeleteQuiz_keepsAttempts(t *testing.T) {
	svc, repo := setup(t)

	qz := testutil.CreateLessonQuiz(t, repo, "lesson-1", 0)
	questions, _ := repo.QueryQuestionsByQuizID(qz.ID)
	if _, err := svc.RecordAttempt("user-1", qz.ID, quiz.Answers{questions[0].ID: {0}}); err != nil {
		t.Fatalf("RecordAttempt() failed: %v", err)
	}

	if err := svc.DeleteQuiz(qz.ID); err != nil {
		t.Fatalf("DeleteQuiz() failed: %v", err)
	}
	if _, err := svc.GetQuiz(qz.ID); err != quiz.ErrNotFound {
		t.Errorf("GetQuiz() error = %v, wantErr %v", err, quiz.ErrNotFound)
	}
	if questions, _ := repo.QueryQuestionsByQuizID(qz.ID); len(questions) != 0 {
		t.Error("questions should be deleted with their quiz")
	}

	attempts, err := svc.Attempts("user-1", qz.ID)
	if err != nil {
		t.Fatalf("Attempts() failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Error("attempts should survive quiz deletion")
	}
}

func TestService_RecordAttempt_passingBoundary(t *testing.T) {
	svc, repo := setup(t)

	// 19/24 points rounds to 79, one short of the threshold; 20/25 is dead on it.
	newQuiz := func(lessonID string, bigPoints int) (quiz.Quiz, quiz.Question) {
		qz, err := repo.CreateQuiz(quiz.Quiz{
			Kind:         quiz.KindLessonQuiz,
			LessonID:     lessonID,
			Title:        "Checkpoint",
			PassingScore: 80,
		})
		if err != nil {
			t.Fatalf("CreateQuiz() failed: %v", err)
		}
		big, err := repo.CreateQuestion(quiz.Question{
			QuizID:         qz.ID,
			Prompt:         "Big one",
			Choices:        []string{"right", "wrong"},
			CorrectChoices: []int{0},
			Points:         bigPoints,
			OrderIndex:     0,
		})
		if err != nil {
			t.Fatalf("CreateQuestion() failed: %v", err)
		}
		if _, err = repo.CreateQuestion(quiz.Question{
			QuizID:         qz.ID,
			Prompt:         "Small one",
			Choices:        []string{"right", "wrong"},
			CorrectChoices: []int{0},
			Points:         5,
			OrderIndex:     1,
		}); err != nil {
			t.Fatalf("CreateQuestion() failed: %v", err)
		}
		return qz, big
	}

	t.Run("one below the threshold stays failed", func(t *testing.T) {
		qz, big := newQuiz("lesson-1", 19)
		at, err := svc.RecordAttempt("user-1", qz.ID, quiz.Answers{big.ID: {0}})
		if err != nil {
			t.Fatalf("RecordAttempt() failed: %v", err)
		}
		if at.Score != 79 || at.Passed {
			t.Errorf("attempt = {Score: %v, Passed: %v}; want {79, false}", at.Score, at.Passed)
		}
	})
	t.Run("exactly the threshold passes", func(t *testing.T) {
		qz, big := newQuiz("lesson-2", 20)
		at, err := svc.RecordAttempt("user-1", qz.ID, quiz.Answers{big.ID: {0}})
		if err != nil {
			t.Fatalf("RecordAttempt() failed: %v", err)
		}
		if at.Score != 80 || !at.Passed {
			t.Errorf("attempt = {Score: %v, Passed: %v}; want {80, true}", at.Score, at.Passed)
		}
	})
}

func TestRepository_GetLatestAttempt_sameInstantTiebreak(t *testing.T) {
	_, repo := setup(t)

	now := time.Now().UTC()
	first, err := repo.CreateAttempt(quiz.Attempt{UserID: "user-1", QuizID: "quiz-1", Score: 40, CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateAttempt() failed: %v", err)
	}
	second, err := repo.CreateAttempt(quiz.Attempt{UserID: "user-1", QuizID: "quiz-1", Score: 90, CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateAttempt() failed: %v", err)
	}

	// equal timestamps fall back to the ID ordering
	want := first
	if second.ID > first.ID {
		want = second
	}
	got, err := repo.GetLatestAttempt("user-1", "quiz-1")
	if err != nil {
		t.Fatalf("GetLatestAttempt() failed: %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("GetLatestAttempt() = %v, want %v", got.ID, want.ID)
	}

	// repeated reads agree
	for i := 0; i < 5; i++ {
		again, err := repo.GetLatestAttempt("user-1", "quiz-1")
		if err != nil {
			t.Fatalf("GetLatestAttempt() failed: %v", err)
		}
		if again.ID != got.ID {
			t.Errorf("GetLatestAttempt() flapped: %v then %v", got.ID, again.ID)
		}
	}
}
