package ai

import (
	"strings"
	"testing"

	"github.com/testme-app/backend/internal/model"
)

func TestExamGenInstructions(t *testing.T) {
	got := examGenInstructions(GenerateOptions{NumQuestions: 12, Difficulty: model.DifficultyHard})
	for _, want := range []string{"12 exam questions", "hard", "multiple_choice", "total_points", "estimated_time"} {
		if !strings.Contains(got, want) {
			t.Errorf("instructions missing %q:\n%s", want, got)
		}
	}
}

func TestGradingAnswersText(t *testing.T) {
	questions := []model.Question{
		{ID: 1, Question: "What is a goroutine?", Type: model.QuestionShortAnswer, Points: 10},
		{ID: 2, Question: "Explain channels.", Type: model.QuestionEssay, Points: 20},
	}
	answers := []model.Answer{{QuestionID: 1, Answer: "A lightweight thread."}}

	got := gradingAnswersText(questions, answers)

	if !strings.Contains(got, "Question 1 (10 points):") {
		t.Errorf("missing question header:\n%s", got)
	}
	if !strings.Contains(got, "A lightweight thread.") {
		t.Errorf("missing student answer:\n%s", got)
	}
	if !strings.Contains(got, "[No answer provided]") {
		t.Errorf("missing skipped-answer marker:\n%s", got)
	}
}

func TestAnswerGradingUserPrompt(t *testing.T) {
	withRef := answerGradingUserPrompt("What is 2+2?", "4", "4")
	if !strings.Contains(withRef, "Correct Answer (for reference): 4") {
		t.Errorf("missing reference answer:\n%s", withRef)
	}

	withoutRef := answerGradingUserPrompt("What is 2+2?", "4", "")
	if strings.Contains(withoutRef, "Correct Answer") {
		t.Errorf("reference line should be omitted when empty:\n%s", withoutRef)
	}
}
