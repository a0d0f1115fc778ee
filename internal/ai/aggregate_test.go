package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/testme-app/backend/internal/model"
)

func TestGradeWithoutDocument(t *testing.T) {
	questions := []model.Question{
		{ID: 1, Question: "q1", Type: model.QuestionShortAnswer, Points: 10},
		{ID: 2, Question: "q2", Type: model.QuestionEssay, Points: 20},
	}
	answers := []model.Answer{
		{QuestionID: 1, Answer: "my answer"},
	}
	mock := &MockProvider{
		ProviderName: "gpt",
		Grades:       []AnswerGrade{{Score: 90, Feedback: "nearly", IsCorrect: false}},
	}

	result := GradeWithoutDocument(context.Background(), mock, questions, answers)

	if result.MaxScore != 30 {
		t.Errorf("MaxScore = %v, want 30 (unanswered questions still count)", result.MaxScore)
	}
	if result.AIProvider != "gpt" {
		t.Errorf("AIProvider = %q, want gpt", result.AIProvider)
	}
	if len(result.QuestionResults) != 2 {
		t.Fatalf("got %d question results, want 2", len(result.QuestionResults))
	}

	answered := result.QuestionResults[0]
	if answered.Score != 9 {
		t.Errorf("answered score = %v, want 9 (90%% of 10 points)", answered.Score)
	}
	if answered.IsCorrect == nil || *answered.IsCorrect {
		t.Errorf("answered IsCorrect = %v, want false", answered.IsCorrect)
	}
	if answered.Feedback != "nearly" {
		t.Errorf("answered feedback = %q", answered.Feedback)
	}

	missing := result.QuestionResults[1]
	if missing.Score != 0 || missing.Feedback != "No answer provided" {
		t.Errorf("missing answer result = %+v", missing)
	}
	if missing.IsCorrect != nil {
		t.Errorf("missing answer should leave IsCorrect unset, got %v", *missing.IsCorrect)
	}

	if result.TotalScore != 9 {
		t.Errorf("TotalScore = %v, want 9", result.TotalScore)
	}
	if result.Percentage != 30 {
		t.Errorf("Percentage = %v, want 30", result.Percentage)
	}
}

func TestGradeWithoutDocumentGradingError(t *testing.T) {
	questions := []model.Question{
		{ID: 1, Question: "q1", Type: model.QuestionShortAnswer, Points: 10},
		{ID: 2, Question: "q2", Type: model.QuestionShortAnswer, Points: 10},
	}
	answers := []model.Answer{
		{QuestionID: 1, Answer: "a1"},
		{QuestionID: 2, Answer: "a2"},
	}
	mock := &MockProvider{
		Grades:   []AnswerGrade{{Score: 100, Feedback: "right", IsCorrect: true}},
		GradeErr: errors.New("rate limited"),
	}

	result := GradeWithoutDocument(context.Background(), mock, questions, answers)

	if result.QuestionResults[0].Score != 10 {
		t.Errorf("first score = %v, want 10", result.QuestionResults[0].Score)
	}
	failed := result.QuestionResults[1]
	if failed.Score != 0 || failed.Feedback != "Grading error" {
		t.Errorf("failed grading result = %+v", failed)
	}
	if result.TotalScore != 10 || result.MaxScore != 20 || result.Percentage != 50 {
		t.Errorf("totals = %v/%v (%v%%), want 10/20 (50%%)",
			result.TotalScore, result.MaxScore, result.Percentage)
	}
}

func TestGradeWithoutDocumentClampsScore(t *testing.T) {
	questions := []model.Question{{ID: 1, Question: "q1", Type: model.QuestionShortAnswer, Points: 10}}
	answers := []model.Answer{{QuestionID: 1, Answer: "a1"}}
	mock := &MockProvider{Grades: []AnswerGrade{{Score: 150, IsCorrect: true}}}

	result := GradeWithoutDocument(context.Background(), mock, questions, answers)
	if result.QuestionResults[0].Score != 10 {
		t.Errorf("score = %v, want 10 (clamped to question points)", result.QuestionResults[0].Score)
	}
}

func TestGradeWithoutDocumentEmptyAnswerSkipsCall(t *testing.T) {
	questions := []model.Question{{ID: 1, Question: "q1", Type: model.QuestionShortAnswer, Points: 10}}
	answers := []model.Answer{{QuestionID: 1, Answer: ""}}
	mock := &MockProvider{}

	result := GradeWithoutDocument(context.Background(), mock, questions, answers)
	if len(mock.GradedInputs) != 0 {
		t.Errorf("empty answer should not reach the provider, got %d calls", len(mock.GradedInputs))
	}
	if result.QuestionResults[0].Feedback != "No answer provided" {
		t.Errorf("feedback = %q", result.QuestionResults[0].Feedback)
	}
}
