package ai

import (
	"errors"
	"strings"
	"testing"

	"github.com/testme-app/backend/internal/model"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain object", `{"score": 90}`, `{"score": 90}`, false},
		{"json fence", "```json\n{\"score\": 90}\n```", `{"score": 90}`, false},
		{"bare fence", "```\n{\"score\": 90}\n```", `{"score": 90}`, false},
		{"leading prose", `Here is the grade: {"score": 90} Hope that helps!`, `{"score": 90}`, false},
		{"surrounding whitespace", "  \n{\"score\": 90}\n  ", `{"score": 90}`, false},
		{"no json at all", "I cannot grade this answer.", "", true},
		{"broken json", `{"score": `, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				var parseErr *ResponseParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("error = %T, want *ResponseParseError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractJSON() error = %v", err)
			}
			if strings.TrimSpace(string(got)) != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONExcerptTruncated(t *testing.T) {
	raw := strings.Repeat("x", 500)
	_, err := extractJSON(raw)
	var parseErr *ResponseParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %T, want *ResponseParseError", err)
	}
	if len(parseErr.Excerpt) != responseExcerptLen {
		t.Errorf("excerpt length = %d, want %d", len(parseErr.Excerpt), responseExcerptLen)
	}
}

func TestDecodeExamDerivesTotalPoints(t *testing.T) {
	raw := "```json\n" + `{
		"questions": [
			{"id": 1, "question": "What is TCP?", "type": "short_answer", "points": 10},
			{"id": 2, "question": "Pick one", "type": "multiple_choice", "options": ["a", "b"], "points": 20}
		],
		"total_points": 999,
		"estimated_time": 45
	}` + "\n```"

	payload, err := decodeExam(raw)
	if err != nil {
		t.Fatalf("decodeExam() error = %v", err)
	}
	if payload.TotalPoints != 30 {
		t.Errorf("TotalPoints = %d, want 30 (derived, not the model's 999)", payload.TotalPoints)
	}
	if payload.EstimatedTime != 45 {
		t.Errorf("EstimatedTime = %d, want 45", payload.EstimatedTime)
	}
	if len(payload.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(payload.Questions))
	}
	if payload.Questions[1].Options[0] != "a" {
		t.Errorf("options not preserved: %+v", payload.Questions[1])
	}
}

func TestDecodeExamRejectsEmptyQuestions(t *testing.T) {
	if _, err := decodeExam(`{"questions": [], "total_points": 0}`); err == nil {
		t.Fatal("expected error for empty question list")
	}
}

func TestDecodeExamRejectsMalformedQuestions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"duplicate ids", `{"questions": [
			{"id": 1, "question": "a", "type": "short_answer", "points": 10},
			{"id": 1, "question": "b", "type": "short_answer", "points": 10}]}`},
		{"zero id", `{"questions": [{"id": 0, "question": "a", "type": "short_answer", "points": 10}]}`},
		{"zero points", `{"questions": [{"id": 1, "question": "a", "type": "short_answer", "points": 0}]}`},
		{"multiple choice without options", `{"questions": [{"id": 1, "question": "a", "type": "multiple_choice", "points": 10}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeExam(tt.raw); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecodeExamClearsStrayOptions(t *testing.T) {
	raw := `{"questions": [{"id": 1, "question": "a", "type": "essay", "points": 10, "options": ["x"]}]}`
	payload, err := decodeExam(raw)
	if err != nil {
		t.Fatalf("decodeExam() error = %v", err)
	}
	if payload.Questions[0].Options != nil {
		t.Errorf("essay question kept options: %+v", payload.Questions[0])
	}
}

func TestDecodeGradingEnforcesInvariants(t *testing.T) {
	questions := []model.Question{
		{ID: 1, Question: "q1", Type: model.QuestionShortAnswer, Points: 10},
		{ID: 2, Question: "q2", Type: model.QuestionEssay, Points: 20},
	}
	// Score above max, missing max_points, and a stale total from the model.
	raw := `{
		"question_results": [
			{"question_id": 1, "score": 15, "max_points": 10, "feedback": "over"},
			{"question_id": 2, "score": 12.345, "feedback": "partial"}
		],
		"total_score": 1,
		"max_score": 1,
		"percentage": 1
	}`

	result, err := decodeGrading(raw, questions)
	if err != nil {
		t.Fatalf("decodeGrading() error = %v", err)
	}
	if result.QuestionResults[0].Score != 10 {
		t.Errorf("score not clamped to max: %v", result.QuestionResults[0].Score)
	}
	if result.QuestionResults[1].MaxPoints != 20 {
		t.Errorf("max_points not backfilled: %v", result.QuestionResults[1].MaxPoints)
	}
	if result.MaxScore != 30 {
		t.Errorf("MaxScore = %v, want 30", result.MaxScore)
	}
	if result.TotalScore != 22.35 {
		t.Errorf("TotalScore = %v, want 22.35", result.TotalScore)
	}
	if result.Percentage != 74.5 {
		t.Errorf("Percentage = %v, want 74.5", result.Percentage)
	}
}

func TestDecodeGradingRejectsEmptyResults(t *testing.T) {
	if _, err := decodeGrading(`{"question_results": []}`, nil); err == nil {
		t.Fatal("expected error for empty question results")
	}
}

func TestNormalizeAnswerGrade(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantScore     float64
		wantFeedback  string
		wantIsCorrect bool
	}{
		{"canonical fields", `{"score": 90, "feedback": "good", "is_correct": true}`, 90, "good", true},
		{"grade synonym", `{"grade": 80}`, 80, "", false},
		{"score_percent synonym", `{"score_percent": 70, "explanation": "close"}`, 70, "close", false},
		{"comment synonym", `{"score": 50, "comment": "half right"}`, 50, "half right", false},
		{"string score", `{"score": "85", "correct": false}`, 85, "", false},
		{"string bool yes", `{"score": 10, "is_correct": "yes"}`, 10, "", true},
		{"string bool no", `{"score": 100, "is_correct": "no"}`, 100, "", false},
		{"threshold reached", `{"score": 99}`, 99, "", true},
		{"threshold not reached", `{"score": 98.9}`, 98.9, "", false},
		{"fenced", "```json\n{\"score\": 100, \"is_correct\": true}\n```", 100, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grade, err := normalizeAnswerGrade(tt.raw)
			if err != nil {
				t.Fatalf("normalizeAnswerGrade() error = %v", err)
			}
			if grade.Score != tt.wantScore {
				t.Errorf("Score = %v, want %v", grade.Score, tt.wantScore)
			}
			if grade.Feedback != tt.wantFeedback {
				t.Errorf("Feedback = %q, want %q", grade.Feedback, tt.wantFeedback)
			}
			if grade.IsCorrect != tt.wantIsCorrect {
				t.Errorf("IsCorrect = %v, want %v", grade.IsCorrect, tt.wantIsCorrect)
			}
		})
	}
}

func TestNormalizeAnswerGradeUnparseable(t *testing.T) {
	_, err := normalizeAnswerGrade("sorry, I can't do that")
	var parseErr *ResponseParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %T, want *ResponseParseError", err)
	}
}
