package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/testme-app/backend/internal/model"
)

// MockProvider is a canned Provider for tests. Answer grades are served
// FIFO from Grades; when the queue is exhausted, GradeAnswer returns
// GradeErr if set, otherwise a neutral passing grade.
type MockProvider struct {
	ProviderName string
	Exam         *ExamResult
	Grading      *GradingOutcome
	Grades       []AnswerGrade
	GenerateErr  error
	GradeExamErr error
	GradeErr     error

	mu           sync.Mutex
	GradedInputs []string
}

func (m *MockProvider) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *MockProvider) GenerateExam(ctx context.Context, doc Document, opts GenerateOptions) (*ExamResult, error) {
	if m.GenerateErr != nil {
		return nil, m.GenerateErr
	}
	if m.Exam != nil {
		return m.Exam, nil
	}

	questions := make([]model.Question, opts.NumQuestions)
	total := 0
	for i := range questions {
		questions[i] = model.Question{
			ID:       i + 1,
			Question: fmt.Sprintf("Mock question %d", i+1),
			Type:     model.QuestionShortAnswer,
			Points:   10,
		}
		total += 10
	}
	return &ExamResult{
		Questions:     questions,
		TotalPoints:   total,
		EstimatedTime: opts.NumQuestions * 3,
		Model:         "mock-model",
	}, nil
}

func (m *MockProvider) GradeExam(ctx context.Context, doc Document, questions []model.Question, answers []model.Answer) (*GradingOutcome, error) {
	if m.GradeExamErr != nil {
		return nil, m.GradeExamErr
	}
	if m.Grading != nil {
		return m.Grading, nil
	}

	result := model.GradingResult{AIProvider: m.Name()}
	for _, q := range questions {
		result.QuestionResults = append(result.QuestionResults, model.QuestionResult{
			QuestionID: q.ID,
			Score:      float64(q.Points),
			MaxPoints:  q.Points,
			Feedback:   "Looks right",
		})
		result.TotalScore += float64(q.Points)
		result.MaxScore += float64(q.Points)
	}
	if result.MaxScore > 0 {
		result.Percentage = round2(result.TotalScore / result.MaxScore * 100)
	}
	return &GradingOutcome{Result: result, Model: "mock-model"}, nil
}

func (m *MockProvider) GradeAnswer(ctx context.Context, question, studentAnswer, correctAnswer string) (*AnswerGrade, error) {
	m.mu.Lock()
	m.GradedInputs = append(m.GradedInputs, studentAnswer)
	var next *AnswerGrade
	if len(m.Grades) > 0 {
		g := m.Grades[0]
		m.Grades = m.Grades[1:]
		next = &g
	}
	m.mu.Unlock()

	if next != nil {
		return next, nil
	}
	if m.GradeErr != nil {
		return nil, m.GradeErr
	}
	return &AnswerGrade{Score: 100, Feedback: "Looks right", IsCorrect: true, Model: "mock-model"}, nil
}
