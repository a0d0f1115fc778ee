// Package ai contains the AI-provider abstraction used for exam
// generation and grading: a provider interface with GPT and Gemini
// implementations, a model-fallback client that absorbs per-model
// parameter incompatibilities, and a normalizer that coerces free-form
// model output into the domain types.
package ai

import (
	"context"

	"github.com/testme-app/backend/internal/model"
)

// Document is a lecture PDF passed to a provider by value.
// Providers that need vendor-side file storage upload it for the
// duration of one call and delete it before returning.
type Document struct {
	Filename string
	Data     []byte
}

// GenerateOptions controls exam generation.
type GenerateOptions struct {
	NumQuestions int
	Difficulty   model.Difficulty
}

// ExamResult is the payload of a successful generation call.
// Model is the candidate that actually served the request.
type ExamResult struct {
	Questions     []model.Question
	TotalPoints   int
	EstimatedTime int
	Model         string
}

// GradingOutcome is the payload of a successful document-grounded
// grading call.
type GradingOutcome struct {
	Result model.GradingResult
	Model  string
}

// AnswerGrade is the normalized outcome of grading a single answer
// without document context. Score is on a 0-100 scale.
type AnswerGrade struct {
	Score     float64
	Feedback  string
	IsCorrect bool
	Model     string
}

// Provider is the capability contract every AI backend satisfies.
// Expected remote failures come back as typed errors (RemoteCallError,
// ResponseParseError); implementations never panic across this boundary.
type Provider interface {
	// GenerateExam produces an exam from the document. Preconditions:
	// opts.NumQuestions >= 1 and opts.Difficulty in {easy, medium, hard}.
	GenerateExam(ctx context.Context, doc Document, opts GenerateOptions) (*ExamResult, error)

	// GradeExam grades the answers against the original document.
	GradeExam(ctx context.Context, doc Document, questions []model.Question, answers []model.Answer) (*GradingOutcome, error)

	// GradeAnswer grades one answer without document context.
	// correctAnswer may be empty.
	GradeAnswer(ctx context.Context, question, studentAnswer, correctAnswer string) (*AnswerGrade, error)

	// Name returns the provider identifier ("gpt", "gemini").
	Name() string
}
