package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Difficulty represents exam difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionType classifies an exam question.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionEssay          QuestionType = "essay"
)

// Subject is a course under which PDFs and exams are organized.
type Subject struct {
	ID          string     `json:"subject_id"`
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Semester    string     `json:"semester,omitempty"`
	Year        int        `json:"year,omitempty"`
	Color       string     `json:"color,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// PDF is an uploaded lecture document.
type PDF struct {
	ID               string    `json:"file_id"`
	SubjectID        string    `json:"subject_id"`
	UserID           string    `json:"user_id"`
	OriginalFilename string    `json:"original_filename"`
	UniqueFilename   string    `json:"unique_filename"`
	StoragePath      string    `json:"storage_path"`
	Size             int64     `json:"size"`
	UploadedAt       time.Time `json:"uploaded_at"`
	Status           string    `json:"status"`
}

// Question is a single generated exam question.
// Options is present only for multiple-choice questions.
type Question struct {
	ID       int          `json:"id"`
	Question string       `json:"question"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options,omitempty"`
	Points   int          `json:"points"`
}

// Exam is a generated exam tied to a subject and source PDF.
// TotalPoints is derived from the question points and is immutable once stored.
type Exam struct {
	ID            string     `json:"exam_id"`
	SubjectID     string     `json:"subject_id"`
	PDFID         string     `json:"pdf_id"`
	UserID        string     `json:"user_id"`
	Questions     []Question `json:"questions"`
	TotalPoints   int        `json:"total_points"`
	EstimatedTime int        `json:"estimated_time"`
	NumQuestions  int        `json:"num_questions"`
	Difficulty    Difficulty `json:"difficulty"`
	AIProvider    string     `json:"ai_provider"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Answer is a student's free-text answer to one question.
type Answer struct {
	QuestionID int    `json:"question_id" validate:"required,min=1"`
	Answer     string `json:"answer" validate:"required"`
}

// QuestionResult is the graded outcome for a single question.
// Invariant: 0 <= Score <= MaxPoints.
type QuestionResult struct {
	QuestionID int     `json:"question_id"`
	Score      float64 `json:"score"`
	MaxPoints  int     `json:"max_points"`
	Feedback   string  `json:"feedback"`
	IsCorrect  *bool   `json:"is_correct,omitempty"`
}

// GradingResult is the full grading outcome for a submitted exam.
// Percentage is TotalScore/MaxScore*100 rounded to two decimals,
// or 0 when MaxScore is 0.
type GradingResult struct {
	TotalScore      float64          `json:"total_score"`
	MaxScore        float64          `json:"max_score"`
	Percentage      float64          `json:"percentage"`
	QuestionResults []QuestionResult `json:"question_results"`
	AIProvider      string           `json:"ai_provider,omitempty"`
}

// Grading is a persisted grading record for an exam submission.
type Grading struct {
	ID       string        `json:"grading_id"`
	ExamID   string        `json:"exam_id"`
	UserID   string        `json:"user_id"`
	Result   GradingResult `json:"result"`
	GradedAt time.Time     `json:"graded_at"`
}
