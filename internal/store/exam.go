package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/testme-app/backend/internal/model"
)

// CreateExam stores a generated exam and returns its ID. Questions are
// stored as a JSON column; the exam is immutable once written apart
// from its status.
func (s *Store) CreateExam(e model.Exam) (string, error) {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return "", fmt.Errorf("marshal questions: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO exams (id, subject_id, pdf_id, user_id, questions, total_points, estimated_time, num_questions, difficulty, ai_provider, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e.SubjectID, e.PDFID, e.UserID, string(questions), e.TotalPoints, e.EstimatedTime, e.NumQuestions, e.Difficulty, e.AIProvider, e.Status, time.Now(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetExam returns an exam by ID, or nil if not found.
func (s *Store) GetExam(id string) (*model.Exam, error) {
	var e model.Exam
	var questions string
	err := s.db.QueryRow(
		`SELECT id, subject_id, pdf_id, user_id, questions, total_points, estimated_time, num_questions, difficulty, ai_provider, status, created_at
		 FROM exams WHERE id = ?`, id,
	).Scan(&e.ID, &e.SubjectID, &e.PDFID, &e.UserID, &questions, &e.TotalPoints, &e.EstimatedTime, &e.NumQuestions, &e.Difficulty, &e.AIProvider, &e.Status, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(questions), &e.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	return &e, nil
}

// ListExams returns all exams under a subject, newest first.
func (s *Store) ListExams(subjectID string) ([]model.Exam, error) {
	rows, err := s.db.Query(
		`SELECT id, subject_id, pdf_id, user_id, questions, total_points, estimated_time, num_questions, difficulty, ai_provider, status, created_at
		 FROM exams WHERE subject_id = ? ORDER BY created_at DESC`, subjectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		var questions string
		if err := rows.Scan(&e.ID, &e.SubjectID, &e.PDFID, &e.UserID, &questions, &e.TotalPoints, &e.EstimatedTime, &e.NumQuestions, &e.Difficulty, &e.AIProvider, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(questions), &e.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// UpdateExamStatus sets the exam status.
func (s *Store) UpdateExamStatus(id, status string) error {
	_, err := s.db.Exec(`UPDATE exams SET status = ? WHERE id = ?`, status, id)
	return err
}

// CreateGrading stores a complete grading record and returns its ID.
// Partial results are never persisted; the caller passes a fully
// normalized result or nothing.
func (s *Store) CreateGrading(g model.Grading) (string, error) {
	result, err := json.Marshal(g.Result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO gradings (id, exam_id, user_id, result, graded_at) VALUES (?, ?, ?, ?, ?)`,
		id, g.ExamID, g.UserID, string(result), time.Now(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetGrading returns a grading record by ID, or nil if not found.
func (s *Store) GetGrading(id string) (*model.Grading, error) {
	return s.getGrading(`SELECT id, exam_id, user_id, result, graded_at FROM gradings WHERE id = ?`, id)
}

// LatestGradingForExam returns the most recent grading of an exam, or
// nil when the exam has never been submitted.
func (s *Store) LatestGradingForExam(examID string) (*model.Grading, error) {
	return s.getGrading(
		`SELECT id, exam_id, user_id, result, graded_at FROM gradings WHERE exam_id = ? ORDER BY graded_at DESC LIMIT 1`,
		examID,
	)
}

func (s *Store) getGrading(query string, arg any) (*model.Grading, error) {
	var g model.Grading
	var result string
	err := s.db.QueryRow(query, arg).Scan(&g.ID, &g.ExamID, &g.UserID, &result, &g.GradedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(result), &g.Result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &g, nil
}
