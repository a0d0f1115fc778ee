package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/testme-app/backend/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS subjects (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		semester TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		color TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS pdfs (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		original_filename TEXT NOT NULL,
		unique_filename TEXT NOT NULL,
		storage_path TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		uploaded_at DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'uploaded',
		FOREIGN KEY (subject_id) REFERENCES subjects(id)
	);

	CREATE TABLE IF NOT EXISTS exams (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		pdf_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		questions TEXT NOT NULL,
		total_points INTEGER NOT NULL DEFAULT 0,
		estimated_time INTEGER NOT NULL DEFAULT 0,
		num_questions INTEGER NOT NULL DEFAULT 0,
		difficulty TEXT NOT NULL,
		ai_provider TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'ready',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (subject_id) REFERENCES subjects(id),
		FOREIGN KEY (pdf_id) REFERENCES pdfs(id)
	);

	CREATE TABLE IF NOT EXISTS gradings (
		id TEXT PRIMARY KEY,
		exam_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		result TEXT NOT NULL,
		graded_at DATETIME NOT NULL,
		FOREIGN KEY (exam_id) REFERENCES exams(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateSubject stores a subject and returns its generated ID.
func (s *Store) CreateSubject(sub model.Subject) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO subjects (id, user_id, name, description, semester, year, color, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sub.UserID, sub.Name, sub.Description, sub.Semester, sub.Year, sub.Color, time.Now(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetSubject returns a subject by ID, or nil if not found.
func (s *Store) GetSubject(id string) (*model.Subject, error) {
	var sub model.Subject
	err := s.db.QueryRow(
		`SELECT id, user_id, name, description, semester, year, color, created_at, updated_at
		 FROM subjects WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.Description, &sub.Semester, &sub.Year, &sub.Color, &sub.CreatedAt, &sub.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubjects returns all subjects owned by a user, newest first.
func (s *Store) ListSubjects(userID string) ([]model.Subject, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, description, semester, year, color, created_at, updated_at
		 FROM subjects WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subjects []model.Subject
	for rows.Next() {
		var sub model.Subject
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.Description, &sub.Semester, &sub.Year, &sub.Color, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, sub)
	}
	return subjects, rows.Err()
}

// UpdateSubject updates the mutable fields of a subject.
func (s *Store) UpdateSubject(sub model.Subject) error {
	_, err := s.db.Exec(
		`UPDATE subjects SET name = ?, description = ?, semester = ?, year = ?, color = ?, updated_at = ?
		 WHERE id = ?`,
		sub.Name, sub.Description, sub.Semester, sub.Year, sub.Color, time.Now(), sub.ID,
	)
	return err
}

// DeleteSubject removes a subject and its dependent exam and grading rows.
// PDF blobs are the caller's responsibility.
func (s *Store) DeleteSubject(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gradings WHERE exam_id IN (SELECT id FROM exams WHERE subject_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM exams WHERE subject_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM pdfs WHERE subject_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM subjects WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
