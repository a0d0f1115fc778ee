package store

import (
	"database/sql"
	"time"

	"github.com/testme-app/backend/internal/model"
)

// CreatePDF stores a PDF record. The caller supplies the ID so it can
// match the blob key written to storage.
func (s *Store) CreatePDF(p model.PDF) error {
	_, err := s.db.Exec(
		`INSERT INTO pdfs (id, subject_id, user_id, original_filename, unique_filename, storage_path, size, uploaded_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SubjectID, p.UserID, p.OriginalFilename, p.UniqueFilename, p.StoragePath, p.Size, time.Now(), p.Status,
	)
	return err
}

// GetPDF returns a PDF record by ID, or nil if not found.
func (s *Store) GetPDF(id string) (*model.PDF, error) {
	var p model.PDF
	err := s.db.QueryRow(
		`SELECT id, subject_id, user_id, original_filename, unique_filename, storage_path, size, uploaded_at, status
		 FROM pdfs WHERE id = ?`, id,
	).Scan(&p.ID, &p.SubjectID, &p.UserID, &p.OriginalFilename, &p.UniqueFilename, &p.StoragePath, &p.Size, &p.UploadedAt, &p.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPDFs returns all PDFs under a subject, newest first.
func (s *Store) ListPDFs(subjectID string) ([]model.PDF, error) {
	rows, err := s.db.Query(
		`SELECT id, subject_id, user_id, original_filename, unique_filename, storage_path, size, uploaded_at, status
		 FROM pdfs WHERE subject_id = ? ORDER BY uploaded_at DESC`, subjectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pdfs []model.PDF
	for rows.Next() {
		var p model.PDF
		if err := rows.Scan(&p.ID, &p.SubjectID, &p.UserID, &p.OriginalFilename, &p.UniqueFilename, &p.StoragePath, &p.Size, &p.UploadedAt, &p.Status); err != nil {
			return nil, err
		}
		pdfs = append(pdfs, p)
	}
	return pdfs, rows.Err()
}

// DeletePDF removes a PDF record.
func (s *Store) DeletePDF(id string) error {
	_, err := s.db.Exec(`DELETE FROM pdfs WHERE id = ?`, id)
	return err
}

// UpdatePDFStatus sets the processing status of a PDF.
func (s *Store) UpdatePDFStatus(id, status string) error {
	_, err := s.db.Exec(`UPDATE pdfs SET status = ? WHERE id = ?`, status, id)
	return err
}
