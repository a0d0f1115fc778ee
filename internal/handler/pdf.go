package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/testme-app/backend/internal/model"
	"github.com/testme-app/backend/internal/storage"
)

func (h *Handler) handleUploadPDF(w http.ResponseWriter, r *http.Request) {
	sub := h.ownedSubject(w, r)
	if sub == nil {
		return
	}
	user := model.UserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(path.Ext(header.Filename), ".pdf") {
		respondError(w, http.StatusBadRequest, "only PDF files are accepted")
		return
	}

	id := uuid.NewString()
	uniqueName := id + ".pdf"
	storagePath := path.Join("pdfs", user.ID, uniqueName)

	key, err := h.blob.Put(storagePath, file)
	if err != nil {
		slog.Error("failed to store pdf", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	size, err := h.blob.Size(key)
	if err != nil {
		slog.Error("failed to stat pdf", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	pdf := model.PDF{
		ID:               id,
		SubjectID:        sub.ID,
		UserID:           user.ID,
		OriginalFilename: header.Filename,
		UniqueFilename:   uniqueName,
		StoragePath:      key,
		Size:             size,
		Status:           "uploaded",
	}
	if err := h.store.CreatePDF(pdf); err != nil {
		slog.Error("failed to record pdf", "error", err)
		if err := h.blob.Delete(key); err != nil {
			slog.Warn("failed to delete orphaned blob", "path", key, "error", err)
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	stored, err := h.store.GetPDF(id)
	if err != nil || stored == nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}

func (h *Handler) handleListPDFs(w http.ResponseWriter, r *http.Request) {
	sub := h.ownedSubject(w, r)
	if sub == nil {
		return
	}

	pdfs, err := h.store.ListPDFs(sub.ID)
	if err != nil {
		slog.Error("failed to list pdfs", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if pdfs == nil {
		pdfs = []model.PDF{}
	}
	respondJSON(w, http.StatusOK, pdfs)
}

// ownedPDF loads a PDF under an already-verified subject.
func (h *Handler) ownedPDF(w http.ResponseWriter, r *http.Request, sub *model.Subject) *model.PDF {
	pdf, err := h.store.GetPDF(chi.URLParam(r, "pdfID"))
	if err != nil {
		slog.Error("failed to get pdf", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if pdf == nil || pdf.SubjectID != sub.ID {
		respondError(w, http.StatusNotFound, "pdf not found")
		return nil
	}
	return pdf
}

func (h *Handler) handleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	sub := h.ownedSubject(w, r)
	if sub == nil {
		return
	}
	pdf := h.ownedPDF(w, r, sub)
	if pdf == nil {
		return
	}

	rc, err := h.blob.Get(pdf.StoragePath)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "pdf file missing from storage")
		return
	}
	if err != nil {
		slog.Error("failed to open pdf blob", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+pdf.OriginalFilename+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("failed to stream pdf", "error", err)
	}
}

func (h *Handler) handleDeletePDF(w http.ResponseWriter, r *http.Request) {
	sub := h.ownedSubject(w, r)
	if sub == nil {
		return
	}
	pdf := h.ownedPDF(w, r, sub)
	if pdf == nil {
		return
	}

	if err := h.blob.Delete(pdf.StoragePath); err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("failed to delete pdf blob", "path", pdf.StoragePath, "error", err)
	}
	if err := h.store.DeletePDF(pdf.ID); err != nil {
		slog.Error("failed to delete pdf record", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
