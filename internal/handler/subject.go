package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/testme-app/backend/internal/model"
)

type subjectRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Semester    string `json:"semester" validate:"max=50"`
	Year        int    `json:"year" validate:"omitempty,min=1900,max=2200"`
	Color       string `json:"color" validate:"max=20"`
}

func (h *Handler) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req subjectRequest
	if err := h.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid subject payload")
		return
	}

	id, err := h.store.CreateSubject(model.Subject{
		UserID:      user.ID,
		Name:        req.Name,
		Description: req.Description,
		Semester:    req.Semester,
		Year:        req.Year,
		Color:       req.Color,
	})
	if err != nil {
		slog.Error("failed to create subject", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sub, err := h.store.GetSubject(id)
	if err != nil || sub == nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, sub)
}

func (h *Handler) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	subjects, err := h.store.ListSubjects(user.ID)
	if err != nil {
		slog.Error("failed to list subjects", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}
	respondJSON(w, http.StatusOK, subjects)
}

// ownedSubject loads a subject and verifies the requesting user owns
// it. Writes the error response and returns nil when the check fails.
func (h *Handler) ownedSubject(w http.ResponseWriter, r *http.Request) *model.Subject {
	user := model.UserFromContext(r.Context())

	sub, err := h.store.GetSubject(chi.URLParam(r, "subjectID"))
	if err != nil {
		slog.Error("failed to get subject", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if sub == nil || sub.UserID != user.ID {
		respondError(w, http.StatusNotFound, "subject not found")
		return nil
	}
	return sub
}

func (h *Handler) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	sub := h.ownedSubject(w, r)
	if sub == nil {
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleUpdateSubject(w http.ResponseWriter, r *http.Request) {
	sub := h.ownedSubject(w, r)
	if sub == nil {
		return
	}

	var req subjectRequest
	if err := h.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid subject payload")
		return
	}

	sub.Name = req.Name
	sub.Description = req.Description
	sub.Semester = req.Semester
	sub.Year = req.Year
	sub.Color = req.Color
	if err := h.store.UpdateSubject(*sub); err != nil {
		slog.Error("failed to update subject", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sub, err := h.store.GetSubject(sub.ID)
	if err != nil || sub == nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	sub := h.ownedSubject(w, r)
	if sub == nil {
		return
	}

	// Remove blobs first so orphaned files don't accumulate.
	pdfs, err := h.store.ListPDFs(sub.ID)
	if err != nil {
		slog.Error("failed to list pdfs", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	for _, p := range pdfs {
		if err := h.blob.Delete(p.StoragePath); err != nil {
			slog.Warn("failed to delete pdf blob", "path", p.StoragePath, "error", err)
		}
	}

	if err := h.store.DeleteSubject(sub.ID); err != nil {
		slog.Error("failed to delete subject", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
