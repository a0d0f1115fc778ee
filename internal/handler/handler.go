// Package handler implements the HTTP API: authentication, subject and
// PDF management, exam generation, and submission grading.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/testme-app/backend/internal/ai"
	"github.com/testme-app/backend/internal/model"
	"github.com/testme-app/backend/internal/storage"
	"github.com/testme-app/backend/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store         *store.Store
	blob          storage.BlobStore
	aiCfg         ai.Config
	validate      *validator.Validate
	maxUploadSize int64

	// newProvider builds an AI provider per request; tests swap it out.
	newProvider func(ctx context.Context, name string, cfg ai.Config) (ai.Provider, error)
}

// New creates a new Handler.
func New(s *store.Store, blob storage.BlobStore, aiCfg ai.Config, maxUploadSize int64) *Handler {
	return &Handler{
		store:         s,
		blob:          blob,
		aiCfg:         aiCfg,
		validate:      validator.New(),
		maxUploadSize: maxUploadSize,
		newProvider:   ai.NewProvider,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/auth/login", h.handleLogin)
	r.Post("/api/auth/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Route("/api/subjects", func(r chi.Router) {
			r.Post("/", h.handleCreateSubject)
			r.Get("/", h.handleListSubjects)

			r.Route("/{subjectID}", func(r chi.Router) {
				r.Get("/", h.handleGetSubject)
				r.Put("/", h.handleUpdateSubject)
				r.Delete("/", h.handleDeleteSubject)

				r.Post("/pdfs/upload", h.handleUploadPDF)
				r.Get("/pdfs", h.handleListPDFs)
				r.Get("/pdfs/{pdfID}/download", h.handleDownloadPDF)
				r.Delete("/pdfs/{pdfID}", h.handleDeletePDF)

				r.Post("/exams/generate", h.handleGenerateExam)
				r.Get("/exams", h.handleListExams)
			})
		})

		r.Get("/api/exams/{examID}", h.handleGetExam)
		r.Post("/api/exams/{examID}/submit", h.handleSubmitExam)

		r.Route("/api/admin/users", func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/", h.handleListUsers)
			r.Post("/", h.handleCreateUser)
			r.Post("/{userID}/toggle", h.handleToggleUser)
		})
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeBody parses and validates a JSON request body.
func (h *Handler) decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return h.validate.Struct(v)
}
