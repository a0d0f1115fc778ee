package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/testme-app/backend/internal/ai"
	"github.com/testme-app/backend/internal/model"
	"github.com/testme-app/backend/internal/storage"
)

type generateExamRequest struct {
	PDFID        string `json:"pdf_id" validate:"required"`
	NumQuestions int    `json:"num_questions" validate:"required,min=1,max=50"`
	Difficulty   string `json:"difficulty" validate:"required,oneof=easy medium hard"`
	AIProvider   string `json:"ai_provider"`
}

type submitExamRequest struct {
	Answers []model.Answer `json:"answers" validate:"required,min=1,dive"`
	// AIProvider overrides the provider the exam was generated with.
	AIProvider string `json:"ai_provider"`
}

func (h *Handler) handleGenerateExam(w http.ResponseWriter, r *http.Request) {
	sub := h.ownedSubject(w, r)
	if sub == nil {
		return
	}
	user := model.UserFromContext(r.Context())

	var req generateExamRequest
	if err := h.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid exam request")
		return
	}

	pdf, err := h.store.GetPDF(req.PDFID)
	if err != nil {
		slog.Error("failed to get pdf", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if pdf == nil || pdf.SubjectID != sub.ID {
		respondError(w, http.StatusNotFound, "pdf not found")
		return
	}

	doc, ok := h.loadDocument(w, pdf)
	if !ok {
		return
	}

	provider, err := h.newProvider(r.Context(), req.AIProvider, h.aiCfg)
	if err != nil {
		var unsupported *ai.UnsupportedProviderError
		if errors.As(err, &unsupported) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to create AI provider", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result, err := provider.GenerateExam(r.Context(), doc, ai.GenerateOptions{
		NumQuestions: req.NumQuestions,
		Difficulty:   model.Difficulty(req.Difficulty),
	})
	if err != nil {
		slog.Error("exam generation failed", "provider", provider.Name(), "error", err)
		respondError(w, http.StatusBadGateway, "exam generation failed")
		return
	}

	examID, err := h.store.CreateExam(model.Exam{
		SubjectID:     sub.ID,
		PDFID:         pdf.ID,
		UserID:        user.ID,
		Questions:     result.Questions,
		TotalPoints:   result.TotalPoints,
		EstimatedTime: result.EstimatedTime,
		NumQuestions:  len(result.Questions),
		Difficulty:    model.Difficulty(req.Difficulty),
		AIProvider:    provider.Name(),
		Status:        "ready",
	})
	if err != nil {
		slog.Error("failed to store exam", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	exam, err := h.store.GetExam(examID)
	if err != nil || exam == nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("generated exam", "exam_id", examID, "provider", provider.Name(), "model", result.Model, "questions", len(result.Questions))
	respondJSON(w, http.StatusCreated, exam)
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	sub := h.ownedSubject(w, r)
	if sub == nil {
		return
	}

	exams, err := h.store.ListExams(sub.ID)
	if err != nil {
		slog.Error("failed to list exams", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	respondJSON(w, http.StatusOK, exams)
}

// ownedExam loads an exam and verifies ownership.
func (h *Handler) ownedExam(w http.ResponseWriter, r *http.Request) *model.Exam {
	user := model.UserFromContext(r.Context())

	exam, err := h.store.GetExam(chi.URLParam(r, "examID"))
	if err != nil {
		slog.Error("failed to get exam", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if exam == nil || exam.UserID != user.ID {
		respondError(w, http.StatusNotFound, "exam not found")
		return nil
	}
	return exam
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	exam := h.ownedExam(w, r)
	if exam == nil {
		return
	}
	respondJSON(w, http.StatusOK, exam)
}

func (h *Handler) handleSubmitExam(w http.ResponseWriter, r *http.Request) {
	exam := h.ownedExam(w, r)
	if exam == nil {
		return
	}
	user := model.UserFromContext(r.Context())

	var req submitExamRequest
	if err := h.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid submission")
		return
	}

	known := make(map[int]bool, len(exam.Questions))
	for _, q := range exam.Questions {
		known[q.ID] = true
	}
	for _, a := range req.Answers {
		if !known[a.QuestionID] {
			respondError(w, http.StatusBadRequest, "answer references unknown question")
			return
		}
	}

	providerName := exam.AIProvider
	if req.AIProvider != "" {
		providerName = req.AIProvider
	}
	provider, err := h.newProvider(r.Context(), providerName, h.aiCfg)
	if err != nil {
		var unsupported *ai.UnsupportedProviderError
		if errors.As(err, &unsupported) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to create AI provider", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result := h.gradeSubmission(r, provider, exam, req.Answers)
	if result == nil {
		respondError(w, http.StatusBadGateway, "grading failed")
		return
	}
	result.AIProvider = provider.Name()

	gradingID, err := h.store.CreateGrading(model.Grading{
		ExamID: exam.ID,
		UserID: user.ID,
		Result: *result,
	})
	if err != nil {
		slog.Error("failed to store grading", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.store.UpdateExamStatus(exam.ID, "graded"); err != nil {
		slog.Warn("failed to update exam status", "exam_id", exam.ID, "error", err)
	}

	grading, err := h.store.GetGrading(gradingID)
	if err != nil || grading == nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("graded exam", "exam_id", exam.ID, "grading_id", gradingID, "percentage", result.Percentage)
	respondJSON(w, http.StatusOK, grading)
}

// gradeSubmission grades against the source document when it is still
// available, and question by question when it is not. Returns nil only
// when document-grounded grading fails outright.
func (h *Handler) gradeSubmission(r *http.Request, provider ai.Provider, exam *model.Exam, answers []model.Answer) *model.GradingResult {
	pdf, err := h.store.GetPDF(exam.PDFID)
	if err != nil {
		slog.Error("failed to get pdf", "error", err)
		pdf = nil
	}

	if pdf != nil {
		doc, err := h.readDocument(pdf)
		if err == nil {
			outcome, err := provider.GradeExam(r.Context(), doc, exam.Questions, answers)
			if err != nil {
				slog.Error("document-grounded grading failed", "provider", provider.Name(), "error", err)
				return nil
			}
			return &outcome.Result
		}
		slog.Warn("pdf unavailable, grading without document", "pdf_id", pdf.ID, "error", err)
	} else {
		slog.Warn("pdf record missing, grading without document", "exam_id", exam.ID)
	}

	return ai.GradeWithoutDocument(r.Context(), provider, exam.Questions, answers)
}

// loadDocument reads a PDF blob for a handler that must fail on error.
func (h *Handler) loadDocument(w http.ResponseWriter, pdf *model.PDF) (ai.Document, bool) {
	doc, err := h.readDocument(pdf)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "pdf file missing from storage")
		return ai.Document{}, false
	}
	if err != nil {
		slog.Error("failed to read pdf blob", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return ai.Document{}, false
	}
	return doc, true
}

func (h *Handler) readDocument(pdf *model.PDF) (ai.Document, error) {
	rc, err := h.blob.Get(pdf.StoragePath)
	if err != nil {
		return ai.Document{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return ai.Document{}, err
	}
	return ai.Document{Filename: pdf.OriginalFilename, Data: data}, nil
}
