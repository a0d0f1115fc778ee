package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/testme-app/backend/internal/model"
)

// GeminiProvider implements Provider using the Google Gemini SDK.
// Document operations upload the PDF through the Files API and pass it
// by reference; all calls walk the candidate model chain in order.
type GeminiProvider struct {
	client     *genai.Client
	candidates []string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	candidates := cfg.Candidates()
	if len(candidates) == 0 {
		return nil, fmt.Errorf("gemini model candidates are required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{client: client, candidates: candidates}, nil
}

// Name returns "gemini".
func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) GenerateExam(ctx context.Context, doc Document, opts GenerateOptions) (*ExamResult, error) {
	prompt := examGenInstructions(opts) + "\n\n" + examGenMessage(opts)
	raw, activeModel, err := p.withDocument(ctx, doc, prompt)
	if err != nil {
		return nil, err
	}

	payload, err := decodeExam(raw)
	if err != nil {
		return nil, err
	}

	return &ExamResult{
		Questions:     payload.Questions,
		TotalPoints:   payload.TotalPoints,
		EstimatedTime: payload.EstimatedTime,
		Model:         activeModel,
	}, nil
}

func (p *GeminiProvider) GradeExam(ctx context.Context, doc Document, questions []model.Question, answers []model.Answer) (*GradingOutcome, error) {
	prompt := gradingInstructions() + "\n\n" + gradingAnswersText(questions, answers)
	raw, activeModel, err := p.withDocument(ctx, doc, prompt)
	if err != nil {
		return nil, err
	}

	result, err := decodeGrading(raw, questions)
	if err != nil {
		return nil, err
	}

	return &GradingOutcome{Result: *result, Model: activeModel}, nil
}

func (p *GeminiProvider) GradeAnswer(ctx context.Context, question, studentAnswer, correctAnswer string) (*AnswerGrade, error) {
	prompt := answerGradingSystemPrompt + "\n\n" + answerGradingUserPrompt(question, studentAnswer, correctAnswer)
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	raw, activeModel, err := p.generate(ctx, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.3),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	grade, err := normalizeAnswerGrade(raw)
	if err != nil {
		return nil, err
	}
	grade.Model = activeModel
	return grade, nil
}

// withDocument uploads the PDF, runs the prompt against it on the
// candidate chain, and deletes the uploaded file on every exit path.
func (p *GeminiProvider) withDocument(ctx context.Context, doc Document, prompt string) (string, string, error) {
	file, err := p.client.Files.Upload(ctx, bytes.NewReader(doc.Data), &genai.UploadFileConfig{
		MIMEType:    "application/pdf",
		DisplayName: doc.Filename,
	})
	if err != nil {
		return "", "", &RemoteCallError{Provider: "gemini", Err: fmt.Errorf("upload document: %w", err)}
	}
	slog.Debug("uploaded document", "provider", "gemini", "file", file.Name)
	defer func() {
		if _, err := p.client.Files.Delete(context.WithoutCancel(ctx), file.Name, nil); err != nil {
			slog.Warn("failed to delete uploaded file", "file", file.Name, "error", err)
		}
	}()

	contents := []*genai.Content{{
		Parts: []*genai.Part{
			{FileData: &genai.FileData{FileURI: file.URI, MIMEType: file.MIMEType}},
			{Text: prompt},
		},
		Role: "user",
	}}

	return p.generate(ctx, contents, nil)
}

// generate walks the candidate chain until one model returns text.
func (p *GeminiProvider) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, string, error) {
	var lastErr error
	for _, candidate := range p.candidates {
		resp, err := p.client.Models.GenerateContent(ctx, candidate, contents, config)
		if err != nil {
			if ctx.Err() != nil {
				return "", "", err
			}
			lastErr = err
			slog.Warn("model candidate failed, trying next", "model", candidate, "error", err)
			continue
		}
		text := resp.Text()
		if text == "" {
			lastErr = fmt.Errorf("model %q returned no text", candidate)
			slog.Warn("model candidate failed, trying next", "model", candidate, "error", lastErr)
			continue
		}
		return text, candidate, nil
	}
	return "", "", &RemoteCallError{Provider: "gemini", Err: lastErr}
}
