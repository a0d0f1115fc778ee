package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/testme-app/backend/internal/model"
)

// runPollInterval is the delay between assistant-run status checks.
const runPollInterval = 2 * time.Second

// GPTProvider implements Provider using the OpenAI SDK. Document
// operations run through the Assistants file-search flow against the
// primary candidate; single-answer grading runs through the chat
// fallback client with the full candidate chain.
type GPTProvider struct {
	client *openai.Client
	chat   *chatFallback
	model  string
}

// NewGPTProvider creates a new GPT provider.
func NewGPTProvider(cfg OpenAIConfig) (*GPTProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	candidates := cfg.Candidates()
	if len(candidates) == 0 {
		return nil, fmt.Errorf("openai model candidates are required")
	}

	return &GPTProvider{
		client: client,
		chat:   newChatFallback(client, candidates),
		model:  candidates[0],
	}, nil
}

// Name returns "gpt".
func (p *GPTProvider) Name() string { return "gpt" }

func (p *GPTProvider) GenerateExam(ctx context.Context, doc Document, opts GenerateOptions) (*ExamResult, error) {
	raw, err := p.runDocumentPrompt(ctx, doc, "Exam Generator", examGenInstructions(opts), examGenMessage(opts))
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
		Model:         p.model,
	}, nil
}

func (p *GPTProvider) GradeExam(ctx context.Context, doc Document, questions []model.Question, answers []model.Answer) (*GradingOutcome, error) {
	raw, err := p.runDocumentPrompt(ctx, doc, "Exam Grader", gradingInstructions(), gradingAnswersText(questions, answers))
	if err != nil {
		return nil, err
	}

	result, err := decodeGrading(raw, questions)
	if err != nil {
		return nil, err
	}

	return &GradingOutcome{Result: *result, Model: p.model}, nil
}

func (p *GPTProvider) GradeAnswer(ctx context.Context, question, studentAnswer, correctAnswer string) (*AnswerGrade, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: answerGradingSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: answerGradingUserPrompt(question, studentAnswer, correctAnswer)},
	}

	content, activeModel, err := p.chat.Complete(ctx, chatParams{
		Messages:    messages,
		Temperature: 0.3,
		MaxTokens:   500,
		JSONObject:  true,
	})
	if err != nil {
		return nil, err
	}

	grade, err := normalizeAnswerGrade(content)
	if err != nil {
		return nil, err
	}
	grade.Model = activeModel
	return grade, nil
}

// runDocumentPrompt uploads the document, runs an assistant with
// file-search against it, and returns the assistant's text response.
// The uploaded file and the assistant are transient resources deleted
// on every exit path, success or failure.
func (p *GPTProvider) runDocumentPrompt(ctx context.Context, doc Document, name, instructions, message string) (string, error) {
	file, err := p.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    doc.Filename,
		Bytes:   doc.Data,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return "", &RemoteCallError{Provider: "gpt", Err: fmt.Errorf("upload document: %w", err)}
	}
	slog.Debug("uploaded document", "provider", "gpt", "file_id", file.ID)
	defer func() {
		if err := p.client.DeleteFile(context.WithoutCancel(ctx), file.ID); err != nil {
			slog.Warn("failed to delete uploaded file", "file_id", file.ID, "error", err)
		}
	}()

	assistant, err := p.client.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        p.model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        []openai.AssistantTool{{Type: "file_search"}},
	})
	if err != nil {
		return "", &RemoteCallError{Provider: "gpt", Err: fmt.Errorf("create assistant: %w", err)}
	}
	defer func() {
		if _, err := p.client.DeleteAssistant(context.WithoutCancel(ctx), assistant.ID); err != nil {
			slog.Warn("failed to delete assistant", "assistant_id", assistant.ID, "error", err)
		}
	}()

	run, err := p.client.CreateThreadAndRun(ctx, openai.CreateThreadAndRunRequest{
		RunRequest: openai.RunRequest{AssistantID: assistant.ID},
		Thread: openai.ThreadRequest{
			Messages: []openai.ThreadMessage{{
				Role:    openai.ThreadMessageRoleUser,
				Content: message,
				Attachments: []openai.ThreadAttachment{{
					FileID: file.ID,
					Tools:  []openai.ThreadAttachmentTool{{Type: "file_search"}},
				}},
			}},
		},
	})
	if err != nil {
		return "", &RemoteCallError{Provider: "gpt", Err: fmt.Errorf("start assistant run: %w", err)}
	}

	run, err = p.waitForRun(ctx, run)
	if err != nil {
		return "", &RemoteCallError{Provider: "gpt", Err: err}
	}

	limit := 1
	msgs, err := p.client.ListMessage(ctx, run.ThreadID, &limit, nil, nil, nil, nil)
	if err != nil {
		return "", &RemoteCallError{Provider: "gpt", Err: fmt.Errorf("list thread messages: %w", err)}
	}
	if len(msgs.Messages) == 0 || len(msgs.Messages[0].Content) == 0 || msgs.Messages[0].Content[0].Text == nil {
		return "", &RemoteCallError{Provider: "gpt", Err: fmt.Errorf("assistant run produced no response text")}
	}

	return msgs.Messages[0].Content[0].Text.Value, nil
}

func (p *GPTProvider) waitForRun(ctx context.Context, run openai.Run) (openai.Run, error) {
	for {
		switch run.Status {
		case openai.RunStatusCompleted:
			return run, nil
		case openai.RunStatusQueued, openai.RunStatusInProgress:
		default:
			return run, fmt.Errorf("assistant run ended with status %q", run.Status)
		}

		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-time.After(runPollInterval):
		}

		var err error
		run, err = p.client.RetrieveRun(ctx, run.ThreadID, run.ID)
		if err != nil {
			return run, fmt.Errorf("poll assistant run: %w", err)
		}
	}
}
