package ai

import (
	"fmt"
	"strings"

	"github.com/testme-app/backend/internal/model"
)

// examGenInstructions builds the exam-generation instructions shared by
// both providers. The JSON structure spelled out here is what decodeExam
// expects back.
func examGenInstructions(opts GenerateOptions) string {
	var sb strings.Builder
	sb.WriteString("You are an expert exam creator. ")
	sb.WriteString(fmt.Sprintf("Analyze the provided PDF lecture material and generate %d exam questions. ", opts.NumQuestions))
	sb.WriteString(fmt.Sprintf("Difficulty level: %s. ", opts.Difficulty))
	sb.WriteString("Create a mix of multiple choice (40%), short answer (40%), and essay questions (20%). ")
	sb.WriteString("Return ONLY valid JSON with this exact structure (no markdown, no code blocks, just raw JSON): ")
	sb.WriteString(`{"questions": [{"id": 1, "question": "...", "type": "multiple_choice|short_answer|essay", `)
	sb.WriteString(`"options": ["A", "B", "C", "D"], "points": 10}], "total_points": 100, "estimated_time": 60}`)
	return sb.String()
}

func examGenMessage(opts GenerateOptions) string {
	return fmt.Sprintf("Generate %d exam questions from this lecture PDF at %s difficulty level.",
		opts.NumQuestions, opts.Difficulty)
}

// gradingInstructions builds the document-grounded grading instructions.
func gradingInstructions() string {
	var sb strings.Builder
	sb.WriteString("You are an expert exam grader. ")
	sb.WriteString("Grade student answers based on the lecture PDF content. ")
	sb.WriteString("Be objective and provide constructive feedback. ")
	sb.WriteString("Return ONLY valid JSON with this structure (no markdown, no code blocks): ")
	sb.WriteString(`{"question_results": [{"question_id": 1, "score": 8.5, "max_points": 10, "feedback": "...", "is_correct": true}], `)
	sb.WriteString(`"total_score": 85.5, "max_score": 100, "percentage": 85.5}`)
	return sb.String()
}

// gradingAnswersText lists each question with the matching answer, or a
// "[No answer provided]" marker when the student skipped it.
func gradingAnswersText(questions []model.Question, answers []model.Answer) string {
	byID := make(map[int]model.Answer, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a
	}

	var sb strings.Builder
	sb.WriteString("Grade the following exam answers based on the lecture PDF:\n\n")
	for _, q := range questions {
		sb.WriteString(fmt.Sprintf("Question %d (%d points):\n", q.ID, q.Points))
		sb.WriteString(q.Question + "\n")
		if a, ok := byID[q.ID]; ok {
			sb.WriteString("Student's Answer: " + a.Answer + "\n\n")
		} else {
			sb.WriteString("Student's Answer: [No answer provided]\n\n")
		}
	}
	return sb.String()
}

const answerGradingSystemPrompt = "You are an expert exam grader.\n" +
	"Grade the student's answer objectively and provide constructive feedback.\n\n" +
	"Provide your response as valid JSON:\n" +
	"{\n" +
	"    \"score\": 0-100,\n" +
	"    \"feedback\": \"detailed feedback\",\n" +
	"    \"is_correct\": true/false\n" +
	"}"

func answerGradingUserPrompt(question, studentAnswer, correctAnswer string) string {
	var sb strings.Builder
	sb.WriteString("Question: " + question)
	sb.WriteString("\nStudent's Answer: " + studentAnswer)
	if correctAnswer != "" {
		sb.WriteString("\nCorrect Answer (for reference): " + correctAnswer)
	}
	return sb.String()
}
