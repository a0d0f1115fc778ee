package ai

import (
	"context"
	"log/slog"

	"github.com/testme-app/backend/internal/model"
)

// GradeWithoutDocument grades a submission question by question when
// the original lecture PDF is unavailable. Every question contributes
// to MaxScore whether or not it was answered or graded successfully;
// skipped and failed questions score zero with a fixed feedback marker
// so one bad grading call never sinks the whole submission.
func GradeWithoutDocument(ctx context.Context, p Provider, questions []model.Question, answers []model.Answer) *model.GradingResult {
	byID := make(map[int]model.Answer, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a
	}

	result := &model.GradingResult{
		QuestionResults: make([]model.QuestionResult, 0, len(questions)),
		AIProvider:      p.Name(),
	}

	for _, q := range questions {
		result.MaxScore += float64(q.Points)

		answer, ok := byID[q.ID]
		if !ok || answer.Answer == "" {
			result.QuestionResults = append(result.QuestionResults, model.QuestionResult{
				QuestionID: q.ID,
				Score:      0,
				MaxPoints:  q.Points,
				Feedback:   "No answer provided",
			})
			continue
		}

		grade, err := p.GradeAnswer(ctx, q.Question, answer.Answer, "")
		if err != nil {
			slog.Warn("grading answer failed", "question_id", q.ID, "provider", p.Name(), "error", err)
			result.QuestionResults = append(result.QuestionResults, model.QuestionResult{
				QuestionID: q.ID,
				Score:      0,
				MaxPoints:  q.Points,
				Feedback:   "Grading error",
			})
			continue
		}

		score := clamp(grade.Score, 0, 100) / 100 * float64(q.Points)
		isCorrect := grade.IsCorrect
		result.QuestionResults = append(result.QuestionResults, model.QuestionResult{
			QuestionID: q.ID,
			Score:      round2(score),
			MaxPoints:  q.Points,
			Feedback:   grade.Feedback,
			IsCorrect:  &isCorrect,
		})
		result.TotalScore += score
	}

	result.TotalScore = round2(result.TotalScore)
	if result.MaxScore > 0 {
		result.Percentage = round2(result.TotalScore / result.MaxScore * 100)
	}
	return result
}
