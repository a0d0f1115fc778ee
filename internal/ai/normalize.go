package ai

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/testme-app/backend/internal/model"
)

// correctThreshold is the 0-100 score at and above which an answer is
// treated as correct when the model omits the is_correct field.
const correctThreshold = 99

var codeFenceRe = regexp.MustCompile("```[a-zA-Z]*\\s*")

// extractJSON pulls a JSON object out of raw model output. It tries a
// direct parse first, then strips markdown code fences, then falls back
// to the first-to-last brace-delimited substring. It never returns
// empty data silently; unparseable input yields a ResponseParseError
// carrying a truncated excerpt.
func extractJSON(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}

	cleaned := strings.TrimSpace(codeFenceRe.ReplaceAllString(trimmed, ""))
	if json.Valid([]byte(cleaned)) {
		return json.RawMessage(cleaned), nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		candidate := cleaned[start : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, newParseError(raw, errors.New("no JSON object found"))
}

// examPayload is the wire shape providers are prompted to return for
// exam generation.
type examPayload struct {
	Questions     []model.Question `json:"questions"`
	TotalPoints   int              `json:"total_points"`
	EstimatedTime int              `json:"estimated_time"`
}

// decodeExam parses generated-exam output. TotalPoints is derived from
// the question points; the model's own arithmetic is not trusted.
func decodeExam(raw string) (*examPayload, error) {
	data, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var p examPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, newParseError(raw, err)
	}
	if len(p.Questions) == 0 {
		return nil, newParseError(raw, errors.New("response contained no questions"))
	}

	seen := make(map[int]bool, len(p.Questions))
	total := 0
	for i := range p.Questions {
		q := &p.Questions[i]
		if q.ID <= 0 || seen[q.ID] {
			return nil, newParseError(raw, errors.New("question IDs must be positive and unique"))
		}
		seen[q.ID] = true
		if q.Points <= 0 {
			return nil, newParseError(raw, errors.New("question points must be positive"))
		}
		// Options belong to multiple-choice questions only.
		if q.Type == model.QuestionMultipleChoice {
			if len(q.Options) == 0 {
				return nil, newParseError(raw, errors.New("multiple-choice question has no options"))
			}
		} else {
			q.Options = nil
		}
		total += q.Points
	}
	p.TotalPoints = total
	return &p, nil
}

// decodeGrading parses document-grounded grading output and enforces
// the result invariants: per-question scores clamped to [0, max_points],
// max points backfilled from the question set, totals and percentage
// recomputed.
func decodeGrading(raw string, questions []model.Question) (*model.GradingResult, error) {
	data, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var result model.GradingResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, newParseError(raw, err)
	}
	if len(result.QuestionResults) == 0 {
		return nil, newParseError(raw, errors.New("response contained no question results"))
	}

	pointsByID := make(map[int]int, len(questions))
	for _, q := range questions {
		pointsByID[q.ID] = q.Points
	}

	result.TotalScore = 0
	result.MaxScore = 0
	for i := range result.QuestionResults {
		qr := &result.QuestionResults[i]
		if pts, ok := pointsByID[qr.QuestionID]; ok && qr.MaxPoints == 0 {
			qr.MaxPoints = pts
		}
		qr.Score = clamp(qr.Score, 0, float64(qr.MaxPoints))
		result.TotalScore += qr.Score
		result.MaxScore += float64(qr.MaxPoints)
	}

	result.TotalScore = round2(result.TotalScore)
	if result.MaxScore > 0 {
		result.Percentage = round2(result.TotalScore / result.MaxScore * 100)
	} else {
		result.Percentage = 0
	}
	return &result, nil
}

// normalizeAnswerGrade parses single-answer grading output, accepting
// synonymous key names and backfilling missing fields.
func normalizeAnswerGrade(raw string) (*AnswerGrade, error) {
	data, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, newParseError(raw, err)
	}

	score := pickNumber(fields, "score", "grade", "score_percent")
	feedback := pickString(fields, "feedback", "explanation", "comment")

	isCorrect, found := pickBool(fields, "is_correct", "correct")
	if !found {
		isCorrect = score >= correctThreshold
	}

	return &AnswerGrade{
		Score:     score,
		Feedback:  feedback,
		IsCorrect: isCorrect,
	}, nil
}

func pickNumber(fields map[string]any, keys ...string) float64 {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case string:
			if parsed, err := strconv.ParseFloat(n, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func pickString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := fields[k].(string); ok {
			return s
		}
	}
	return ""
}

func pickBool(fields map[string]any, keys ...string) (value, found bool) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			switch strings.ToLower(b) {
			case "true", "yes", "1":
				return true, true
			default:
				return false, true
			}
		}
	}
	return false, false
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
