package models

import (
	"errors"
	"fmt"
	"strings"
)

// QuizDocVersion is stamped into every stored quiz document so a future
// schema change can be migrated explicitly instead of guessed at.
const QuizDocVersion = 1

var ErrInvalidQuiz = errors.New("invalid quiz")

// Quiz is the JSON document embedded in a Questionnaire. The owner replaces
// it wholesale on edit; players only ever see a stripped view without
// correct answers or scores.
type Quiz struct {
	Version       int            `json:"version"`
	ScoreRequired int            `json:"score_required"`
	Questions     []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	Text          string       `json:"text"`
	Options       []QuizOption `json:"options"`
	CorrectOption int          `json:"correct_option"`
	Score         int          `json:"score"`
}

type QuizOption struct {
	Text string `json:"text"`
}

// TotalScore is the maximum number of points a submission can earn.
func (q *Quiz) TotalScore() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Score
	}
	return total
}

// Validate checks the structural invariants of a quiz document. Every
// violation wraps ErrInvalidQuiz so callers can treat all of them as
// validation failures without inspecting messages.
func (q *Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidQuiz)
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Text) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidQuiz, i+1)
		}
		if len(question.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", ErrInvalidQuiz, i+1)
		}
		seen := make(map[string]bool, len(question.Options))
		for j, option := range question.Options {
			text := strings.TrimSpace(option.Text)
			if text == "" {
				return fmt.Errorf("%w: question %d option %d has no text", ErrInvalidQuiz, i+1, j+1)
			}
			key := strings.ToLower(text)
			if seen[key] {
				return fmt.Errorf("%w: question %d has duplicate option %q", ErrInvalidQuiz, i+1, option.Text)
			}
			seen[key] = true
		}
		if question.CorrectOption < 0 || question.CorrectOption >= len(question.Options) {
			return fmt.Errorf("%w: question %d correct option out of range", ErrInvalidQuiz, i+1)
		}
		if question.Score <= 0 {
			return fmt.Errorf("%w: question %d score must be positive", ErrInvalidQuiz, i+1)
		}
	}
	if q.ScoreRequired < 0 {
		return fmt.Errorf("%w: required score cannot be negative", ErrInvalidQuiz)
	}
	if total := q.TotalScore(); q.ScoreRequired > total {
		return fmt.Errorf("%w: required score %d exceeds total %d", ErrInvalidQuiz, q.ScoreRequired, total)
	}
	return nil
}
