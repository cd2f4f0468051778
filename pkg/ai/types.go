package ai

import (
	"context"
	"errors"
)

// ErrInvalidOutput indicates the model reply did not match the question schema.
var ErrInvalidOutput = errors.New("model output does not match question schema")

// QuestionRequest describes the practice questions a teacher wants drafted.
type QuestionRequest struct {
	Topic      string
	Grade      int
	Difficulty string
	Count      int
	Kind       string
}

// Question is one drafted practice question.
type Question struct {
	Question      string   `json:"question"`
	Kind          string   `json:"kind"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// QuestionGenerator drafts olympiad practice questions.
type QuestionGenerator interface {
	Generate(ctx context.Context, req QuestionRequest) ([]Question, error)
	Model() string
}
