package dto

// QuestionGenerateRequest asks the AI helper for practice questions.
type QuestionGenerateRequest struct {
	Topic      string `json:"topic" validate:"required,min=3,max=200"`
	Grade      int    `json:"grade" validate:"required,gte=1,lte=12"`
	Difficulty string `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Count      int    `json:"count" validate:"required,gte=1,lte=10"`
	Kind       string `json:"kind" validate:"required,oneof=choice short-answer open-ended"`
}

// GeneratedQuestion is one draft question for a teacher to review.
type GeneratedQuestion struct {
	Question      string   `json:"question"`
	Kind          string   `json:"kind"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// QuestionGenerateResponse wraps generated questions.
type QuestionGenerateResponse struct {
	Questions []GeneratedQuestion `json:"questions"`
	Model     string              `json:"model"`
}
