// Package inference defines the contracts for AI-backed question generation
// and answer evaluation.
package inference

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client defines the AI inference operations the study engine depends on.
// Implementations must bound their own retries; callers treat a returned error
// as final.
type Client interface {
	GenerateQuestions(ctx context.Context, params GenerateQuestionsRequest) (GenerateQuestionsResponse, error)
	EvaluateAnswer(ctx context.Context, params EvaluateAnswerRequest) (EvaluateAnswerResponse, error)
}

// GenerateQuestionsRequest holds parameters for generating quiz questions
// from a topic's content.
type GenerateQuestionsRequest struct {
	TopicTitle   string `json:"topic_title"`
	TopicContent string `json:"topic_content"`
	Count        int    `json:"count"`
	Difficulty   string `json:"difficulty,omitempty"`
}

// Question is a generated quiz question with its reference answer.
type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GenerateQuestionsResponse holds the generated questions.
type GenerateQuestionsResponse struct {
	Questions []Question `json:"questions"`
}

// EvaluateAnswerRequest holds parameters for grading a user's answer against
// the reference answer in the context of the topic content.
type EvaluateAnswerRequest struct {
	Question        string `json:"question"`
	UserAnswer      string `json:"user_answer"`
	ReferenceAnswer string `json:"reference_answer"`
	TopicContent    string `json:"topic_content,omitempty"`
}

// EvaluateAnswerResponse is the grading result for a single answer.
type EvaluateAnswerResponse struct {
	Correct  bool    `json:"correct"`
	Score    float64 `json:"score"` // 0.0 to 1.0
	Feedback string  `json:"feedback"`
}

const (
	// DefaultMaxRetryAttempts bounds retries for inference API calls.
	DefaultMaxRetryAttempts = 3
)
