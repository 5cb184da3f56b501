package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/fkobayashi/studyagent/internal/inference"
)

// defaultRequestTimeout bounds a single chat completion call. A hung upstream
// must never stall a session transition indefinitely.
const defaultRequestTimeout = 2 * time.Minute

type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
}

func NewClient(apiKey, model string, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL("https://api.openai.com/v1")
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(defaultRequestTimeout)

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

// SetRequestTimeout overrides the per-call timeout.
func (client *Client) SetRequestTimeout(timeout time.Duration) {
	client.httpClient.SetTimeout(timeout)
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (client *Client) SetBaseURL(baseURL string) {
	client.httpClient.SetBaseURL(baseURL)
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Retry on JSON parsing errors as they might be due to incomplete responses
	errStr := err.Error()
	if strings.Contains(errStr, "json.Unmarshal") || strings.Contains(errStr, "unexpected end of JSON input") {
		return true
	}

	// Retry on network-related errors
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// Retry on 5xx errors (server errors)
	if strings.Contains(errStr, "response error 5") {
		return true
	}

	// Retry on rate limiting (429)
	if strings.Contains(errStr, "response error 429") {
		return true
	}

	return false
}

// GenerateQuestions implements the inference.Client interface
func (client *Client) GenerateQuestions(
	ctx context.Context,
	params inference.GenerateQuestionsRequest,
) (inference.GenerateQuestionsResponse, error) {
	var result inference.GenerateQuestionsResponse
	if err := retry.Do(
		func() error {
			response, err := client.generateQuestions(ctx, params)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return inference.GenerateQuestionsResponse{}, err
	}
	return result, nil
}

func (client *Client) generateQuestions(
	ctx context.Context,
	params inference.GenerateQuestionsRequest,
) (inference.GenerateQuestionsResponse, error) {
	systemPrompt := `You are a study assistant that writes quiz questions from learning material.

GOAL
Given the title and content of a study topic, write open-ended questions that test understanding of the material, together with a concise reference answer for each.

RULES
- Every question must be answerable from the provided content alone.
- Prefer questions about concepts, causes, and relationships over rote recall of phrasing.
- Reference answers are short model answers (one to three sentences), not essays.
- Do not number the questions inside the "question" text.
- Write exactly the requested number of questions.

STRICT OUTPUT: Return ONLY a JSON object, no text outside it:
{
  "questions": [
    {"question": "...", "answer": "..."}
  ]
}`

	difficulty := params.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}
	userMessage := fmt.Sprintf(`Topic title: %s
Number of questions: %d
Difficulty: %s

Topic content:
%s`, params.TopicTitle, params.Count, difficulty, params.TopicContent)

	requestBody := ChatCompletionRequest{
		Model:       client.model,
		Temperature: 0.7,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userMessage},
		},
	}

	content, err := client.chatCompletion(ctx, requestBody)
	if err != nil {
		return inference.GenerateQuestionsResponse{}, err
	}

	var decoded inference.GenerateQuestionsResponse
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &decoded); err != nil {
		slog.Default().Error("Failed to parse OpenAI response as JSON",
			"topicTitle", params.TopicTitle,
			"error", err)
		return inference.GenerateQuestionsResponse{}, fmt.Errorf("json.Unmarshal(%s) > %w", content, err)
	}
	if len(decoded.Questions) == 0 {
		return inference.GenerateQuestionsResponse{}, fmt.Errorf("no questions in response: %s", content)
	}
	return decoded, nil
}

// EvaluateAnswer implements the inference.Client interface
func (client *Client) EvaluateAnswer(
	ctx context.Context,
	params inference.EvaluateAnswerRequest,
) (inference.EvaluateAnswerResponse, error) {
	var result inference.EvaluateAnswerResponse
	if err := retry.Do(
		func() error {
			response, err := client.evaluateAnswer(ctx, params)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return inference.EvaluateAnswerResponse{}, err
	}
	return result, nil
}

func (client *Client) evaluateAnswer(
	ctx context.Context,
	params inference.EvaluateAnswerRequest,
) (inference.EvaluateAnswerResponse, error) {
	systemPrompt := `You are a fair grader for open-ended study quiz answers.

You are given a question, a reference answer, and the user's answer. Judge
whether the user's answer demonstrates understanding of the same material.

GRADING RULES
- Judge meaning, not wording. Paraphrases and partial synonyms of the
  reference answer are acceptable.
- "correct" is true when the answer captures the essential point of the
  reference answer, even if incomplete in minor details.
- "score" is between 0.0 and 1.0: 1.0 for a complete correct answer,
  around 0.5 for a partially correct one, 0.0 for wrong or empty.
- "feedback" is one or two sentences: confirm what was right, then state
  what was missing or wrong. Address the user directly.
- Never penalize spelling or grammar.

STRICT OUTPUT: Return ONLY a JSON object, no text outside it:
{
  "correct": true,
  "score": 0.9,
  "feedback": "..."
}`

	contextInfo := ""
	if params.TopicContent != "" {
		contextInfo = fmt.Sprintf("\n\nTopic content for reference:\n%s", params.TopicContent)
	}

	userMessage := fmt.Sprintf(`Question: %s
Reference answer: %s
User's answer: %s%s

Grade this answer.`, params.Question, params.ReferenceAnswer, params.UserAnswer, contextInfo)

	requestBody := ChatCompletionRequest{
		Model:       client.model,
		Temperature: 0.1,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userMessage},
		},
	}

	content, err := client.chatCompletion(ctx, requestBody)
	if err != nil {
		return inference.EvaluateAnswerResponse{}, err
	}

	var decoded inference.EvaluateAnswerResponse
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &decoded); err != nil {
		return inference.EvaluateAnswerResponse{}, fmt.Errorf("json.Unmarshal(%s) > %w", content, err)
	}
	return decoded, nil
}

func (client *Client) chatCompletion(ctx context.Context, requestBody ChatCompletionRequest) (string, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return "", fmt.Errorf("empty response body or choices: %s", response.String())
	}

	content := responseBody.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response content: %s", response.String())
	}
	slog.Default().Debug("openai response content",
		"model", requestBody.Model,
		"response", content,
	)
	return content, nil
}

// extractJSONObject strips surrounding text (such as markdown fences) and
// returns the first complete top-level JSON object in content.
func extractJSONObject(content string) string {
	firstBrace := -1
	braceCount := 0
	inString := false
	escapeNext := false

	for i, ch := range content {
		if escapeNext {
			escapeNext = false
			continue
		}
		if ch == '\\' && inString {
			escapeNext = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch ch {
			case '{':
				if firstBrace == -1 {
					firstBrace = i
				}
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 && firstBrace != -1 {
					return content[firstBrace : i+1]
				}
			}
		}
	}

	return content
}
