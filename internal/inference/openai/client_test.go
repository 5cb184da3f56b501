package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"

	"github.com/fkobayashi/studyagent/internal/inference"
)

func TestClient_GenerateQuestions(t *testing.T) {
	tests := []struct {
		name              string
		request           inference.GenerateQuestionsRequest
		mockServerHandler func(t *testing.T, w http.ResponseWriter, r *http.Request)

		wantResponse    inference.GenerateQuestionsResponse
		wantError       bool
		wantErrorString string
	}{
		{
			name: "Success with plain JSON response",
			request: inference.GenerateQuestionsRequest{
				TopicTitle:   "Goroutines",
				TopicContent: "Goroutines are lightweight threads managed by the Go runtime.",
				Count:        2,
			},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var reqBody ChatCompletionRequest
				err := json.NewDecoder(r.Body).Decode(&reqBody)
				require.NoError(t, err)
				assert.Equal(t, "gpt-4o-mini", reqBody.Model)
				require.Len(t, reqBody.Messages, 2)
				assert.Contains(t, reqBody.Messages[1].Content, "Number of questions: 2")

				mockResponse := ChatCompletionResponse{
					ID:      "chatcmpl-123",
					Object:  "chat.completion",
					Created: 1677652288,
					Model:   "gpt-4o-mini",
					Choices: []Choice{
						{
							Index: 0,
							Message: ChoiceMessage{
								Role: RoleAssistant,
								Content: `{"questions": [
									{"question": "What manages goroutines?", "answer": "The Go runtime."},
									{"question": "Why are goroutines called lightweight?", "answer": "They cost far less than OS threads."}
								]}`,
							},
							FinishReason: "stop",
						},
					},
					Usage: Usage{
						PromptTokens:     100,
						CompletionTokens: 50,
						TotalTokens:      150,
					},
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(mockResponse)
			},
			wantResponse: inference.GenerateQuestionsResponse{
				Questions: []inference.Question{
					{Question: "What manages goroutines?", Answer: "The Go runtime."},
					{Question: "Why are goroutines called lightweight?", Answer: "They cost far less than OS threads."},
				},
			},
		},
		{
			name: "Success with markdown-fenced JSON response",
			request: inference.GenerateQuestionsRequest{
				TopicTitle:   "Channels",
				TopicContent: "Channels are typed conduits for goroutine communication.",
				Count:        1,
			},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				mockResponse := ChatCompletionResponse{
					Choices: []Choice{
						{
							Message: ChoiceMessage{
								Role:    RoleAssistant,
								Content: "```json\n{\"questions\": [{\"question\": \"What are channels for?\", \"answer\": \"Communicating between goroutines.\"}]}\n```",
							},
							FinishReason: "stop",
						},
					},
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(mockResponse)
			},
			wantResponse: inference.GenerateQuestionsResponse{
				Questions: []inference.Question{
					{Question: "What are channels for?", Answer: "Communicating between goroutines."},
				},
			},
		},
		{
			name: "HTTP 400 error is not retried",
			request: inference.GenerateQuestionsRequest{
				TopicTitle:   "Test",
				TopicContent: "test",
				Count:        1,
			},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error": {"message": "bad request"}}`))
			},
			wantError:       true,
			wantErrorString: "response error 400",
		},
		{
			name: "Invalid JSON content",
			request: inference.GenerateQuestionsRequest{
				TopicTitle:   "Test",
				TopicContent: "test",
				Count:        1,
			},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				mockResponse := ChatCompletionResponse{
					Choices: []Choice{
						{
							Message: ChoiceMessage{
								Role:    RoleAssistant,
								Content: `not json at all`,
							},
							FinishReason: "stop",
						},
					},
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(mockResponse)
			},
			wantError:       true,
			wantErrorString: "json.Unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, w, r)
			}))
			defer server.Close()

			client := &Client{
				httpClient:       resty.New().SetBaseURL(server.URL),
				model:            "gpt-4o-mini",
				maxRetryAttempts: 1,
			}

			ctx := context.Background()
			gotResponse, gotErr := client.GenerateQuestions(ctx, tt.request)

			if tt.wantError {
				require.Error(t, gotErr)
				if tt.wantErrorString != "" {
					assert.Contains(t, gotErr.Error(), tt.wantErrorString)
				}
				return
			}

			require.NoError(t, gotErr)
			require.Equal(t, tt.wantResponse, gotResponse)
		})
	}
}

func TestClient_GenerateQuestions_TimesOut(t *testing.T) {
	var calls int
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient("test-key", "gpt-4o-mini", 0)
	client.SetBaseURL(server.URL)
	client.SetRequestTimeout(50 * time.Millisecond)

	start := time.Now()
	_, err := client.GenerateQuestions(context.Background(), inference.GenerateQuestionsRequest{
		TopicTitle:   "Timeout",
		TopicContent: "content",
		Count:        1,
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClient_GenerateQuestions_RetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": {"message": "internal"}}`))
			return
		}
		mockResponse := ChatCompletionResponse{
			Choices: []Choice{
				{
					Message: ChoiceMessage{
						Role:    RoleAssistant,
						Content: `{"questions": [{"question": "Q", "answer": "A"}]}`,
					},
					FinishReason: "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(mockResponse)
	}))
	defer server.Close()

	client := &Client{
		httpClient:       resty.New().SetBaseURL(server.URL),
		model:            "gpt-4o-mini",
		maxRetryAttempts: 2,
	}

	got, err := client.GenerateQuestions(context.Background(), inference.GenerateQuestionsRequest{
		TopicTitle:   "Retry",
		TopicContent: "content",
		Count:        1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, got.Questions, 1)
}

func TestClient_EvaluateAnswer(t *testing.T) {
	tests := []struct {
		name              string
		request           inference.EvaluateAnswerRequest
		mockServerHandler func(t *testing.T, w http.ResponseWriter, r *http.Request)

		wantResponse    inference.EvaluateAnswerResponse
		wantError       bool
		wantErrorString string
	}{
		{
			name: "Correct answer",
			request: inference.EvaluateAnswerRequest{
				Question:        "What manages goroutines?",
				UserAnswer:      "The Go runtime schedules them.",
				ReferenceAnswer: "The Go runtime.",
			},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				var reqBody ChatCompletionRequest
				err := json.NewDecoder(r.Body).Decode(&reqBody)
				require.NoError(t, err)
				require.Len(t, reqBody.Messages, 2)
				assert.Contains(t, reqBody.Messages[1].Content, "The Go runtime schedules them.")

				mockResponse := ChatCompletionResponse{
					Choices: []Choice{
						{
							Message: ChoiceMessage{
								Role:    RoleAssistant,
								Content: `{"correct": true, "score": 0.95, "feedback": "Exactly right."}`,
							},
							FinishReason: "stop",
						},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(mockResponse)
			},
			wantResponse: inference.EvaluateAnswerResponse{
				Correct:  true,
				Score:    0.95,
				Feedback: "Exactly right.",
			},
		},
		{
			name: "Incorrect answer",
			request: inference.EvaluateAnswerRequest{
				Question:        "What manages goroutines?",
				UserAnswer:      "The operating system.",
				ReferenceAnswer: "The Go runtime.",
			},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				mockResponse := ChatCompletionResponse{
					Choices: []Choice{
						{
							Message: ChoiceMessage{
								Role:    RoleAssistant,
								Content: `{"correct": false, "score": 0.0, "feedback": "Goroutines are scheduled by the Go runtime, not the OS."}`,
							},
							FinishReason: "stop",
						},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(mockResponse)
			},
			wantResponse: inference.EvaluateAnswerResponse{
				Correct:  false,
				Score:    0.0,
				Feedback: "Goroutines are scheduled by the Go runtime, not the OS.",
			},
		},
		{
			name: "Empty choices",
			request: inference.EvaluateAnswerRequest{
				Question:        "Q",
				UserAnswer:      "A",
				ReferenceAnswer: "R",
			},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(ChatCompletionResponse{})
			},
			wantError:       true,
			wantErrorString: "empty response body or choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, w, r)
			}))
			defer server.Close()

			client := &Client{
				httpClient:       resty.New().SetBaseURL(server.URL),
				model:            "gpt-4o-mini",
				maxRetryAttempts: 1,
			}

			ctx := context.Background()
			gotResponse, gotErr := client.EvaluateAnswer(ctx, tt.request)

			if tt.wantError {
				require.Error(t, gotErr)
				if tt.wantErrorString != "" {
					assert.Contains(t, gotErr.Error(), tt.wantErrorString)
				}
				return
			}

			require.NoError(t, gotErr)
			require.Equal(t, tt.wantResponse, gotResponse)
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "server error", err: assert.AnError, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "plain object",
			content: `{"a": 1}`,
			want:    `{"a": 1}`,
		},
		{
			name:    "fenced object",
			content: "```json\n{\"a\": 1}\n```",
			want:    `{"a": 1}`,
		},
		{
			name:    "braces inside strings ignored",
			content: `prefix {"a": "b } c"} suffix`,
			want:    `{"a": "b } c"}`,
		},
		{
			name:    "no object returns input",
			content: "nothing here",
			want:    "nothing here",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSONObject(tt.content))
		})
	}
}
