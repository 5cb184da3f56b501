package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_Notify(t *testing.T) {
	tests := []struct {
		name              string
		mockServerHandler func(t *testing.T, w http.ResponseWriter, r *http.Request)

		wantError       bool
		wantErrorString string
	}{
		{
			name: "success",
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)

				var req sendMessageRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, int64(42), req.ChatID)
				assert.Equal(t, "Time to study!", req.Text)

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(sendMessageResponse{OK: true})
			},
		},
		{
			name: "telegram rejects the chat",
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(sendMessageResponse{OK: false, Description: "chat not found"})
			},
			wantError:       true,
			wantErrorString: "chat not found",
		},
		{
			name: "ok false with 200 status",
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(sendMessageResponse{OK: false, Description: "bot was blocked"})
			},
			wantError:       true,
			wantErrorString: "bot was blocked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, w, r)
			}))
			defer server.Close()

			notifier := NewNotifier("test-token", server.URL)
			err := notifier.Notify(context.Background(), 42, "Time to study!")
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrorString)
				return
			}
			require.NoError(t, err)
		})
	}
}
