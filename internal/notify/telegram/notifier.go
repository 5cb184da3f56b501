// Package telegram implements notify.Notifier using the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.telegram.org"

// Notifier sends chat messages through the Telegram sendMessage endpoint.
type Notifier struct {
	client *resty.Client
	token  string
}

// NewNotifier creates a Notifier for the given bot token. baseURL overrides
// the Telegram API host, mainly for tests; pass "" for the default.
func NewNotifier(token, baseURL string) *Notifier {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(10 * time.Second)

	return &Notifier{
		client: client,
		token:  token,
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify delivers a message to the chat identified by chatID.
func (n *Notifier) Notify(ctx context.Context, chatID int64, message string) error {
	var result sendMessageResponse
	res, err := n.client.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{ChatID: chatID, Text: message}).
		SetResult(&result).
		Post(fmt.Sprintf("/bot%s/sendMessage", n.token))
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	if res.StatusCode() != http.StatusOK || !result.OK {
		return fmt.Errorf("telegram sendMessage failed: status %d, %s", res.StatusCode(), result.Description)
	}
	return nil
}
