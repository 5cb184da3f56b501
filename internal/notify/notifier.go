// Package notify delivers fire-and-forget messages to a user's chat surface.
package notify

import (
	"context"
	"fmt"
	"strings"
)

//go:generate mockgen -source=notifier.go -destination=../mocks/notify/mock_notifier.go -package=mock_notify

// Notifier sends a message to a user's chat. Delivery failures must be logged
// by callers and never block session state transitions.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, message string) error
}

// maxReminderTopics caps how many topic titles a review reminder lists.
const maxReminderTopics = 5

// StudyReminder builds the message sent when a user's scheduled study time
// arrives.
func StudyReminder() string {
	return "Time to study! Your scheduled study session is ready. Use /study to start a quiz."
}

// ReviewReminder builds the message listing topics that are due for review.
func ReviewReminder(titles []string) string {
	var b strings.Builder
	b.WriteString("Topics due for review:\n")
	for i, title := range titles {
		if i == maxReminderTopics {
			break
		}
		fmt.Fprintf(&b, "- %s\n", Truncate(title, 30))
	}
	if extra := len(titles) - maxReminderTopics; extra > 0 {
		fmt.Fprintf(&b, "- ...and %d more\n", extra)
	}
	b.WriteString("Use /study to pick a topic and reinforce your memory.")
	return b.String()
}

// SessionCompleted builds the message reporting a finished session score.
func SessionCompleted(topicTitle string, score float64) string {
	return fmt.Sprintf("Session on %q completed with a score of %.0f%%.", topicTitle, score*100)
}

// Truncate shortens text to at most maxLen runes, appending an ellipsis when
// anything was cut.
func Truncate(text string, maxLen int) string {
	if maxLen <= 3 {
		maxLen = 3
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-3]) + "..."
}
