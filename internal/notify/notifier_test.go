package notify

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReviewReminder(t *testing.T) {
	tests := []struct {
		name         string
		titles       []string
		wantContains []string
		wantAbsent   []string
	}{
		{
			name:   "single topic",
			titles: []string{"Go Channels"},
			wantContains: []string{
				"Topics due for review:",
				"- Go Channels",
				"Use /study",
			},
			wantAbsent: []string{"more"},
		},
		{
			name:   "more than five topics lists five plus a remainder",
			titles: []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven"},
			wantContains: []string{
				"- One",
				"- Five",
				"- ...and 2 more",
			},
			wantAbsent: []string{"- Six", "- Seven"},
		},
		{
			name:         "long title is truncated",
			titles:       []string{strings.Repeat("x", 50)},
			wantContains: []string{"- " + strings.Repeat("x", 27) + "..."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReviewReminder(tt.titles)
			for _, want := range tt.wantContains {
				assert.Contains(t, got, want)
			}
			for _, absent := range tt.wantAbsent {
				assert.NotContains(t, got, absent)
			}
		})
	}
}

func TestSessionCompleted(t *testing.T) {
	got := SessionCompleted("Go Channels", 0.85)
	assert.Equal(t, `Session on "Go Channels" completed with a score of 85%.`, got)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		text   string
		maxLen int
		want   string
	}{
		{text: "short", maxLen: 10, want: "short"},
		{text: "exactly ten", maxLen: 11, want: "exactly ten"},
		{text: "this is far too long", maxLen: 10, want: "this is..."},
		{text: "héllo wörld ünïcode", maxLen: 8, want: "héllo..."},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s-%d", tt.text, tt.maxLen), func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.text, tt.maxLen))
		})
	}
}
