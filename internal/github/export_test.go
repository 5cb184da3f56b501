package github

import "time"

// Test hooks for the external test package (internal/github_test),
// which cannot reach unexported identifiers directly.

func (s *Syncer) SetNow(f func() time.Time) { s.now = f }

var TopicTitle = topicTitle
