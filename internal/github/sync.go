package github

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fkobayashi/studyagent/internal/study"
)

//go:generate mockgen -source=sync.go -destination=../mocks/github/mock_sync.go -package=mock_github

// minTopicWords filters out stub files that are too short to quiz on.
const minTopicWords = 50

// ContentFetcher is the subset of the GitHub API the syncer needs.
type ContentFetcher interface {
	ListTree(ctx context.Context, owner, repo string) ([]TreeEntry, error)
	GetFileContent(ctx context.Context, owner, repo, path string) (string, error)
}

// TopicWriter persists synced topics.
type TopicWriter interface {
	Upsert(ctx context.Context, topic *study.Topic) error
	ListByRepository(ctx context.Context, repositoryID int64) ([]study.Topic, error)
}

// RepositoryWriter persists repository sync metadata.
type RepositoryWriter interface {
	GetOrCreate(ctx context.Context, userID int64, url, owner, name string) (*study.Repository, error)
	TouchSynced(ctx context.Context, id int64, syncedAt time.Time) error
}

// Syncer imports markdown files from a GitHub repository as study topics.
type Syncer struct {
	fetcher ContentFetcher
	topics  TopicWriter
	repos   RepositoryWriter
	now     func() time.Time
}

func NewSyncer(fetcher ContentFetcher, topics TopicWriter, repos RepositoryWriter) *Syncer {
	return &Syncer{
		fetcher: fetcher,
		topics:  topics,
		repos:   repos,
		now:     time.Now,
	}
}

// SyncResult summarizes one repository sync.
type SyncResult struct {
	Repository *study.Repository
	Synced     int
	Skipped    int
}

// SyncRepository registers the repository for the user if needed and imports
// every markdown file in it as a topic. A file whose content hash is unchanged
// only has its sync timestamp refreshed; a changed hash replaces the topic
// body without touching performance history.
func (s *Syncer) SyncRepository(ctx context.Context, userID int64, repoURL string) (*SyncResult, error) {
	owner, name, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, fmt.Errorf("github.ParseRepoURL > %w", err)
	}

	repo, err := s.repos.GetOrCreate(ctx, userID, repoURL, owner, name)
	if err != nil {
		return nil, fmt.Errorf("repos.GetOrCreate > %w", err)
	}

	entries, err := s.fetcher.ListTree(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("fetcher.ListTree > %w", err)
	}

	result := &SyncResult{Repository: repo}
	syncedAt := s.now()
	for _, entry := range entries {
		if entry.Type != "blob" || !strings.HasSuffix(strings.ToLower(entry.Path), ".md") {
			continue
		}

		content, err := s.fetcher.GetFileContent(ctx, owner, name, entry.Path)
		if err != nil {
			slog.Default().Warn("failed to fetch file, skipping",
				"repository", owner+"/"+name,
				"path", entry.Path,
				"error", err)
			result.Skipped++
			continue
		}
		if len(strings.Fields(content)) < minTopicWords {
			result.Skipped++
			continue
		}

		hash := sha256.Sum256([]byte(content))
		topic := &study.Topic{
			RepositoryID: repo.ID,
			Title:        topicTitle(entry.Path),
			Content:      content,
			ContentHash:  hex.EncodeToString(hash[:]),
			LastSyncedAt: syncedAt,
		}
		if err := s.topics.Upsert(ctx, topic); err != nil {
			return nil, fmt.Errorf("topics.Upsert(%s) > %w", entry.Path, err)
		}
		result.Synced++
	}

	if err := s.repos.TouchSynced(ctx, repo.ID, syncedAt); err != nil {
		return nil, fmt.Errorf("repos.TouchSynced > %w", err)
	}

	slog.Default().Info("synced repository",
		"repository", owner+"/"+name,
		"synced", result.Synced,
		"skipped", result.Skipped)
	return result, nil
}

// topicTitle derives a human-readable title from a markdown file path:
// "notes/go-channels.md" becomes "notes / go channels".
func topicTitle(filePath string) string {
	trimmed := strings.TrimSuffix(filePath, path.Ext(filePath))
	parts := strings.Split(trimmed, "/")
	for i, part := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(part, "-", " "), "_", " ")
	}
	return strings.Join(parts, " / ")
}
