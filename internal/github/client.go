// Package github fetches study material from GitHub repositories.
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
)

// ErrRepositoryNotFound is returned when a repository or file does not exist
// or is not visible with the configured token.
var ErrRepositoryNotFound = fmt.Errorf("repository not found")

// Client is a thin wrapper over the GitHub REST API v3.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a Client. token may be empty for public repositories.
func NewClient(token string) *Client {
	client := resty.New()
	client.SetBaseURL("https://api.github.com")
	client.SetHeader("Accept", "application/vnd.github.v3+json")
	if token != "" {
		client.SetHeader("Authorization", "token "+token)
	}
	return &Client{httpClient: client}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.httpClient.SetBaseURL(baseURL)
}

// TreeEntry is a single entry of a repository's git tree.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int    `json:"size"`
}

type treeResponse struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type contentResponse struct {
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// ListTree returns the repository's full file tree from the main branch.
func (c *Client) ListTree(ctx context.Context, owner, repo string) ([]TreeEntry, error) {
	var result treeResponse
	res, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/repos/%s/%s/git/trees/main?recursive=1", owner, repo))
	if err != nil {
		return nil, fmt.Errorf("client.R.Get > %w", err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s/%s", ErrRepositoryNotFound, owner, repo)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status code: %d, body: %s", res.StatusCode(), res.String())
	}
	return result.Tree, nil
}

// GetFileContent returns the decoded content of a file.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	var result contentResponse
	res, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, path))
	if err != nil {
		return "", fmt.Errorf("client.R.Get > %w", err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrRepositoryNotFound, path)
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("status code: %d, body: %s", res.StatusCode(), res.String())
	}

	if result.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(result.Content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("base64.Decode > %w", err)
		}
		return string(decoded), nil
	}
	return result.Content, nil
}

// ParseRepoURL extracts the owner and repository name from a GitHub URL.
// Accepts URLs with or without a scheme, and strips a trailing ".git".
func ParseRepoURL(rawURL string) (owner, repo string, err error) {
	candidate := rawURL
	if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
		candidate = "https://" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", "", fmt.Errorf("url.Parse(%s) > %w", rawURL, err)
	}
	host := parsed.Hostname()
	if host != "github.com" && host != "www.github.com" {
		return "", "", fmt.Errorf("not a github.com URL: %s", rawURL)
	}

	parts := []string{}
	for _, p := range strings.Split(parsed.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return "", "", fmt.Errorf("URL missing owner or repository: %s", rawURL)
	}

	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
