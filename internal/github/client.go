// internal/github/client.go
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github-repo-proxy/internal/model"
)

// tokenType makes the oauth2 transport send "Authorization: token <token>".
const tokenType = "token"

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance.
// The provided token is attached to every outgoing request; baseURL points at the
// GitHub REST API root.
func NewClient(baseURL, token string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token, TokenType: tokenType},
	)
	tc := oauth2.NewClient(ctx, ts)

	gh := github.NewClient(tc)
	gh.BaseURL = u

	return &Client{
		gh:     gh,
		logger: logger,
	}, nil
}

// ListRepositories fetches the repositories owned by username.
// A null upstream array yields a nil slice.
func (c *Client) ListRepositories(ctx context.Context, username string) ([]model.Repository, error) {
	c.logger.DebugContext(ctx, "Fetching repositories", "user", username)

	// go-github interpolates path segments verbatim.
	repos, _, err := c.gh.Repositories.ListByUser(ctx, url.PathEscape(username), nil)
	if err != nil {
		return nil, fmt.Errorf("list repositories of %s: %w", username, err)
	}
	if repos == nil {
		return nil, nil
	}

	result := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		result = append(result, toInternalRepository(r))
	}
	return result, nil
}

// ListBranches fetches the branches of owner/repo in upstream order.
// A null upstream array yields a nil slice.
func (c *Client) ListBranches(ctx context.Context, owner, repo string) ([]model.Branch, error) {
	c.logger.DebugContext(ctx, "Fetching branches", "owner", owner, "repo", repo)

	branches, _, err := c.gh.Repositories.ListBranches(ctx, url.PathEscape(owner), url.PathEscape(repo), nil)
	if err != nil {
		return nil, fmt.Errorf("list branches of %s/%s: %w", owner, repo, err)
	}
	if branches == nil {
		return nil, nil
	}

	result := make([]model.Branch, 0, len(branches))
	for _, b := range branches {
		result = append(result, toInternalBranch(b))
	}
	return result, nil
}

// toInternalRepository translates a github.Repository object to our internal model.Repository.
func toInternalRepository(r *github.Repository) model.Repository {
	repo := model.Repository{
		Name:     r.GetName(),
		Fork:     r.GetFork(),
		Branches: []model.Branch{},
	}
	if r.Owner != nil {
		repo.Owner = &model.Owner{Login: r.GetOwner().GetLogin()}
	}
	return repo
}

// toInternalBranch translates a github.Branch object to our internal model.Branch.
func toInternalBranch(b *github.Branch) model.Branch {
	return model.Branch{
		Name:   b.GetName(),
		Commit: model.Commit{SHA: b.GetCommit().GetSHA()},
	}
}
