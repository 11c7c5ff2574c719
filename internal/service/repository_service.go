// internal/service/repository_service.go
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/go-github/v62/github"
	"golang.org/x/sync/errgroup"

	custom_errors "github-repo-proxy/internal/errors"
	"github-repo-proxy/internal/model"
)

// GitHubAPI is the subset of the GitHub client the service depends on.
type GitHubAPI interface {
	ListRepositories(ctx context.Context, username string) ([]model.Repository, error)
	ListBranches(ctx context.Context, owner, repo string) ([]model.Branch, error)
}

// RepositoryService aggregates a user's repositories with their branches.
type RepositoryService struct {
	gh          GitHubAPI
	logger      *slog.Logger
	concurrency int
}

// NewRepositoryService creates a new RepositoryService. concurrency bounds the number of
// branch listings in flight for a single request; values below 1 mean sequential.
func NewRepositoryService(gh GitHubAPI, logger *slog.Logger, concurrency int) *RepositoryService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &RepositoryService{
		gh:          gh,
		logger:      logger,
		concurrency: concurrency,
	}
}

// ListRepositories returns the non-fork repositories of username in upstream order.
func (s *RepositoryService) ListRepositories(ctx context.Context, username string) ([]model.Repository, error) {
	repos, err := s.gh.ListRepositories(ctx, username)
	if err != nil {
		return nil, classify(err, username, true)
	}
	if repos == nil {
		return []model.Repository{}, nil
	}

	owned := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		if r.Fork {
			continue
		}
		owned = append(owned, r)
	}
	return owned, nil
}

// ListBranches returns the branches of username/repositoryName in upstream order.
// Unlike ListRepositories, a 404 here is reported as a plain upstream error.
func (s *RepositoryService) ListBranches(ctx context.Context, username, repositoryName string) ([]model.Branch, error) {
	branches, err := s.gh.ListBranches(ctx, username, repositoryName)
	if err != nil {
		return nil, classify(err, username, false)
	}
	if branches == nil {
		return []model.Branch{}, nil
	}
	return branches, nil
}

// ListRepositoriesWithBranches lists the non-fork repositories of username and attaches
// the branches of each one. The first failing branch listing aborts the whole call.
func (s *RepositoryService) ListRepositoriesWithBranches(ctx context.Context, username string) ([]model.Repository, error) {
	logger := s.logger.With("user", username)

	repos, err := s.ListRepositories(ctx, username)
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "Fetched repositories", "count", len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range repos {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return classify(err, username, false)
			}
			branches, err := s.ListBranches(gctx, username, repos[i].Name)
			if err != nil {
				return err
			}
			repos[i].Branches = branches
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.WarnContext(ctx, "Failed to fetch branches", "error", err)
		return nil, err
	}

	logger.InfoContext(ctx, "Aggregated repositories", "count", len(repos))
	return repos, nil
}

// classify translates an error from the GitHub client into the local error taxonomy.
// Errors it does not recognise are returned unchanged.
func classify(err error, username string, notFoundIsUser bool) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &custom_errors.UpstreamError{StatusCode: http.StatusForbidden, Body: rateErr.Message, Err: err}
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &custom_errors.UpstreamError{StatusCode: http.StatusForbidden, Body: abuseErr.Message, Err: err}
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		status := respErr.Response.StatusCode
		if status == http.StatusNotFound && notFoundIsUser {
			return &custom_errors.UserNotFoundError{Username: username}
		}
		return &custom_errors.UpstreamError{StatusCode: status, Body: responseBody(respErr), Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return custom_errors.NewNetworkError(err)
	}

	return err
}

// responseBody returns the raw upstream body. go-github restores the body after
// decoding the error, so it can be read once more here.
func responseBody(respErr *github.ErrorResponse) string {
	if body := respErr.Response.Body; body != nil {
		data, err := io.ReadAll(body)
		if err == nil && len(data) > 0 {
			return string(data)
		}
	}
	return respErr.Message
}
