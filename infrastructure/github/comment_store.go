// Package github stores comment threads as labelled GitHub issues.
// The issue title is the annotation key, the issue body is the first
// comment and issue comments are the replies.
package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"silo-planner/application/ports"
	"silo-planner/domain/core/entities"
	"silo-planner/domain/core/valueobjects"
	appErrors "silo-planner/pkg/errors"
	"silo-planner/pkg/utils"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"
)

const storeName = "GitHub API"

// Config identifies the repository and label holding the threads
type Config struct {
	Token    string
	Owner    string
	Repo     string
	Label    string
	BaseURL  string
	PageSize int
}

// CommentStore implements ports.CommentStore on the GitHub Issues API
type CommentStore struct {
	client *gh.Client
	cfg    Config
	logger *zap.Logger
}

// NewCommentStore creates a GitHub-backed comment store.
// httpClient may be nil; pass a traced client to record outbound calls.
func NewCommentStore(httpClient *http.Client, cfg Config, logger *zap.Logger) (*CommentStore, error) {
	if cfg.Label == "" {
		cfg.Label = "comment"
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		cfg.PageSize = 100
	}

	client := gh.NewClient(httpClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, appErrors.NewConfigurationError("invalid GitHub API URL").WithCause(err)
		}
		client.BaseURL = u
	}
	client.UserAgent = "silo-modular-planner"

	return &CommentStore{client: client, cfg: cfg, logger: logger}, nil
}

// FetchAll lists every open labelled issue with its replies
func (s *CommentStore) FetchAll(ctx context.Context) (map[string][]entities.Comment, error) {
	issues, err := s.listIssues(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string][]entities.Comment)
	for _, issue := range issues {
		key := issue.GetTitle()
		number := issue.GetNumber()
		if _, ok := index[key]; !ok {
			index[key] = []entities.Comment{}
		}

		if body, ok := valueobjects.DecodeBody(issue.GetBody()); ok {
			index[key] = append(index[key], entities.Comment{
				Author:    body.Author,
				Text:      body.Text,
				Timestamp: utils.Millis(issue.GetCreatedAt().Time),
				ThreadID:  number,
			})
		}

		if issue.GetComments() == 0 {
			continue
		}
		replies, err := s.listReplies(ctx, number)
		if err != nil {
			s.logger.Warn("Skipping replies for comment thread",
				zap.Int("thread", number),
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		for _, reply := range replies {
			body, ok := valueobjects.DecodeBody(reply.GetBody())
			if !ok {
				continue
			}
			index[key] = append(index[key], entities.Comment{
				Author:    body.Author,
				Text:      body.Text,
				Timestamp: utils.Millis(reply.GetCreatedAt().Time),
				ThreadID:  number,
				IsReply:   true,
			})
		}
	}

	s.logger.Debug("Fetched comment threads",
		zap.Int("issues", len(issues)),
		zap.Int("keys", len(index)),
	)
	return index, nil
}

// Submit replies to the given thread, or to the open thread titled with the key, or opens a new one
func (s *CommentStore) Submit(ctx context.Context, req ports.SubmitRequest) (ports.SubmitResult, error) {
	if s.cfg.Token == "" {
		return ports.SubmitResult{}, appErrors.NewConfigurationError("GitHub token not configured")
	}

	body := valueobjects.EncodeBody(req.Author, req.Text)

	threadID := req.ThreadID
	if threadID == 0 {
		existing, err := s.findThread(ctx, req.Key)
		if err != nil {
			return ports.SubmitResult{}, err
		}
		threadID = existing
	}

	if threadID != 0 {
		comment, _, err := s.client.Issues.CreateComment(ctx, s.cfg.Owner, s.cfg.Repo, threadID, &gh.IssueComment{
			Body: gh.String(body),
		})
		if err != nil {
			return ports.SubmitResult{}, remoteError(err)
		}
		s.logger.Info("Replied to comment thread",
			zap.String("key", req.Key),
			zap.Int("issue_number", threadID),
		)
		return ports.SubmitResult{ThreadID: threadID, CommentID: comment.GetID()}, nil
	}

	labels := []string{s.cfg.Label}
	issue, _, err := s.client.Issues.Create(ctx, s.cfg.Owner, s.cfg.Repo, &gh.IssueRequest{
		Title:  gh.String(req.Key),
		Body:   gh.String(body),
		Labels: &labels,
	})
	if err != nil {
		return ports.SubmitResult{}, remoteError(err)
	}
	s.logger.Info("Opened comment thread",
		zap.String("key", req.Key),
		zap.Int("issue_number", issue.GetNumber()),
	)
	return ports.SubmitResult{ThreadID: issue.GetNumber(), CommentID: issue.GetID(), Created: true}, nil
}

// findThread returns the number of the open labelled issue titled key, or 0
func (s *CommentStore) findThread(ctx context.Context, key string) (int, error) {
	issues, err := s.listIssues(ctx)
	if err != nil {
		return 0, err
	}
	for _, issue := range issues {
		if issue.GetTitle() == key {
			return issue.GetNumber(), nil
		}
	}
	return 0, nil
}

func (s *CommentStore) listIssues(ctx context.Context) ([]*gh.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "open",
		Labels:      []string{s.cfg.Label},
		ListOptions: gh.ListOptions{PerPage: s.cfg.PageSize},
	}

	var all []*gh.Issue
	for {
		issues, resp, err := s.client.Issues.ListByRepo(ctx, s.cfg.Owner, s.cfg.Repo, opts)
		if err != nil {
			return nil, remoteError(err)
		}
		all = append(all, issues...)
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

func (s *CommentStore) listReplies(ctx context.Context, number int) ([]*gh.IssueComment, error) {
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: s.cfg.PageSize},
	}

	var all []*gh.IssueComment
	for {
		comments, resp, err := s.client.Issues.ListComments(ctx, s.cfg.Owner, s.cfg.Repo, number, opts)
		if err != nil {
			return nil, remoteError(err)
		}
		all = append(all, comments...)
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// remoteError converts go-github failures into the single remote store error kind
func remoteError(err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return appErrors.NewRemoteStoreError(storeName, ghErr.Response.StatusCode, ghErr.Message, err)
	}
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return appErrors.NewRemoteStoreError(storeName, rateErr.Response.StatusCode, rateErr.Message, err)
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return appErrors.NewRemoteStoreError(storeName, abuseErr.Response.StatusCode, abuseErr.Message, err)
	}
	return appErrors.NewRemoteStoreError(storeName, 0, "", err)
}
