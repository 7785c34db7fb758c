package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sarthakganguly/social-media-aggregator/internal/models"
	"github.com/sarthakganguly/social-media-aggregator/internal/repository"
	"github.com/sarthakganguly/social-media-aggregator/internal/transfer"
)

// PublishSubmitter hands a created post to the publish orchestrator.
type PublishSubmitter interface {
	Submit(ctx context.Context, postID int64, providers []string, at time.Time) error
}

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	ListDrafts(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	Attempts(ctx context.Context, postID, userID int64) ([]*models.PublishAttempt, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	pr   repository.PostRepository
	pa   repository.PublishAttemptRepository
	orch PublishSubmitter
}

func NewPostService(
	pr repository.PostRepository,
	pa repository.PublishAttemptRepository,
	orch PublishSubmitter) PostService {
	return &postService{
		pr:   pr,
		pa:   pa,
		orch: orch,
	}
}

// CreatePost stores the post and, unless it is saved as a draft, hands it
// to the orchestrator. The request returns once the tasks are enqueued;
// no platform call happens on this path.
func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}
	if pc.Content == "" {
		err := errors.New("content cannot be empty")
		slog.Info(err.Error())
		return 0, err
	}

	var scheduledAt time.Time
	if pc.ScheduledTime != "" {
		parsed, err := time.Parse("2006-01-02T15:04", pc.ScheduledTime)
		if err != nil {
			err = fmt.Errorf("invalid scheduled time format: %w", err)
			slog.Error(err.Error())
			return 0, err
		}
		scheduledAt = parsed
	}

	post := models.Post{
		UserID:      userID,
		Content:     pc.Content,
		ScheduledAt: scheduledAt,
	}

	switch pc.Action {
	case transfer.PostActionDraft:
		// Drafts never reach the orchestrator.
		post.Status = models.PostStatusDraft
		return s.pr.Create(ctx, nil, &post)

	case transfer.PostActionNow:
		if len(pc.Providers) == 0 {
			err := errors.New("no providers selected for publishing")
			slog.Info(err.Error())
			return 0, err
		}
		post.Status = models.PostStatusScheduled

		postID, err := s.pr.Create(ctx, nil, &post)
		if err != nil {
			return 0, fmt.Errorf("error creating post: %w", err)
		}

		if err := s.orch.Submit(ctx, postID, pc.Providers, scheduledAt); err != nil {
			return 0, fmt.Errorf("error scheduling post: %w", err)
		}
		return postID, nil

	default:
		err := fmt.Errorf("invalid action %q", pc.Action)
		slog.Info(err.Error())
		return 0, err
	}
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	if userID == 0 {
		err := errors.New("UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	return s.pr.ListByUserID(ctx, userID)
}

func (s *postService) ListDrafts(ctx context.Context, userID int64) ([]*models.Post, error) {
	if userID == 0 {
		err := errors.New("UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	return s.pr.ListByStatus(ctx, userID, models.PostStatusDraft)
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	exists, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrNotFound
	}

	return s.pr.GetByID(ctx, postID)
}

// Attempts returns the per-provider outcome log for a post; the post
// status alone cannot distinguish which provider failed.
func (s *postService) Attempts(ctx context.Context, postID, userID int64) ([]*models.PublishAttempt, error) {
	exists, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrNotFound
	}

	return s.pa.ListByPostID(ctx, postID)
}

// Remove deletes the post. Tasks already scheduled for it become no-ops
// when they find the row gone.
func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	exists, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}

	return s.pr.Remove(ctx, postID)
}
