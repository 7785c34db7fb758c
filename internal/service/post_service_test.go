package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/sarthakganguly/social-media-aggregator/internal/models"
	"github.com/sarthakganguly/social-media-aggregator/internal/repository"
	"github.com/sarthakganguly/social-media-aggregator/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPostRepo struct {
	nextID  int64
	created []*models.Post
}

func (r *stubPostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	r.nextID++
	post.ID = r.nextID
	r.created = append(r.created, post)
	return post.ID, nil
}

func (r *stubPostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	for _, post := range r.created {
		if post.ID == id {
			return post, nil
		}
	}
	return nil, nil
}

func (r *stubPostRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	return r.created, nil
}

func (r *stubPostRepo) ListByStatus(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	var out []*models.Post
	for _, post := range r.created {
		if post.Status == status {
			out = append(out, post)
		}
	}
	return out, nil
}

func (r *stubPostRepo) MarkPublished(ctx context.Context, postID int64, publishedAt time.Time) error {
	return nil
}

func (r *stubPostRepo) MarkFailed(ctx context.Context, postID int64) error { return nil }

func (r *stubPostRepo) UpdateStatus(ctx context.Context, status string, postID int64) error {
	return nil
}

func (r *stubPostRepo) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	for _, post := range r.created {
		if post.ID == postID && post.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubPostRepo) Remove(ctx context.Context, id int64) error {
	for i, post := range r.created {
		if post.ID == id {
			r.created = append(r.created[:i], r.created[i+1:]...)
			return nil
		}
	}
	return nil
}

type stubAttemptRepo struct{}

func (r *stubAttemptRepo) Create(ctx context.Context, attempt *models.PublishAttempt) (int64, error) {
	return 1, nil
}

func (r *stubAttemptRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PublishAttempt, error) {
	return nil, nil
}

type stubSubmitter struct {
	submitted bool
	postID    int64
	providers []string
	at        time.Time
}

func (s *stubSubmitter) Submit(ctx context.Context, postID int64, providers []string, at time.Time) error {
	s.submitted = true
	s.postID = postID
	s.providers = providers
	s.at = at
	return nil
}

func newTestPostService() (PostService, *stubPostRepo, *stubSubmitter) {
	pr := &stubPostRepo{}
	sub := &stubSubmitter{}
	return NewPostService(pr, &stubAttemptRepo{}, sub), pr, sub
}

func TestCreatePostPublishNow(t *testing.T) {
	svc, pr, sub := newTestPostService()

	postID, err := svc.CreatePost(context.Background(), 1, &transfer.PostCreation{
		Content:   "Hello",
		Action:    transfer.PostActionNow,
		Providers: []string{"linkedin", "twitter"},
	})
	require.NoError(t, err)

	require.Len(t, pr.created, 1)
	assert.Equal(t, models.PostStatusScheduled, pr.created[0].Status)

	assert.True(t, sub.submitted)
	assert.Equal(t, postID, sub.postID)
	assert.Equal(t, []string{"linkedin", "twitter"}, sub.providers)
	assert.True(t, sub.at.IsZero())
}

func TestCreatePostScheduledForLater(t *testing.T) {
	svc, _, sub := newTestPostService()

	_, err := svc.CreatePost(context.Background(), 1, &transfer.PostCreation{
		Content:       "Hello",
		Action:        transfer.PostActionNow,
		ScheduledTime: "2031-05-01T09:30",
		Providers:     []string{"linkedin"},
	})
	require.NoError(t, err)

	want, _ := time.Parse("2006-01-02T15:04", "2031-05-01T09:30")
	assert.Equal(t, want, sub.at)
}

func TestCreatePostDraftNeverSubmitted(t *testing.T) {
	svc, pr, sub := newTestPostService()

	_, err := svc.CreatePost(context.Background(), 1, &transfer.PostCreation{
		Content: "Hello",
		Action:  transfer.PostActionDraft,
	})
	require.NoError(t, err)

	require.Len(t, pr.created, 1)
	assert.Equal(t, models.PostStatusDraft, pr.created[0].Status)
	assert.False(t, sub.submitted)
}

func TestCreatePostValidation(t *testing.T) {
	svc, _, _ := newTestPostService()

	_, err := svc.CreatePost(context.Background(), 1, &transfer.PostCreation{
		Action:    transfer.PostActionNow,
		Providers: []string{"linkedin"},
	})
	assert.Error(t, err, "empty content")

	_, err = svc.CreatePost(context.Background(), 1, &transfer.PostCreation{
		Content: "Hello",
		Action:  transfer.PostActionNow,
	})
	assert.Error(t, err, "publish now without providers")

	_, err = svc.CreatePost(context.Background(), 1, &transfer.PostCreation{
		Content: "Hello",
		Action:  "explode",
	})
	assert.Error(t, err, "unknown action")

	_, err = svc.CreatePost(context.Background(), 1, &transfer.PostCreation{
		Content:       "Hello",
		Action:        transfer.PostActionNow,
		ScheduledTime: "tomorrow",
		Providers:     []string{"linkedin"},
	})
	assert.Error(t, err, "bad scheduled time format")
}

func TestRemovePostOwnership(t *testing.T) {
	svc, pr, _ := newTestPostService()

	postID, err := svc.CreatePost(context.Background(), 1, &transfer.PostCreation{
		Content: "Hello",
		Action:  transfer.PostActionDraft,
	})
	require.NoError(t, err)

	err = svc.Remove(context.Background(), 2, postID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Len(t, pr.created, 1)

	require.NoError(t, svc.Remove(context.Background(), 1, postID))
	assert.Empty(t, pr.created)
}
