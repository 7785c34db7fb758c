package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	postID   int64
	provider string
	err      error
}

func (r *recordingRunner) RunTask(ctx context.Context, postID int64, providerName string) error {
	r.postID = postID
	r.provider = providerName
	return r.err
}

func TestHandlePublishPostTask(t *testing.T) {
	runner := &recordingRunner{}
	worker := NewWorker(runner)

	payload, err := json.Marshal(PublishPostPayload{PostID: 7, Provider: "linkedin"})
	require.NoError(t, err)

	err = worker.HandlePublishPostTask(context.Background(), asynq.NewTask(TaskTypePublishPost, payload))
	require.NoError(t, err)
	assert.Equal(t, int64(7), runner.postID)
	assert.Equal(t, "linkedin", runner.provider)
}

func TestHandlePublishPostTaskPropagatesRetryableError(t *testing.T) {
	wantErr := errors.New("transient platform failure")
	worker := NewWorker(&recordingRunner{err: wantErr})

	payload, _ := json.Marshal(PublishPostPayload{PostID: 7, Provider: "twitter"})

	err := worker.HandlePublishPostTask(context.Background(), asynq.NewTask(TaskTypePublishPost, payload))
	assert.ErrorIs(t, err, wantErr)
}

func TestHandlePublishPostTaskBadPayloadSkipsRetry(t *testing.T) {
	worker := NewWorker(&recordingRunner{})

	err := worker.HandlePublishPostTask(context.Background(), asynq.NewTask(TaskTypePublishPost, []byte("not json")))
	require.Error(t, err)
	// A malformed payload can never succeed; retrying it would be noise.
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestConstantRetryDelay(t *testing.T) {
	delayFn := ConstantRetryDelay(5 * time.Minute)

	for attempt := 1; attempt <= 3; attempt++ {
		assert.Equal(t, 5*time.Minute, delayFn(attempt, errors.New("boom"), nil))
	}
}

func TestConstantRetryDelayDefault(t *testing.T) {
	delayFn := ConstantRetryDelay(0)
	assert.Equal(t, DefaultRetryDelay, delayFn(1, errors.New("boom"), nil))
}
