package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TaskRunner executes one publish attempt. A returned error signals a
// transient failure that asynq should retry; terminal outcomes return nil.
type TaskRunner interface {
	RunTask(ctx context.Context, postID int64, providerName string) error
}

type Worker struct {
	runner TaskRunner
}

func NewWorker(runner TaskRunner) *Worker {
	return &Worker{runner: runner}
}

func (w *Worker) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid publish task payload: %v: %w", err, asynq.SkipRetry)
	}

	return w.runner.RunTask(ctx, payload.PostID, payload.Provider)
}

// ConstantRetryDelay applies a fixed delay between retry attempts of the
// same task, regardless of how many attempts have run.
func ConstantRetryDelay(delay time.Duration) asynq.RetryDelayFunc {
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return func(n int, err error, task *asynq.Task) time.Duration {
		return delay
	}
}
