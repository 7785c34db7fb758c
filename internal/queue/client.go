package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// Client enqueues publish tasks on the Redis-backed queue. asynq retries
// a failed task maxAttempts-1 times; the delay between attempts comes
// from the server's retry delay function.
type Client struct {
	asynqClient *asynq.Client
	maxAttempts int
}

func NewClient(asynqClient *asynq.Client, maxAttempts int) *Client {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Client{asynqClient: asynqClient, maxAttempts: maxAttempts}
}

func (c *Client) EnqueueNow(postID int64, providerName string) error {
	return c.enqueue(postID, providerName, asynq.MaxRetry(c.maxAttempts-1))
}

func (c *Client) EnqueueAt(t time.Time, postID int64, providerName string) error {
	return c.enqueue(postID, providerName, asynq.MaxRetry(c.maxAttempts-1), asynq.ProcessAt(t))
}

func (c *Client) enqueue(postID int64, providerName string, opts ...asynq.Option) error {
	payload := PublishPostPayload{PostID: postID, Provider: providerName}

	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	if _, err := c.asynqClient.Enqueue(task, opts...); err != nil {
		return err
	}

	log.Printf("Publish task enqueued: post=%d provider=%s", postID, providerName)
	return nil
}
