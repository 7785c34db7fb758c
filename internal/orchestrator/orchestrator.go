package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	config "github.com/sarthakganguly/social-media-aggregator/configs"
	"github.com/sarthakganguly/social-media-aggregator/internal/models"
	"github.com/sarthakganguly/social-media-aggregator/internal/provider"
	"github.com/sarthakganguly/social-media-aggregator/internal/repository"
	"github.com/sarthakganguly/social-media-aggregator/pkg/utils"
)

// RefreshMargin is the safety window before token expiry inside which a
// credential is refreshed rather than used as-is.
const RefreshMargin = 5 * time.Minute

// ErrRefreshRejected marks a refresh the provider refused. The user has
// to reconnect the account; retrying cannot help.
var ErrRefreshRejected = errors.New("provider rejected token refresh")

// Enqueuer hands publish tasks to the background queue. Implemented by
// queue.Client; kept as an interface so tests can capture enqueues.
type Enqueuer interface {
	EnqueueNow(postID int64, providerName string) error
	EnqueueAt(t time.Time, postID int64, providerName string) error
}

// Orchestrator fans a publish request out into one independent task per
// provider and runs each task's full attempt sequence.
type Orchestrator struct {
	cfg   config.Config
	pr    repository.PostRepository
	cr    repository.CredentialRepository
	pa    repository.PublishAttemptRepository
	reg   *provider.Registry
	enq   Enqueuer
	locks credLocks
}

func New(
	cfg config.Config,
	pr repository.PostRepository,
	cr repository.CredentialRepository,
	pa repository.PublishAttemptRepository,
	reg *provider.Registry,
	enq Enqueuer) *Orchestrator {
	return &Orchestrator{
		cfg: cfg,
		pr:  pr,
		cr:  cr,
		pa:  pa,
		reg: reg,
		enq: enq,
	}
}

// Submit enqueues one publish task per provider. The request path returns
// as soon as the tasks are queued; no platform call happens here. Callers
// invoking Submit twice for the same post get two independent task sets.
func (o *Orchestrator) Submit(ctx context.Context, postID int64, providers []string, at time.Time) error {
	for _, name := range providers {
		if _, ok := o.reg.Get(name); !ok {
			return fmt.Errorf("unknown provider %q", name)
		}
	}

	for _, name := range providers {
		var err error
		if at.IsZero() || !at.After(time.Now()) {
			err = o.enq.EnqueueNow(postID, name)
		} else {
			err = o.enq.EnqueueAt(at, postID, name)
		}
		if err != nil {
			return fmt.Errorf("failed to enqueue %s task for post %d: %w", name, postID, err)
		}
	}
	return nil
}

// RunTask executes one publish attempt for one (post, provider) pair.
// A non-nil return means the attempt failed transiently and the queue
// should retry it; every terminal outcome returns nil with the post and
// attempt log updated.
func (o *Orchestrator) RunTask(ctx context.Context, postID int64, providerName string) error {
	post, err := o.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		// Deleted between scheduling and execution.
		slog.Info("post no longer exists, skipping publish", "post_id", postID)
		return nil
	}

	adapter, ok := o.reg.Get(providerName)
	if !ok {
		return o.failPermanently(ctx, post, providerName, "no adapter registered for provider")
	}

	cred, err := o.cr.GetByUserProvider(ctx, post.UserID, providerName)
	if err != nil {
		return err
	}
	if cred == nil {
		return o.failPermanently(ctx, post, providerName, "no connected account for provider")
	}

	plain, err := o.decryptCredential(cred)
	if err != nil {
		return o.failPermanently(ctx, post, providerName, "stored tokens could not be decrypted")
	}

	if expiringSoon(plain.ExpiresAt) {
		if !adapter.SupportsRefresh() || plain.RefreshToken == "" {
			return o.failPermanently(ctx, post, providerName, "credential expired and cannot be refreshed")
		}

		plain, err = o.refreshCredential(ctx, adapter, plain)
		if errors.Is(err, ErrRefreshRejected) {
			return o.failPermanently(ctx, post, providerName, err.Error())
		}
		if err != nil {
			return err
		}
	}

	outcome := adapter.Publish(ctx, plain, post.Content)
	switch outcome.Status {
	case provider.OutcomeSuccess:
		if err := o.pr.MarkPublished(ctx, post.ID, time.Now()); err != nil {
			return err
		}
		o.recordAttempt(ctx, post, providerName, models.AttemptOutcomePublished, "")
		return nil

	case provider.OutcomePermanentFailure:
		return o.failPermanently(ctx, post, providerName, outcome.Reason)

	default:
		if err := o.pr.MarkFailed(ctx, post.ID); err != nil {
			return err
		}
		o.recordAttempt(ctx, post, providerName, models.AttemptOutcomeRetryableFailure, outcome.Reason)
		return fmt.Errorf("publishing post %d to %s failed transiently: %s", post.ID, providerName, outcome.Reason)
	}
}

// RefreshStoredCredential refreshes one credential row ahead of its
// expiry. Used by the background refresh job; shares the per-credential
// serialization with publish tasks.
func (o *Orchestrator) RefreshStoredCredential(ctx context.Context, cred *models.SocialCredential) error {
	adapter, ok := o.reg.Get(cred.Provider)
	if !ok || !adapter.SupportsRefresh() {
		return nil
	}

	plain, err := o.decryptCredential(cred)
	if err != nil {
		return err
	}
	if plain.RefreshToken == "" {
		return nil
	}

	_, err = o.refreshCredential(ctx, adapter, plain)
	return err
}

// refreshCredential obtains a new token set and persists it before the
// caller proceeds. Refreshes of the same credential are serialized, and
// the row is re-read under the lock so a refresh that already happened
// on another task is not repeated.
func (o *Orchestrator) refreshCredential(ctx context.Context, adapter provider.Adapter, cred *models.SocialCredential) (*models.SocialCredential, error) {
	mu := o.locks.get(cred.ID)
	mu.Lock()
	defer mu.Unlock()

	current, err := o.cr.GetByUserProvider(ctx, cred.UserID, cred.Provider)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: credential was disconnected", ErrRefreshRejected)
	}

	plain, err := o.decryptCredential(current)
	if err != nil {
		return nil, fmt.Errorf("%w: stored tokens could not be decrypted", ErrRefreshRejected)
	}

	if !expiringSoon(plain.ExpiresAt) {
		// Another task already refreshed this row.
		return plain, nil
	}

	outcome := adapter.Refresh(ctx, plain)
	if !outcome.Refreshed {
		return nil, fmt.Errorf("%w: %s", ErrRefreshRejected, outcome.Reason)
	}

	key := []byte(o.cfg.SecretKey)
	encryptedAccess, err := utils.Encrypt([]byte(outcome.AccessToken), key)
	if err != nil {
		return nil, err
	}

	var encryptedRefresh string
	if outcome.RefreshToken != "" {
		encryptedRefresh, err = utils.Encrypt([]byte(outcome.RefreshToken), key)
		if err != nil {
			return nil, err
		}
	}

	if err := o.cr.UpdateTokens(ctx, current.ID, encryptedAccess, encryptedRefresh, outcome.ExpiresAt); err != nil {
		return nil, err
	}

	plain.AccessToken = outcome.AccessToken
	if outcome.RefreshToken != "" {
		plain.RefreshToken = outcome.RefreshToken
	}
	plain.ExpiresAt = outcome.ExpiresAt
	return plain, nil
}

func (o *Orchestrator) failPermanently(ctx context.Context, post *models.Post, providerName, reason string) error {
	if err := o.pr.MarkFailed(ctx, post.ID); err != nil {
		return err
	}
	o.recordAttempt(ctx, post, providerName, models.AttemptOutcomePermanentFailure, reason)
	return nil
}

func (o *Orchestrator) recordAttempt(ctx context.Context, post *models.Post, providerName, outcome, message string) {
	attempt := models.PublishAttempt{
		UserID:       post.UserID,
		PostID:       post.ID,
		Provider:     providerName,
		Outcome:      outcome,
		ErrorMessage: message,
	}
	if _, err := o.pa.Create(ctx, &attempt); err != nil {
		slog.Info("failed to record publish attempt", "post_id", post.ID, "provider", providerName, "error", err.Error())
	}
}

func (o *Orchestrator) decryptCredential(c *models.SocialCredential) (*models.SocialCredential, error) {
	key := []byte(o.cfg.SecretKey)
	plain := *c

	accessToken, err := utils.Decrypt(c.AccessToken, key)
	if err != nil {
		return nil, err
	}
	plain.AccessToken = accessToken

	if c.RefreshToken != "" {
		refreshToken, err := utils.Decrypt(c.RefreshToken, key)
		if err != nil {
			return nil, err
		}
		plain.RefreshToken = refreshToken
	}

	return &plain, nil
}

func expiringSoon(expiresAt time.Time) bool {
	if expiresAt.IsZero() {
		return false
	}
	return time.Now().Add(RefreshMargin).After(expiresAt)
}

type credLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (l *credLocks) get(id int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[int64]*sync.Mutex)
	}
	if _, ok := l.locks[id]; !ok {
		l.locks[id] = &sync.Mutex{}
	}
	return l.locks[id]
}
