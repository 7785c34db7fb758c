package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sarthakganguly/social-media-aggregator/internal/models"
	"github.com/sarthakganguly/social-media-aggregator/internal/orchestrator"
	"github.com/sarthakganguly/social-media-aggregator/internal/repository"
)

// TokenRefreshJob proactively refreshes credentials that expire soon, so
// scheduled publishes rarely hit the in-task refresh path. It shares the
// orchestrator's serialized refresh so a concurrent publish task and this
// job never race on the same row.
type TokenRefreshJob struct {
	cr   repository.CredentialRepository
	orch *orchestrator.Orchestrator
}

func NewTokenRefreshJob(cr repository.CredentialRepository, orch *orchestrator.Orchestrator) *TokenRefreshJob {
	return &TokenRefreshJob{cr: cr, orch: orch}
}

func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	credentials, err := j.cr.ListExpiring(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, cred := range credentials {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(cred *models.SocialCredential) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := j.orch.RefreshStoredCredential(ctx, cred); err != nil {
				slog.Info("unable to refresh credential", "provider", cred.Provider, "user_id", cred.UserID)
			}
		}(cred)
	}

	wg.Wait()
}
