package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sarthakganguly/social-media-aggregator/internal/models"
)

type OutcomeStatus string

const (
	OutcomeSuccess          OutcomeStatus = "success"
	OutcomeRetryableFailure OutcomeStatus = "retryable_failure"
	OutcomePermanentFailure OutcomeStatus = "permanent_failure"
)

// PublishOutcome classifies one publish attempt against a platform.
type PublishOutcome struct {
	Status OutcomeStatus
	Reason string
}

// RefreshOutcome carries the new token set after a successful refresh.
// Refreshed is false when the provider rejected the refresh token; the
// user must reconnect manually.
type RefreshOutcome struct {
	Refreshed    bool
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Reason       string
}

// Adapter translates between the orchestrator's generic publish call and
// one platform's wire protocol. Adapters hold no mutable state and never
// touch storage; credentials arrive with plaintext tokens.
type Adapter interface {
	Name() string
	SupportsRefresh() bool
	Publish(ctx context.Context, cred *models.SocialCredential, content string) PublishOutcome
	Refresh(ctx context.Context, cred *models.SocialCredential) RefreshOutcome
}

func Success() PublishOutcome {
	return PublishOutcome{Status: OutcomeSuccess}
}

func Retryable(reason string) PublishOutcome {
	return PublishOutcome{Status: OutcomeRetryableFailure, Reason: reason}
}

func Permanent(reason string) PublishOutcome {
	return PublishOutcome{Status: OutcomePermanentFailure, Reason: reason}
}

// ClassifyStatus maps an HTTP response code to the outcome taxonomy:
// 2xx success, 429 and 5xx retryable, any other 4xx permanent.
func ClassifyStatus(code int) PublishOutcome {
	switch {
	case code >= 200 && code < 300:
		return Success()
	case code == http.StatusTooManyRequests || code >= 500:
		return Retryable(fmt.Sprintf("platform returned status %d", code))
	default:
		return Permanent(fmt.Sprintf("platform returned status %d", code))
	}
}

// Registry resolves a provider name to its adapter once, at task
// construction time. Adding a provider means registering one adapter.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
