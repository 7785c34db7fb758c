package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	config "github.com/sarthakganguly/social-media-aggregator/configs"
	"github.com/sarthakganguly/social-media-aggregator/internal/models"
	"github.com/sarthakganguly/social-media-aggregator/internal/transfer"
)

const (
	ProviderLinkedin = "linkedin"

	linkedinAPIBaseURL = "https://api.linkedin.com"
)

// LinkedinAdapter publishes text shares through the ugcPosts API.
// LinkedIn access tokens for this flow cannot be refreshed; an expired
// credential requires the user to reconnect.
type LinkedinAdapter struct {
	cfg     config.Config
	BaseURL string
	Client  *http.Client
}

func NewLinkedinAdapter(cfg config.Config) *LinkedinAdapter {
	return &LinkedinAdapter{
		cfg:     cfg,
		BaseURL: linkedinAPIBaseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *LinkedinAdapter) Name() string {
	return ProviderLinkedin
}

func (a *LinkedinAdapter) SupportsRefresh() bool {
	return false
}

func (a *LinkedinAdapter) Publish(ctx context.Context, cred *models.SocialCredential, content string) PublishOutcome {
	share := transfer.LinkedinShareRequest{
		Author:         cred.ProviderAccountID,
		LifecycleState: "PUBLISHED",
		SpecificContent: transfer.LinkedinSpecificContent{
			ShareContent: transfer.LinkedinShareContent{
				ShareCommentary:    transfer.LinkedinShareCommentary{Text: content},
				ShareMediaCategory: "NONE",
			},
		},
		Visibility: transfer.LinkedinVisibility{MemberNetworkVisibility: "PUBLIC"},
	}

	jsonData, err := json.Marshal(share)
	if err != nil {
		slog.Info(err.Error())
		return Permanent("failed to encode share request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/v2/ugcPosts", bytes.NewBuffer(jsonData))
	if err != nil {
		slog.Info(err.Error())
		return Permanent("failed to build share request")
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	req.Header.Set("LinkedIn-Version", "202309")

	resp, err := a.Client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return Retryable("network error calling LinkedIn")
	}
	defer resp.Body.Close()

	return ClassifyStatus(resp.StatusCode)
}

func (a *LinkedinAdapter) Refresh(ctx context.Context, cred *models.SocialCredential) RefreshOutcome {
	return RefreshOutcome{Reason: "linkedin tokens cannot be refreshed"}
}
