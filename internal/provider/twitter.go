package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/sarthakganguly/social-media-aggregator/configs"
	"github.com/sarthakganguly/social-media-aggregator/internal/models"
	"github.com/sarthakganguly/social-media-aggregator/internal/transfer"
)

const (
	ProviderTwitter = "twitter"

	twitterAPIBaseURL = "https://api.twitter.com"
)

// TwitterAdapter publishes tweets through the v2 API. Twitter issues
// short-lived access tokens (about two hours) with rotating refresh
// tokens, so the refresh path matters here.
type TwitterAdapter struct {
	cfg     config.Config
	BaseURL string
	Client  *http.Client
}

func NewTwitterAdapter(cfg config.Config) *TwitterAdapter {
	return &TwitterAdapter{
		cfg:     cfg,
		BaseURL: twitterAPIBaseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *TwitterAdapter) Name() string {
	return ProviderTwitter
}

func (a *TwitterAdapter) SupportsRefresh() bool {
	return true
}

func (a *TwitterAdapter) Publish(ctx context.Context, cred *models.SocialCredential, content string) PublishOutcome {
	jsonData, err := json.Marshal(transfer.TweetRequest{Text: content})
	if err != nil {
		slog.Info(err.Error())
		return Permanent("failed to encode tweet request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/2/tweets", bytes.NewBuffer(jsonData))
	if err != nil {
		slog.Info(err.Error())
		return Permanent("failed to build tweet request")
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return Retryable("network error calling Twitter")
	}
	defer resp.Body.Close()

	return ClassifyStatus(resp.StatusCode)
}

func (a *TwitterAdapter) Refresh(ctx context.Context, cred *models.SocialCredential) RefreshOutcome {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", cred.RefreshToken)
	data.Set("client_id", a.cfg.Twitter.ClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/2/oauth2/token", strings.NewReader(data.Encode()))
	if err != nil {
		slog.Info(err.Error())
		return RefreshOutcome{Reason: "failed to build refresh request"}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(a.cfg.Twitter.ClientID, a.cfg.Twitter.ClientSecret)

	resp, err := a.Client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return RefreshOutcome{Reason: "network error refreshing Twitter token"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("twitter token refresh rejected", "status", resp.StatusCode)
		return RefreshOutcome{Reason: "Twitter refused to refresh the token"}
	}

	var tokenResponse transfer.TwitterTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return RefreshOutcome{Reason: "failed to decode refresh response"}
	}

	return RefreshOutcome{
		Refreshed:    true,
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tokenResponse.ExpiresIn) * time.Second),
	}
}
