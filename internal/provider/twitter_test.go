package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/sarthakganguly/social-media-aggregator/configs"
	"github.com/sarthakganguly/social-media-aggregator/internal/models"
	"github.com/sarthakganguly/social-media-aggregator/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTwitterTestAdapter(serverURL string) *TwitterAdapter {
	a := NewTwitterAdapter(config.Config{
		Twitter: config.OAuthClient{ClientID: "client-id", ClientSecret: "client-secret"},
	})
	a.BaseURL = serverURL
	return a
}

func twitterCredential() *models.SocialCredential {
	return &models.SocialCredential{
		UserID:            1,
		Provider:          ProviderTwitter,
		ProviderAccountID: "12345",
		AccessToken:       "plain-token",
		RefreshToken:      "plain-refresh",
	}
}

func TestTwitterPublishSendsTweet(t *testing.T) {
	var captured transfer.TweetRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/2/tweets", r.URL.Path)
		require.Equal(t, "Bearer plain-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(transfer.TweetResponse{Data: transfer.TweetData{ID: "1"}})
	}))
	defer server.Close()

	adapter := newTwitterTestAdapter(server.URL)
	outcome := adapter.Publish(context.Background(), twitterCredential(), "Hello world")

	assert.Equal(t, OutcomeSuccess, outcome.Status)
	assert.Equal(t, "Hello world", captured.Text)
}

func TestTwitterPublishOutcomeMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   OutcomeStatus
	}{
		{"rate limited", http.StatusTooManyRequests, OutcomeRetryableFailure},
		{"server error", http.StatusInternalServerError, OutcomeRetryableFailure},
		{"forbidden", http.StatusForbidden, OutcomePermanentFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			adapter := newTwitterTestAdapter(server.URL)
			outcome := adapter.Publish(context.Background(), twitterCredential(), "Hello")
			assert.Equal(t, tt.want, outcome.Status)
		})
	}
}

func TestTwitterRefreshExchangesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/oauth2/token", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "plain-refresh", r.PostForm.Get("refresh_token"))

		json.NewEncoder(w).Encode(transfer.TwitterTokenResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    7200,
		})
	}))
	defer server.Close()

	adapter := newTwitterTestAdapter(server.URL)
	outcome := adapter.Refresh(context.Background(), twitterCredential())

	require.True(t, outcome.Refreshed)
	assert.Equal(t, "new-access", outcome.AccessToken)
	assert.Equal(t, "new-refresh", outcome.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), outcome.ExpiresAt, time.Minute)
}

func TestTwitterRefreshRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	adapter := newTwitterTestAdapter(server.URL)
	outcome := adapter.Refresh(context.Background(), twitterCredential())

	assert.False(t, outcome.Refreshed)
	assert.NotEmpty(t, outcome.Reason)
}

func TestTwitterSupportsRefresh(t *testing.T) {
	adapter := NewTwitterAdapter(config.Config{})
	assert.True(t, adapter.SupportsRefresh())
}
