package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/sarthakganguly/social-media-aggregator/configs"
	"github.com/sarthakganguly/social-media-aggregator/internal/models"
	"github.com/sarthakganguly/social-media-aggregator/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLinkedinTestAdapter(serverURL string) *LinkedinAdapter {
	a := NewLinkedinAdapter(config.Config{})
	a.BaseURL = serverURL
	return a
}

func linkedinCredential() *models.SocialCredential {
	return &models.SocialCredential{
		UserID:            1,
		Provider:          ProviderLinkedin,
		ProviderAccountID: "urn:li:person:abc123",
		AccessToken:       "plain-token",
	}
}

func TestLinkedinPublishSendsShareRequest(t *testing.T) {
	var captured transfer.LinkedinShareRequest
	var gotAuth, gotRestli string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/ugcPosts", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotRestli = r.Header.Get("X-Restli-Protocol-Version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	adapter := newLinkedinTestAdapter(server.URL)
	outcome := adapter.Publish(context.Background(), linkedinCredential(), "Hello world")

	assert.Equal(t, OutcomeSuccess, outcome.Status)
	assert.Equal(t, "Bearer plain-token", gotAuth)
	assert.Equal(t, "2.0.0", gotRestli)
	assert.Equal(t, "urn:li:person:abc123", captured.Author)
	assert.Equal(t, "PUBLISHED", captured.LifecycleState)
	assert.Equal(t, "Hello world", captured.SpecificContent.ShareContent.ShareCommentary.Text)
	assert.Equal(t, "NONE", captured.SpecificContent.ShareContent.ShareMediaCategory)
}

func TestLinkedinPublishOutcomeMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   OutcomeStatus
	}{
		{"created", http.StatusCreated, OutcomeSuccess},
		{"rate limited", http.StatusTooManyRequests, OutcomeRetryableFailure},
		{"server error", http.StatusBadGateway, OutcomeRetryableFailure},
		{"unauthorized", http.StatusUnauthorized, OutcomePermanentFailure},
		{"unprocessable", http.StatusUnprocessableEntity, OutcomePermanentFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			adapter := newLinkedinTestAdapter(server.URL)
			outcome := adapter.Publish(context.Background(), linkedinCredential(), "Hello")
			assert.Equal(t, tt.want, outcome.Status)
		})
	}
}

func TestLinkedinPublishNetworkErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // force a connection error

	adapter := newLinkedinTestAdapter(server.URL)
	outcome := adapter.Publish(context.Background(), linkedinCredential(), "Hello")
	assert.Equal(t, OutcomeRetryableFailure, outcome.Status)
}

func TestLinkedinDoesNotSupportRefresh(t *testing.T) {
	adapter := NewLinkedinAdapter(config.Config{})
	assert.False(t, adapter.SupportsRefresh())

	outcome := adapter.Refresh(context.Background(), linkedinCredential())
	assert.False(t, outcome.Refreshed)
}
