package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	config "github.com/sarthakganguly/social-media-aggregator/configs"
	"github.com/sarthakganguly/social-media-aggregator/internal/models"
	"github.com/sarthakganguly/social-media-aggregator/internal/provider"
	"github.com/sarthakganguly/social-media-aggregator/internal/repository"
	"github.com/sarthakganguly/social-media-aggregator/internal/transfer"
	"github.com/sarthakganguly/social-media-aggregator/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	linkedinUserInfoURL = "https://api.linkedin.com/v2/userinfo"
	twitterUserInfoURL  = "https://api.twitter.com/2/users/me"
)

var linkedinEndpoint = oauth2.Endpoint{
	AuthURL:  "https://www.linkedin.com/oauth/v2/authorization",
	TokenURL: "https://www.linkedin.com/oauth/v2/accessToken",
}

var twitterEndpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// PlatformService drives the OAuth connect flow that produces credential
// rows. The background orchestrator only ever reads (and refreshes) the
// credentials this service writes.
type PlatformService interface {
	GetAuthURL(ctx context.Context, platform, state, verifier string) (string, error)
	ConnectCallback(ctx context.Context, platform, code, verifier string, userID int64) error
	List(ctx context.Context, userID int64) ([]*models.SocialCredential, error)
	Disconnect(ctx context.Context, userID int64, platform string) error
}

type platformService struct {
	cfg config.Config
	cr  repository.CredentialRepository
}

func NewPlatformService(cfg config.Config, cr repository.CredentialRepository) PlatformService {
	return &platformService{
		cfg: cfg,
		cr:  cr,
	}
}

func (s *platformService) oauthConfig(platform string) (*oauth2.Config, error) {
	switch platform {
	case provider.ProviderLinkedin:
		return &oauth2.Config{
			ClientID:     s.cfg.LinkedIn.ClientID,
			ClientSecret: s.cfg.LinkedIn.ClientSecret,
			RedirectURL:  s.cfg.LinkedIn.RedirectURI,
			Scopes:       []string{"openid", "profile", "email", "w_member_social"},
			Endpoint:     linkedinEndpoint,
		}, nil
	case provider.ProviderTwitter:
		return &oauth2.Config{
			ClientID:     s.cfg.Twitter.ClientID,
			ClientSecret: s.cfg.Twitter.ClientSecret,
			RedirectURL:  s.cfg.Twitter.RedirectURI,
			Scopes:       []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
			Endpoint:     twitterEndpoint,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}
}

func (s *platformService) GetAuthURL(ctx context.Context, platform, state, verifier string) (string, error) {
	conf, err := s.oauthConfig(platform)
	if err != nil {
		return "", err
	}

	// Twitter requires PKCE; LinkedIn uses the plain code flow.
	if platform == provider.ProviderTwitter {
		return conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
	}
	return conf.AuthCodeURL(state), nil
}

// ConnectCallback exchanges the authorization code, resolves the external
// account identity, and upserts the credential. Linking an external
// account already owned by another user fails with ErrConflict.
func (s *platformService) ConnectCallback(ctx context.Context, platform, code, verifier string, userID int64) error {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return err
	}

	conf, err := s.oauthConfig(platform)
	if err != nil {
		return err
	}

	var opts []oauth2.AuthCodeOption
	if platform == provider.ProviderTwitter {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	token, err := conf.Exchange(ctx, code, opts...)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	accountID, accountName, err := s.fetchAccountIdentity(ctx, platform, token.AccessToken)
	if err != nil {
		return err
	}

	key := []byte(s.cfg.SecretKey)
	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), key)
	if err != nil {
		return err
	}

	var encryptedRefreshToken string
	if token.RefreshToken != "" {
		encryptedRefreshToken, err = utils.Encrypt([]byte(token.RefreshToken), key)
		if err != nil {
			return err
		}
	}

	cred := models.SocialCredential{
		UserID:            userID,
		Provider:          platform,
		ProviderAccountID: accountID,
		AccountName:       accountName,
		AccessToken:       encryptedAccessToken,
		RefreshToken:      encryptedRefreshToken,
		ExpiresAt:         token.Expiry,
	}

	if _, err := s.cr.Upsert(ctx, &cred); err != nil {
		return err
	}

	return nil
}

func (s *platformService) fetchAccountIdentity(ctx context.Context, platform, accessToken string) (string, string, error) {
	switch platform {
	case provider.ProviderLinkedin:
		var info transfer.LinkedinUserInfo
		if err := getJSON(ctx, linkedinUserInfoURL, accessToken, &info); err != nil {
			return "", "", err
		}
		if info.Sub == "" {
			return "", "", errors.New("LinkedIn profile is missing the sub identifier")
		}
		// The ugcPosts API wants the author as a member URN.
		return fmt.Sprintf("urn:li:person:%s", info.Sub), info.Name, nil

	case provider.ProviderTwitter:
		var info transfer.TwitterUserResponse
		if err := getJSON(ctx, twitterUserInfoURL, accessToken, &info); err != nil {
			return "", "", err
		}
		if info.Data.ID == "" {
			return "", "", errors.New("Twitter profile is missing the account id")
		}
		return info.Data.ID, info.Data.Username, nil

	default:
		return "", "", fmt.Errorf("unsupported platform %q", platform)
	}
}

func getJSON(ctx context.Context, url, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("profile endpoint returned non-200 status", "url", url, "status", resp.StatusCode)
		return fmt.Errorf("profile request failed with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (s *platformService) List(ctx context.Context, userID int64) ([]*models.SocialCredential, error) {
	if userID == 0 {
		err := errors.New("UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	return s.cr.ListByUserID(ctx, userID)
}

func (s *platformService) Disconnect(ctx context.Context, userID int64, platform string) error {
	if userID == 0 {
		err := errors.New("UserID is not valid")
		slog.Info(err.Error())
		return err
	}

	return s.cr.Delete(ctx, userID, platform)
}
