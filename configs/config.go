package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type OAuthClient struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type Config struct {
	LinkedIn OAuthClient
	Twitter  OAuthClient

	PostgresURI string
	RedisURI    string
	FrontendURL string

	SecretKey  string
	CookieName string

	// Publish retry policy. Attempts include the first try.
	PublishMaxAttempts int
	PublishRetryDelay  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		LinkedIn: OAuthClient{
			ClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
			ClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("LINKEDIN_REDIRECT_URI", ""),
		},
		Twitter: OAuthClient{
			ClientID:     getEnv("TWITTER_CLIENT_ID", ""),
			ClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("TWITTER_REDIRECT_URI", ""),
		},
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", ""),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		SecretKey:          getEnv("SECRET_KEY", ""),
		CookieName:         getEnv("COOKIE_NAME", "session"),
		PublishMaxAttempts: getEnvInt("PUBLISH_MAX_ATTEMPTS", 3),
		PublishRetryDelay:  time.Duration(getEnvInt("PUBLISH_RETRY_DELAY_SECONDS", 300)) * time.Second,
	}
}

// Validate fails fast at startup; missing provider or store settings are
// configuration errors, not runtime conditions.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"LINKEDIN_CLIENT_ID", c.LinkedIn.ClientID},
		{"LINKEDIN_CLIENT_SECRET", c.LinkedIn.ClientSecret},
		{"LINKEDIN_REDIRECT_URI", c.LinkedIn.RedirectURI},
		{"TWITTER_CLIENT_ID", c.Twitter.ClientID},
		{"TWITTER_CLIENT_SECRET", c.Twitter.ClientSecret},
		{"TWITTER_REDIRECT_URI", c.Twitter.RedirectURI},
		{"POSTGRES_URI", c.PostgresURI},
		{"REDIS_URI", c.RedisURI},
		{"SECRET_KEY", c.SecretKey},
	}

	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing required configuration: %s", r.key)
		}
	}

	if c.PublishMaxAttempts < 1 {
		return fmt.Errorf("PUBLISH_MAX_ATTEMPTS must be at least 1")
	}
	if c.PublishRetryDelay <= 0 {
		return fmt.Errorf("PUBLISH_RETRY_DELAY_SECONDS must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
