package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/sarthakganguly/social-media-aggregator/configs"
	"github.com/sarthakganguly/social-media-aggregator/internal/repository"
	"github.com/sarthakganguly/social-media-aggregator/internal/service"
	"golang.org/x/oauth2"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthVerifierCookie = "oauth_verifier"
)

type PlatformHandler struct {
	s   service.PlatformService
	cfg config.Config
}

func NewPlatformHandler(service service.PlatformService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{s: service, cfg: cfg}
}

// ConnectAccount starts the OAuth flow for one platform. The state and
// PKCE verifier are pinned in short-lived cookies for the callback.
func (h *PlatformHandler) ConnectAccount(c *fiber.Ctx) error {
	platform := c.Params("platform")

	state, err := gonanoid.New()
	if err != nil {
		slog.Error(err.Error())
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	verifier := oauth2.GenerateVerifier()

	authURL, err := h.s.GetAuthURL(c.Context(), platform, state, verifier)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.setFlowCookie(c, oauthStateCookie, state)
	h.setFlowCookie(c, oauthVerifierCookie, verifier)

	return c.Redirect(authURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")
	code := c.Query("code")
	state := c.Query("state")

	if state == "" || state != c.Cookies(oauthStateCookie) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid OAuth state",
		})
	}
	verifier := c.Cookies(oauthVerifierCookie)

	err := h.s.ConnectCallback(c.Context(), platform, code, verifier, userID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "This account is already linked to another user",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to connect account",
		})
	}

	return c.Redirect(h.cfg.FrontendURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list connected accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *PlatformHandler) DisconnectAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Query("platform")

	err := h.s.Disconnect(c.Context(), userID, platform)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No connected account for this platform",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to disconnect account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PlatformHandler) setFlowCookie(c *fiber.Ctx, name, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Expires:  time.Now().Add(10 * time.Minute),
	})
}
