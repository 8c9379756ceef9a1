package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"

	"github.com/saturnino-fabrica-de-software/facemood/internal/audit"
	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
	"github.com/saturnino-fabrica-de-software/facemood/internal/spotify"
)

const (
	spotifyStateCookie   = "spotify_auth_state"
	spotifyAccessCookie  = "spotify_access_token"
	spotifyRefreshCookie = "spotify_refresh_token"
)

// SpotifyClient is satisfied by *spotify.Client.
type SpotifyClient interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Play(ctx context.Context, tokens spotify.Tokens, playlistID string) (*oauth2.Token, error)
}

type SpotifyHandler struct {
	client       SpotifyClient
	secureCookie bool
	audit        audit.Logger
	logger       *slog.Logger
}

func NewSpotifyHandler(client SpotifyClient, secureCookie bool, auditLogger audit.Logger, logger *slog.Logger) *SpotifyHandler {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &SpotifyHandler{
		client:       client,
		secureCookie: secureCookie,
		audit:        auditLogger,
		logger:       logger,
	}
}

// Login GET /api/spotify/login
func (h *SpotifyHandler) Login(c *fiber.Ctx) error {
	state, err := spotify.NewState()
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}
	h.setCookie(c, spotifyStateCookie, state, 10*time.Minute)
	return c.Redirect(h.client.AuthURL(state), fiber.StatusFound)
}

// Callback GET /api/spotify/callback
func (h *SpotifyHandler) Callback(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" || state != c.Cookies(spotifyStateCookie) {
		return domain.ErrSpotifyStateMismatch
	}

	tok, err := h.client.Exchange(c.UserContext(), c.Query("code"))
	if err != nil {
		h.logger.Warn("spotify authorization failed", "error", err)
		return domain.ErrInternal.WithMessage("Spotify authorization failed").WithError(err)
	}

	h.setCookie(c, spotifyAccessCookie, tok.AccessToken, 0)
	if tok.RefreshToken != "" {
		h.setCookie(c, spotifyRefreshCookie, tok.RefreshToken, 0)
	}
	h.setCookie(c, spotifyStateCookie, "", -1)

	return c.Redirect("/", fiber.StatusFound)
}

type PlayRequest struct {
	PlaylistID string `json:"playlistId"`
}

// Play POST /api/spotify/play
func (h *SpotifyHandler) Play(c *fiber.Ctx) error {
	var req PlayRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithMessage("Missing playlistId")
	}

	tokens := spotify.Tokens{
		AccessToken:  c.Cookies(spotifyAccessCookie),
		RefreshToken: c.Cookies(spotifyRefreshCookie),
	}

	refreshed, err := h.client.Play(c.UserContext(), tokens, req.PlaylistID)
	if refreshed != nil {
		h.setCookie(c, spotifyAccessCookie, refreshed.AccessToken, 0)
	}

	event := audit.Event{
		EventType: audit.EventSpotifyPlayback,
		Subject:   req.PlaylistID,
		Success:   err == nil,
		IPAddress: c.IP(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	_ = h.audit.Log(c.UserContext(), event)

	if err != nil {
		return err
	}
	return c.JSON(SuccessResponse{Success: true})
}

// setCookie writes an HttpOnly, SameSite=Lax cookie. A zero maxAge makes a
// session cookie; a negative one deletes it.
func (h *SpotifyHandler) setCookie(c *fiber.Ctx, name, value string, maxAge time.Duration) {
	cookie := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	switch {
	case maxAge < 0:
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	case maxAge > 0:
		cookie.MaxAge = int(maxAge.Seconds())
	}
	c.Cookie(cookie)
}
