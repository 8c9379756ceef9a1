// Package spotify drives the Spotify Web API playback endpoint on behalf of
// a user who signed in through the authorization code flow.
package spotify

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
)

const (
	DefaultAPIBase = "https://api.spotify.com"
	maxErrorBody   = 4 << 10
)

var Scopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Tokens are the values kept in the user's cookies.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

type Client struct {
	oauth      *oauth2.Config
	apiBase    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

// WithEndpoint overrides the accounts service (authorize and token URLs).
func WithEndpoint(e oauth2.Endpoint) Option {
	return func(c *Client) { c.oauth.Endpoint = e }
}

func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = strings.TrimRight(base, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       Scopes,
			Endpoint:     endpoints.Spotify,
		},
		apiBase:    DefaultAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With("component", "spotify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewState returns a random value for the OAuth state parameter.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("exchange code: empty code")
	}
	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

// Play starts the playlist on the user's active device. When the access
// token is rejected and a refresh token is present, it refreshes once and
// retries; the new token is returned so the caller can persist it.
func (c *Client) Play(ctx context.Context, tokens Tokens, playlistID string) (*oauth2.Token, error) {
	if tokens.AccessToken == "" && tokens.RefreshToken == "" {
		return nil, domain.ErrSpotifyNotAuthenticated.WithMessage("Not authorized with Spotify")
	}
	playlistID = strings.TrimSpace(playlistID)
	if playlistID == "" {
		return nil, domain.ErrBadRequest.WithMessage("Missing playlistId")
	}

	status, body, err := c.play(ctx, tokens.AccessToken, playlistID)
	if err != nil {
		return nil, domain.ErrSpotifyPlaybackFailed.WithError(err)
	}

	var refreshed *oauth2.Token
	if status == http.StatusUnauthorized && tokens.RefreshToken != "" {
		refreshed, err = c.refresh(ctx, tokens.RefreshToken)
		if err != nil {
			c.logger.Warn("token refresh failed", "error", err)
			return nil, domain.ErrSpotifyNotAuthenticated.WithError(err)
		}
		status, body, err = c.play(ctx, refreshed.AccessToken, playlistID)
		if err != nil {
			return refreshed, domain.ErrSpotifyPlaybackFailed.WithError(err)
		}
	}

	return refreshed, playbackError(status, body)
}

func (c *Client) play(ctx context.Context, accessToken, playlistID string) (int, string, error) {
	payload, err := json.Marshal(map[string]string{
		"context_uri": "spotify:playlist:" + playlistID,
	})
	if err != nil {
		return 0, "", fmt.Errorf("marshal play request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.apiBase+"/v1/me/player/play", bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("create play request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("send play request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return resp.StatusCode, string(body), nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	expired := &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)}
	tok, err := c.oauth.TokenSource(c.oauthContext(ctx), expired).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return tok, nil
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func playbackError(status int, body string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return domain.ErrSpotifyNoDevice
	case status == http.StatusForbidden:
		return domain.ErrSpotifyPremiumRequired
	case status == http.StatusUnauthorized:
		return domain.ErrSpotifyNotAuthenticated
	default:
		return domain.ErrSpotifyPlaybackFailed.WithError(fmt.Errorf("status %d: %s", status, strings.TrimSpace(body)))
	}
}
