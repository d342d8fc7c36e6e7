package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/studyhub/portal/internal/auth"
)

const (
	defaultTimeout    = 5 * time.Second
	expiryLeeway      = 10 * time.Second
	refreshCookieLife = 400 * 24 * time.Hour
)

// ErrRejected is returned when the provider refuses a token.
var ErrRejected = errors.New("token rejected by identity provider")

// Config configures the identity provider client.
type Config struct {
	BaseURL       string
	PublicKey     string
	AccessCookie  string
	RefreshCookie string
	SecureCookies bool
	HTTPClient    *http.Client
}

// Session is the outcome of resolving a request's cookies. Cookies holds
// rotated session cookies that must be written to the response.
type Session struct {
	Identity *auth.Identity
	Cookies  []*http.Cookie
}

// Client talks to the hosted identity provider.
type Client struct {
	baseURL       string
	publicKey     string
	accessCookie  string
	refreshCookie string
	secure        bool
	httpClient    *http.Client
	now           func() time.Time
}

// NewClient creates an identity provider client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("identity client requires base URL")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parsing identity base URL: %w", err)
	}
	if cfg.AccessCookie == "" || cfg.RefreshCookie == "" {
		return nil, errors.New("identity client requires cookie names")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL:       base,
		publicKey:     cfg.PublicKey,
		accessCookie:  cfg.AccessCookie,
		refreshCookie: cfg.RefreshCookie,
		secure:        cfg.SecureCookies,
		httpClient:    httpClient,
		now:           time.Now,
	}, nil
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenPayload struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	User         userPayload `json:"user"`
}

// Resolve turns the session cookies on r into an identity. A request without
// session cookies resolves to an empty session and no error.
func (c *Client) Resolve(ctx context.Context, r *http.Request) (*Session, error) {
	access := cookieValue(r, c.accessCookie)
	refresh := cookieValue(r, c.refreshCookie)

	if access != "" && !c.expired(access) {
		id, err := c.user(ctx, access)
		if err == nil {
			return &Session{Identity: id}, nil
		}
		if !errors.Is(err, ErrRejected) {
			return &Session{}, err
		}
	}

	if refresh == "" {
		return &Session{}, nil
	}

	tokens, err := c.refresh(ctx, refresh)
	if err != nil {
		if errors.Is(err, ErrRejected) {
			return &Session{Cookies: c.clearCookies()}, nil
		}
		return &Session{}, err
	}

	id, err := toIdentity(tokens.User)
	if err != nil {
		return &Session{}, err
	}
	return &Session{Identity: id, Cookies: c.sessionCookies(tokens)}, nil
}

// expired inspects the exp claim without verifying the signature; the
// provider remains the authority on validity.
func (c *Client) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(c.now().Add(expiryLeeway))
}

func (c *Client) user(ctx context.Context, access string) (*auth.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("building user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+access)

	var payload userPayload
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return toIdentity(payload)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*tokenPayload, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("encoding refresh request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/v1/token?grant_type=refresh_token", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var payload tokenPayload
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("refreshing session: %w", err)
	}
	if payload.AccessToken == "" || payload.RefreshToken == "" {
		return nil, errors.New("refresh response missing tokens")
	}
	return &payload, nil
}

func (c *Client) do(req *http.Request, out any) error {
	if c.publicKey != "" {
		req.Header.Set("apikey", c.publicKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusBadRequest:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrRejected
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding provider response: %w", err)
	}
	return nil
}

func toIdentity(p userPayload) (*auth.Identity, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, fmt.Errorf("provider returned invalid user id %q: %w", p.ID, err)
	}
	return &auth.Identity{ID: id, Email: p.Email}, nil
}

func cookieValue(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(ck.Value)
}
