// Package lyra provides the Go client for the Lyra assistant backend.
//
// The client owns exactly one authenticated session at a time. All
// bearer-authenticated calls go through the auth manager, which attaches the
// access token and transparently refreshes it once on a 401 before retrying
// the original request.
package lyra

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
)

const defaultBaseURL = "http://localhost:8000"

// Client is the main entry point for the SDK.
type Client struct {
	// Auth owns the session and the authenticated request path.
	Auth *AuthManager

	// Chat sends conversation turns to the assistant.
	Chat *ChatService

	// Profile reads and writes the onboarding profile.
	Profile *ProfileService

	// Internal
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	store      CredentialStore
	onExpired  func()
}

// New creates a new client. The base URL is taken from LYRA_BASE_URL when
// not set explicitly via WithBaseURL.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: newDefaultHTTPClient(),
		logger:     slog.Default(),
	}
	if url := os.Getenv("LYRA_BASE_URL"); url != "" {
		c.baseURL = url
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	c.Auth = newAuthManager(c)
	c.Chat = &ChatService{client: c}
	c.Profile = &ProfileService{client: c}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
