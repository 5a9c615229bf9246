package lyra

import (
	"log/slog"
	"net/http"
	"time"
)

// Option is a function that configures a Client.
type Option func(*Client)

// WithBaseURL sets the backend base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithCredentialStore sets the store used to persist the token pair across
// restarts. Without a store the session is memory-only.
func WithCredentialStore(s CredentialStore) Option {
	return func(c *Client) {
		c.store = s
	}
}

// WithSessionExpiredHandler registers a callback fired when a token refresh
// fails and the session is cleared. UIs typically redirect to the login
// screen here.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *Client) {
		c.onExpired = fn
	}
}
